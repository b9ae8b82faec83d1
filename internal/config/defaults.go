package config

const (
	defaultFFmpeg              = "ffmpeg"
	defaultFFprobe             = "ffprobe"
	defaultLogDir              = "~/.local/share/cutline/logs"
	defaultStateDir            = "~/.local/share/cutline"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 14
	defaultExportFPS           = 30.0
	defaultMaxSpeed            = 100.0
	defaultMinOutputBytes      = 1024
	defaultDurationTolerance   = 0.5
	defaultGapTolerance        = 0.01
	defaultSinglePassGaps      = GapPolicyDrop
	defaultExportPreset        = "medium"
	defaultAudioBitrate        = "192k"
	defaultAudioSampleRate     = 48000
	defaultValidateConcurrency = 4
	defaultMinFreeGiB          = 1
	defaultStaleWorkspaceHours = 24
	defaultPrerenderPreset     = "ultrafast"
	defaultPrerenderCRF        = 23
	defaultProxyHeight         = 540
	defaultProxyMaxFPS         = 30.0
	defaultProxyCRF            = 28
	defaultImportConcurrency   = 2
	defaultAPIBind             = "127.0.0.1:7733"
)

// Gap policies for the single-pass render strategy.
const (
	GapPolicyDrop     = "drop"
	GapPolicyFallback = "fallback"
	GapPolicyError    = "error"
)

var defaultImportExtensions = []string{"mp4", "mov", "webm", "avi", "mkv"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TempDir:           defaultTempDir(),
			PrerenderCacheDir: defaultCacheDir("prerender"),
			ProxyDir:          defaultCacheDir("proxies"),
			ThumbnailDir:      defaultCacheDir("thumbnails"),
			LogDir:            defaultLogDir,
			StateDir:          defaultStateDir,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
		},
		Export: Export{
			DefaultFPS:          defaultExportFPS,
			MaxSpeed:            defaultMaxSpeed,
			MinOutputBytes:      defaultMinOutputBytes,
			DurationTolerance:   defaultDurationTolerance,
			GapTolerance:        defaultGapTolerance,
			SinglePassGaps:      defaultSinglePassGaps,
			Preset:              defaultExportPreset,
			AudioBitrate:        defaultAudioBitrate,
			AudioSampleRate:     defaultAudioSampleRate,
			ValidateConcurrency: defaultValidateConcurrency,
			MinFreeGiB:          defaultMinFreeGiB,
			StaleWorkspaceHours: defaultStaleWorkspaceHours,
		},
		Prerender: Prerender{
			Preset: defaultPrerenderPreset,
			CRF:    defaultPrerenderCRF,
		},
		Import: Import{
			Extensions:  append([]string(nil), defaultImportExtensions...),
			ProxyHeight: defaultProxyHeight,
			ProxyMaxFPS: defaultProxyMaxFPS,
			ProxyCRF:    defaultProxyCRF,
			Concurrency: defaultImportConcurrency,
			Proxies:     true,
			Thumbnails:  true,
		},
		API: API{
			Bind:           defaultAPIBind,
			AllowedOrigins: []string{"tauri://localhost", "http://localhost:1420"},
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
