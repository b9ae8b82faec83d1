package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeExport()
	c.normalizePrerender()
	c.normalizeImport()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("CUTLINE_TEMP_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.TempDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = defaultTempDir()
	}
	if strings.TrimSpace(c.Paths.PrerenderCacheDir) == "" {
		c.Paths.PrerenderCacheDir = defaultCacheDir("prerender")
	}
	if strings.TrimSpace(c.Paths.ProxyDir) == "" {
		c.Paths.ProxyDir = defaultCacheDir("proxies")
	}
	if strings.TrimSpace(c.Paths.ThumbnailDir) == "" {
		c.Paths.ThumbnailDir = defaultCacheDir("thumbnails")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}

	var err error
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if c.Paths.PrerenderCacheDir, err = expandPath(c.Paths.PrerenderCacheDir); err != nil {
		return fmt.Errorf("paths.prerender_cache_dir: %w", err)
	}
	if c.Paths.ProxyDir, err = expandPath(c.Paths.ProxyDir); err != nil {
		return fmt.Errorf("paths.proxy_dir: %w", err)
	}
	if c.Paths.ThumbnailDir, err = expandPath(c.Paths.ThumbnailDir); err != nil {
		return fmt.Errorf("paths.thumbnail_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	if value, ok := os.LookupEnv("CUTLINE_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.Tools.FFmpeg = value
	}
	if value, ok := os.LookupEnv("CUTLINE_FFPROBE"); ok && strings.TrimSpace(value) != "" {
		c.Tools.FFprobe = value
	}
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpeg
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobe
	}
}

func (c *Config) normalizeExport() {
	if c.Export.DefaultFPS <= 0 {
		c.Export.DefaultFPS = defaultExportFPS
	}
	if c.Export.MaxSpeed <= 0 {
		c.Export.MaxSpeed = defaultMaxSpeed
	}
	if c.Export.MinOutputBytes <= 0 {
		c.Export.MinOutputBytes = defaultMinOutputBytes
	}
	if c.Export.DurationTolerance <= 0 {
		c.Export.DurationTolerance = defaultDurationTolerance
	}
	if c.Export.GapTolerance <= 0 {
		c.Export.GapTolerance = defaultGapTolerance
	}
	c.Export.SinglePassGaps = strings.ToLower(strings.TrimSpace(c.Export.SinglePassGaps))
	if c.Export.SinglePassGaps == "" {
		c.Export.SinglePassGaps = defaultSinglePassGaps
	}
	c.Export.Preset = strings.TrimSpace(c.Export.Preset)
	if c.Export.Preset == "" {
		c.Export.Preset = defaultExportPreset
	}
	c.Export.AudioBitrate = strings.TrimSpace(c.Export.AudioBitrate)
	if c.Export.AudioBitrate == "" {
		c.Export.AudioBitrate = defaultAudioBitrate
	}
	if c.Export.AudioSampleRate <= 0 {
		c.Export.AudioSampleRate = defaultAudioSampleRate
	}
	if c.Export.ValidateConcurrency <= 0 {
		c.Export.ValidateConcurrency = defaultValidateConcurrency
	}
	if c.Export.MinFreeGiB < 0 {
		c.Export.MinFreeGiB = 0
	}
	if c.Export.StaleWorkspaceHours <= 0 {
		c.Export.StaleWorkspaceHours = defaultStaleWorkspaceHours
	}
}

func (c *Config) normalizePrerender() {
	c.Prerender.Preset = strings.TrimSpace(c.Prerender.Preset)
	if c.Prerender.Preset == "" {
		c.Prerender.Preset = defaultPrerenderPreset
	}
	if c.Prerender.CRF <= 0 {
		c.Prerender.CRF = defaultPrerenderCRF
	}
}

func (c *Config) normalizeImport() {
	if len(c.Import.Extensions) == 0 {
		c.Import.Extensions = append([]string(nil), defaultImportExtensions...)
	} else {
		exts := make([]string, 0, len(c.Import.Extensions))
		seen := make(map[string]struct{}, len(c.Import.Extensions))
		for _, ext := range c.Import.Extensions {
			normalized := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
			if normalized == "" {
				continue
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			exts = append(exts, normalized)
		}
		if len(exts) == 0 {
			exts = append(exts, defaultImportExtensions...)
		}
		c.Import.Extensions = exts
	}
	if c.Import.ProxyHeight <= 0 {
		c.Import.ProxyHeight = defaultProxyHeight
	}
	if c.Import.ProxyMaxFPS <= 0 {
		c.Import.ProxyMaxFPS = defaultProxyMaxFPS
	}
	if c.Import.ProxyCRF <= 0 {
		c.Import.ProxyCRF = defaultProxyCRF
	}
	if c.Import.Concurrency <= 0 {
		c.Import.Concurrency = defaultImportConcurrency
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	origins := c.API.AllowedOrigins[:0]
	for _, origin := range c.API.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.API.AllowedOrigins = origins
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
