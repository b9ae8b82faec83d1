package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for working and cached files.
type Paths struct {
	TempDir           string `toml:"temp_dir"`
	PrerenderCacheDir string `toml:"prerender_cache_dir"`
	ProxyDir          string `toml:"proxy_dir"`
	ThumbnailDir      string `toml:"thumbnail_dir"`
	LogDir            string `toml:"log_dir"`
	StateDir          string `toml:"state_dir"`
}

// Tools names the external media binaries.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Export contains timeline export tuning.
type Export struct {
	DefaultFPS          float64 `toml:"default_fps"`
	MaxSpeed            float64 `toml:"max_speed"`
	MinOutputBytes      int64   `toml:"min_output_bytes"`
	DurationTolerance   float64 `toml:"duration_tolerance"`
	GapTolerance        float64 `toml:"gap_tolerance"`
	SinglePassGaps      string  `toml:"single_pass_gaps"`
	Preset              string  `toml:"preset"`
	AudioBitrate        string  `toml:"audio_bitrate"`
	AudioSampleRate     int     `toml:"audio_sample_rate"`
	ValidateConcurrency int     `toml:"validate_concurrency"`
	MinFreeGiB          int     `toml:"min_free_gib"`
	StaleWorkspaceHours int     `toml:"stale_workspace_hours"`
}

// Prerender contains settings for cached playback segments.
type Prerender struct {
	Preset string `toml:"preset"`
	CRF    int    `toml:"crf"`
}

// Import contains settings for media import (thumbnails and proxies).
type Import struct {
	Extensions  []string `toml:"extensions"`
	ProxyHeight int      `toml:"proxy_height"`
	ProxyMaxFPS float64  `toml:"proxy_max_fps"`
	ProxyCRF    int      `toml:"proxy_crf"`
	Concurrency int      `toml:"concurrency"`
	Proxies     bool     `toml:"proxies"`
	Thumbnails  bool     `toml:"thumbnails"`
}

// API contains the local HTTP API settings.
type API struct {
	Bind           string   `toml:"bind"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for cutline.
//
// Configuration sections by subsystem:
//   - Paths: working, cache and state directories
//   - Tools: ffmpeg/ffprobe binaries
//   - Export: timeline export tuning and validation thresholds
//   - Prerender: cached playback segment encoding
//   - Import: thumbnail/proxy generation for imported media
//   - API: local HTTP API bind address and CORS origins
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Tools     Tools     `toml:"tools"`
	Export    Export    `toml:"export"`
	Prerender Prerender `toml:"prerender"`
	Import    Import    `toml:"import"`
	API       API       `toml:"api"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cutline/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadEnvFile(filepath.Join(filepath.Dir(resolvedPath), ".env")); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadEnvFile applies KEY=value pairs from an optional .env file without
// overriding variables already present in the environment.
func loadEnvFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if info.IsDir() {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/cutline/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cutline.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the working, cache and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.TempDir,
		c.Paths.PrerenderCacheDir,
		c.Paths.ProxyDir,
		c.Paths.ThumbnailDir,
		c.Paths.LogDir,
		c.Paths.StateDir,
	} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for transcoding.
func (c *Config) FFmpegBinary() string {
	if c == nil || strings.TrimSpace(c.Tools.FFmpeg) == "" {
		return defaultFFmpeg
	}
	return c.Tools.FFmpeg
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if c == nil || strings.TrimSpace(c.Tools.FFprobe) == "" {
		return defaultFFprobe
	}
	return c.Tools.FFprobe
}

// HistoryPath returns the location of the export history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultTempDir() string {
	return filepath.Join(os.TempDir(), "cutline")
}

func defaultCacheDir(name string) string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "cutline", name)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/cutline/" + name
	}
	return filepath.Join(home, ".cache", "cutline", name)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
