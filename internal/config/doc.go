// Package config loads, normalizes, and validates cutline's TOML configuration.
//
// Load resolves the config path (explicit flag, ~/.config/cutline/config.toml,
// then ./cutline.toml), applies an optional sibling .env file, decodes over
// Default(), expands every path field and finally validates. Environment
// overrides (CUTLINE_FFMPEG, CUTLINE_FFPROBE, CUTLINE_TEMP_DIR) are applied
// during normalization so they win over file values.
//
// Packages should accept *config.Config rather than re-reading files.
package config
