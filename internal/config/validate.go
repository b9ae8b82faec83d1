package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validatePrerender(); err != nil {
		return err
	}
	if err := c.validateImport(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		return errors.New("paths.temp_dir must be set")
	}
	if strings.TrimSpace(c.Paths.PrerenderCacheDir) == "" {
		return errors.New("paths.prerender_cache_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateExport() error {
	switch c.Export.SinglePassGaps {
	case GapPolicyDrop, GapPolicyFallback, GapPolicyError:
	default:
		return fmt.Errorf("export.single_pass_gaps must be one of %q, %q or %q (got %q)",
			GapPolicyDrop, GapPolicyFallback, GapPolicyError, c.Export.SinglePassGaps)
	}
	if c.Export.DefaultFPS > 240 {
		return errors.New("export.default_fps must be at most 240")
	}
	if c.Export.MaxSpeed > 1000 {
		return errors.New("export.max_speed must be at most 1000")
	}
	if c.Export.AudioSampleRate < 8000 {
		return errors.New("export.audio_sample_rate must be at least 8000")
	}
	return nil
}

func (c *Config) validatePrerender() error {
	if c.Prerender.CRF > 51 {
		return errors.New("prerender.crf must be between 1 and 51")
	}
	return nil
}

func (c *Config) validateImport() error {
	if c.Import.ProxyCRF > 51 {
		return errors.New("import.proxy_crf must be between 1 and 51")
	}
	if c.Import.ProxyHeight%2 != 0 {
		return errors.New("import.proxy_height must be even")
	}
	return nil
}
