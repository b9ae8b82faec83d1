package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cutline/internal/config"
	"cutline/internal/devices"
	"cutline/internal/export"
	"cutline/internal/history"
	"cutline/internal/logging"
	"cutline/internal/media/ffprobe"
	"cutline/internal/mediaimport"
	"cutline/internal/prerender"
	"cutline/internal/transcode"
)

// commandContext resolves configuration once and builds engine components on
// first use so that cheap commands never open the history database.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	storeOnce sync.Once
	store     *history.Store
	storeErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.configValue())
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) historyStore() (*history.Store, error) {
	c.storeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.storeErr = err
			return
		}
		store, err := history.Open(cfg)
		if err != nil {
			c.storeErr = fmt.Errorf("open history: %w", err)
			return
		}
		c.store = store
	})
	return c.store, c.storeErr
}

func (c *commandContext) prober() ffprobe.Prober {
	return ffprobe.Prober{Binary: c.configValue().FFprobeBinary()}
}

func (c *commandContext) runner() transcode.Runner {
	return transcode.NewFFmpegRunner(c.configValue().FFmpegBinary(), c.loggerValue())
}

func (c *commandContext) exporter() (*export.Exporter, error) {
	store, err := c.historyStore()
	if err != nil {
		return nil, err
	}
	return export.New(c.configValue(), c.runner(), c.prober(), c.loggerValue(), export.WithHistory(store)), nil
}

func (c *commandContext) renderer() (*prerender.Renderer, error) {
	store, err := c.historyStore()
	if err != nil {
		return nil, err
	}
	return prerender.New(c.configValue(), c.runner(), c.prober(), c.loggerValue(), prerender.WithHistory(store)), nil
}

func (c *commandContext) importer() *mediaimport.Importer {
	return mediaimport.New(c.configValue(), c.runner(), c.prober(), c.loggerValue())
}

func (c *commandContext) devices() devices.Enumerator {
	return devices.New(c.loggerValue())
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if current.Annotations != nil && current.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
