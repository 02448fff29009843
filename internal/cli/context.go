package cli

import (
	"github.com/rs/zerolog"

	"github.com/forPelevin/clipfeed/internal/config"
	"github.com/forPelevin/clipfeed/internal/logging"
	"github.com/forPelevin/clipfeed/internal/pipeline"
)

type commandContext struct {
	configFlag string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger zerolog.Logger
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, _, _, err := config.Load(c.configFlag)
	if err != nil {
		return nil, err
	}
	level, format := cfg.Logging.Level, cfg.Logging.Format
	if c.logLevel != "" {
		level = c.logLevel
	}
	if c.logFormat != "" {
		format = c.logFormat
	}
	c.cfg = cfg
	c.logger = logging.New(logging.Options{Level: level, Format: format})
	return cfg, nil
}

func (c *commandContext) newApp() (*pipeline.App, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return pipeline.New(cfg, c.logger)
}
