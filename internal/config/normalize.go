package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.OutDir, err = expandPath(c.Paths.OutDir); err != nil {
		return fmt.Errorf("paths.out_dir: %w", err)
	}
	if c.Render.Watermark, err = expandPath(strings.TrimSpace(c.Render.Watermark)); err != nil {
		return fmt.Errorf("render.watermark: %w", err)
	}
	if dir := strings.TrimSpace(c.Server.WatermarkDir); dir != "" {
		if c.Server.WatermarkDir, err = expandPath(dir); err != nil {
			return fmt.Errorf("server.watermark_dir: %w", err)
		}
	}

	c.Transcript.STTProvider = strings.ToLower(strings.TrimSpace(c.Transcript.STTProvider))
	c.RunLog.Driver = strings.ToLower(strings.TrimSpace(c.RunLog.Driver))
	if c.RunLog.Driver == RunLogSQLite {
		if c.RunLog.DSN, err = expandPath(strings.TrimSpace(c.RunLog.DSN)); err != nil {
			return fmt.Errorf("runlog.dsn: %w", err)
		}
	}

	platforms := c.Pipeline.Platforms[:0]
	for _, p := range c.Pipeline.Platforms {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			platforms = append(platforms, p)
		}
	}
	c.Pipeline.Platforms = platforms

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	return nil
}
