package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/forPelevin/clipfeed/internal/ports/adapters/openrouter"
	"github.com/forPelevin/clipfeed/internal/services"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validatePaths,
		c.validateLLM,
		c.validateTranscript,
		c.validateRender,
		c.validatePipeline,
		c.validateRunLog,
		c.validateServer,
		c.validateLogging,
	} {
		if err := check(); err != nil {
			return services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
		}
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutDir) == "" {
		return errors.New("paths.out_dir must be set")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	if c.LLM.PromptBudget <= 0 {
		return errors.New("llm.prompt_budget must be positive")
	}
	return openrouter.ValidateBaseURL(c.LLM.BaseURL, c.LLM.AllowedHosts)
}

func (c *Config) validateTranscript() error {
	if len(c.Transcript.Languages) == 0 {
		return errors.New("transcript.languages must list at least one language")
	}
	if c.Transcript.CaptionTimeoutSeconds <= 0 {
		return errors.New("transcript.caption_timeout_seconds must be positive")
	}
	switch c.Transcript.STTProvider {
	case STTWhisperCpp:
		if strings.TrimSpace(c.Transcript.WhisperModel) == "" {
			return errors.New("transcript.whisper_model is required for the whispercpp provider")
		}
	case STTAPI, "":
	default:
		return fmt.Errorf("transcript.stt_provider %q is not supported (use %q or %q)", c.Transcript.STTProvider, STTWhisperCpp, STTAPI)
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return errors.New("render.width and render.height must be positive")
	}
	if c.Render.Width%2 != 0 || c.Render.Height%2 != 0 {
		return errors.New("render.width and render.height must be even")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.MaxClips <= 0 {
		return errors.New("pipeline.max_clips must be positive")
	}
	if c.Pipeline.ClipDuration <= 0 {
		return errors.New("pipeline.clip_duration must be positive")
	}
	if c.Pipeline.TimelineClips <= 0 {
		return errors.New("pipeline.timeline_clips must be positive")
	}
	for _, p := range c.Pipeline.Platforms {
		if p != PlatformYouTube {
			return fmt.Errorf("pipeline.platforms: %q has no publisher (supported: %s)", p, PlatformYouTube)
		}
	}
	if c.Pipeline.Upload && len(c.Pipeline.Platforms) == 0 {
		return errors.New("pipeline.platforms must be set when pipeline.upload is true")
	}
	return nil
}

func (c *Config) validateRunLog() error {
	switch c.RunLog.Driver {
	case "":
		return nil
	case RunLogSQLite, RunLogPostgres:
		if strings.TrimSpace(c.RunLog.DSN) == "" {
			return fmt.Errorf("runlog.dsn must be set for driver %q", c.RunLog.Driver)
		}
		return nil
	default:
		return fmt.Errorf("runlog.driver %q is not supported (use %q, %q or empty)", c.RunLog.Driver, RunLogSQLite, RunLogPostgres)
	}
}

func (c *Config) validateServer() error {
	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind must be set")
	}
	if c.Server.MaxConcurrentRuns <= 0 {
		return errors.New("server.max_concurrent_runs must be positive")
	}
	if c.Server.RetainedReports <= 0 {
		return errors.New("server.retained_reports must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format %q is not supported (use console or json)", c.Logging.Format)
	}
}
