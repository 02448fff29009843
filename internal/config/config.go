package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains working and output directories.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	OutDir  string `toml:"out_dir"`
}

// LLM contains the highlight scorer connection settings.
type LLM struct {
	APIKey         string   `toml:"api_key"`
	BaseURL        string   `toml:"base_url"`
	AllowedHosts   []string `toml:"allowed_hosts"`
	Model          string   `toml:"model"`
	Referer        string   `toml:"referer"`
	Title          string   `toml:"title"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	PromptBudget   int      `toml:"prompt_budget"`
}

// Transcript contains caption and speech-to-text settings.
type Transcript struct {
	Languages             []string `toml:"languages"`
	CaptionTimeoutSeconds int      `toml:"caption_timeout_seconds"`
	CaptionBaseURL        string   `toml:"caption_base_url"`
	STTProvider           string   `toml:"stt_provider"`
	WhisperBin            string   `toml:"whisper_bin"`
	WhisperModel          string   `toml:"whisper_model"`
	WhisperThreads        int      `toml:"whisper_threads"`
	OpenAIAPIKey          string   `toml:"openai_api_key"`
	OpenAIBaseURL         string   `toml:"openai_base_url"`
	Language              string   `toml:"language"`
}

// Render contains the external tool paths and output geometry.
type Render struct {
	FFmpeg    string `toml:"ffmpeg"`
	FFprobe   string `toml:"ffprobe"`
	YtDlp     string `toml:"ytdlp"`
	Watermark string `toml:"watermark"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
}

// Pipeline contains per-run selection and publishing settings.
type Pipeline struct {
	MaxClips      int      `toml:"max_clips"`
	ClipDuration  float64  `toml:"clip_duration"`
	TimelineClips int      `toml:"timeline_clips"`
	Upload        bool     `toml:"upload"`
	Platforms     []string `toml:"platforms"`
	KeepArtifacts bool     `toml:"keep_artifacts"`
}

// Publish contains platform credentials.
type Publish struct {
	YouTubeAccessToken string `toml:"youtube_access_token"`
	YouTubeUploadURL   string `toml:"youtube_upload_url"`
	PrivacyStatus      string `toml:"privacy_status"`
}

// RunLog selects the run summary store. An empty driver disables it.
type RunLog struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// Server contains the HTTP intake settings.
type Server struct {
	Bind              string `toml:"bind"`
	MaxConcurrentRuns int    `toml:"max_concurrent_runs"`
	RetainedReports   int    `toml:"retained_reports"`
	// WatermarkDir limits per-request watermarks to files in this
	// directory. Empty rejects them.
	WatermarkDir      string `toml:"watermark_dir"`
}

// Notify contains ntfy settings. An empty topic disables notifications.
type Notify struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for clipfeed.
type Config struct {
	Paths      Paths      `toml:"paths"`
	LLM        LLM        `toml:"llm"`
	Transcript Transcript `toml:"transcript"`
	Render     Render     `toml:"render"`
	Pipeline   Pipeline   `toml:"pipeline"`
	Publish    Publish    `toml:"publish"`
	RunLog     RunLog     `toml:"runlog"`
	Server     Server     `toml:"server"`
	Notify     Notify     `toml:"notify"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load parses the configuration file (when present), applies environment
// overrides, and validates the result.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("clipfeed.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the work and output directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath is the single-instance lock used by the serve command.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.WorkDir, "clipfeed.lock")
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

func (c *Config) CaptionTimeout() time.Duration {
	return time.Duration(c.Transcript.CaptionTimeoutSeconds) * time.Second
}

func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notify.RequestTimeout) * time.Second
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
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
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
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
