package config

const (
	defaultConfigPath            = "~/.config/clipfeed/config.toml"
	defaultWorkDir               = "~/.local/share/clipfeed/work"
	defaultOutDir                = "~/.local/share/clipfeed/out"
	defaultLLMBaseURL            = "https://openrouter.ai"
	defaultLLMModel              = "openai/gpt-4o-mini"
	defaultLLMReferer            = "https://github.com/forPelevin/clipfeed"
	defaultLLMTitle              = "clipfeed"
	defaultLLMTimeoutSeconds     = 60
	defaultPromptBudget          = 8000
	defaultCaptionTimeoutSeconds = 10
	defaultCaptionBaseURL        = "https://www.youtube.com/api/timedtext"
	defaultSTTProvider           = STTWhisperCpp
	defaultWhisperBin            = "whisper-cli"
	defaultWhisperModel          = "models/ggml-base.en.bin"
	defaultOpenAIBaseURL         = "https://api.openai.com/v1"
	defaultRenderWidth           = 1080
	defaultRenderHeight          = 1920
	defaultMaxClips              = 5
	defaultClipDuration          = 30
	defaultTimelineClips         = 5
	defaultYouTubeUploadURL      = "https://www.googleapis.com/upload/youtube/v3/videos"
	defaultPrivacyStatus         = "public"
	defaultRunLogDriver          = RunLogSQLite
	defaultRunLogDSN             = "~/.local/share/clipfeed/runlog.db"
	defaultServerBind            = "127.0.0.1:3000"
	defaultMaxConcurrentRuns     = 2
	defaultRetainedReports       = 50
	defaultNotifyTimeout         = 10
	defaultLogLevel              = "info"
	defaultLogFormat             = "console"
)

const (
	STTWhisperCpp = "whispercpp"
	STTAPI        = "api"

	RunLogSQLite   = "sqlite"
	RunLogPostgres = "postgres"

	PlatformYouTube = "youtube"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			OutDir:  defaultOutDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			PromptBudget:   defaultPromptBudget,
		},
		Transcript: Transcript{
			Languages:             []string{"en", "en-US", "en-GB", "auto"},
			CaptionTimeoutSeconds: defaultCaptionTimeoutSeconds,
			CaptionBaseURL:        defaultCaptionBaseURL,
			STTProvider:           defaultSTTProvider,
			WhisperBin:            defaultWhisperBin,
			WhisperModel:          defaultWhisperModel,
			OpenAIBaseURL:         defaultOpenAIBaseURL,
			Language:              "en",
		},
		Render: Render{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
			YtDlp:   "yt-dlp",
			Width:   defaultRenderWidth,
			Height:  defaultRenderHeight,
		},
		Pipeline: Pipeline{
			MaxClips:      defaultMaxClips,
			ClipDuration:  defaultClipDuration,
			TimelineClips: defaultTimelineClips,
			Platforms:     []string{PlatformYouTube},
			KeepArtifacts: true,
		},
		Publish: Publish{
			YouTubeUploadURL: defaultYouTubeUploadURL,
			PrivacyStatus:    defaultPrivacyStatus,
		},
		RunLog: RunLog{
			Driver: defaultRunLogDriver,
			DSN:    defaultRunLogDSN,
		},
		Server: Server{
			Bind:              defaultServerBind,
			MaxConcurrentRuns: defaultMaxConcurrentRuns,
			RetainedReports:   defaultRetainedReports,
		},
		Notify: Notify{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
