// Package pipeline wires configuration into concrete adapters and exposes
// the end-to-end run used by the CLI and the HTTP server.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/forPelevin/clipfeed/internal/config"
	"github.com/forPelevin/clipfeed/internal/domain/highlights"
	"github.com/forPelevin/clipfeed/internal/notifications"
	"github.com/forPelevin/clipfeed/internal/ports"
	"github.com/forPelevin/clipfeed/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/clipfeed/internal/ports/adapters/openrouter"
	"github.com/forPelevin/clipfeed/internal/ports/adapters/whisperapi"
	"github.com/forPelevin/clipfeed/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/clipfeed/internal/ports/adapters/youtube"
	"github.com/forPelevin/clipfeed/internal/ports/adapters/ytdlp"
	"github.com/forPelevin/clipfeed/internal/runlog"
	"github.com/forPelevin/clipfeed/internal/transcript"
	"github.com/forPelevin/clipfeed/internal/types"
	"github.com/forPelevin/clipfeed/internal/usecase"
)

// Request carries the per-run overrides on top of the loaded config.
type Request struct {
	VideoURLOrID  string
	Upload        bool
	MaxClips      int
	WatermarkPath string
	OutDir        string
}

type App struct {
	cfg    *config.Config
	logger zerolog.Logger
	uc     usecase.Usecase
	runLog *runlog.Store
}

func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline: nil config")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	ff := ffmpeg.New(cfg.Render.FFmpeg, cfg.Render.FFprobe, logger)
	dl := ytdlp.New(cfg.Render.YtDlp, logger)

	acq := transcript.New(transcript.Config{
		Captions:       youtube.NewCaptionClient(cfg.Transcript.CaptionBaseURL, &http.Client{}, logger),
		Audio:          &audioExtractor{download: dl, convert: ff},
		STT:            newTranscriber(cfg, logger),
		Languages:      cfg.Transcript.Languages,
		CaptionTimeout: cfg.CaptionTimeout(),
		WorkDir:        cfg.Paths.WorkDir,
		Logger:         logger,
	})

	scorer := openrouter.New(openrouter.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Referer: cfg.LLM.Referer,
		Title:   cfg.LLM.Title,
		Timeout: cfg.LLMTimeout(),
	}, logger)
	timeline := highlights.TimelineParams{
		ClipDuration: cfg.Pipeline.ClipDuration,
		TotalClips:   cfg.Pipeline.TimelineClips,
	}

	renderer := ffmpeg.NewRenderer(ff, dl, ffmpeg.RendererConfig{
		Width:         cfg.Render.Width,
		Height:        cfg.Render.Height,
		WorkDir:       cfg.Paths.WorkDir,
		WatermarkPath: cfg.Render.Watermark,
	}, logger)

	app := &App{cfg: cfg, logger: logger}
	deps := usecase.Deps{
		Metadata:    dl,
		Transcripts: acq,
		Highlights:  highlights.NewSelector(scorer, cfg.LLM.PromptBudget, timeline, logger),
		Renderer:    renderer,
		Publishers: []ports.Publisher{
			youtube.NewUploader(youtube.UploaderConfig{
				AccessToken:   cfg.Publish.YouTubeAccessToken,
				UploadURL:     cfg.Publish.YouTubeUploadURL,
				PrivacyStatus: cfg.Publish.PrivacyStatus,
			}, logger),
		},
		Notifier:  notifications.New(cfg.Notify.NtfyTopic, cfg.NotifyTimeout()),
		ResolveID: youtube.ResolveVideoID,
		Logger:    logger,
	}
	if cfg.RunLog.Driver != "" {
		app.runLog = runlog.New(runlog.Config{Driver: cfg.RunLog.Driver, DSN: cfg.RunLog.DSN}, logger)
		deps.RunLog = app.runLog
	}
	app.uc = usecase.New(deps)
	return app, nil
}

func newTranscriber(cfg *config.Config, logger zerolog.Logger) ports.Transcriber {
	switch cfg.Transcript.STTProvider {
	case config.STTWhisperCpp:
		return whispercpp.New(whispercpp.Config{
			Bin:      cfg.Transcript.WhisperBin,
			Model:    cfg.Transcript.WhisperModel,
			Threads:  cfg.Transcript.WhisperThreads,
			Language: cfg.Transcript.Language,
		}, logger)
	case config.STTAPI:
		c, err := whisperapi.New(whisperapi.Config{
			APIKey:   cfg.Transcript.OpenAIAPIKey,
			BaseURL:  cfg.Transcript.OpenAIBaseURL,
			Language: cfg.Transcript.Language,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("speech-to-text disabled")
			return nil
		}
		return c
	default:
		return nil
	}
}

// RunLog is nil when the run log is disabled.
func (a *App) RunLog() *runlog.Store { return a.runLog }

func (a *App) Config() *config.Config { return a.cfg }

func (a *App) Close() error {
	if a.runLog != nil {
		return a.runLog.Close()
	}
	return nil
}

func (a *App) Run(ctx context.Context, req Request) (types.RunReport, error) {
	outRoot := req.OutDir
	if outRoot == "" {
		outRoot = a.cfg.Paths.OutDir
	}
	runOutDir := buildRunOutDir(outRoot, youtube.ResolveVideoID(req.VideoURLOrID), time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return types.RunReport{}, fmt.Errorf("create run dir: %w", err)
	}
	a.logger.Debug().Str("dir", runOutDir).Msg("run output dir ready")

	maxClips := req.MaxClips
	if maxClips <= 0 {
		maxClips = a.cfg.Pipeline.MaxClips
	}
	report, err := a.uc.Run(ctx, usecase.Input{
		VideoURLOrID:  req.VideoURLOrID,
		UploadEnabled: req.Upload,
		Platforms:     a.cfg.Pipeline.Platforms,
		WatermarkPath: req.WatermarkPath,
		MaxClips:      maxClips,
		Timeline:      a.timeline(),
		OutDir:        runOutDir,
		KeepArtifacts: a.cfg.Pipeline.KeepArtifacts,
	})
	if err != nil {
		_ = os.Remove(runOutDir)
	}
	return report, err
}

func (a *App) Analyze(ctx context.Context, videoURLOrID string) (usecase.Analysis, error) {
	return a.uc.Analyze(ctx, videoURLOrID, a.timeline())
}

func (a *App) timeline() highlights.TimelineParams {
	return highlights.TimelineParams{
		ClipDuration: a.cfg.Pipeline.ClipDuration,
		TotalClips:   a.cfg.Pipeline.TimelineClips,
	}
}

type audioDownloader interface {
	DownloadAudio(ctx context.Context, videoURL, dest string) error
}

type audioConverter interface {
	ExtractAudioMono16k(ctx context.Context, in, outWav string) error
}

// audioExtractor downloads the best audio stream and converts it to the
// WAV format speech-to-text expects.
type audioExtractor struct {
	download audioDownloader
	convert  audioConverter
}

func (e *audioExtractor) ExtractAudio(ctx context.Context, videoURL, dest string) error {
	src := dest + ".src"
	defer os.Remove(src)
	if err := e.download.DownloadAudio(ctx, videoURL, src); err != nil {
		return err
	}
	return e.convert.ExtractAudioMono16k(ctx, src, dest)
}

func buildRunOutDir(outRoot, videoID string, now time.Time) string {
	name := normalizePathSegment(videoID)
	if name == "" {
		name = "video"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", videoID, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var (
	_ ports.MetadataSource  = (*ytdlp.Client)(nil)
	_ ports.CaptionSource   = (*youtube.CaptionClient)(nil)
	_ ports.AudioExtractor  = (*audioExtractor)(nil)
	_ ports.Transcriber     = (*whispercpp.Adapter)(nil)
	_ ports.Transcriber     = (*whisperapi.Client)(nil)
	_ ports.HighlightScorer = (*openrouter.Adapter)(nil)
	_ ports.Renderer        = (*ffmpeg.Renderer)(nil)
	_ ports.Publisher       = (*youtube.Uploader)(nil)
	_ ports.RunLogger       = (*runlog.Store)(nil)
	_ ports.Notifier        = (*notifications.Notifier)(nil)

	_ ffmpeg.SectionDownloader = (*ytdlp.Client)(nil)
)
