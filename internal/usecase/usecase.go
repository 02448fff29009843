package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/forPelevin/clipfeed/internal/domain/highlights"
	"github.com/forPelevin/clipfeed/internal/ports"
	"github.com/forPelevin/clipfeed/internal/services"
	"github.com/forPelevin/clipfeed/internal/types"
)

const (
	DefaultMaxClips = 5
	DefaultPlatform = "youtube"

	MinClipSeconds = 15
	MaxClipSeconds = 60

	StrategyAI               = "ai"
	StrategyTimelineEmpty    = "timeline-empty"
	StrategyTimelineFallback = "timeline-fallback"

	runLogTimeout     = 15 * time.Second
	transcriptExcerpt = 500
)

type TranscriptSource interface {
	Acquire(ctx context.Context, videoID, videoURL string) []types.TranscriptSegment
}

type HighlightSelector interface {
	Select(ctx context.Context, meta types.VideoMetadata, transcript []types.TranscriptSegment) (types.VideoAnalysis, error)
}

type Deps struct {
	Metadata    ports.MetadataSource
	Transcripts TranscriptSource
	Highlights  HighlightSelector
	Renderer    ports.Renderer
	Publishers  []ports.Publisher
	RunLog      ports.RunLogger
	Notifier    ports.Notifier
	ResolveID   func(string) string
	NewRunID    func() string
	Now         func() time.Time
	Logger      zerolog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.ResolveID == nil {
		d.ResolveID = strings.TrimSpace
	}
	if d.NewRunID == nil {
		d.NewRunID = uuid.NewString
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return Usecase{d: d}
}

type Input struct {
	VideoURLOrID  string
	UploadEnabled bool
	Platforms     []string
	WatermarkPath string
	MaxClips      int
	Timeline      highlights.TimelineParams
	OutDir        string
	// KeepArtifacts leaves rendered files that were not uploaded on disk.
	KeepArtifacts bool
}

// Analysis is the selection half of a run, without rendering.
type Analysis struct {
	Metadata   types.VideoMetadata
	Transcript []types.TranscriptSegment
	Analysis   types.VideoAnalysis
	Strategy   string
}

// Analyze fetches metadata, acquires a transcript and selects clips.
// Only a metadata failure is returned as an error.
func (u Usecase) Analyze(ctx context.Context, videoURLOrID string, timeline highlights.TimelineParams) (Analysis, error) {
	logger := u.logger(ctx)
	videoID := u.d.ResolveID(videoURLOrID)
	if videoID == "" {
		return Analysis{}, services.Wrap(services.ErrFatalMetadata, "metadata", "resolve", "empty video id", nil)
	}
	logger = logger.With().Str("video_id", videoID).Logger()

	logger.Info().Str("stage", "metadata").Msg("fetching video metadata")
	meta, err := u.d.Metadata.FetchMetadata(services.WithStage(ctx, "metadata"), videoID)
	if err != nil {
		return Analysis{}, services.Wrap(services.ErrFatalMetadata, "metadata", "fetch", videoID, err)
	}
	if meta.ID == "" {
		meta.ID = videoID
	}
	logger.Info().Str("stage", "metadata").Str("title", meta.Title).Float64("duration", meta.Duration).Msg("metadata fetched")

	var transcript []types.TranscriptSegment
	if u.d.Transcripts != nil {
		transcript = u.d.Transcripts.Acquire(services.WithStage(ctx, "transcript"), meta.ID, meta.URL)
	}
	logger.Info().Str("stage", "transcript").Int("segments", len(transcript)).Msg("transcript step done")

	analysis, strategy := u.selectClips(ctx, logger, meta, transcript, timeline)
	logger.Info().Str("stage", "select").Str("strategy", strategy).Int("clips", len(analysis.Clips)).Msg("clips selected")

	return Analysis{Metadata: meta, Transcript: transcript, Analysis: analysis, Strategy: strategy}, nil
}

// Run executes the full pipeline for one video. The only error path is a
// metadata failure; every later failure degrades the report instead.
func (u Usecase) Run(ctx context.Context, in Input) (types.RunReport, error) {
	runID, ok := services.RunIDFromContext(ctx)
	if !ok {
		runID = u.d.NewRunID()
		ctx = services.WithRunID(ctx, runID)
	}
	started := u.d.Now()
	logger := u.logger(ctx)

	maxClips := in.MaxClips
	if maxClips <= 0 {
		maxClips = DefaultMaxClips
	}

	a, err := u.Analyze(ctx, in.VideoURLOrID, in.Timeline)
	if err != nil {
		logger.Error().Str("stage", "metadata").Err(err).Msg("run aborted")
		return types.RunReport{}, err
	}
	meta := a.Metadata
	logger = logger.With().Str("video_id", meta.ID).Logger()

	clips := a.Analysis.Clips
	if len(clips) > maxClips {
		clips = clips[:maxClips]
	}

	processed, cleanups := u.renderClips(ctx, logger, in, meta, a.Analysis, clips, a.Transcript)

	uploads := map[string]*platformTally{}
	if in.UploadEnabled {
		uploads = u.uploadClips(ctx, logger, in, processed, cleanups)
	}

	report := types.RunReport{
		RunID:               runID,
		VideoID:             meta.ID,
		Success:             true,
		Strategy:            a.Strategy,
		TotalClipsRequested: len(clips),
		ClipsProcessed:      len(processed),
		Clips:               processed,
		StartedAt:           started,
	}
	for _, c := range processed {
		if c.Uploaded {
			report.ClipsUploaded++
		}
	}
	report.FinishedAt = u.d.Now()

	logger.Info().
		Str("stage", "summary").
		Str("strategy", report.Strategy).
		Int("requested", report.TotalClipsRequested).
		Int("processed", report.ClipsProcessed).
		Int("uploaded", report.ClipsUploaded).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("run finished")

	u.appendRunLog(ctx, logger, buildRunLogRow(report, meta, a, in, uploads))
	u.notify(ctx, logger, meta, report)

	if in.UploadEnabled && !in.KeepArtifacts {
		for i, c := range processed {
			if !c.Uploaded && cleanups[i] != nil {
				cleanups[i]()
			}
		}
	}
	return report, nil
}

func (u Usecase) selectClips(ctx context.Context, logger zerolog.Logger, meta types.VideoMetadata, transcript []types.TranscriptSegment, timeline highlights.TimelineParams) (types.VideoAnalysis, string) {
	if len(transcript) == 0 {
		return highlights.TimelineAnalysis(meta, timeline), StrategyTimelineEmpty
	}
	if u.d.Highlights == nil {
		logger.Warn().Str("stage", "select").Msg("no highlight selector configured, using timeline")
		return highlights.TimelineAnalysis(meta, timeline), StrategyTimelineFallback
	}
	analysis, err := u.d.Highlights.Select(services.WithStage(ctx, "select"), meta, transcript)
	switch {
	case err != nil:
		logger.Warn().Str("stage", "select").Err(err).Msg("AI selection failed, falling back to timeline")
	case len(analysis.Clips) == 0:
		logger.Warn().Str("stage", "select").Msg("AI selection returned no clips, falling back to timeline")
	default:
		return analysis, StrategyAI
	}
	return highlights.TimelineAnalysis(meta, timeline), StrategyTimelineFallback
}

func (u Usecase) renderClips(
	ctx context.Context,
	logger zerolog.Logger,
	in Input,
	meta types.VideoMetadata,
	analysis types.VideoAnalysis,
	clips []types.ClipCandidate,
	transcript []types.TranscriptSegment,
) ([]types.ProcessedClip, []func()) {
	hashtags := analysis.Hashtags
	if len(hashtags) == 0 {
		hashtags = []string{"#viral", "#shorts", "#trending"}
	}

	var (
		out      []types.ProcessedClip
		cleanups []func()
	)
	for i, c := range clips {
		n := i + 1
		clipLog := logger.With().Str("stage", "render").Int("clip", n).Logger()
		if err := ctx.Err(); err != nil {
			clipLog.Warn().Err(err).Msg("render cancelled")
			break
		}

		start := math.Max(c.Start, 0)
		duration := ClampDuration(c.End - c.Start)
		title := analysis.Title
		if title == "" {
			title = fmt.Sprintf("Clip %d: %s", n, c.Reason)
		}

		clipLog.Info().Float64("start", start).Float64("duration", duration).Msg("rendering clip")
		res, err := u.d.Renderer.RenderClip(services.WithStage(ctx, "render"), ports.RenderRequest{
			SourceURL:  meta.URL,
			VideoID:    meta.ID,
			ClipNumber: n,
			Start:      start,
			Duration:   duration,
			OutDir:     in.OutDir,
			Overlay: ports.Overlay{
				Title:         title,
				Subtitle:      analysis.Subtitle,
				WatermarkPath: in.WatermarkPath,
				Captions:      transcript,
			},
		})
		if err != nil {
			clipLog.Error().Err(services.Wrap(services.ErrRender, "render", "clip", fmt.Sprintf("clip %d", n), err)).Msg("clip skipped")
			continue
		}

		out = append(out, types.ProcessedClip{
			ClipNumber: n,
			Start:      start,
			End:        start + duration,
			Duration:   duration,
			VideoPath:  res.Path,
			Title:      title,
			Subtitle:   analysis.Subtitle,
			Reason:     c.Reason,
			Hashtags:   append([]string(nil), hashtags...),
		})
		cleanups = append(cleanups, res.Cleanup)
		clipLog.Info().Str("path", res.Path).Msg("clip rendered")
	}
	return out, cleanups
}

type platformTally struct {
	attempted int
	uploaded  int
}

func (u Usecase) uploadClips(ctx context.Context, logger zerolog.Logger, in Input, clips []types.ProcessedClip, cleanups []func()) map[string]*platformTally {
	platforms := in.Platforms
	if len(platforms) == 0 {
		platforms = []string{DefaultPlatform}
	}
	byName := make(map[string]ports.Publisher, len(u.d.Publishers))
	for _, p := range u.d.Publishers {
		byName[p.Platform()] = p
	}

	tally := make(map[string]*platformTally, len(platforms))
	for _, name := range platforms {
		tally[name] = &platformTally{}
	}

	for i := range clips {
		c := &clips[i]
		var errs []string
		for _, name := range platforms {
			clipLog := logger.With().Str("stage", "upload").Int("clip", c.ClipNumber).Str("platform", name).Logger()
			tally[name].attempted++

			pub, ok := byName[name]
			if !ok {
				errs = append(errs, fmt.Sprintf("%s: no publisher configured", name))
				clipLog.Error().Msg("no publisher configured")
				continue
			}
			res, err := pub.Publish(services.WithStage(ctx, "upload"), ports.PublishRequest{
				FilePath: c.VideoPath,
				Title:    c.Title,
				Caption:  caption(*c),
				Hashtags: c.Hashtags,
			})
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
				clipLog.Error().Err(services.Wrap(services.ErrUpload, "upload", name, "", err)).Msg("upload failed")
				continue
			}
			tally[name].uploaded++
			if !c.Uploaded {
				c.Uploaded = true
				c.PlatformPostID = res.PostID
				c.PlatformPostURL = res.PostURL
			}
			clipLog.Info().Str("post_id", res.PostID).Str("url", res.PostURL).Msg("clip uploaded")
		}
		c.UploadError = strings.Join(errs, "; ")
		if c.Uploaded && cleanups[i] != nil {
			cleanups[i]()
			cleanups[i] = nil
		}
	}
	return tally
}

func caption(c types.ProcessedClip) string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(c.Subtitle); s != "" {
		parts = append(parts, s)
	}
	if r := strings.TrimSpace(c.Reason); r != "" {
		parts = append(parts, r)
	}
	return strings.Join(parts, "\n\n")
}

// ClampDuration bounds a requested clip length to [15, 60] seconds.
func ClampDuration(d float64) float64 {
	if math.IsNaN(d) || d < MinClipSeconds {
		return MinClipSeconds
	}
	if d > MaxClipSeconds {
		return MaxClipSeconds
	}
	return d
}

func (u Usecase) appendRunLog(ctx context.Context, logger zerolog.Logger, row types.RunLogRow) {
	if u.d.RunLog == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), runLogTimeout)
	defer cancel()
	if err := u.d.RunLog.AppendRunLog(ctx, row); err != nil {
		logger.Warn().Str("stage", "runlog").Err(services.Wrap(services.ErrLogging, "runlog", "append", "", err)).Msg("run log append failed")
	}
}

func (u Usecase) notify(ctx context.Context, logger zerolog.Logger, meta types.VideoMetadata, report types.RunReport) {
	if u.d.Notifier == nil {
		return
	}
	if err := u.d.Notifier.NotifyRunFinished(context.WithoutCancel(ctx), meta, report); err != nil {
		logger.Warn().Str("stage", "notify").Err(err).Msg("notification failed")
	}
}

func (u Usecase) logger(ctx context.Context) zerolog.Logger {
	l := u.d.Logger.With().Str("component", "pipeline").Logger()
	if id, ok := services.RunIDFromContext(ctx); ok {
		l = l.With().Str("run_id", id).Logger()
	}
	return l
}

func buildRunLogRow(report types.RunReport, meta types.VideoMetadata, a Analysis, in Input, uploads map[string]*platformTally) types.RunLogRow {
	row := types.RunLogRow{
		RunID:            report.RunID,
		VideoID:          meta.ID,
		VideoURL:         meta.URL,
		DurationMS:       int64(meta.Duration * 1000),
		Title:            a.Analysis.Title,
		Transcript:       excerpt(a.Transcript, transcriptExcerpt),
		ViralReason:      a.Analysis.Reason,
		RelatedTopic:     strings.Join(a.Analysis.Hashtags, " "),
		GeneratedCaption: a.Analysis.Subtitle,
		Strategy:         report.Strategy,
		ClipsRequested:   report.TotalClipsRequested,
		ClipsProcessed:   report.ClipsProcessed,
		ClipsUploaded:    report.ClipsUploaded,
		UploadStatus:     map[string]string{},
		CreatedAt:        report.FinishedAt,
	}
	if len(a.Analysis.Clips) > 0 {
		row.ViralScore = a.Analysis.Clips[0].TrendScore
	}

	platforms := in.Platforms
	if len(platforms) == 0 {
		platforms = []string{DefaultPlatform}
	}
	for _, p := range platforms {
		row.UploadStatus[p] = uploadStatus(in.UploadEnabled, report.ClipsProcessed, uploads[p])
	}
	return row
}

func uploadStatus(enabled bool, processed int, t *platformTally) string {
	switch {
	case !enabled:
		return "skipped"
	case processed == 0 || t == nil || t.attempted == 0:
		return "pending"
	case t.uploaded == 0:
		return "failed"
	default:
		return fmt.Sprintf("uploaded %d/%d", t.uploaded, t.attempted)
	}
}

func excerpt(segs []types.TranscriptSegment, n int) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		parts = append(parts, strings.TrimSpace(s.Text))
	}
	r := []rune(strings.Join(parts, " "))
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
