package ports

import (
	"context"

	"github.com/forPelevin/clipfeed/internal/types"
)

type MetadataSource interface {
	FetchMetadata(ctx context.Context, videoID string) (types.VideoMetadata, error)
}

// CaptionSource returns an empty slice, not an error, when a video has no
// captions in the requested language.
type CaptionSource interface {
	FetchCaptions(ctx context.Context, videoID, lang string) ([]types.TranscriptSegment, error)
}

type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoURL, dest string) error
}

// Transcriber returns SubRip formatted text.
type Transcriber interface {
	TranscribeSRT(ctx context.Context, audioPath string) (string, error)
}

type HighlightScorer interface {
	ScoreHighlights(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type Overlay struct {
	Title         string
	Subtitle      string
	WatermarkPath string
	Captions      []types.TranscriptSegment
}

type RenderRequest struct {
	SourceURL  string
	VideoID    string
	ClipNumber int
	Start      float64
	Duration   float64
	OutDir     string
	Overlay    Overlay
}

type RenderResult struct {
	Path    string
	Cleanup func()
}

type Renderer interface {
	RenderClip(ctx context.Context, req RenderRequest) (RenderResult, error)
}

type PublishRequest struct {
	FilePath string
	Title    string
	Caption  string
	Hashtags []string
}

type PublishResult struct {
	PostID  string
	PostURL string
}

type Publisher interface {
	Platform() string
	Publish(ctx context.Context, req PublishRequest) (PublishResult, error)
}

type RunLogger interface {
	AppendRunLog(ctx context.Context, row types.RunLogRow) error
}

type Notifier interface {
	NotifyRunFinished(ctx context.Context, meta types.VideoMetadata, report types.RunReport) error
}
