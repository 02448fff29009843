package highlights

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/forPelevin/clipfeed/internal/ports"
	"github.com/forPelevin/clipfeed/internal/services"
	"github.com/forPelevin/clipfeed/internal/types"
)

// Selector picks clip windows for a video, by AI scoring when a transcript
// exists and by timeline spacing otherwise.
type Selector struct {
	scorer   ports.HighlightScorer
	budget   int
	timeline TimelineParams
	logger   zerolog.Logger
}

func NewSelector(scorer ports.HighlightScorer, budget int, timeline TimelineParams, logger zerolog.Logger) *Selector {
	if budget <= 0 {
		budget = DefaultPromptBudget
	}
	return &Selector{
		scorer:   scorer,
		budget:   budget,
		timeline: timeline.withDefaults(),
		logger:   logger.With().Str("component", "highlights").Logger(),
	}
}

// Select returns an error only when AI scoring was attempted and failed.
// A successful response with zero clips is returned as-is.
func (s *Selector) Select(ctx context.Context, meta types.VideoMetadata, transcript []types.TranscriptSegment) (types.VideoAnalysis, error) {
	if len(transcript) == 0 {
		s.logger.Info().Str("video_id", meta.ID).Msg("no transcript, using timeline selection")
		return TimelineAnalysis(meta, s.timeline), nil
	}
	if s.scorer == nil {
		return types.VideoAnalysis{}, services.Wrap(services.ErrGeneration, "highlights", "score", "no scorer configured", nil)
	}

	prompt := BuildPrompt(meta, transcript, s.budget)
	s.logger.Debug().Str("video_id", meta.ID).Int("segments", len(transcript)).Int("prompt_chars", len(prompt)).Msg("scoring highlights")

	raw, err := s.scorer.ScoreHighlights(ctx, SystemPrompt, prompt)
	if err != nil {
		return types.VideoAnalysis{}, services.Wrap(services.ErrGeneration, "highlights", "score", "", err)
	}
	parsed, err := Parse(raw)
	if err != nil {
		return types.VideoAnalysis{}, err
	}
	analysis := Normalize(parsed)
	s.logger.Info().Str("video_id", meta.ID).Int("clips", len(analysis.Clips)).Msg("highlights scored")
	return analysis, nil
}
