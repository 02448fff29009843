package highlights

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/forPelevin/clipfeed/internal/services"
	"github.com/forPelevin/clipfeed/internal/types"
)

type fakeScorer struct {
	resp   string
	err    error
	calls  int
	system string
	user   string
}

func (f *fakeScorer) ScoreHighlights(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.system, f.user = system, user
	return f.resp, f.err
}

var sampleTranscript = []types.TranscriptSegment{{Text: "wow look at that", Start: 12, Duration: 3}}

func TestSelectorEmptyTranscriptUsesTimeline(t *testing.T) {
	scorer := &fakeScorer{}
	s := NewSelector(scorer, 0, TimelineParams{}, zerolog.Nop())
	got, err := s.Select(context.Background(), types.VideoMetadata{Duration: 600}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scorer.calls != 0 {
		t.Fatal("scorer must not be called without a transcript")
	}
	if len(got.Clips) != 5 || got.Reason != placeholderReason {
		t.Fatalf("unexpected analysis: %+v", got)
	}
}

func TestSelectorScoresAndNormalizes(t *testing.T) {
	scorer := &fakeScorer{resp: "```json\n{\"title\":\"wow\",\"clips\":[{\"start\":\"00:10\",\"end\":\"00:30\",\"trend_score\":6},{\"startSeconds\":40,\"endSeconds\":60,\"trend_score\":9}]}\n```"}
	s := NewSelector(scorer, 0, TimelineParams{}, zerolog.Nop())
	got, err := s.Select(context.Background(), types.VideoMetadata{ID: "abc", Title: "T"}, sampleTranscript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scorer.system != SystemPrompt {
		t.Fatal("system prompt not passed")
	}
	if got.Title != "WOW" || len(got.Clips) != 2 || got.Clips[0].Start != 40 || got.Clips[1].Start != 10 {
		t.Fatalf("unexpected analysis: %+v", got)
	}
}

func TestSelectorZeroClipsReturnedAsIs(t *testing.T) {
	s := NewSelector(&fakeScorer{resp: `{"clips":[]}`}, 0, TimelineParams{}, zerolog.Nop())
	got, err := s.Select(context.Background(), types.VideoMetadata{}, sampleTranscript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Clips) != 0 {
		t.Fatalf("expected zero clips, got %+v", got.Clips)
	}
}

func TestSelectorErrors(t *testing.T) {
	tests := []struct {
		name   string
		scorer *fakeScorer
	}{
		{"transport", &fakeScorer{err: errors.New("status 502")}},
		{"garbage", &fakeScorer{resp: "no json here"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSelector(tt.scorer, 0, TimelineParams{}, zerolog.Nop())
			_, err := s.Select(context.Background(), types.VideoMetadata{}, sampleTranscript)
			if !errors.Is(err, services.ErrGeneration) {
				t.Fatalf("expected generation error, got %v", err)
			}
		})
	}
}
