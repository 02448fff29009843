package highlights

import (
	"testing"

	"github.com/forPelevin/clipfeed/internal/types"
)

func TestTimeline(t *testing.T) {
	tests := []struct {
		name       string
		duration   float64
		clip       float64
		total      int
		wantStarts []float64
		wantEnd    float64
	}{
		{"ten minutes", 600, 30, 5, []float64{0, 90, 180, 270, 360}, 390},
		{"exact fit", 150, 30, 5, []float64{0}, 30},
		{"short video", 100, 30, 5, []float64{0}, 30},
		{"shorter than one clip", 20, 30, 5, []float64{0}, 20},
		{"hour long", 3600, 30, 3, []float64{0, 1170, 2340}, 2370},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Timeline(tt.duration, tt.clip, tt.total)
			if len(got) != len(tt.wantStarts) {
				t.Fatalf("got %d windows, want %d: %+v", len(got), len(tt.wantStarts), got)
			}
			for i, c := range got {
				if c.Start != tt.wantStarts[i] {
					t.Fatalf("window %d start=%v want %v", i, c.Start, tt.wantStarts[i])
				}
				if c.End > tt.duration {
					t.Fatalf("window %d ends past video: %v > %v", i, c.End, tt.duration)
				}
				if c.TrendScore != 7 || c.Emotion != types.EmotionEngagement {
					t.Fatalf("window %d missing defaults: %+v", i, c)
				}
			}
			if last := got[len(got)-1]; last.End != tt.wantEnd {
				t.Fatalf("last end=%v want %v", last.End, tt.wantEnd)
			}
		})
	}
}

func TestTimelineReason(t *testing.T) {
	got := Timeline(600, 30, 5)
	if got[1].Reason != "Clip 2 from timeline (90s - 120s)" {
		t.Fatalf("reason=%q", got[1].Reason)
	}
}

func TestTimelineInvalidInput(t *testing.T) {
	if got := Timeline(0, 30, 5); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	if got := Timeline(600, 30, 0); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestTimelineAnalysisPlaceholders(t *testing.T) {
	a := TimelineAnalysis(types.VideoMetadata{}, TimelineParams{})
	if a.Title != "Viral Moment 🔥" {
		t.Fatalf("title=%q", a.Title)
	}
	if a.Subtitle != "Highlights from this video" || a.Reason != "Top moments extracted from video timeline" {
		t.Fatalf("unexpected placeholders: %+v", a)
	}
	if len(a.Hashtags) != 3 || a.Hashtags[0] != "#viral" {
		t.Fatalf("hashtags=%v", a.Hashtags)
	}
	// Unknown duration is treated as 600 seconds.
	if len(a.Clips) != 5 || a.Clips[4].Start != 360 {
		t.Fatalf("clips=%+v", a.Clips)
	}

	named := TimelineAnalysis(types.VideoMetadata{Title: "Talk", Duration: 120}, TimelineParams{ClipDuration: 20, TotalClips: 2})
	if named.Title != "Talk" {
		t.Fatalf("title=%q", named.Title)
	}
	if len(named.Clips) != 2 || named.Clips[1].Start != 40 {
		t.Fatalf("clips=%+v", named.Clips)
	}
}
