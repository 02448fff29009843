package subtitles

import (
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/clipfeed/internal/types"
)

func TestRenderOverlayASS_TitleSubtitleAndCaptions(t *testing.T) {
	tr := []types.TranscriptSegment{
		{Text: "before the clip", Start: 0, Duration: 5},
		{Text: "Hello world from {inside}", Start: 10, Duration: 2},
		{Text: "after", Start: 50, Duration: 2},
	}
	ass := RenderOverlayASS(Overlay{Title: "BIG NEWS", Subtitle: "Highlights"}, 9, 30, tr)

	for _, want := range []string{
		"PlayResX: 1080",
		"PlayResY: 1920",
		"Dialogue: 1,0:00:00.00,0:00:30.00,Title,,0,0,0,,BIG NEWS",
		"Dialogue: 1,0:00:00.00,0:00:30.00,Subtitle,,0,0,0,,Highlights",
		"{\\k",
		"(inside)",
	} {
		if !strings.Contains(ass, want) {
			t.Fatalf("expected %q in ASS:\n%s", want, ass)
		}
	}
	if strings.Contains(ass, "before") || strings.Contains(ass, "after") {
		t.Fatalf("segments outside the clip window leaked:\n%s", ass)
	}
	// "Hello" starts 1s into the clip.
	if !strings.Contains(ass, "Dialogue: 0,0:00:01.00,") {
		t.Fatalf("caption not shifted to clip-local time:\n%s", ass)
	}
}

func TestRenderOverlayASS_NoCaptions(t *testing.T) {
	ass := RenderOverlayASS(Overlay{Title: "T"}, 0, 15, nil)
	if strings.Contains(ass, "Caption,,") {
		t.Fatalf("unexpected caption events:\n%s", ass)
	}
	if strings.Contains(ass, "Subtitle,,0") {
		t.Fatalf("empty subtitle should be omitted:\n%s", ass)
	}
}

func TestPackWordsRespectsBudgets(t *testing.T) {
	var words []wword
	for i := 0; i < 14; i++ {
		words = append(words, wword{Start: time.Duration(i) * time.Second, End: time.Duration(i+1) * time.Second, Text: "word"})
	}
	lines := packWords(words)
	total := 0
	for _, ln := range lines {
		if len(ln.Words) > 6 {
			t.Fatalf("line has %d words", len(ln.Words))
		}
		total += len(ln.Words)
	}
	if total != 14 {
		t.Fatalf("lost words: %d", total)
	}
	if lines[len(lines)-1].End != 14*time.Second {
		t.Fatalf("last line end=%s", lines[len(lines)-1].End)
	}
}

func TestAssTime_Format(t *testing.T) {
	got := assTime(61*time.Second + 234*time.Millisecond)
	if got != "0:01:01.23" {
		t.Fatalf("unexpected assTime: %s", got)
	}
}
