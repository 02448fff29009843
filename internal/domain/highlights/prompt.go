package highlights

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/forPelevin/clipfeed/internal/types"
)

const (
	DefaultPromptBudget = 8000
	truncationMarker    = "\n[... truncated for length]"
)

const SystemPrompt = "You are an expert AI video editor that understands viral content patterns. " +
	"You detect emotional intensity, engagement cues, and trending potential. " +
	"You analyze transcripts to find the most engaging moments with emotion and trend scoring."

// BuildPrompt renders the user prompt for highlight scoring. The transcript
// block is capped at budget characters.
func BuildPrompt(meta types.VideoMetadata, transcript []types.TranscriptSegment, budget int) string {
	if budget <= 0 {
		budget = DefaultPromptBudget
	}
	p := message.NewPrinter(language.English)

	var b strings.Builder
	b.WriteString("Analyze this transcript to detect emotional intensity, trending potential, and engagement cues.\n\n")
	b.WriteString("Video Metadata:\n")
	fmt.Fprintf(&b, "- Title: %s\n", orUnknown(meta.Title))
	b.WriteString(p.Sprintf("- Views: %d\n", meta.ViewCount))
	b.WriteString(p.Sprintf("- Likes: %d\n", meta.LikeCount))
	fmt.Fprintf(&b, "- Channel: %s\n", orUnknown(meta.ChannelTitle))
	if meta.Duration > 0 {
		fmt.Fprintf(&b, "- Duration: %d seconds\n", int(meta.Duration))
	} else {
		b.WriteString("- Duration: Unknown seconds\n")
	}
	b.WriteString("\nFull Transcript (with timestamps):\n")
	b.WriteString(TranscriptText(transcript, budget))
	b.WriteString(`

Your task:
1. Analyze emotional intensity, humor, surprise, and engagement cues
2. Score each interesting segment (0-10) for trend potential
3. Select the best 1-5 timestamp ranges (15-30 seconds each) with highest engagement
4. Explain why each moment is viral-worthy (emotion, humor, shock value)
5. Generate a catchy ALL-CAPS title with emojis
6. Create a subtitle that adds context or a hook
7. Suggest 3-5 relevant hashtags

Return ONLY valid JSON in this exact format:
{
  "reason": "Why this video is trending (1-2 sentences)",
  "clips": [
    {
      "start": "00:02",
      "end": "00:22",
      "startSeconds": 2,
      "endSeconds": 22,
      "reason": "Emotional peak - shocking revelation moment",
      "trend_score": 8.7,
      "emotion": "shock",
      "engagement_cues": ["surprise", "controversy"]
    }
  ],
  "title": "ALL-CAPS TITLE WITH A STRONG HOOK",
  "subtitle": "Context that makes people stay",
  "hashtags": ["#viral", "#shorts", "#trending"]
}

Rules:
- trend_score: 0-10 (10 = most viral potential)
- emotion: "shock" | "humor" | "surprise" | "emotional" | "controversy" | "reaction"
- Clips MUST be 15-30 seconds each
- Include startSeconds/endSeconds as numbers`)
	return b.String()
}

// TranscriptText lists segments as "[Ns] text" lines, N being the whole
// seconds of the segment start, truncated to budget runes.
func TranscriptText(transcript []types.TranscriptSegment, budget int) string {
	lines := make([]string, 0, len(transcript))
	for _, s := range transcript {
		lines = append(lines, fmt.Sprintf("[%ds] %s", int(math.Floor(s.Start)), s.Text))
	}
	text := strings.Join(lines, "\n")
	r := []rune(text)
	if budget > 0 && len(r) > budget {
		return string(r[:budget]) + truncationMarker
	}
	return text
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
