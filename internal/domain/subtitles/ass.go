package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/clipfeed/internal/types"
)

// Overlay is the static text burned over every frame of a clip.
type Overlay struct {
	Title    string
	Subtitle string
}

// RenderOverlayASS builds the ASS script for one clip: title and subtitle for
// the whole clip plus karaoke captions from the transcript window
// [clipStart, clipStart+clipDuration). Event times are clip-local.
func RenderOverlayASS(ov Overlay, clipStart, clipDuration float64, transcript []types.TranscriptSegment) string {
	start := dur(clipStart)
	length := dur(clipDuration)

	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	if t := sanitizeASS(ov.Title); t != "" {
		writeDialogue(&b, 1, 0, length, "Title", t)
	}
	if s := sanitizeASS(ov.Subtitle); s != "" {
		writeDialogue(&b, 1, 0, length, "Subtitle", s)
	}

	words := collectWords(transcript, start, start+length)
	if len(words) == 0 {
		return b.String()
	}
	for _, ln := range packWords(words) {
		var text strings.Builder
		for _, w := range ln.Words {
			durCS := int((w.End - w.Start) / (10 * time.Millisecond))
			if durCS < 1 {
				durCS = 1
			}
			fmt.Fprintf(&text, "{\\k%d}%s ", durCS, w.Text)
		}
		writeDialogue(&b, 0, ln.Start, ln.End, "Caption", strings.TrimSpace(text.String()))
	}
	return b.String()
}

type wword struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

type line struct {
	Start time.Duration
	End   time.Duration
	Words []wword
}

// collectWords spreads each segment's duration evenly over its words, since
// caption tracks carry no per-word timing.
func collectWords(segments []types.TranscriptSegment, start, end time.Duration) []wword {
	var out []wword
	for _, s := range segments {
		tokens := strings.Fields(s.Text)
		if len(tokens) == 0 {
			continue
		}
		ss := dur(s.Start)
		step := dur(s.Duration) / time.Duration(len(tokens))
		for i, tok := range tokens {
			ws := ss + time.Duration(i)*step
			we := ws + step
			if we <= start || ws >= end {
				continue
			}
			text := sanitizeASS(tok)
			if text == "" {
				continue
			}
			if ws < start {
				ws = start
			}
			if we > end {
				we = end
			}
			out = append(out, wword{Start: ws - start, End: we - start, Text: text})
		}
	}
	return out
}

func packWords(words []wword) []line {
	var out []line
	cur := line{Start: words[0].Start}
	charBudget := 32
	wordBudget := 6
	curLen := 0
	for i, w := range words {
		wl := len([]rune(w.Text))
		nextLen := curLen
		if curLen > 0 {
			nextLen++
		}
		nextLen += wl
		if len(cur.Words) > 0 && (len(cur.Words) >= wordBudget || nextLen > charBudget) {
			cur.End = cur.Words[len(cur.Words)-1].End
			out = append(out, cur)
			cur = line{Start: w.Start}
			curLen = 0
		}
		cur.Words = append(cur.Words, w)
		if curLen > 0 {
			curLen++
		}
		curLen += wl
		if i == len(words)-1 {
			cur.End = w.End
			out = append(out, cur)
		}
	}
	return out
}

func writeDialogue(b *strings.Builder, layer int, start, end time.Duration, style, text string) {
	fmt.Fprintf(b, "Dialogue: %d,%s,%s,%s,,0,0,0,,%s\n", layer, assTime(start), assTime(end), style, text)
}

func assHeader() string {
	return strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1080
PlayResY: 1920
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Title, Inter, 56, &H00FFFFFF, &H00FFFFFF, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,5,2,8, 60,60,140,1
Style: Subtitle, Inter, 34, &H00E6E6E6, &H00E6E6E6, &H00000000, &H64000000, 0,0,0,0,100,100,0,0,1,3,1,8, 60,60,230,1
Style: Caption, Inter, 72, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,6,2,2, 70,70,320,1
`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
