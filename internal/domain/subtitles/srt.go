package subtitles

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/clipfeed/internal/types"
)

// ParseSRT converts SubRip text into transcript segments. Blocks with a
// malformed timing line or no text are skipped.
func ParseSRT(text string) []types.TranscriptSegment {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var out []types.TranscriptSegment
	for _, lines := range srtBlocks(text) {
		if len(lines) < 3 {
			continue
		}
		start, end, ok := parseTimingLine(lines[1])
		if !ok {
			continue
		}
		body := strings.TrimSpace(strings.Join(lines[2:], " "))
		if body == "" {
			continue
		}
		d := end - start
		if d < 0 {
			d = 0
		}
		out = append(out, types.TranscriptSegment{
			Text:     body,
			Start:    start.Seconds(),
			Duration: d.Seconds(),
		})
	}
	return out
}

// FormatSRT renders segments as SubRip text with 1-based cue numbers.
func FormatSRT(segments []types.TranscriptSegment) string {
	var b strings.Builder
	for i, s := range segments {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", i+1, srtTime(dur(s.Start)), srtTime(dur(s.End())), strings.TrimSpace(s.Text))
	}
	return b.String()
}

// srtBlocks groups trimmed lines into cues. Any blank or whitespace-only
// line ends the current cue.
func srtBlocks(text string) [][]string {
	var (
		blocks [][]string
		cur    []string
	)
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			cur = append(cur, ln)
			continue
		}
		if len(cur) > 0 {
			blocks = append(blocks, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

func parseTimingLine(line string) (time.Duration, time.Duration, bool) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, err := parseSRTTimestamp(parts[0])
	if err != nil {
		return 0, 0, false
	}
	// Cue settings may follow the end timestamp.
	endField := strings.Fields(parts[1])
	if len(endField) == 0 {
		return 0, 0, false
	}
	end, err := parseSRTTimestamp(endField[0])
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

func parseSRTTimestamp(value string) (time.Duration, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ".", ",")
	hms, msPart, ok := strings.Cut(value, ",")
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	fields := strings.Split(hms, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	var nums [4]int
	for i, f := range append(fields, msPart) {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		nums[i] = n
	}
	return time.Duration(nums[0])*time.Hour +
		time.Duration(nums[1])*time.Minute +
		time.Duration(nums[2])*time.Second +
		time.Duration(nums[3])*time.Millisecond, nil
}

func srtTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Millisecond)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, d/time.Millisecond)
}
