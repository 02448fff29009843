package highlights

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/forPelevin/clipfeed/internal/services"
)

// RawAnalysis is the model response before normalization. Clip start and end
// may arrive as seconds or as "MM:SS" strings.
type RawAnalysis struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Reason   string    `json:"reason"`
	Hashtags []string  `json:"hashtags"`
	Clips    []RawClip `json:"clips"`
}

type RawClip struct {
	Start          json.RawMessage `json:"start"`
	End            json.RawMessage `json:"end"`
	StartSeconds   *float64        `json:"startSeconds"`
	EndSeconds     *float64        `json:"endSeconds"`
	Reason         string          `json:"reason"`
	TrendScore     *float64        `json:"trend_score"`
	TrendScoreAlt  *float64        `json:"trendScore"`
	Emotion        string          `json:"emotion"`
	EngagementCues []string        `json:"engagement_cues"`
}

// Parse decodes a model response, first as-is and then leniently.
func Parse(raw string) (RawAnalysis, error) {
	if a, err := ParseStrict(raw); err == nil {
		return a, nil
	}
	a, err := ParseLenient(raw)
	if err != nil {
		return RawAnalysis{}, services.Wrap(services.ErrGeneration, "highlights", "parse response", "", err)
	}
	return a, nil
}

func ParseStrict(raw string) (RawAnalysis, error) {
	var a RawAnalysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &a); err != nil {
		return RawAnalysis{}, fmt.Errorf("decode response: %w", err)
	}
	return a, nil
}

// ParseLenient strips markdown fences and decodes the first balanced JSON
// object found in raw.
func ParseLenient(raw string) (RawAnalysis, error) {
	obj, err := extractJSONObject(raw)
	if err != nil {
		return RawAnalysis{}, err
	}
	var a RawAnalysis
	if err := json.Unmarshal([]byte(obj), &a); err != nil {
		return RawAnalysis{}, fmt.Errorf("decode extracted object: %w", err)
	}
	return a, nil
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("empty response")
	}

	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	start := strings.IndexByte(t, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in response: %q", truncate(t, 200))
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(t); i++ {
		c := t[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return t[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in response: %q", truncate(t, 200))
}

// seconds decodes a clip boundary given as a JSON number or as a
// "[HH:]MM:SS" string.
func seconds(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	return clockSeconds(s), true
}

// clockSeconds parses "MM:SS" (or "HH:MM:SS"); unparsable parts count as 0.
func clockSeconds(s string) float64 {
	total := 0.0
	for _, part := range strings.Split(s, ":") {
		var v float64
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%g", &v); err != nil {
			v = 0
		}
		total = total*60 + v
	}
	return total
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
