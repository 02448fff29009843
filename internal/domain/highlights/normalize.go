package highlights

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/forPelevin/clipfeed/internal/types"
)

const (
	defaultTrendScore = 7.0
	minTrendScore     = 0
	maxTrendScore     = 10
)

var defaultCues = []string{"viral", "trending"}

// Normalize converts a parsed response into a VideoAnalysis: boundaries are
// resolved to seconds, missing fields get defaults, trend scores are clamped to
// [0,10], and clips are ordered by trend score, highest first, ties keeping
// model order.
func Normalize(raw RawAnalysis) types.VideoAnalysis {
	out := types.VideoAnalysis{
		Title:    cases.Upper(language.Und).String(strings.TrimSpace(raw.Title)),
		Subtitle: strings.TrimSpace(raw.Subtitle),
		Reason:   strings.TrimSpace(raw.Reason),
		Hashtags: normalizeHashtags(raw.Hashtags),
		Clips:    make([]types.ClipCandidate, 0, len(raw.Clips)),
	}
	for _, rc := range raw.Clips {
		out.Clips = append(out.Clips, normalizeClip(rc))
	}
	sort.SliceStable(out.Clips, func(i, j int) bool {
		return out.Clips[i].TrendScore > out.Clips[j].TrendScore
	})
	return out
}

func normalizeClip(rc RawClip) types.ClipCandidate {
	c := types.ClipCandidate{
		Reason:         strings.TrimSpace(rc.Reason),
		TrendScore:     defaultTrendScore,
		Emotion:        types.Emotion(strings.ToLower(strings.TrimSpace(rc.Emotion))),
		EngagementCues: rc.EngagementCues,
	}

	if rc.StartSeconds != nil {
		c.Start = *rc.StartSeconds
	} else if v, ok := seconds(rc.Start); ok {
		c.Start = v
	}
	if rc.EndSeconds != nil {
		c.End = *rc.EndSeconds
	} else if v, ok := seconds(rc.End); ok {
		c.End = v
	}

	switch {
	case rc.TrendScore != nil:
		c.TrendScore = *rc.TrendScore
	case rc.TrendScoreAlt != nil:
		c.TrendScore = *rc.TrendScoreAlt
	}
	c.TrendScore = clamp(c.TrendScore, minTrendScore, maxTrendScore)

	if !c.Emotion.Valid() {
		c.Emotion = types.EmotionEngagement
	}
	if len(c.EngagementCues) == 0 {
		c.EngagementCues = append([]string(nil), defaultCues...)
	}
	return c
}

func normalizeHashtags(tags []string) []string {
	lower := cases.Lower(language.Und)
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.Join(strings.Fields(t), "")
		t = strings.TrimLeft(t, "#")
		if t == "" {
			continue
		}
		t = "#" + lower.String(t)
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}
