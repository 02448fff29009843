package highlights

import (
	"fmt"
	"math"

	"github.com/forPelevin/clipfeed/internal/types"
)

const (
	DefaultClipDuration    = 30
	DefaultTimelineClips   = 5
	unknownVideoDuration   = 600
	placeholderTitle       = "Viral Moment 🔥"
	placeholderSubtitle    = "Highlights from this video"
	placeholderReason      = "Top moments extracted from video timeline"
	timelineClipTrendScore = 7.0
)

var placeholderHashtags = []string{"#viral", "#shorts", "#trending"}

// TimelineParams controls deterministic clip spacing.
type TimelineParams struct {
	ClipDuration float64
	TotalClips   int
}

func (p TimelineParams) withDefaults() TimelineParams {
	if p.ClipDuration <= 0 {
		p.ClipDuration = DefaultClipDuration
	}
	if p.TotalClips <= 0 {
		p.TotalClips = DefaultTimelineClips
	}
	return p
}

// Timeline spaces totalClips windows of clipDuration across the video with
// interval floor((videoDuration - clipDuration*totalClips) / totalClips).
// Windows running past the end are dropped. When none fit, a single window
// from 0 covering as much of the video as possible is returned.
func Timeline(videoDuration, clipDuration float64, totalClips int) []types.ClipCandidate {
	if videoDuration <= 0 || clipDuration <= 0 || totalClips <= 0 {
		return nil
	}
	interval := math.Floor((videoDuration - clipDuration*float64(totalClips)) / float64(totalClips))
	if interval < 0 {
		interval = 0
	}

	var out []types.ClipCandidate
	seen := make(map[float64]bool, totalClips)
	for i := 0; i < totalClips; i++ {
		start := float64(i) * interval
		end := start + clipDuration
		if end > videoDuration || seen[start] {
			continue
		}
		seen[start] = true
		out = append(out, timelineClip(len(out)+1, start, end))
	}
	if len(out) == 0 {
		out = append(out, timelineClip(1, 0, math.Min(clipDuration, videoDuration)))
	}
	return out
}

// TimelineAnalysis builds the placeholder analysis used when no AI selection
// is available. Unknown durations are treated as 600 seconds.
func TimelineAnalysis(meta types.VideoMetadata, p TimelineParams) types.VideoAnalysis {
	p = p.withDefaults()
	duration := meta.Duration
	if duration <= 0 {
		duration = unknownVideoDuration
	}
	title := meta.Title
	if title == "" {
		title = placeholderTitle
	}
	return types.VideoAnalysis{
		Title:    title,
		Subtitle: placeholderSubtitle,
		Reason:   placeholderReason,
		Hashtags: append([]string(nil), placeholderHashtags...),
		Clips:    Timeline(duration, p.ClipDuration, p.TotalClips),
	}
}

func timelineClip(n int, start, end float64) types.ClipCandidate {
	return types.ClipCandidate{
		Start:          start,
		End:            end,
		Reason:         fmt.Sprintf("Clip %d from timeline (%gs - %gs)", n, start, end),
		TrendScore:     timelineClipTrendScore,
		Emotion:        types.EmotionEngagement,
		EngagementCues: append([]string(nil), defaultCues...),
	}
}
