package types

import "time"

type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

func (s TranscriptSegment) End() float64 { return s.Start + s.Duration }

type Emotion string

const (
	EmotionShock       Emotion = "shock"
	EmotionHumor       Emotion = "humor"
	EmotionSurprise    Emotion = "surprise"
	EmotionEmotional   Emotion = "emotional"
	EmotionControversy Emotion = "controversy"
	EmotionReaction    Emotion = "reaction"
	EmotionEngagement  Emotion = "engagement"
)

// Valid reports whether e is one of the known emotion labels.
func (e Emotion) Valid() bool {
	switch e {
	case EmotionShock, EmotionHumor, EmotionSurprise, EmotionEmotional,
		EmotionControversy, EmotionReaction, EmotionEngagement:
		return true
	default:
		return false
	}
}

type ClipCandidate struct {
	Start          float64  `json:"startSeconds"`
	End            float64  `json:"endSeconds"`
	Reason         string   `json:"reason"`
	TrendScore     float64  `json:"trendScore"`
	Emotion        Emotion  `json:"emotion"`
	EngagementCues []string `json:"engagementCues"`
}

type VideoAnalysis struct {
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle"`
	Reason   string          `json:"reason"`
	Hashtags []string        `json:"hashtags"`
	Clips    []ClipCandidate `json:"clips"`
}

type VideoMetadata struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	ChannelTitle string  `json:"channelTitle"`
	URL          string  `json:"url"`
	Duration     float64 `json:"duration"`
	ViewCount    int64   `json:"viewCount"`
	LikeCount    int64   `json:"likeCount"`
}

type ProcessedClip struct {
	ClipNumber      int      `json:"clipNumber"`
	Start           float64  `json:"startSeconds"`
	End             float64  `json:"endSeconds"`
	Duration        float64  `json:"duration"`
	VideoPath       string   `json:"videoPath"`
	Title           string   `json:"title"`
	Subtitle        string   `json:"subtitle"`
	Reason          string   `json:"reason"`
	Hashtags        []string `json:"hashtags"`
	Uploaded        bool     `json:"uploaded"`
	PlatformPostID  string   `json:"platformPostId,omitempty"`
	PlatformPostURL string   `json:"platformPostUrl,omitempty"`
	UploadError     string   `json:"uploadError,omitempty"`
}

type RunReport struct {
	RunID               string          `json:"runId"`
	VideoID             string          `json:"videoId"`
	Success             bool            `json:"success"`
	Strategy            string          `json:"strategy"`
	TotalClipsRequested int             `json:"totalClipsRequested"`
	ClipsProcessed      int             `json:"clipsProcessed"`
	ClipsUploaded       int             `json:"clipsUploaded"`
	Clips               []ProcessedClip `json:"clips"`
	StartedAt           time.Time       `json:"startedAt"`
	FinishedAt          time.Time       `json:"finishedAt"`
}

// RunLogRow is the summary persisted once per run.
type RunLogRow struct {
	RunID            string
	VideoID          string
	VideoURL         string
	DurationMS       int64
	Title            string
	Transcript       string
	ViralScore       float64
	ViralReason      string
	RelatedTopic     string
	GeneratedCaption string
	Strategy         string
	ClipsRequested   int
	ClipsProcessed   int
	ClipsUploaded    int
	UploadStatus     map[string]string
	CreatedAt        time.Time
}
