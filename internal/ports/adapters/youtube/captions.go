package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/forPelevin/clipfeed/internal/types"
)

const DefaultCaptionBaseURL = "https://www.youtube.com/api/timedtext"

// CaptionClient reads caption tracks from the timedtext endpoint.
type CaptionClient struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

func NewCaptionClient(baseURL string, httpClient *http.Client, logger zerolog.Logger) *CaptionClient {
	if baseURL == "" {
		baseURL = DefaultCaptionBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CaptionClient{baseURL: baseURL, http: httpClient, logger: logger.With().Str("component", "captions").Logger()}
}

type json3Doc struct {
	Events []struct {
		StartMS    int64 `json:"tStartMs"`
		DurationMS int64 `json:"dDurationMs"`
		Segs       []struct {
			Text string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// FetchCaptions returns nil without error when the video has no track for
// lang. The pseudo language "auto" selects the auto-generated English track.
func (c *CaptionClient) FetchCaptions(ctx context.Context, videoID, lang string) ([]types.TranscriptSegment, error) {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("fmt", "json3")
	if lang == "auto" {
		q.Set("lang", "en")
		q.Set("kind", "asr")
	} else {
		q.Set("lang", lang)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("captions status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var doc json3Doc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode captions: %w", err)
	}
	out := make([]types.TranscriptSegment, 0, len(doc.Events))
	for _, ev := range doc.Events {
		var b strings.Builder
		for _, s := range ev.Segs {
			b.WriteString(s.Text)
		}
		text := strings.Join(strings.Fields(b.String()), " ")
		if text == "" {
			continue
		}
		out = append(out, types.TranscriptSegment{
			Text:     text,
			Start:    float64(ev.StartMS) / 1000,
			Duration: float64(ev.DurationMS) / 1000,
		})
	}
	c.logger.Debug().Str("video_id", videoID).Str("lang", lang).Int("segments", len(out)).Msg("captions fetched")
	return out, nil
}
