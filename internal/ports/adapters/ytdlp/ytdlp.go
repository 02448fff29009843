// Package ytdlp drives the yt-dlp CLI for metadata lookups and partial
// downloads.
package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/forPelevin/clipfeed/internal/services"
	"github.com/forPelevin/clipfeed/internal/types"
)

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

type Client struct {
	bin    string
	run    runFunc
	logger zerolog.Logger
}

func New(bin string, logger zerolog.Logger) *Client {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &Client{
		bin: bin,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
		logger: logger.With().Str("component", "ytdlp").Logger(),
	}
}

type videoInfo struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Duration   float64 `json:"duration"`
	ViewCount  int64   `json:"view_count"`
	LikeCount  int64   `json:"like_count"`
	Channel    string  `json:"channel"`
	Uploader   string  `json:"uploader"`
	WebpageURL string  `json:"webpage_url"`
}

var notFoundMarkers = []string{
	"Video unavailable",
	"Incomplete YouTube ID",
	"is not a valid URL",
	"Unsupported URL",
	"Private video",
}

// FetchMetadata accepts either a bare video ID or a full URL.
func (c *Client) FetchMetadata(ctx context.Context, videoID string) (types.VideoMetadata, error) {
	target := videoID
	if !strings.Contains(target, "://") {
		target = "https://www.youtube.com/watch?v=" + videoID
	}
	if strings.HasPrefix(target, "-") {
		return types.VideoMetadata{}, fmt.Errorf("%w: %q is not a video id or url", services.ErrNotFound, videoID)
	}
	out, err := c.run(ctx, c.bin, "-J", "--skip-download", "--no-warnings", "--no-playlist", "--", target)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		for _, m := range notFoundMarkers {
			if strings.Contains(msg, m) {
				return types.VideoMetadata{}, fmt.Errorf("%w: %s: %s", services.ErrNotFound, videoID, lastLine(msg))
			}
		}
		return types.VideoMetadata{}, fmt.Errorf("yt-dlp metadata: %w\n%s", err, lastLine(msg))
	}

	var info videoInfo
	if err := json.Unmarshal(jsonPayload(out), &info); err != nil {
		return types.VideoMetadata{}, fmt.Errorf("decode yt-dlp metadata: %w", err)
	}
	channel := info.Channel
	if channel == "" {
		channel = info.Uploader
	}
	url := info.WebpageURL
	if url == "" {
		url = target
	}
	id := info.ID
	if id == "" {
		id = videoID
	}
	return types.VideoMetadata{
		ID:           id,
		Title:        info.Title,
		ChannelTitle: channel,
		URL:          url,
		Duration:     info.Duration,
		ViewCount:    info.ViewCount,
		LikeCount:    info.LikeCount,
	}, nil
}

// DownloadAudio stores the best audio-only stream at dest.
func (c *Client) DownloadAudio(ctx context.Context, videoURL, dest string) error {
	args := []string{
		"-f", "bestaudio/best",
		"--no-playlist",
		"--no-warnings",
		"--force-overwrites",
		"-o", dest,
		"--", videoURL,
	}
	return c.download(ctx, "audio", dest, args)
}

// DownloadSection fetches [start, end] seconds as an mp4, cutting at
// keyframes so the result starts cleanly.
func (c *Client) DownloadSection(ctx context.Context, videoURL string, start, end float64, dest string) error {
	if end <= start {
		return fmt.Errorf("yt-dlp section: end %.3f is not after start %.3f", end, start)
	}
	args := []string{
		"-f", "bv*[height<=1080]+ba/b[height<=1080]/b",
		"--download-sections", fmt.Sprintf("*%.3f-%.3f", start, end),
		"--force-keyframes-at-cuts",
		"--merge-output-format", "mp4",
		"--no-playlist",
		"--no-warnings",
		"--force-overwrites",
		"-o", dest,
		"--", videoURL,
	}
	return c.download(ctx, "section", dest, args)
}

func (c *Client) download(ctx context.Context, kind, dest string, args []string) error {
	c.logger.Debug().Str("kind", kind).Strs("args", args).Msg("downloading")
	out, err := c.run(ctx, c.bin, args...)
	if err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("yt-dlp %s: %w\n%s", kind, err, lastLine(strings.TrimSpace(string(out))))
	}
	if info, err := os.Stat(dest); err != nil || info.Size() == 0 {
		return fmt.Errorf("yt-dlp %s: no output at %s", kind, dest)
	}
	return nil
}

// jsonPayload drops any log lines yt-dlp printed before the JSON document.
func jsonPayload(out []byte) []byte {
	s := string(out)
	if i := strings.Index(s, "{"); i > 0 {
		return out[i:]
	}
	return out
}

func lastLine(s string) string {
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}
