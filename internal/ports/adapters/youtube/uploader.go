package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/forPelevin/clipfeed/internal/ports"
)

const (
	DefaultUploadURL = "https://www.googleapis.com/upload/youtube/v3/videos"
	maxTitleRunes    = 100
	maxDescRunes     = 5000
)

type UploaderConfig struct {
	AccessToken   string
	UploadURL     string
	PrivacyStatus string
	Timeout       time.Duration
}

// Uploader publishes clips as YouTube Shorts through the Data API v3.
type Uploader struct {
	cfg    UploaderConfig
	http   *http.Client
	logger zerolog.Logger
}

func NewUploader(cfg UploaderConfig, logger zerolog.Logger) *Uploader {
	if cfg.UploadURL == "" {
		cfg.UploadURL = DefaultUploadURL
	}
	if cfg.PrivacyStatus == "" {
		cfg.PrivacyStatus = "public"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	return &Uploader{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "youtube_upload").Logger(),
	}
}

func (u *Uploader) Platform() string { return "youtube" }

type videoResource struct {
	Snippet struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Tags        []string `json:"tags,omitempty"`
		CategoryID  string   `json:"categoryId"`
	} `json:"snippet"`
	Status struct {
		PrivacyStatus           string `json:"privacyStatus"`
		SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
	} `json:"status"`
}

func (u *Uploader) Publish(ctx context.Context, req ports.PublishRequest) (ports.PublishResult, error) {
	if strings.TrimSpace(u.cfg.AccessToken) == "" {
		return ports.PublishResult{}, errors.New("youtube: missing access token")
	}
	f, err := os.Open(req.FilePath)
	if err != nil {
		return ports.PublishResult{}, fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return ports.PublishResult{}, fmt.Errorf("stat clip: %w", err)
	}

	session, err := u.startSession(ctx, req, info.Size())
	if err != nil {
		return ports.PublishResult{}, err
	}

	put, err := http.NewRequestWithContext(ctx, http.MethodPut, session, f)
	if err != nil {
		return ports.PublishResult{}, err
	}
	put.ContentLength = info.Size()
	put.Header.Set("Authorization", "Bearer "+u.cfg.AccessToken)
	put.Header.Set("Content-Type", "video/mp4")
	resp, err := u.http.Do(put)
	if err != nil {
		return ports.PublishResult{}, fmt.Errorf("youtube upload: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ports.PublishResult{}, fmt.Errorf("youtube upload status %d: %s", resp.StatusCode, truncate(string(body), 300))
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
		return ports.PublishResult{}, fmt.Errorf("youtube upload: missing video id in response")
	}

	u.logger.Info().Str("video_id", created.ID).Str("file", req.FilePath).Msg("clip published")
	return ports.PublishResult{
		PostID:  created.ID,
		PostURL: "https://youtube.com/shorts/" + created.ID,
	}, nil
}

func (u *Uploader) startSession(ctx context.Context, req ports.PublishRequest, size int64) (string, error) {
	var meta videoResource
	meta.Snippet.Title = truncate(strings.TrimSpace(req.Title), maxTitleRunes)
	meta.Snippet.Description = truncate(description(req), maxDescRunes)
	meta.Snippet.CategoryID = "24"
	for _, h := range req.Hashtags {
		if tag := strings.TrimPrefix(h, "#"); tag != "" {
			meta.Snippet.Tags = append(meta.Snippet.Tags, tag)
		}
	}
	meta.Status.PrivacyStatus = u.cfg.PrivacyStatus

	body, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("uploadType", "resumable")
	q.Set("part", "snippet,status")
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, u.cfg.UploadURL+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	r.Header.Set("Authorization", "Bearer "+u.cfg.AccessToken)
	r.Header.Set("Content-Type", "application/json; charset=UTF-8")
	r.Header.Set("X-Upload-Content-Type", "video/mp4")
	r.Header.Set("X-Upload-Content-Length", strconv.FormatInt(size, 10))

	resp, err := u.http.Do(r)
	if err != nil {
		return "", fmt.Errorf("youtube session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("youtube session status %d: %s", resp.StatusCode, truncate(string(rb), 300))
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", errors.New("youtube session: missing Location header")
	}
	return loc, nil
}

func description(req ports.PublishRequest) string {
	desc := strings.TrimSpace(req.Caption)
	if len(req.Hashtags) > 0 {
		tags := strings.Join(req.Hashtags, " ")
		if desc == "" {
			return tags
		}
		desc += "\n\n" + tags
	}
	return desc
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
