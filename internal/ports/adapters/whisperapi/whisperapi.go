// Package whisperapi transcribes audio through an OpenAI compatible
// /audio/transcriptions endpoint.
package whisperapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

type Config struct {
	APIKey   string
	BaseURL  string
	Language string
	Timeout  time.Duration
}

type Client struct {
	api      *openai.Client
	language string
	logger   zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("whisper api: missing api key")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		oc.BaseURL = base
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{
		api:      openai.NewClientWithConfig(oc),
		language: cfg.Language,
		logger:   logger.With().Str("component", "whisperapi").Logger(),
	}, nil
}

func (c *Client) TranscribeSRT(ctx context.Context, audioPath string) (string, error) {
	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatSRT,
	}
	if c.language != "" && c.language != "auto" {
		req.Language = c.language
	}
	c.logger.Debug().Str("audio", audioPath).Msg("uploading audio for transcription")
	resp, err := c.api.CreateTranscription(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("whisper api status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("whisper api: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", errors.New("whisper api: empty transcription")
	}
	return resp.Text, nil
}
