package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultModel   = "openai/gpt-4o-mini"
	defaultTimeout = 60 * time.Second
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Referer string
	Title   string
	Timeout time.Duration
}

// Adapter asks an OpenRouter chat model for a JSON highlight analysis.
type Adapter struct {
	key     string
	model   string
	timeout time.Duration
	client  *openai.Client
	logger  zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *Adapter {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = normalizeBaseURL(cfg.BaseURL) + "/api/v1"
	oc.HTTPClient = &http.Client{
		Timeout: 5 * time.Minute,
		Transport: &attributionTransport{
			base:    http.DefaultTransport,
			referer: cfg.Referer,
			title:   cfg.Title,
		},
	}
	return &Adapter{
		key:     cfg.APIKey,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		client:  openai.NewClientWithConfig(oc),
		logger:  logger.With().Str("component", "openrouter").Logger(),
	}
}

// ScoreHighlights returns the raw model content; parsing is left to the caller.
func (a *Adapter) ScoreHighlights(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(a.key) == "" {
		return "", errors.New("openrouter: missing api key")
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	started := time.Now()
	resp, err := a.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.7,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("openrouter timeout after %s (model=%s)", a.timeout, a.model)
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openrouter status %d: %s", apiErr.HTTPStatusCode, truncate(redactSecrets(apiErr.Message, a.key), 400))
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", fmt.Errorf("openrouter status %d: %s", reqErr.HTTPStatusCode, truncate(redactSecrets(reqErr.Error(), a.key), 400))
		}
		return "", fmt.Errorf("openrouter: %s", redactSecrets(err.Error(), a.key))
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openrouter: no choices in response")
	}

	content, err := messageContent(resp.Choices[0].Message)
	if err != nil {
		return "", err
	}
	a.logger.Debug().
		Str("model", a.model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("took", time.Since(started)).
		Msg("highlight analysis received")
	return content, nil
}

type attributionTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.referer == "" && t.title == "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	if t.referer != "" {
		r.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		r.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(r)
}

func messageContent(m openai.ChatCompletionMessage) (string, error) {
	if strings.TrimSpace(m.Content) != "" {
		return m.Content, nil
	}
	// Some providers return an array of {type,text} parts.
	var b strings.Builder
	for _, part := range m.MultiContent {
		b.WriteString(part.Text)
	}
	s := b.String()
	if strings.TrimSpace(s) == "" {
		return "", errors.New("openrouter: empty content")
	}
	return s, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
