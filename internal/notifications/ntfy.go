// Package notifications announces finished runs on ntfy. Without a topic the
// notifier is a no-op.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/forPelevin/clipfeed/internal/types"
)

const (
	userAgent     = "clipfeed/0.1"
	defaultServer = "https://ntfy.sh/"
)

type Notifier struct {
	endpoint string
	client   *http.Client
}

// New accepts either a full topic URL or a bare topic name on ntfy.sh.
func New(topic string, timeout time.Duration) *Notifier {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return &Notifier{}
	}
	if !strings.Contains(topic, "://") {
		topic = defaultServer + strings.TrimPrefix(topic, "/")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{endpoint: topic, client: &http.Client{Timeout: timeout}}
}

func (n *Notifier) Enabled() bool { return n != nil && n.endpoint != "" }

func (n *Notifier) NotifyRunFinished(ctx context.Context, meta types.VideoMetadata, report types.RunReport) error {
	if !n.Enabled() {
		return nil
	}
	label := strings.TrimSpace(meta.Title)
	if label == "" {
		label = report.VideoID
	}

	data := payload{tags: []string{"clipfeed", "run"}}
	switch {
	case !report.Success:
		data.title = "clipfeed - Run Failed"
		data.message = fmt.Sprintf("No clips produced for %s", label)
		data.tags = append(data.tags, "failed")
		data.priority = "high"
	case report.ClipsUploaded > 0:
		data.title = "clipfeed - Clips Published"
		data.message = fmt.Sprintf("%s: %d/%d clips published (%s)", label, report.ClipsUploaded, report.ClipsProcessed, report.Strategy)
		data.tags = append(data.tags, "published")
	default:
		data.title = "clipfeed - Clips Ready"
		data.message = fmt.Sprintf("%s: %d clips rendered (%s)", label, report.ClipsProcessed, report.Strategy)
		data.tags = append(data.tags, "rendered")
	}
	for _, c := range report.Clips {
		if c.PlatformPostURL != "" {
			data.message += "\n" + c.PlatformPostURL
		}
	}
	return n.send(ctx, data)
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

func (n *Notifier) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
