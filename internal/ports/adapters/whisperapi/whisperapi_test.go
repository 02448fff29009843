package whisperapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

const sampleSRT = "1\n00:00:00,000 --> 00:00:01,500\nwelcome back\n"

func writeAudio(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(p, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestTranscribeSRT(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("auth=%q", got)
		}
		body, _ := io.ReadAll(r.Body)
		for _, want := range []string{"whisper-1", "srt", "en"} {
			if !strings.Contains(string(body), want) {
				t.Errorf("multipart body missing %q", want)
			}
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, sampleSRT)
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", Language: "en"}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.TranscribeSRT(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("TranscribeSRT: %v", err)
	}
	if out != sampleSRT {
		t.Fatalf("out=%q", out)
	}
}

func TestTranscribeSRTErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "sk-bad", BaseURL: srv.URL}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.TranscribeSRT(context.Background(), writeAudio(t))
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("err=%v", err)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(Config{}, zerolog.Nop()); err == nil {
		t.Fatal("expected error")
	}
}
