package youtube

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/forPelevin/clipfeed/internal/ports"
)

func writeClip(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "abc_clip1_0.mp4")
	if err := os.WriteFile(p, []byte("fake mp4 bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestUploaderPublish(t *testing.T) {
	var (
		meta     videoResource
		uploaded string
		srvURL   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ya29.token" {
			t.Errorf("auth=%q", r.Header.Get("Authorization"))
		}
		switch r.Method {
		case http.MethodPost:
			if r.URL.Query().Get("uploadType") != "resumable" || r.Header.Get("X-Upload-Content-Length") != "14" {
				t.Errorf("session request: %v %v", r.URL.Query(), r.Header)
			}
			if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
				t.Errorf("decode: %v", err)
			}
			w.Header().Set("Location", srvURL+"/session/1")
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			if r.URL.Path != "/session/1" {
				t.Errorf("put path=%s", r.URL.Path)
			}
			b, _ := io.ReadAll(r.Body)
			uploaded = string(b)
			_, _ = io.WriteString(w, `{"id":"vid123","kind":"youtube#video"}`)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	u := NewUploader(UploaderConfig{AccessToken: "ya29.token", UploadURL: srv.URL + "/upload", PrivacyStatus: "unlisted"}, zerolog.Nop())
	res, err := u.Publish(context.Background(), ports.PublishRequest{
		FilePath: writeClip(t),
		Title:    strings.Repeat("T", 120),
		Caption:  "WAIT FOR IT\n\nbig reveal",
		Hashtags: []string{"#shorts", "#viral"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.PostID != "vid123" || res.PostURL != "https://youtube.com/shorts/vid123" {
		t.Fatalf("res=%+v", res)
	}
	if uploaded != "fake mp4 bytes" {
		t.Fatalf("uploaded=%q", uploaded)
	}
	if len([]rune(meta.Snippet.Title)) != maxTitleRunes {
		t.Fatalf("title not capped: %d", len(meta.Snippet.Title))
	}
	if meta.Snippet.Description != "WAIT FOR IT\n\nbig reveal\n\n#shorts #viral" {
		t.Fatalf("description=%q", meta.Snippet.Description)
	}
	if strings.Join(meta.Snippet.Tags, ",") != "shorts,viral" || meta.Status.PrivacyStatus != "unlisted" {
		t.Fatalf("meta=%+v", meta)
	}
	if u.Platform() != "youtube" {
		t.Fatalf("platform=%q", u.Platform())
	}
}

func TestUploaderErrors(t *testing.T) {
	if _, err := NewUploader(UploaderConfig{}, zerolog.Nop()).Publish(context.Background(), ports.PublishRequest{FilePath: writeClip(t)}); err == nil {
		t.Fatal("expected error without token")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"quotaExceeded"}}`, http.StatusForbidden)
	}))
	defer srv.Close()
	u := NewUploader(UploaderConfig{AccessToken: "t", UploadURL: srv.URL}, zerolog.Nop())
	_, err := u.Publish(context.Background(), ports.PublishRequest{FilePath: writeClip(t), Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("err=%v", err)
	}

	if _, err := u.Publish(context.Background(), ports.PublishRequest{FilePath: "/does/not/exist.mp4"}); err == nil {
		t.Fatal("expected error for missing file")
	}
}
