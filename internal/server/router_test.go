package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestHealth(t *testing.T) {
	h := NewRouter(NewRunner(&fakePipeline{}, 1, 10, zerolog.Nop()), RouterOptions{}, zerolog.Nop())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestProcessVideoValidation(t *testing.T) {
	h := NewRouter(NewRunner(&fakePipeline{}, 1, 10, zerolog.Nop()), RouterOptions{}, zerolog.Nop())
	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing url", `{}`, http.StatusBadRequest},
		{"blank url", `{"videoUrl":"  "}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
		{"negative clips", `{"videoUrl":"abc","maxClips":-1}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/process-video", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
			}
		})
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/process-video", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET process-video code=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/runs/abc", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("DELETE runs code=%d", rec.Code)
	}
}

func TestProcessVideoWatermark(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name      string
		dir       string
		watermark string
		wantCode  int
		wantPath  string
	}{
		{"none requested", "", "", http.StatusAccepted, ""},
		{"rejected without dir", "", "logo.png", http.StatusBadRequest, ""},
		{"absolute path", dir, "/etc/passwd", http.StatusBadRequest, ""},
		{"escapes dir", dir, "../secret.png", http.StatusBadRequest, ""},
		{"file in dir", dir, "logo.png", http.StatusAccepted, filepath.Join(dir, "logo.png")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakePipeline{}
			runner := NewRunner(fp, 1, 10, zerolog.Nop())
			h := NewRouter(runner, RouterOptions{WatermarkDir: tt.dir}, zerolog.Nop())

			body := `{"videoUrl":"dQw4w9WgXcQ","watermark":"` + tt.watermark + `"}`
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/process-video", strings.NewReader(body)))
			if rec.Code != tt.wantCode {
				t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
			}
			if tt.wantCode != http.StatusAccepted {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := runner.Shutdown(ctx); err != nil {
				t.Fatal(err)
			}
			if got := fp.watermarks(); len(got) != 1 || got[0] != tt.wantPath {
				t.Fatalf("watermarks=%q want %q", got, tt.wantPath)
			}
		})
	}
}

func TestProcessVideoAndPoll(t *testing.T) {
	fp := &fakePipeline{release: make(chan struct{})}
	runner := NewRunner(fp, 1, 10, zerolog.Nop())
	srv := httptest.NewServer(NewRouter(runner, RouterOptions{}, zerolog.Nop()))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/process-video", "application/json", strings.NewReader(`{"videoUrl":"https://youtu.be/dQw4w9WgXcQ","uploadEnabled":true}`))
	if err != nil {
		t.Fatal(err)
	}
	var ack processVideoResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted || !ack.Success || ack.RunID == "" {
		t.Fatalf("code=%d ack=%+v", resp.StatusCode, ack)
	}

	get := func() (int, RunStatus) {
		t.Helper()
		resp, err := http.Get(srv.URL + "/api/runs/" + ack.RunID)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var st RunStatus
		_ = json.NewDecoder(resp.Body).Decode(&st)
		return resp.StatusCode, st
	}

	if code, st := get(); code != http.StatusAccepted || st.VideoURL != "https://youtu.be/dQw4w9WgXcQ" {
		t.Fatalf("in-flight code=%d status=%+v", code, st)
	}

	close(fp.release)
	deadline := time.Now().Add(2 * time.Second)
	for {
		code, st := get()
		if code == http.StatusOK {
			if st.State != StateDone || st.Report == nil || !st.Report.Success {
				t.Fatalf("status=%+v", st)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run never finished, last code=%d", code)
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err = http.Get(srv.URL + "/api/runs/does-not-exist")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown run code=%d", resp.StatusCode)
	}
}
