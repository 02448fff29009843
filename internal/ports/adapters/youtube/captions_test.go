package youtube

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestFetchCaptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("v") != "abc" || q.Get("fmt") != "json3" {
			t.Errorf("query=%v", q)
		}
		switch q.Get("lang") {
		case "en":
			if q.Get("kind") == "asr" {
				_, _ = io.WriteString(w, `{"events":[{"tStartMs":0,"dDurationMs":1000,"segs":[{"utf8":"auto"}]}]}`)
				return
			}
			_, _ = io.WriteString(w, `{"events":[
				{"tStartMs":1500,"dDurationMs":2500,"segs":[{"utf8":"hello "},{"utf8":"\nworld"}]},
				{"tStartMs":4000,"dDurationMs":10,"segs":[{"utf8":"\n"}]},
				{"tStartMs":4000}
			]}`)
		case "de":
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewCaptionClient(srv.URL, srv.Client(), zerolog.Nop())
	segs, err := c.FetchCaptions(context.Background(), "abc", "en")
	if err != nil {
		t.Fatalf("FetchCaptions: %v", err)
	}
	if len(segs) != 1 || segs[0].Text != "hello world" || segs[0].Start != 1.5 || segs[0].Duration != 2.5 {
		t.Fatalf("segs=%+v", segs)
	}

	segs, err = c.FetchCaptions(context.Background(), "abc", "auto")
	if err != nil || len(segs) != 1 || segs[0].Text != "auto" {
		t.Fatalf("auto: %+v %v", segs, err)
	}

	for _, lang := range []string{"de", "fr"} {
		segs, err = c.FetchCaptions(context.Background(), "abc", lang)
		if err != nil || segs != nil {
			t.Fatalf("%s: expected no captions, got %+v %v", lang, segs, err)
		}
	}
}

func TestFetchCaptionsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewCaptionClient(srv.URL, nil, zerolog.Nop())
	if _, err := c.FetchCaptions(context.Background(), "abc", "en"); err == nil {
		t.Fatal("expected error")
	}
}
