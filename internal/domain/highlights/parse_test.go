package highlights

import (
	"errors"
	"testing"

	"github.com/forPelevin/clipfeed/internal/services"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantClips int
		wantTitle string
		wantErr   bool
	}{
		{"strict", `{"title":"t","clips":[{"startSeconds":1,"endSeconds":20}]}`, 1, "t", false},
		{"fenced", "```json\n{\"title\":\"f\",\"clips\":[]}\n```", 0, "f", false},
		{"preface and trailer", `Sure! Here it is: {"title":"p","clips":[{"start":"00:05"}]} Hope this helps {"x":1}`, 1, "p", false},
		{"brace inside string", `note {"title":"a } b","reason":"uses \"quotes\" {","clips":[]} end`, 0, "a } b", false},
		{"empty", "   ", 0, "", true},
		{"no object", "I cannot help with that", 0, "", true},
		{"unbalanced", `{"title":"x"`, 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, services.ErrGeneration) {
					t.Fatalf("expected generation marker, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Title != tt.wantTitle || len(got.Clips) != tt.wantClips {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestParseStrictRejectsProse(t *testing.T) {
	if _, err := ParseStrict(`ok {"clips":[]}`); err == nil {
		t.Fatal("strict parse should reject surrounding prose")
	}
}

func TestClockSeconds(t *testing.T) {
	tests := map[string]float64{
		"00:02":   2,
		"01:30":   90,
		"1:02:03": 3723,
		"xx:10":   10,
		"5":       5,
	}
	for in, want := range tests {
		if got := clockSeconds(in); got != want {
			t.Fatalf("clockSeconds(%q)=%v want %v", in, got, want)
		}
	}
}
