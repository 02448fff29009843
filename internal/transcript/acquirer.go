package transcript

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/forPelevin/clipfeed/internal/domain/subtitles"
	"github.com/forPelevin/clipfeed/internal/ports"
	"github.com/forPelevin/clipfeed/internal/types"
)

const DefaultCaptionTimeout = 10 * time.Second

var DefaultLanguages = []string{"en", "en-US", "en-GB", "auto"}

// Strategy is one transcript source in the fallback chain.
type Strategy struct {
	Name  string
	Fetch func(ctx context.Context) ([]types.TranscriptSegment, error)
}

type Config struct {
	Captions       ports.CaptionSource
	Audio          ports.AudioExtractor
	STT            ports.Transcriber
	Languages      []string
	CaptionTimeout time.Duration
	WorkDir        string
	Logger         zerolog.Logger
}

// Acquirer obtains a timed transcript from native captions first and
// speech-to-text second. It never fails: exhausted sources yield an empty
// transcript.
type Acquirer struct {
	captions       ports.CaptionSource
	audio          ports.AudioExtractor
	stt            ports.Transcriber
	languages      []string
	captionTimeout time.Duration
	workDir        string
	logger         zerolog.Logger
}

func New(cfg Config) *Acquirer {
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = DefaultLanguages
	}
	timeout := cfg.CaptionTimeout
	if timeout <= 0 {
		timeout = DefaultCaptionTimeout
	}
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Acquirer{
		captions:       cfg.Captions,
		audio:          cfg.Audio,
		stt:            cfg.STT,
		languages:      append([]string(nil), langs...),
		captionTimeout: timeout,
		workDir:        workDir,
		logger:         cfg.Logger.With().Str("component", "transcript").Logger(),
	}
}

// Strategies lists the sources Acquire will try for a video, in order.
func (a *Acquirer) Strategies(videoID, videoURL string) []Strategy {
	var out []Strategy
	if a.captions != nil {
		for _, lang := range a.languages {
			lang := lang
			out = append(out, Strategy{
				Name: "captions:" + lang,
				Fetch: func(ctx context.Context) ([]types.TranscriptSegment, error) {
					ctx, cancel := context.WithTimeout(ctx, a.captionTimeout)
					defer cancel()
					return a.captions.FetchCaptions(ctx, videoID, lang)
				},
			})
		}
	}
	if a.audio != nil && a.stt != nil && strings.TrimSpace(videoURL) != "" {
		out = append(out, Strategy{
			Name: "speech-to-text",
			Fetch: func(ctx context.Context) ([]types.TranscriptSegment, error) {
				return a.transcribe(ctx, videoID, videoURL)
			},
		})
	}
	return out
}

func (a *Acquirer) Acquire(ctx context.Context, videoID, videoURL string) []types.TranscriptSegment {
	for _, s := range a.Strategies(videoID, videoURL) {
		if ctx.Err() != nil {
			a.logger.Warn().Str("video_id", videoID).Err(ctx.Err()).Msg("transcript acquisition cancelled")
			return nil
		}
		segs, err := s.Fetch(ctx)
		if err != nil {
			a.logger.Warn().Str("stage", s.Name).Str("video_id", videoID).Err(err).Msg("transcript source failed")
			continue
		}
		segs = usable(segs)
		if len(segs) == 0 {
			a.logger.Debug().Str("stage", s.Name).Str("video_id", videoID).Msg("transcript source returned nothing")
			continue
		}
		a.logger.Info().Str("stage", s.Name).Str("video_id", videoID).Int("segments", len(segs)).Msg("transcript acquired")
		return segs
	}
	a.logger.Warn().Str("video_id", videoID).Msg("no transcript available")
	return nil
}

func (a *Acquirer) transcribe(ctx context.Context, videoID, videoURL string) ([]types.TranscriptSegment, error) {
	if err := os.MkdirAll(a.workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	audioPath := filepath.Join(a.workDir, "audio_"+safeName(videoID)+".wav")
	defer os.Remove(audioPath)

	if err := a.audio.ExtractAudio(ctx, videoURL, audioPath); err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	srt, err := a.stt.TranscribeSRT(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	return subtitles.ParseSRT(srt), nil
}

func usable(segs []types.TranscriptSegment) []types.TranscriptSegment {
	out := segs[:0:0]
	for _, s := range segs {
		if strings.TrimSpace(s.Text) != "" {
			out = append(out, s)
		}
	}
	return out
}

func safeName(id string) string {
	var b strings.Builder
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "video"
	}
	return b.String()
}
