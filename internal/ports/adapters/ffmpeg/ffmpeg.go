package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CommandRunner executes an external tool and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type Adapter struct {
	ffmpeg  string
	ffprobe string
	run     CommandRunner
	logger  zerolog.Logger
}

type Option func(*Adapter)

// WithCommandRunner replaces process execution, for tests.
func WithCommandRunner(r CommandRunner) Option {
	return func(a *Adapter) {
		if r != nil {
			a.run = r
		}
	}
}

func New(ffmpegPath, ffprobePath string, logger zerolog.Logger, opts ...Option) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	a := &Adapter{
		ffmpeg:  ffmpegPath,
		ffprobe: ffprobePath,
		run:     execRunner,
		logger:  logger.With().Str("component", "ffmpeg").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ExtractAudioMono16k converts any media file into the 16 kHz mono WAV that
// speech-to-text engines expect.
func (a *Adapter) ExtractAudioMono16k(ctx context.Context, in, outWav string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", in,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	}
	a.logger.Debug().Strs("args", args).Msg("extracting audio")
	if b, err := a.run(ctx, a.ffmpeg, args...); err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, in string) (time.Duration, error) {
	b, err := a.run(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// VerticalJob describes one 9:16 encode.
type VerticalJob struct {
	Input         string
	SeekSeconds   float64
	Duration      float64
	Width         int
	Height        int
	ASSPath       string
	WatermarkPath string
	Output        string
}

func (a *Adapter) RenderVertical(ctx context.Context, job VerticalJob) error {
	args := verticalArgs(job)
	a.logger.Debug().Strs("args", args).Msg("rendering vertical clip")
	if b, err := a.run(ctx, a.ffmpeg, args...); err != nil {
		return fmt.Errorf("ffmpeg render clip: %w\n%s", err, tail(string(b), 2000))
	}
	return nil
}

func verticalArgs(job VerticalJob) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	if job.SeekSeconds > 0 {
		args = append(args, "-ss", fmtSeconds(job.SeekSeconds))
	}
	args = append(args, "-t", fmtSeconds(job.Duration), "-i", job.Input)

	base := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1",
		job.Width, job.Height, job.Width, job.Height)
	if job.ASSPath != "" {
		base += ",subtitles=" + escapeFilterPath(job.ASSPath)
	}

	if job.WatermarkPath != "" {
		args = append(args, "-i", job.WatermarkPath)
		graph := "[0:v]" + base + "[base];" +
			fmt.Sprintf("[1:v]scale=%d:-1[wm];", job.Width/6) +
			"[base][wm]overlay=W-w-40:40[v]"
		args = append(args, "-filter_complex", graph, "-map", "[v]", "-map", "0:a?")
	} else {
		args = append(args, "-vf", base)
	}

	return append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "20",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "160k",
		"-movflags", "+faststart",
		job.Output,
	)
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	p = strings.ReplaceAll(p, ",", "\\,")
	return p
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
