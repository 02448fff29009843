package whispercpp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

type Adapter struct {
	bin      string
	model    string
	threads  int
	language string
	run      runFunc
	logger   zerolog.Logger
}

type Config struct {
	Bin      string
	Model    string
	Threads  int
	Language string
}

func New(cfg Config, logger zerolog.Logger) *Adapter {
	if cfg.Bin == "" {
		cfg.Bin = "whisper-cli"
	}
	return &Adapter{
		bin:      cfg.Bin,
		model:    cfg.Model,
		threads:  cfg.Threads,
		language: cfg.Language,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
		logger: logger.With().Str("component", "whispercpp").Logger(),
	}
}

// TranscribeSRT runs whisper.cpp on a 16 kHz mono WAV and returns the
// SubRip output. The side file written next to the audio is removed.
func (a *Adapter) TranscribeSRT(ctx context.Context, wavPath string) (string, error) {
	if a.model == "" {
		return "", fmt.Errorf("whisper.cpp: model path is not configured")
	}
	outPrefix := strings.TrimSuffix(wavPath, filepath.Ext(wavPath)) + "_whisper"
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-osrt",
		"-of", outPrefix,
	}
	if a.threads > 0 {
		args = append(args, "-t", strconv.Itoa(a.threads))
	}
	if a.language != "" {
		args = append(args, "-l", a.language)
	}
	a.logger.Debug().Strs("args", args).Msg("transcribing")
	b, err := a.run(ctx, a.bin, args...)
	if err != nil {
		return "", fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	srtPath := outPrefix + ".srt"
	defer os.Remove(srtPath)
	sb, err := os.ReadFile(srtPath)
	if err != nil {
		return "", fmt.Errorf("read whisper output: %w", err)
	}
	return string(sb), nil
}
