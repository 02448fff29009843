package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/forPelevin/clipfeed/internal/domain/subtitles"
	"github.com/forPelevin/clipfeed/internal/ports"
)

// SectionDownloader fetches only [start, end] seconds of a remote video.
type SectionDownloader interface {
	DownloadSection(ctx context.Context, videoURL string, start, end float64, dest string) error
}

type RendererConfig struct {
	Width         int
	Height        int
	WorkDir       string
	WatermarkPath string
}

// Renderer turns a clip window of a source video into a vertical MP4 with a
// burned-in overlay.
type Renderer struct {
	ff       *Adapter
	sections SectionDownloader
	cfg      RendererConfig
	logger   zerolog.Logger
}

func NewRenderer(ff *Adapter, sections SectionDownloader, cfg RendererConfig, logger zerolog.Logger) *Renderer {
	if cfg.Width <= 0 {
		cfg.Width = 1080
	}
	if cfg.Height <= 0 {
		cfg.Height = 1920
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	return &Renderer{ff: ff, sections: sections, cfg: cfg, logger: logger.With().Str("component", "renderer").Logger()}
}

func (r *Renderer) RenderClip(ctx context.Context, req ports.RenderRequest) (ports.RenderResult, error) {
	if strings.TrimSpace(req.SourceURL) == "" {
		return ports.RenderResult{}, fmt.Errorf("render clip %d: empty source", req.ClipNumber)
	}
	outDir := req.OutDir
	if outDir == "" {
		outDir = r.cfg.WorkDir
	}
	for _, dir := range []string{outDir, r.cfg.WorkDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ports.RenderResult{}, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	base := fmt.Sprintf("%s_clip%d_%d", safeName(req.VideoID), req.ClipNumber, int(math.Floor(req.Start)))
	out := filepath.Join(outDir, base+".mp4")
	assPath := filepath.Join(r.cfg.WorkDir, base+".ass")
	var scratch []string
	cleanupScratch := func() {
		for _, p := range scratch {
			_ = os.Remove(p)
		}
	}

	input, seek := req.SourceURL, req.Start
	if !isLocalFile(req.SourceURL) {
		if r.sections == nil {
			return ports.RenderResult{}, fmt.Errorf("render clip %d: remote source without downloader", req.ClipNumber)
		}
		section := filepath.Join(r.cfg.WorkDir, base+"_src.mp4")
		scratch = append(scratch, section)
		r.logger.Debug().Int("clip", req.ClipNumber).Str("dest", section).Msg("downloading section")
		if err := r.sections.DownloadSection(ctx, req.SourceURL, req.Start, req.Start+req.Duration, section); err != nil {
			cleanupScratch()
			return ports.RenderResult{}, fmt.Errorf("download section: %w", err)
		}
		input, seek = section, 0
	}

	ass := subtitles.RenderOverlayASS(subtitles.Overlay{
		Title:    req.Overlay.Title,
		Subtitle: req.Overlay.Subtitle,
	}, req.Start, req.Duration, req.Overlay.Captions)
	if err := os.WriteFile(assPath, []byte(ass), 0o644); err != nil {
		cleanupScratch()
		return ports.RenderResult{}, fmt.Errorf("write overlay: %w", err)
	}
	scratch = append(scratch, assPath)

	watermark := req.Overlay.WatermarkPath
	if watermark == "" {
		watermark = r.cfg.WatermarkPath
	}
	if watermark != "" && !isLocalFile(watermark) {
		r.logger.Warn().Str("watermark", watermark).Msg("watermark not found, rendering without it")
		watermark = ""
	}

	err := r.ff.RenderVertical(ctx, VerticalJob{
		Input:         input,
		SeekSeconds:   seek,
		Duration:      req.Duration,
		Width:         r.cfg.Width,
		Height:        r.cfg.Height,
		ASSPath:       assPath,
		WatermarkPath: watermark,
		Output:        out,
	})
	if err != nil {
		cleanupScratch()
		_ = os.Remove(out)
		return ports.RenderResult{}, err
	}

	got, err := r.ff.ProbeDuration(ctx, out)
	if err != nil || got <= 0 {
		cleanupScratch()
		_ = os.Remove(out)
		if err == nil {
			err = fmt.Errorf("rendered clip %s has no duration", out)
		}
		return ports.RenderResult{}, err
	}

	cleanupScratch()
	r.logger.Info().Int("clip", req.ClipNumber).Str("path", out).Dur("duration", got).Msg("clip encoded")
	return ports.RenderResult{
		Path:    out,
		Cleanup: func() { _ = os.Remove(out) },
	}, nil
}

func isLocalFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func safeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "video"
	}
	return b.String()
}
