package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/clipfeed/internal/pipeline"
	"github.com/forPelevin/clipfeed/internal/types"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		upload    bool
		maxClips  int
		watermark string
		outDir    string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "run <video-url-or-id>",
		Short: "Select, render and optionally publish clips for one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, err := app.Run(runCtx, pipeline.Request{
				VideoURLOrID:  args[0],
				Upload:        upload || app.Config().Pipeline.Upload,
				MaxClips:      maxClips,
				WatermarkPath: watermark,
				OutDir:        outDir,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSONOut(cmd.OutOrStdout(), report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&upload, "upload", false, "Publish rendered clips to the configured platforms")
	cmd.Flags().IntVar(&maxClips, "max-clips", 0, "Maximum clips to render (default from config)")
	cmd.Flags().StringVar(&watermark, "watermark", "", "Watermark PNG path (default from config)")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory root (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run report as JSON")
	return cmd
}

func printReport(w io.Writer, r types.RunReport) {
	fmt.Fprintf(w, "Run %s  video=%s  strategy=%s\n", r.RunID, r.VideoID, r.Strategy)
	fmt.Fprintf(w, "Clips: %d requested, %d rendered, %d uploaded (%s)\n",
		r.TotalClipsRequested, r.ClipsProcessed, r.ClipsUploaded, r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	if len(r.Clips) == 0 {
		return
	}
	fmt.Fprintln(w, renderTable(
		[]string{"#", "Start", "Length", "File", "Upload"},
		reportRows(r.Clips),
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
	))
}

func reportRows(clips []types.ProcessedClip) [][]string {
	rows := make([][]string, 0, len(clips))
	for _, c := range clips {
		upload := "-"
		switch {
		case c.Uploaded:
			upload = c.PlatformPostURL
		case c.UploadError != "":
			upload = "failed: " + c.UploadError
		}
		rows = append(rows, []string{
			strconv.Itoa(c.ClipNumber),
			formatClock(c.Start),
			strconv.FormatFloat(c.Duration, 'f', 1, 64) + "s",
			c.VideoPath,
			upload,
		})
	}
	return rows
}

func formatClock(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	total := int(sec)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func writeJSONOut(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func truncateCell(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
