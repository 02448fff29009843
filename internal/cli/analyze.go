package cli

import (
	"github.com/spf13/cobra"

	"github.com/forPelevin/clipfeed/internal/types"
)

type analyzeOutput struct {
	VideoID         string              `json:"videoId"`
	Title           string              `json:"title"`
	Duration        float64             `json:"duration"`
	Strategy        string              `json:"strategy"`
	TranscriptLines int                 `json:"transcriptSegments"`
	Analysis        types.VideoAnalysis `json:"analysis"`
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <video-url-or-id>",
		Short: "Fetch the transcript and print the selected clips as JSON without rendering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			a, err := app.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSONOut(cmd.OutOrStdout(), analyzeOutput{
				VideoID:         a.Metadata.ID,
				Title:           a.Metadata.Title,
				Duration:        a.Metadata.Duration,
				Strategy:        a.Strategy,
				TranscriptLines: len(a.Transcript),
				Analysis:        a.Analysis,
			})
		},
	}
}
