package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forPelevin/clipfeed/internal/types"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs from the run log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.newApp()
			if err != nil {
				return err
			}
			defer app.Close()
			if app.RunLog() == nil {
				return errors.New("run log is disabled (set runlog.driver)")
			}

			rows, err := app.RunLog().Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSONOut(cmd.OutOrStdout(), rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"When", "Video", "Title", "Strategy", "Clips", "Upload"},
				runLogRows(rows),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rows as JSON")
	return cmd
}

func runLogRows(rows []types.RunLogRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.VideoID,
			truncateCell(r.Title, 40),
			r.Strategy,
			strconv.Itoa(r.ClipsProcessed) + "/" + strconv.Itoa(r.ClipsRequested),
			formatUploadStatus(r.UploadStatus),
		})
	}
	return out
}

func formatUploadStatus(status map[string]string) string {
	if len(status) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(status))
	for k := range status {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+status[k])
	}
	return strings.Join(parts, ", ")
}
