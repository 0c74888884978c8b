package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	syncsLimit int
	syncsJSON  bool
)

var syncsCmd = &cobra.Command{
	Use:   "syncs",
	Short: "Show recent sync runs",
	RunE:  runSyncs,
}

func init() {
	syncsCmd.Flags().IntVarP(&syncsLimit, "limit", "n", 10, "number of runs to show")
	syncsCmd.Flags().BoolVar(&syncsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(syncsCmd)
}

func runSyncs(cmd *cobra.Command, _ []string) error {
	if synchronizer == nil {
		return errors.New("sync service not configured")
	}

	runs, err := synchronizer.RecentRuns(cmd.Context(), syncsLimit)
	if err != nil {
		return fmt.Errorf("failed to list sync runs: %w", err)
	}

	if syncsJSON {
		out := make([]syncRunJSON, 0, len(runs))
		for i := range runs {
			out = append(out, toSyncRunJSON(&runs[i]))
		}
		return outputJSON(cmd, out)
	}

	if len(runs) == 0 {
		cmd.Println("No sync runs recorded.")
		return nil
	}
	for i := range runs {
		r := &runs[i]
		status := successStyle.Render("ok    ")
		if !r.Success {
			status = errorStyle.Render("failed")
		}
		cmd.Printf("  %s  %s  %-20s new %d, updated %d, skipped %d, errors %d\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"), status, r.Scope,
			r.SyncedCount, r.UpdatedCount, r.SkippedCount, r.ErrorCount)
	}
	return nil
}
