package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

var (
	syncListID           string
	syncFolderID         string
	syncSpaceID          string
	syncWorkspaceID      string
	syncLimit            int
	syncIncludeCompleted bool
	syncForce            bool
	syncJSON             bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [task-id]",
	Short: "Synchronise playbooks from ClickUp",
	Long: `Pulls playbook tasks from ClickUp and indexes them.
If a task ID is provided, only that task is re-indexed.
Otherwise the configured scope is synchronised; the scope flags override it.
Without any scope the connector discovers playbook lists across all
workspaces by keyword.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncListID, "list", "", "sync a single list")
	syncCmd.Flags().StringVar(&syncFolderID, "folder", "", "sync a folder")
	syncCmd.Flags().StringVar(&syncSpaceID, "space", "", "sync a space")
	syncCmd.Flags().StringVar(&syncWorkspaceID, "workspace", "", "sync a workspace (team)")
	syncCmd.Flags().IntVar(&syncLimit, "limit", 0, "maximum number of tasks (default from settings)")
	syncCmd.Flags().BoolVar(&syncIncludeCompleted, "include-completed", false, "include closed tasks")
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "re-index tasks even when unchanged")
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "output the sync run as JSON")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if synchronizer == nil {
		return errors.New("sync service not configured")
	}

	if len(args) > 0 {
		return runSyncItem(cmd, args[0])
	}

	req := domain.SyncRequest{
		Scope:            syncScope(),
		Limit:            syncLimit,
		IncludeCompleted: syncIncludeCompleted,
		Force:            syncForce,
	}
	if !syncJSON {
		cmd.Printf("Synchronising %s...\n", req.Scope)
	}

	var run *domain.SyncRun
	err := withLimit(cmd.Context(), domain.RateLimitSync, func(ctx context.Context) error {
		var err error
		run, err = synchronizer.Sync(ctx, req)
		return err
	})
	if err != nil {
		if run != nil && !syncJSON {
			printSyncRun(cmd, run)
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	if syncJSON {
		return outputJSON(cmd, toSyncRunJSON(run))
	}
	printSyncRun(cmd, run)
	return nil
}

func runSyncItem(cmd *cobra.Command, taskID string) error {
	var outcome domain.ItemOutcome
	err := withLimit(cmd.Context(), domain.RateLimitSync, func(ctx context.Context) error {
		var err error
		outcome, err = synchronizer.SyncItem(ctx, taskID)
		return err
	})
	if err != nil {
		return fmt.Errorf("sync of %s failed: %w", taskID, err)
	}

	cmd.Printf("Task %s %s.\n", taskID, outcome.Status)
	if outcome.EmbeddingMissing {
		cmd.Println(warningStyle.Render("Stored without an embedding; it will not appear in search until re-synced."))
	}
	return nil
}

// syncScope builds the scope from the flags, falling back to the configured scope.
func syncScope() domain.Scope {
	scope := domain.Scope{
		WorkspaceID: syncWorkspaceID,
		SpaceID:     syncSpaceID,
		FolderID:    syncFolderID,
		ListID:      syncListID,
	}
	if scope == (domain.Scope{}) {
		return defaultScope
	}
	return scope
}

func printSyncRun(cmd *cobra.Command, run *domain.SyncRun) {
	status := successStyle.Render("completed")
	if !run.Success {
		status = errorStyle.Render("failed")
	}
	cmd.Printf("Sync %s %s in %s\n", run.ID, status, run.Duration().Round(time.Millisecond))
	cmd.Printf("  New: %d  Updated: %d  Skipped: %d  Errors: %d\n",
		run.SyncedCount, run.UpdatedCount, run.SkippedCount, run.ErrorCount)
	if run.Error != "" {
		cmd.Printf("  %s\n", errorStyle.Render(run.Error))
	}
	for _, e := range run.Errors {
		cmd.Printf("  - %s\n", mutedStyle.Render(e))
	}
}

type syncRunJSON struct {
	ID          string   `json:"id"`
	Scope       string   `json:"scope"`
	Success     bool     `json:"success"`
	Synced      int      `json:"synced"`
	Updated     int      `json:"updated"`
	Skipped     int      `json:"skipped"`
	ErrorCount  int      `json:"error_count"`
	Errors      []string `json:"errors,omitempty"`
	Error       string   `json:"error,omitempty"`
	StartedAt   string   `json:"started_at"`
	CompletedAt string   `json:"completed_at,omitempty"`
}

func toSyncRunJSON(run *domain.SyncRun) syncRunJSON {
	out := syncRunJSON{
		ID:         run.ID,
		Scope:      run.Scope,
		Success:    run.Success,
		Synced:     run.SyncedCount,
		Updated:    run.UpdatedCount,
		Skipped:    run.SkippedCount,
		ErrorCount: run.ErrorCount,
		Errors:     run.Errors,
		Error:      run.Error,
		StartedAt:  run.StartedAt.Format(timeLayout),
	}
	if !run.CompletedAt.IsZero() {
		out.CompletedAt = run.CompletedAt.Format(timeLayout)
	}
	return out
}
