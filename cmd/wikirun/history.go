package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/155xp/WikiSpeedrun-Solver/internal/config"
	"github.com/155xp/WikiSpeedrun-Solver/internal/database"
	"github.com/155xp/WikiSpeedrun-Solver/internal/wiki"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command lists past runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past runs from the local database",
		Long: `History lists runs recorded by 'wikirun run', newest first.

With a run ID it shows the full path of that run, hop by hop.

Examples:
  # List the most recent runs
  wikirun history

  # List more runs
  wikirun history --limit 50

  # Show one run in detail
  wikirun history 4b2a9c1e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", 20,
		"Maximum number of runs to list")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	// Use XDG data directory for database
	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if len(args) == 1 {
		return showRunDetail(ctx, db, args[0])
	}

	return listRunHistory(ctx, db, limit)
}

// listRunHistory lists the most recent runs.
func listRunHistory(ctx context.Context, db *database.RunDB, limit int) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found in the database.")
		fmt.Println("\nUse 'wikirun run <start> <target>' to race between two articles.")
		return nil
	}

	fmt.Printf("Run history (%d runs):\n\n", len(runs))
	fmt.Printf("  %-36s  %-19s  %-16s  %4s  %8s  %s\n",
		"ID", "Date", "Status", "Hops", "Time", "Race")
	fmt.Println("  " + strings.Repeat("-", 100))

	for _, run := range runs {
		fmt.Printf("  %-36s  %-19s  %-16s  %4d  %8s  %s -> %s\n",
			run.ID,
			run.Created.Format("2006-01-02 15:04:05"),
			run.Status,
			run.Hops,
			run.Elapsed.Round(100*time.Millisecond),
			wiki.Display(run.StartPage),
			wiki.Display(run.TargetPage),
		)
	}

	fmt.Println("\nUse 'wikirun history <id>' to see the full path of a run.")

	return nil
}

// showRunDetail prints the hop-by-hop path of a single run.
func showRunDetail(ctx context.Context, db *database.RunDB, runID string) error {
	steps, err := db.GetRunSteps(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get run %s: %w", runID, err)
	}

	if len(steps) == 0 {
		return fmt.Errorf("no run found with ID %s", runID)
	}

	fmt.Printf("Run %s (%d hops):\n\n", runID, len(steps))
	for _, step := range steps {
		detail := fmt.Sprintf("score: %.3f", step.Score)
		if step.DirectHit {
			detail = "direct hit"
		}
		fmt.Printf("  %3d. %s (%s) [%s]\n",
			step.Position,
			wiki.Display(step.Page),
			detail,
			step.Elapsed.Round(10*time.Millisecond),
		)
	}

	return nil
}
