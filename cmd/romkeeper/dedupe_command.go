package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"romkeeper/internal/catalog"
	"romkeeper/internal/dedupe"
	"romkeeper/internal/workflow"
)

func newDedupeCommand(ctx *commandContext) *cobra.Command {
	var cleanup bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "dedupe [system]",
		Short: "Find duplicate files across the library",
		Long: "Find duplicates by exact hash, cross-region variants, version " +
			"variants, and fuzzy name similarity. With --cleanup every exact " +
			"duplicate except the recommended keep is quarantined; name-based " +
			"groups are report-only. Pass a system to restrict the search.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var system string
			if len(args) == 1 {
				system = args[0]
			}
			return ctx.withRunner(func(runner *workflow.Runner, _ *catalog.Store, _ *slog.Logger) error {
				if cleanup {
					return runWorkflow(func(token *workflow.Token) (*workflow.Result, error) {
						return runner.CleanupDuplicates(token, system, dryRun)
					})
				}

				groups, err := runner.Dedupe().FindAll(context.Background(), system)
				if err != nil {
					return err
				}
				if len(groups) == 0 {
					fmt.Println("No duplicates found")
					return nil
				}
				printDuplicateGroups(groups)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "Quarantine every exact duplicate except the recommended keep")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report planned quarantines without touching anything")

	return cmd
}

func printDuplicateGroups(groups []*dedupe.Group) {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			g.Kind,
			fmt.Sprintf("%d", len(g.Entries)),
			filepath.Base(g.RecommendedKeep),
			g.RecommendationReason(),
			humanBytes(g.SpaceSavings),
		})
	}
	writeTable(os.Stdout,
		[]string{"Kind", "Copies", "Keep", "Reason", "Reclaimable"},
		rows, 2, 5)

	stats := dedupe.Summarize(groups)
	fmt.Printf("%d groups, %s reclaimable\n", stats.TotalGroups, humanBytes(stats.TotalWastedBytes))
}
