package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"romkeeper/internal/catalog"
	"romkeeper/internal/workflow"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the catalog by system and verification status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(_ *workflow.Runner, store *catalog.Store, _ *slog.Logger) error {
				bySystem, err := store.CountBySystem(context.Background())
				if err != nil {
					return err
				}
				byStatus, err := store.CountByStatus(context.Background())
				if err != nil {
					return err
				}
				if len(bySystem) == 0 {
					fmt.Println("Catalog is empty, run scan first")
					return nil
				}

				writeTable(os.Stdout, []string{"System", "Files"}, sortedCountRows(bySystem), 2)
				writeTable(os.Stdout, []string{"Status", "Files"}, sortedCountRows(byStatus), 2)
				return nil
			})
		},
	}
}

func sortedCountRows(counts map[string]int) [][]string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, fmt.Sprintf("%d", counts[k])})
	}
	return rows
}

func newActionsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "actions",
		Short: "Show the most recent catalog operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(_ *workflow.Runner, store *catalog.Store, _ *slog.Logger) error {
				actions, err := store.RecentActions(context.Background(), limit)
				if err != nil {
					return err
				}
				if len(actions) == 0 {
					fmt.Println("No recorded actions")
					return nil
				}
				rows := make([][]string, 0, len(actions))
				for _, a := range actions {
					rows = append(rows, []string{
						a.Timestamp.Format("2006-01-02 15:04:05"),
						a.Kind,
						a.Path,
						a.Detail,
					})
				}
				writeTable(os.Stdout, []string{"When", "Action", "Path", "Detail"}, rows)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of actions to show")

	return cmd
}
