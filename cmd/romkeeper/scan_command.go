package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"romkeeper/internal/catalog"
	"romkeeper/internal/workflow"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Walk the library and catalog discovered files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(runner *workflow.Runner, _ *catalog.Store, _ *slog.Logger) error {
				return runWorkflow(runner.Scan)
			})
		},
	}
}

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Drop catalog entries whose files are gone from disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(runner *workflow.Runner, _ *catalog.Store, _ *slog.Logger) error {
				return runWorkflow(runner.Reconcile)
			})
		},
	}
}
