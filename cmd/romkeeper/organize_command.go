package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"romkeeper/internal/catalog"
	"romkeeper/internal/workflow"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Move files to their canonical location under the library root",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(runner *workflow.Runner, _ *catalog.Store, _ *slog.Logger) error {
				return runWorkflow(func(token *workflow.Token) (*workflow.Result, error) {
					return runner.Organize(token, workflow.StandardNaming{}, dryRun)
				})
			})
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report moves without touching anything")

	return cmd
}
