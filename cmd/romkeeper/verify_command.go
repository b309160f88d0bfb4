package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"romkeeper/internal/catalog"
	"romkeeper/internal/workflow"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var deep bool
	var datPath string

	cmd := &cobra.Command{
		Use:   "verify [system]",
		Short: "Hash files and match them against reference datasets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := workflow.VerifyOptions{Deep: deep, DATPath: datPath}
			if len(args) == 1 {
				opts.System = args[0]
			}
			return ctx.withRunner(func(runner *workflow.Runner, _ *catalog.Store, _ *slog.Logger) error {
				return runWorkflow(func(token *workflow.Token) (*workflow.Result, error) {
					return runner.Verify(token, opts)
				})
			})
		},
	}

	cmd.Flags().BoolVar(&deep, "deep", false, "Also compute md5 and sha256")
	cmd.Flags().StringVar(&datPath, "dat", "", "Verify against one specific reference file")

	return cmd
}
