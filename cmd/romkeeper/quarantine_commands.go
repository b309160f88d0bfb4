package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"romkeeper/internal/catalog"
	"romkeeper/internal/workflow"
)

func newQuarantineCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quarantine",
		Short: "Isolate problem files",
	}

	cmd.AddCommand(newQuarantineListCommand(ctx))
	cmd.AddCommand(newQuarantineCorruptCommand(ctx))

	return cmd
}

func newQuarantineListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show quarantined files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(runner *workflow.Runner, _ *catalog.Store, _ *slog.Logger) error {
				entries, err := runner.Integrity().ListQuarantined(context.Background())
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Println("Quarantine is empty")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.Path,
						e.System,
						humanBytes(e.Size),
						e.UpdatedAt.Format("2006-01-02 15:04"),
					})
				}
				writeTable(os.Stdout, []string{"Path", "System", "Size", "Quarantined"}, rows, 3)
				return nil
			})
		},
	}
}

func newQuarantineCorruptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "corrupt",
		Short: "Analyze the library and quarantine corrupt files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(runner *workflow.Runner, _ *catalog.Store, _ *slog.Logger) error {
				return runWorkflow(runner.QuarantineCorrupt)
			})
		},
	}
}

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	var targetDir string

	cmd := &cobra.Command{
		Use:   "restore <quarantined-path>",
		Short: "Move a quarantined file back into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(runner *workflow.Runner, store *catalog.Store, _ *slog.Logger) error {
				source := args[0]
				dest := targetDir
				if dest == "" {
					cfg, err := ctx.ensureConfig()
					if err != nil {
						return err
					}
					entry, err := store.Get(context.Background(), source)
					if err != nil {
						return err
					}
					system := "unknown"
					if entry != nil && entry.System != "" {
						system = entry.System
					}
					dest = filepath.Join(cfg.Paths.LibraryDir, system)
				}

				restored, err := runner.Integrity().Restore(context.Background(), source, dest)
				if err != nil {
					return err
				}
				fmt.Printf("Restored to %s\n", restored)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&targetDir, "to", "", "Destination directory (defaults to the system's library folder)")

	return cmd
}
