package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"romkeeper/internal/catalog"
	"romkeeper/internal/quality"
	"romkeeper/internal/workflow"
)

func newQualityCommand(ctx *commandContext) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "quality [system]",
		Short: "Score file integrity across the library",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			system := ""
			if len(args) == 1 {
				system = args[0]
			}
			return ctx.withRunner(func(runner *workflow.Runner, _ *catalog.Store, _ *slog.Logger) error {
				if verbose {
					return printQualityReports(runner.Quality(), system)
				}
				stats, err := runner.Quality().Statistics(context.Background(), system)
				if err != nil {
					return err
				}
				printQualityStats(stats)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every file with its grade and issues")

	return cmd
}

func printQualityStats(stats quality.Stats) {
	if stats.Total == 0 {
		fmt.Println("Catalog is empty, run scan first")
		return
	}

	levels := []quality.Level{
		quality.LevelPerfect,
		quality.LevelGood,
		quality.LevelQuestionable,
		quality.LevelDamaged,
		quality.LevelCorrupt,
		quality.LevelUnknown,
	}
	rows := make([][]string, 0, len(levels))
	for _, level := range levels {
		if count := stats.ByLevel[level]; count > 0 {
			rows = append(rows, []string{string(level), fmt.Sprintf("%d", count)})
		}
	}
	writeTable(os.Stdout, []string{"Grade", "Files"}, rows, 2)

	fmt.Printf("%d files, %d playable, average score %.1f\n",
		stats.Total, stats.Playable, stats.AverageScore)
}

func printQualityReports(analyzer *quality.Analyzer, system string) error {
	reports, err := analyzer.AnalyzeLibrary(context.Background(), system)
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(reports))
	for path := range reports {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	rows := make([][]string, 0, len(paths))
	for _, path := range paths {
		report := reports[path]
		issues := ""
		for i, issue := range report.Issues {
			if i > 0 {
				issues += "; "
			}
			issues += issue.Description
		}
		rows = append(rows, []string{
			path,
			string(report.Level),
			fmt.Sprintf("%d", report.Score),
			issues,
		})
	}
	writeTable(os.Stdout, []string{"Path", "Grade", "Score", "Issues"}, rows, 3)
	return nil
}
