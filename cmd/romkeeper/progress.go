package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"romkeeper/internal/workflow"
)

// renderProgress consumes the progress stream until it closes. On a
// terminal it redraws a single status line; otherwise updates are
// discarded so piped output stays clean.
func renderProgress(updates <-chan workflow.Progress) {
	tty := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	if !tty {
		for range updates {
		}
		return
	}

	drew := false
	for p := range updates {
		fmt.Fprintf(os.Stderr, "\r\033[K%s %3.0f%% (%d/%d) %s",
			p.Workflow, p.Percent()*100, p.Current, p.Total, filepath.Base(p.Path))
		drew = true
	}
	if drew {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}
}

func printResult(result *workflow.Result) {
	fmt.Println(result.Summary())
	for _, e := range result.Errors {
		fmt.Fprintln(os.Stderr, "  "+e)
	}
	if result.Truncated {
		fmt.Fprintf(os.Stderr, "  (error list truncated, %d total failures)\n", result.Failed)
	}
}
