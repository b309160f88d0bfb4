package workflow

import (
	"fmt"
	"sync"
)

// maxResultErrors bounds the per-run error list so a pathological library
// cannot balloon the result.
const maxResultErrors = 50

// Result is the aggregate outcome of one workflow run. Per-item failures
// are collected here; a workflow only returns a Go error for run-level
// failures such as a broken catalog.
type Result struct {
	Workflow  string
	Succeeded int
	Failed    int
	Skipped   int
	Errors    []string
	Truncated bool

	mu sync.Mutex
}

func newResult(workflow string) *Result {
	return &Result{Workflow: workflow}
}

func (r *Result) success() {
	r.mu.Lock()
	r.Succeeded++
	r.mu.Unlock()
}

func (r *Result) skip() {
	r.mu.Lock()
	r.Skipped++
	r.mu.Unlock()
}

func (r *Result) fail(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed++
	if len(r.Errors) >= maxResultErrors {
		r.Truncated = true
		return
	}
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", path, err))
}

// Processed returns the total number of items the run accounted for.
func (r *Result) Processed() int {
	return r.Succeeded + r.Failed + r.Skipped
}

// Summary is a one-line digest of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf("%s: %d succeeded, %d failed, %d skipped",
		r.Workflow, r.Succeeded, r.Failed, r.Skipped)
}
