package workflow

import (
	"context"
	"sync"
	"time"
)

// Progress is one workflow progress update. Delivery is best effort:
// updates are dropped rather than blocking the worker when the consumer
// falls behind.
type Progress struct {
	Workflow string
	Current  int
	Total    int
	Path     string
	Message  string
}

// Percent returns completion in [0, 1].
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Current) / float64(p.Total)
	if f > 1 {
		f = 1
	}
	return f
}

const progressBuffer = 64

// Token carries cancellation and progress for one workflow run.
// Cancellation is cooperative: workflows poll the token once per item, so
// the item in flight always completes before the run winds down.
type Token struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	progress chan Progress
	closed   bool
}

// NewToken derives a token from the parent context.
func NewToken(parent context.Context) *Token {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Token{
		ctx:      ctx,
		cancel:   cancel,
		progress: make(chan Progress, progressBuffer),
	}
}

// Context returns the run's context.
func (t *Token) Context() context.Context {
	return t.ctx
}

// Cancel requests a cooperative stop.
func (t *Token) Cancel() {
	t.cancel()
}

// Cancelled reports whether a stop has been requested.
func (t *Token) Cancelled() bool {
	select {
	case <-t.ctx.Done():
		return true
	default:
		return false
	}
}

// Progress exposes the progress stream for consumers.
func (t *Token) Progress() <-chan Progress {
	return t.progress
}

// publish sends an update without ever blocking; when the buffer is full
// the update is dropped.
func (t *Token) publish(p Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.progress <- p:
	default:
	}
}

// finish closes the progress stream. Safe to call more than once.
func (t *Token) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.progress)
	}
}

// Drain consumes and discards remaining progress updates, useful for
// callers that only care about the final result.
func (t *Token) Drain() {
	for range t.progress {
	}
}

// WaitCancelled blocks until cancellation or the timeout elapses, mainly
// for tests.
func (t *Token) WaitCancelled(timeout time.Duration) bool {
	select {
	case <-t.ctx.Done():
		return true
	case <-time.After(timeout):
		return false
	}
}
