package workflow

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/google/uuid"

	"romkeeper/internal/catalog"
	"romkeeper/internal/config"
	"romkeeper/internal/dedupe"
	"romkeeper/internal/integrity"
	"romkeeper/internal/logging"
	"romkeeper/internal/quality"
)

// Runner drives the workflows over one catalog session. A single
// coordinating goroutine owns each run; only hashing fans out to a bounded
// worker pool.
type Runner struct {
	cfg       *config.Config
	store     *catalog.Store
	integrity *integrity.Manager
	quality   *quality.Analyzer
	dedupe    *dedupe.Engine
	logger    *slog.Logger
}

// NewRunner wires the engines over a shared store.
func NewRunner(cfg *config.Config, store *catalog.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:       cfg,
		store:     store,
		integrity: integrity.NewManager(store, cfg, logger),
		quality:   quality.NewAnalyzer(store, cfg, logger),
		dedupe:    dedupe.NewEngine(store, cfg, logger),
		logger:    logger,
	}
}

// Integrity exposes the run's integrity manager, mainly so callers can
// subscribe to incident events.
func (r *Runner) Integrity() *integrity.Manager {
	return r.integrity
}

// Quality exposes the run's quality analyzer.
func (r *Runner) Quality() *quality.Analyzer {
	return r.quality
}

// Dedupe exposes the run's deduplication engine.
func (r *Runner) Dedupe() *dedupe.Engine {
	return r.dedupe
}

func (r *Runner) workerCount() int {
	if n := r.cfg.Scan.WorkerCount; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// beginRun stamps a fresh run ID into the context and returns it with a
// scoped logger. The returned context is detached from the token's
// cancellation: cancellation is cooperative, polled by the workflow loop
// between items, and an operation in flight must finish once started.
func (r *Runner) beginRun(token *Token, workflow string) (context.Context, string, *slog.Logger) {
	runID := uuid.NewString()
	ctx := logging.WithRunID(context.WithoutCancel(token.Context()), runID)
	logger := r.logger.With(
		logging.String(logging.FieldComponent, workflow),
		logging.String(logging.FieldRunID, runID),
	)
	return ctx, runID, logger
}
