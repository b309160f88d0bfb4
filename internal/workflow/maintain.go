package workflow

import (
	"romkeeper/internal/catalog"
	"romkeeper/internal/dedupe"
	"romkeeper/internal/logging"
	"romkeeper/internal/quality"
)

// QuarantineCorrupt analyzes every entry and quarantines the ones whose
// integrity grade comes back CORRUPT. Entries already quarantined are
// skipped; everything else that is not corrupt is counted as skipped too.
func (r *Runner) QuarantineCorrupt(token *Token) (*Result, error) {
	ctx, _, logger := r.beginRun(token, "quarantine-corrupt")
	defer token.finish()

	result := newResult("quarantine-corrupt")

	entries, err := r.store.List(ctx, "")
	if err != nil {
		return result, Wrap(ErrStorage, "quarantine-corrupt", "list entries", "catalog read failed", err)
	}

	total := len(entries)
	for i, entry := range entries {
		if token.Cancelled() {
			logger.Warn("quarantine-corrupt cancelled", logging.Int("processed", i))
			break
		}
		token.publish(Progress{
			Workflow: "quarantine-corrupt",
			Current:  i + 1,
			Total:    total,
			Path:     entry.Path,
		})

		if entry.Status == catalog.StatusQuarantined {
			result.skip()
			continue
		}

		report := r.quality.Analyze(entry)
		if report.Level != quality.LevelCorrupt {
			result.skip()
			continue
		}

		if _, err := r.integrity.Quarantine(ctx, entry.Path, entry.System, "corrupt", report.Summary()); err != nil {
			result.fail(entry.Path, Wrap(ErrCorrupt, "quarantine-corrupt", "quarantine", "could not isolate corrupt file", err))
			continue
		}
		result.success()
	}

	logger.Info("quarantine-corrupt finished", logging.String("summary", result.Summary()))
	return result, nil
}

// CleanupDuplicates quarantines every entry except the recommended keep
// of each exact-hash duplicate group, optionally narrowed to one system.
// Name-based groups are heuristic and never acted on destructively; their
// discards count as skipped. With dryRun set nothing moves and
// would-quarantine entries count as succeeded. The keep itself is never
// touched, so a failed discard leaves the group partially cleaned but the
// best copy intact.
func (r *Runner) CleanupDuplicates(token *Token, system string, dryRun bool) (*Result, error) {
	ctx, _, logger := r.beginRun(token, "cleanup-duplicates")
	defer token.finish()

	result := newResult("cleanup-duplicates")

	groups, err := r.dedupe.FindAll(ctx, system)
	if err != nil {
		return result, Wrap(ErrStorage, "cleanup-duplicates", "find duplicates", "duplicate scan failed", err)
	}

	total := 0
	for _, g := range groups {
		total += len(g.Discards())
	}

	current := 0
	for _, g := range groups {
		if token.Cancelled() {
			logger.Warn("cleanup-duplicates cancelled", logging.Int("processed", current))
			break
		}
		for _, discard := range g.Discards() {
			if token.Cancelled() {
				break
			}
			current++
			token.publish(Progress{
				Workflow: "cleanup-duplicates",
				Current:  current,
				Total:    total,
				Path:     discard.Path,
			})

			if discard.Status == catalog.StatusQuarantined || g.Kind != dedupe.KindExact {
				result.skip()
				continue
			}
			if dryRun {
				logger.Info("would quarantine duplicate",
					logging.String(logging.FieldPath, discard.Path),
					logging.String("keep", g.RecommendedKeep))
				result.success()
				continue
			}
			detail := "duplicate of " + g.RecommendedKeep
			if _, err := r.integrity.Quarantine(ctx, discard.Path, discard.System, "duplicate", detail); err != nil {
				result.fail(discard.Path, Wrap(ErrIntegrityConflict, "cleanup-duplicates", "quarantine", "quarantine failed", err))
				continue
			}
			result.success()
		}
	}

	logger.Info("cleanup-duplicates finished",
		logging.String("summary", result.Summary()),
		logging.Int("groups", len(groups)))
	return result, nil
}
