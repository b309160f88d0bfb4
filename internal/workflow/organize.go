package workflow

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"romkeeper/internal/catalog"
	"romkeeper/internal/fileutil"
	"romkeeper/internal/logging"
)

// NamingPolicy decides where an entry belongs relative to the library root.
type NamingPolicy interface {
	IdealRelativePath(entry *catalog.Entry) (string, error)
}

// StandardNaming groups files under <system>/ and keeps the file's own
// base name. Renaming schemes belong to external policy providers; this
// default only fixes the directory layout.
type StandardNaming struct{}

func (StandardNaming) IdealRelativePath(entry *catalog.Entry) (string, error) {
	base := filepath.Base(entry.Path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	system := entry.System
	if system == "" {
		system = "unknown"
	}
	return filepath.Join(scrubSegment(system), scrubSegment(stem)+ext), nil
}

// scrubSegment removes characters that are unsafe in path segments on
// common filesystems.
func scrubSegment(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '|', '?', '*', '/', '\\':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// Organize moves catalog entries to the location the naming policy picks
// under the library root. The file moves on disk first; the catalog path
// swaps only after the move succeeds. Quarantined entries are skipped.
// With dryRun set nothing is touched and would-move entries count as
// succeeded.
func (r *Runner) Organize(token *Token, policy NamingPolicy, dryRun bool) (*Result, error) {
	ctx, runID, logger := r.beginRun(token, "organize")
	defer token.finish()

	if policy == nil {
		policy = StandardNaming{}
	}
	result := newResult("organize")

	entries, err := r.store.List(ctx, "")
	if err != nil {
		return result, Wrap(ErrStorage, "organize", "list entries", "catalog read failed", err)
	}

	total := len(entries)
	for i, entry := range entries {
		if token.Cancelled() {
			logger.Warn("organize cancelled", logging.Int("processed", i))
			break
		}
		token.publish(Progress{
			Workflow: "organize",
			Current:  i + 1,
			Total:    total,
			Path:     entry.Path,
		})

		if entry.Status == catalog.StatusQuarantined {
			result.skip()
			continue
		}

		rel, err := policy.IdealRelativePath(entry)
		if err != nil {
			result.fail(entry.Path, Wrap(ErrConfiguration, "organize", "resolve name", "naming policy rejected entry", err))
			continue
		}
		ideal := filepath.Join(r.cfg.Paths.LibraryDir, rel)
		if ideal == entry.Path {
			result.skip()
			continue
		}

		if dryRun {
			logger.Info("would move",
				logging.String(logging.FieldPath, entry.Path),
				logging.String("destination", ideal))
			result.success()
			continue
		}

		if err := r.organizeOne(ctx, entry, ideal, runID); err != nil {
			if errors.Is(err, ErrStorage) {
				return result, err
			}
			result.fail(entry.Path, err)
			continue
		}
		result.success()
	}

	logger.Info("organize finished", logging.String("summary", result.Summary()))
	return result, nil
}

func (r *Runner) organizeOne(ctx context.Context, entry *catalog.Entry, ideal string, runID string) error {
	dest, err := fileutil.NextAvailablePath(ideal)
	if err != nil {
		return Wrap(ErrIOFailure, "organize", "pick destination", "no free destination path", err)
	}
	if err := fileutil.MoveFile(entry.Path, dest); err != nil {
		return Wrap(ErrIOFailure, "organize", "move file", "file move failed", err)
	}
	if err := r.store.Move(ctx, entry.Path, dest); err != nil {
		return Wrap(ErrStorage, "organize", "rebind path", "catalog path swap failed", err)
	}
	if err := r.store.LogAction(ctx, dest, catalog.ActionOrganize, "moved from "+entry.Path, runID); err != nil {
		return Wrap(ErrStorage, "organize", "audit", "audit write failed", err)
	}
	return nil
}
