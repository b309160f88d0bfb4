package workflow

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"romkeeper/internal/catalog"
	"romkeeper/internal/dat"
	"romkeeper/internal/logging"
)

// VerifyOptions selects what Verify processes and how hard it hashes.
type VerifyOptions struct {
	// System narrows verification to one platform and lets the runner
	// pick the single best matching reference file. Empty verifies the
	// whole library against every loaded reference file.
	System string
	// Deep adds md5 and sha256 to the fast crc32+sha1 pass.
	Deep bool
	// DATPath overrides reference-file discovery.
	DATPath string
}

// Verify hashes catalog entries and classifies them against the reference
// index: VERIFIED, MISMATCH, or UNKNOWN. Hashing fans out to a bounded
// worker pool; all catalog writes stay serialized through the store.
func (r *Runner) Verify(token *Token, opts VerifyOptions) (*Result, error) {
	ctx, runID, logger := r.beginRun(token, "verify")
	defer token.finish()

	result := newResult("verify")

	index, loaded := r.loadIndex(opts)
	logger.Info("reference index loaded",
		logging.Int("files", loaded),
		logging.String("name", index.Name))

	entries, err := r.store.List(ctx, opts.System)
	if err != nil {
		return result, Wrap(ErrStorage, "verify", "list entries", "catalog read failed", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.workerCount())

	total := len(entries)
	dispatched := 0
	for i, entry := range entries {
		if token.Cancelled() {
			logger.Warn("verify cancelled", logging.Int("dispatched", dispatched))
			break
		}
		// A worker hitting fatal storage trouble cancels groupCtx; stop
		// handing out new items and let the in-flight ones finish.
		if groupCtx.Err() != nil {
			break
		}
		if entry.Status == catalog.StatusQuarantined {
			result.skip()
			continue
		}

		dispatched++
		entry := entry
		current := i + 1
		group.Go(func() error {
			err := r.verifyOne(ctx, index, entry, opts.Deep, runID)
			switch {
			case err == nil:
				result.success()
			case errors.Is(err, ErrStorage):
				return err
			default:
				result.fail(entry.Path, err)
			}
			token.publish(Progress{
				Workflow: "verify",
				Current:  current,
				Total:    total,
				Path:     entry.Path,
			})
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return result, err
	}

	logger.Info("verify finished", logging.String("summary", result.Summary()))
	return result, nil
}

func (r *Runner) loadIndex(opts VerifyOptions) (*dat.Index, int) {
	if opts.DATPath != "" {
		idx, err := dat.ParseFile(opts.DATPath)
		if err != nil {
			return dat.NewIndex(), 0
		}
		return idx, 1
	}
	if opts.System != "" {
		if path := dat.FindForSystem(r.cfg.Paths.DatsDir, opts.System); path != "" {
			idx, err := dat.ParseFile(path)
			if err != nil {
				return dat.NewIndex(), 0
			}
			return idx, 1
		}
		return dat.NewIndex(), 0
	}
	return dat.LoadAll(r.cfg.Paths.DatsDir)
}

func (r *Runner) verifyOne(ctx context.Context, index *dat.Index, entry *catalog.Entry, deep bool, runID string) error {
	info, err := os.Stat(entry.Path)
	if err != nil {
		return Wrap(ErrNotFound, "verify", "stat file", "file missing on disk", err)
	}

	hashes, reused := r.reusableHashes(entry, info, deep)
	if !reused {
		hashes, err = dat.ComputeHashes(ctx, entry.Path, deep)
		if err != nil {
			return Wrap(ErrIOFailure, "verify", "hash file", "could not hash file", err)
		}
	}

	verdict := dat.Classify(index, hashes)

	updated := *entry
	updated.Size = info.Size()
	updated.ModTime = info.ModTime().UTC()
	updated.CRC32 = hashes.CRC32
	updated.SHA1 = hashes.SHA1
	if hashes.MD5 != "" {
		updated.MD5 = hashes.MD5
	}
	if hashes.SHA256 != "" {
		updated.SHA256 = hashes.SHA256
	}
	updated.Status = verdict.Status
	updated.MatchName = verdict.MatchName
	updated.DATName = verdict.DATName

	if err := r.store.Upsert(ctx, &updated); err != nil {
		return Wrap(ErrStorage, "verify", "upsert entry", "catalog write failed", err)
	}
	if err := r.store.LogAction(ctx, entry.Path, catalog.ActionVerify, string(verdict.Status), runID); err != nil {
		return Wrap(ErrStorage, "verify", "audit", "audit write failed", err)
	}
	return nil
}

// reusableHashes returns the stored digests when the file is unchanged on
// disk and every digest the pass needs is already present.
func (r *Runner) reusableHashes(entry *catalog.Entry, info os.FileInfo, deep bool) (dat.Hashes, bool) {
	if !unchanged(entry, info) {
		return dat.Hashes{}, false
	}
	if entry.CRC32 == "" || entry.SHA1 == "" {
		return dat.Hashes{}, false
	}
	if deep && (entry.MD5 == "" || entry.SHA256 == "") {
		return dat.Hashes{}, false
	}
	return dat.Hashes{
		Size:   entry.Size,
		CRC32:  entry.CRC32,
		MD5:    entry.MD5,
		SHA1:   entry.SHA1,
		SHA256: entry.SHA256,
	}, true
}
