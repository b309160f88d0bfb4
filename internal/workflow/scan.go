package workflow

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"romkeeper/internal/catalog"
	"romkeeper/internal/dat"
	"romkeeper/internal/logging"
)

// mtimeSlack absorbs filesystems that round modification times.
const mtimeSlack = time.Second

type discoveredFile struct {
	path   string
	system string
	info   fs.FileInfo
}

// Scan walks the library root and upserts discovered files into the
// catalog. The first directory level names the system. Unchanged entries
// are skipped; entries whose file vanished are left alone for Reconcile.
func (r *Runner) Scan(token *Token) (*Result, error) {
	ctx, runID, logger := r.beginRun(token, "scan")
	defer token.finish()

	result := newResult("scan")

	files, err := r.discoverFiles()
	if err != nil {
		return result, Wrap(ErrIOFailure, "scan", "walk library", "failed to walk library root", err)
	}

	logger.Info("scan started",
		logging.String("root", r.cfg.Paths.LibraryDir),
		logging.Int("files", len(files)))

	for i, file := range files {
		if token.Cancelled() {
			logger.Warn("scan cancelled", logging.Int("processed", result.Processed()))
			break
		}

		if err := r.scanOne(ctx, file, runID, result); err != nil {
			if errors.Is(err, ErrStorage) {
				return result, err
			}
			result.fail(file.path, err)
		}

		token.publish(Progress{
			Workflow: "scan",
			Current:  i + 1,
			Total:    len(files),
			Path:     file.path,
		})
	}

	logger.Info("scan finished", logging.String("summary", result.Summary()))
	return result, nil
}

func (r *Runner) discoverFiles() ([]discoveredFile, error) {
	root := r.cfg.Paths.LibraryDir
	var files []discoveredFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if r.excluded(d.Name()) {
			if d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		files = append(files, discoveredFile{
			path:   path,
			system: systemForPath(root, path),
			info:   info,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (r *Runner) excluded(name string) bool {
	for _, prefix := range r.cfg.Scan.ExcludePrefixes {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// systemForPath maps a file to its system by the first path segment under
// the library root. Files sitting directly in the root get "unknown".
func systemForPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "unknown"
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[0]
}

func (r *Runner) scanOne(ctx context.Context, file discoveredFile, runID string, result *Result) error {
	existing, err := r.store.Get(ctx, file.path)
	if err != nil {
		return Wrap(ErrStorage, "scan", "read entry", "catalog read failed", err)
	}

	if existing != nil && !r.cfg.Scan.DeepHash && unchanged(existing, file.info) {
		result.skip()
		return nil
	}

	hashes, err := dat.ComputeHashes(ctx, file.path, r.cfg.Scan.DeepHash)
	if err != nil {
		return Wrap(ErrIOFailure, "scan", "hash file", "could not hash file", err)
	}

	entry := &catalog.Entry{
		Path:    file.path,
		System:  file.system,
		Size:    file.info.Size(),
		ModTime: file.info.ModTime().UTC(),
		CRC32:   hashes.CRC32,
		MD5:     hashes.MD5,
		SHA1:    hashes.SHA1,
		SHA256:  hashes.SHA256,
		Status:  catalog.StatusUnknown,
	}
	if existing != nil {
		// Preserve identification when content did not actually change.
		if existing.SHA1 != "" && existing.SHA1 == hashes.SHA1 {
			entry.Status = existing.Status
			entry.MatchName = existing.MatchName
			entry.DATName = existing.DATName
		}
		entry.Extra = existing.Extra
	}

	if err := r.store.Upsert(ctx, entry); err != nil {
		return Wrap(ErrStorage, "scan", "upsert entry", "catalog write failed", err)
	}
	if existing == nil {
		if err := r.store.LogAction(ctx, file.path, catalog.ActionScan, "discovered", runID); err != nil {
			return Wrap(ErrStorage, "scan", "audit", "audit write failed", err)
		}
	}

	result.success()
	return nil
}

func unchanged(entry *catalog.Entry, info fs.FileInfo) bool {
	if entry.Size != info.Size() {
		return false
	}
	delta := entry.ModTime.Sub(info.ModTime())
	if delta < 0 {
		delta = -delta
	}
	return delta < mtimeSlack
}

// Reconcile removes catalog entries whose files no longer exist on disk.
// Quarantined entries are checked against their quarantine location like
// any other path.
func (r *Runner) Reconcile(token *Token) (*Result, error) {
	ctx, runID, logger := r.beginRun(token, "reconcile")
	defer token.finish()

	result := newResult("reconcile")

	entries, err := r.store.List(ctx, "")
	if err != nil {
		return result, Wrap(ErrStorage, "reconcile", "list entries", "catalog read failed", err)
	}

	for i, entry := range entries {
		if token.Cancelled() {
			logger.Warn("reconcile cancelled", logging.Int("processed", result.Processed()))
			break
		}

		if _, statErr := os.Stat(entry.Path); statErr == nil {
			result.skip()
		} else if os.IsNotExist(statErr) {
			if err := r.store.Remove(ctx, entry.Path); err != nil {
				return result, Wrap(ErrStorage, "reconcile", "remove entry", "catalog write failed", err)
			}
			if err := r.store.LogAction(ctx, entry.Path, catalog.ActionRemove, "file missing on disk", runID); err != nil {
				return result, Wrap(ErrStorage, "reconcile", "audit", "audit write failed", err)
			}
			result.success()
		} else {
			result.fail(entry.Path, Wrap(ErrIOFailure, "reconcile", "stat file", "could not stat file", statErr))
		}

		token.publish(Progress{
			Workflow: "reconcile",
			Current:  i + 1,
			Total:    len(entries),
			Path:     entry.Path,
		})
	}

	logger.Info("reconcile finished", logging.String("summary", result.Summary()))
	return result, nil
}
