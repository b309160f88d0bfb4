package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const entryColumns = "path, system, size, mtime, crc32, md5, sha1, sha256, status, match_name, dat_name, extra_json, created_at, updated_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		path      string
		system    string
		size      int64
		mtimeRaw  sql.NullString
		crc32     sql.NullString
		md5       sql.NullString
		sha1      sql.NullString
		sha256    sql.NullString
		statusStr string
		matchName sql.NullString
		datName   sql.NullString
		extraJSON sql.NullString
		createdAt sql.NullString
		updatedAt sql.NullString
	)

	if err := scanner.Scan(
		&path,
		&system,
		&size,
		&mtimeRaw,
		&crc32,
		&md5,
		&sha1,
		&sha256,
		&statusStr,
		&matchName,
		&datName,
		&extraJSON,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		Path:      path,
		System:    system,
		Size:      size,
		CRC32:     crc32.String,
		MD5:       md5.String,
		SHA1:      sha1.String,
		SHA256:    sha256.String,
		Status:    Status(statusStr),
		MatchName: matchName.String,
		DATName:   datName.String,
	}
	if extraJSON.Valid && extraJSON.String != "" {
		extra := map[string]string{}
		if err := json.Unmarshal([]byte(extraJSON.String), &extra); err == nil {
			entry.Extra = extra
		}
	}
	if mtime, err := parseTimeString(mtimeRaw.String); err == nil {
		entry.ModTime = mtime
	}
	if created, err := parseTimeString(createdAt.String); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedAt.String); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}

func encodeExtra(extra map[string]string) (any, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("encode extra: %w", err)
	}
	return string(data), nil
}

// Get fetches the entry at the given path, or nil when not cataloged.
func (s *Store) Get(ctx context.Context, path string) (*Entry, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM catalog_entries WHERE path = ?", path)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// Upsert inserts the entry or overwrites the existing record at the same
// path. Hash values are stored lower-cased; created_at is preserved on
// overwrite.
func (s *Store) Upsert(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("nil entry")
	}
	if entry.Path == "" {
		return errors.New("entry path is required")
	}
	if entry.Status == "" {
		entry.Status = StatusUnknown
	}
	if !ValidStatus(entry.Status) {
		return fmt.Errorf("invalid status %q", entry.Status)
	}

	extraValue, err := encodeExtra(entry.Extra)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err = s.execWithRetry(ensureContext(ctx), `
		INSERT INTO catalog_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			system = excluded.system,
			size = excluded.size,
			mtime = excluded.mtime,
			crc32 = excluded.crc32,
			md5 = excluded.md5,
			sha1 = excluded.sha1,
			sha256 = excluded.sha256,
			status = excluded.status,
			match_name = excluded.match_name,
			dat_name = excluded.dat_name,
			extra_json = excluded.extra_json,
			updated_at = excluded.updated_at`,
		entry.Path,
		entry.System,
		entry.Size,
		entry.ModTime.UTC().Format(time.RFC3339Nano),
		nullableString(strings.ToLower(entry.CRC32)),
		nullableString(strings.ToLower(entry.MD5)),
		nullableString(strings.ToLower(entry.SHA1)),
		nullableString(strings.ToLower(entry.SHA256)),
		string(entry.Status),
		nullableString(entry.MatchName),
		nullableString(entry.DATName),
		extraValue,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

// SetStatus updates only the status column of an existing entry.
func (s *Store) SetStatus(ctx context.Context, path string, status Status) error {
	if !ValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ensureContext(ctx),
		"UPDATE catalog_entries SET status = ?, updated_at = ? WHERE path = ?",
		string(status), now, path)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set status rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no entry at %s", path)
	}
	return nil
}

// Remove deletes the entry at the given path. Removing an absent path is
// not an error.
func (s *Store) Remove(ctx context.Context, path string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.execWithRetry(ensureContext(ctx),
		"DELETE FROM catalog_entries WHERE path = ?", path); err != nil {
		return fmt.Errorf("remove entry: %w", err)
	}
	return nil
}

// List returns entries ordered by insertion, optionally filtered by system.
func (s *Store) List(ctx context.Context, system string) ([]*Entry, error) {
	ctx = ensureContext(ctx)

	query := "SELECT " + entryColumns + " FROM catalog_entries"
	args := []any{}
	if system != "" {
		query += " WHERE system = ?"
		args = append(args, system)
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan entry: %w", scanErr)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// ListByStatus returns entries with the given status ordered by insertion.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]*Entry, error) {
	ctx = ensureContext(ctx)

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM catalog_entries WHERE status = ? ORDER BY rowid",
		string(status))
	if err != nil {
		return nil, fmt.Errorf("list entries by status: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan entry: %w", scanErr)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Move rebinds an entry to a new path as a single transaction: the old row
// is removed and an identical row inserted at the new path. The physical
// file move must already have happened; if the transaction fails the caller
// is expected to move the file back.
func (s *Store) Move(ctx context.Context, oldPath, newPath string) error {
	if oldPath == newPath {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin move tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		now := time.Now().UTC().Format(time.RFC3339Nano)
		res, err := tx.ExecContext(ctx,
			"UPDATE catalog_entries SET path = ?, updated_at = ? WHERE path = ?",
			newPath, now, oldPath)
		if err != nil {
			return fmt.Errorf("move entry: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("move entry rows: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("no entry at %s", oldPath)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit move: %w", err)
		}
		return nil
	})
}

// CountBySystem returns entry counts grouped by system.
func (s *Store) CountBySystem(ctx context.Context) (map[string]int, error) {
	return s.countGrouped(ensureContext(ctx), "system")
}

// CountByStatus returns entry counts grouped by status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int, error) {
	return s.countGrouped(ensureContext(ctx), "status")
}

func (s *Store) countGrouped(ctx context.Context, column string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s, COUNT(1) FROM catalog_entries GROUP BY %s", column, column))
	if err != nil {
		return nil, fmt.Errorf("count by %s: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}
