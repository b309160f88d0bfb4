package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LogAction appends a record to the audit log. The log is append-only;
// records are never updated or deleted.
func (s *Store) LogAction(ctx context.Context, path, kind, detail, runID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(ensureContext(ctx), `
		INSERT INTO catalog_actions (path, action, detail, run_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		path, kind, nullableString(detail), nullableString(runID), now)
	if err != nil {
		return fmt.Errorf("log action: %w", err)
	}
	return nil
}

// RecentActions returns the newest audit records, most recent first.
func (s *Store) RecentActions(ctx context.Context, limit int) ([]*Action, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), `
		SELECT id, path, action, detail, run_id, created_at
		FROM catalog_actions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent actions: %w", err)
	}
	defer rows.Close()

	var actions []*Action
	for rows.Next() {
		var (
			action     Action
			detail     sql.NullString
			runID      sql.NullString
			createdRaw sql.NullString
		)
		if err := rows.Scan(&action.ID, &action.Path, &action.Kind, &detail, &runID, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		action.Detail = detail.String
		action.RunID = runID.String
		if ts, parseErr := parseTimeString(createdRaw.String); parseErr == nil {
			action.Timestamp = ts
		}
		actions = append(actions, &action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return actions, nil
}

// ActionsForPath returns all audit records for a path, oldest first.
func (s *Store) ActionsForPath(ctx context.Context, path string) ([]*Action, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `
		SELECT id, path, action, detail, run_id, created_at
		FROM catalog_actions WHERE path = ? ORDER BY id`, path)
	if err != nil {
		return nil, fmt.Errorf("actions for path: %w", err)
	}
	defer rows.Close()

	var actions []*Action
	for rows.Next() {
		var (
			action     Action
			detail     sql.NullString
			runID      sql.NullString
			createdRaw sql.NullString
		)
		if err := rows.Scan(&action.ID, &action.Path, &action.Kind, &detail, &runID, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		action.Detail = detail.String
		action.RunID = runID.String
		if ts, parseErr := parseTimeString(createdRaw.String); parseErr == nil {
			action.Timestamp = ts
		}
		actions = append(actions, &action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return actions, nil
}
