package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/themed-dev/themed/internal/domain/theme"
)

// historyRetention caps how many applications are kept.
const historyRetention = 500

// defaultHistoryLimit is returned when the caller does not bound a query.
const defaultHistoryLimit = 50

// HistoryRepository records every applied theme decision.
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates the sqlite-backed history repository.
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Add appends one application and prunes rows beyond the retention cap.
func (r *HistoryRepository) Add(ctx context.Context, entry theme.Applied) error {
	appliedAt := entry.AppliedAt
	if appliedAt.IsZero() {
		appliedAt = time.Now().UTC()
	}
	_, err := r.db.SQLDB().ExecContext(
		ctx,
		`INSERT INTO theme_history(theme_id, source, reason, applied_at) VALUES (?, ?, ?, ?)`,
		entry.ThemeID,
		string(entry.Source),
		entry.Reason,
		appliedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	_, err = r.db.SQLDB().ExecContext(
		ctx,
		`DELETE FROM theme_history WHERE id NOT IN (
			SELECT id FROM theme_history ORDER BY id DESC LIMIT ?
		)`,
		historyRetention,
	)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

// Recent returns up to limit applications, newest first. A non-positive
// limit falls back to the default; anything above retention is clamped.
func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]theme.Applied, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > historyRetention {
		limit = historyRetention
	}
	rows, err := r.db.SQLDB().QueryContext(
		ctx,
		`SELECT theme_id, source, reason, applied_at FROM theme_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	items := make([]theme.Applied, 0, limit)
	for rows.Next() {
		var (
			entry     theme.Applied
			source    string
			appliedAt string
		)
		if err := rows.Scan(&entry.ThemeID, &source, &entry.Reason, &appliedAt); err != nil {
			return nil, err
		}
		entry.Source = theme.Source(source)
		if parsed, err := time.Parse(time.RFC3339Nano, appliedAt); err == nil {
			entry.AppliedAt = parsed.UTC()
		}
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
