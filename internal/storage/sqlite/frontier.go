package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

// FrontierInsertIfAbsent is a no-op if a row exists for urlID: enqueue is
// idempotent.
func (s *Store) FrontierInsertIfAbsent(ctx context.Context, urlID int64, depth int, parentURLID *int64) (bool, error) {
	var inserted bool
	err := s.queue.Submit(ctx, func() error {
		now := time.Now().UTC()
		res, err := s.crawlDB.ExecContext(ctx, `
			INSERT INTO frontier(url_id, depth, parent_url_id, status, enqueued_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(url_id) DO NOTHING`,
			urlID, depth, parentURLID, storage.FrontierQueued, now, now)
		if err != nil {
			return fmt.Errorf("sqlite.FrontierInsertIfAbsent: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite.FrontierInsertIfAbsent: rows affected: %w", err)
		}
		inserted = affected > 0
		return nil
	})
	return inserted, err
}

// FrontierListQueued lists up to limit queued rows in insertion order. It
// does not change their status; leases are tracked in-process by package
// frontier.
func (s *Store) FrontierListQueued(ctx context.Context, limit int) ([]storage.FrontierEntry, error) {
	rows, err := s.crawlDB.QueryContext(ctx, `
		SELECT url_id, depth, parent_url_id, status, enqueued_at, updated_at
		FROM frontier WHERE status = ? ORDER BY enqueued_at ASC, url_id ASC LIMIT ?`,
		storage.FrontierQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite.FrontierListQueued: %w", err)
	}
	defer rows.Close()

	var out []storage.FrontierEntry
	for rows.Next() {
		var e storage.FrontierEntry
		var parent sql.NullInt64
		var status string
		if err := rows.Scan(&e.URLID, &e.Depth, &parent, &status, &e.EnqueuedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite.FrontierListQueued: scan: %w", err)
		}
		if parent.Valid {
			v := parent.Int64
			e.ParentURLID = &v
		}
		e.Status = storage.FrontierStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) FrontierMarkDone(ctx context.Context, urlID int64) error {
	return s.queue.Submit(ctx, func() error {
		_, err := s.crawlDB.ExecContext(ctx,
			`UPDATE frontier SET status = ?, updated_at = ? WHERE url_id = ?`,
			storage.FrontierDone, time.Now().UTC(), urlID)
		if err != nil {
			return fmt.Errorf("sqlite.FrontierMarkDone: %w", err)
		}
		return nil
	})
}

func (s *Store) FrontierReset(ctx context.Context) error {
	return s.queue.Submit(ctx, func() error {
		if _, err := s.crawlDB.ExecContext(ctx, `DELETE FROM frontier`); err != nil {
			return fmt.Errorf("sqlite.FrontierReset: %w", err)
		}
		return nil
	})
}

func (s *Store) FrontierHasQueued(ctx context.Context) (bool, error) {
	var count int
	err := s.crawlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM frontier WHERE status = ? LIMIT 1`, storage.FrontierQueued).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite.FrontierHasQueued: %w", err)
	}
	return count > 0, nil
}

func (s *Store) FrontierCounts(ctx context.Context) (int, int, error) {
	var queued, done int
	err := s.crawlDB.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM frontier WHERE status = 'queued'),
			(SELECT COUNT(*) FROM frontier WHERE status = 'done')`,
	).Scan(&queued, &done)
	if err != nil {
		return 0, 0, fmt.Errorf("sqlite.FrontierCounts: %w", err)
	}
	return queued, done, nil
}
