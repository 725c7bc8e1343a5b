package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

func (s *Store) FrontierInsertIfAbsent(ctx context.Context, urlID int64, depth int, parentURLID *int64) (bool, error) {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO frontier(url_id, depth, parent_url_id, status, enqueued_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT(url_id) DO NOTHING`,
		urlID, depth, parentURLID, storage.FrontierQueued, now, now)
	if err != nil {
		return false, fmt.Errorf("postgres.FrontierInsertIfAbsent: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) FrontierListQueued(ctx context.Context, limit int) ([]storage.FrontierEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT url_id, depth, parent_url_id, status, enqueued_at, updated_at
		FROM frontier WHERE status = $1 ORDER BY enqueued_at ASC, url_id ASC LIMIT $2`,
		storage.FrontierQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres.FrontierListQueued: %w", err)
	}
	defer rows.Close()

	var out []storage.FrontierEntry
	for rows.Next() {
		var e storage.FrontierEntry
		var parent *int64
		var status string
		if err := rows.Scan(&e.URLID, &e.Depth, &parent, &status, &e.EnqueuedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres.FrontierListQueued: scan: %w", err)
		}
		e.ParentURLID = parent
		e.Status = storage.FrontierStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) FrontierMarkDone(ctx context.Context, urlID int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE frontier SET status = $1, updated_at = $2 WHERE url_id = $3`,
		storage.FrontierDone, time.Now().UTC(), urlID)
	if err != nil {
		return fmt.Errorf("postgres.FrontierMarkDone: %w", err)
	}
	return nil
}

func (s *Store) FrontierReset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM frontier`); err != nil {
		return fmt.Errorf("postgres.FrontierReset: %w", err)
	}
	return nil
}

func (s *Store) FrontierHasQueued(ctx context.Context) (bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT url_id FROM frontier WHERE status = $1 LIMIT 1`, storage.FrontierQueued).Scan(&id)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("postgres.FrontierHasQueued: %w", err)
	}
	return true, nil
}

func (s *Store) FrontierCounts(ctx context.Context) (int, int, error) {
	var queued, done int
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM frontier WHERE status = 'queued'),
			(SELECT COUNT(*) FROM frontier WHERE status = 'done')`,
	).Scan(&queued, &done)
	if err != nil {
		return 0, 0, fmt.Errorf("postgres.FrontierCounts: %w", err)
	}
	return queued, done, nil
}
