package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

func (s *Store) SaveRedirectChain(ctx context.Context, hops []storage.RedirectHop, loopDetected bool) error {
	if len(hops) == 0 {
		return nil
	}
	sourceID := hops[0].SourceURLID
	last := hops[len(hops)-1]

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres.SaveRedirectChain: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, hop := range hops {
		_, err := tx.Exec(ctx, `
			INSERT INTO redirects(source_url_id, hop_index, target_url_id, status_code)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT(source_url_id, hop_index) DO UPDATE SET
				target_url_id = excluded.target_url_id,
				status_code = excluded.status_code`,
			hop.SourceURLID, hop.HopIndex, hop.TargetURLID, hop.StatusCode)
		if err != nil {
			return fmt.Errorf("postgres.SaveRedirectChain: insert hop: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO redirect_summary(source_url_id, chain_length, final_status_code, final_target_url_id, loop_detected)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT(source_url_id) DO UPDATE SET
			chain_length = excluded.chain_length,
			final_status_code = excluded.final_status_code,
			final_target_url_id = excluded.final_target_url_id,
			loop_detected = excluded.loop_detected`,
		sourceID, len(hops), last.StatusCode, last.TargetURLID, loopDetected)
	if err != nil {
		return fmt.Errorf("postgres.SaveRedirectChain: summary: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *Store) GetRedirectChain(ctx context.Context, sourceURLID int64) ([]storage.RedirectHop, *storage.RedirectSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT source_url_id, hop_index, target_url_id, status_code
		FROM redirects WHERE source_url_id = $1 ORDER BY hop_index ASC`, sourceURLID)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres.GetRedirectChain: %w", err)
	}
	defer rows.Close()

	var hops []storage.RedirectHop
	for rows.Next() {
		var h storage.RedirectHop
		if err := rows.Scan(&h.SourceURLID, &h.HopIndex, &h.TargetURLID, &h.StatusCode); err != nil {
			return nil, nil, fmt.Errorf("postgres.GetRedirectChain: scan: %w", err)
		}
		hops = append(hops, h)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("postgres.GetRedirectChain: %w", err)
	}

	var summary storage.RedirectSummary
	err = s.pool.QueryRow(ctx, `
		SELECT source_url_id, chain_length, final_status_code, final_target_url_id, loop_detected
		FROM redirect_summary WHERE source_url_id = $1`, sourceURLID,
	).Scan(&summary.SourceURLID, &summary.ChainLength, &summary.FinalStatusCode, &summary.FinalTargetURLID, &summary.LoopDetected)
	if err == pgx.ErrNoRows {
		return hops, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("postgres.GetRedirectChain: summary: %w", err)
	}
	return hops, &summary, nil
}
