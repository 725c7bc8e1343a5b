package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

// SaveRedirectChain writes a contiguous hop sequence starting at index 0 and
// materializes the O(1)-lookup summary row. hops must all share the same
// SourceURLID.
func (s *Store) SaveRedirectChain(ctx context.Context, hops []storage.RedirectHop, loopDetected bool) error {
	if len(hops) == 0 {
		return nil
	}
	sourceID := hops[0].SourceURLID
	last := hops[len(hops)-1]

	return s.queue.Submit(ctx, func() error {
		tx, err := s.crawlDB.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("sqlite.SaveRedirectChain: begin: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO redirects(source_url_id, hop_index, target_url_id, status_code)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(source_url_id, hop_index) DO UPDATE SET
				target_url_id = excluded.target_url_id,
				status_code = excluded.status_code`)
		if err != nil {
			return fmt.Errorf("sqlite.SaveRedirectChain: prepare: %w", err)
		}
		defer stmt.Close()

		for _, hop := range hops {
			if _, err := stmt.ExecContext(ctx, hop.SourceURLID, hop.HopIndex, hop.TargetURLID, hop.StatusCode); err != nil {
				return fmt.Errorf("sqlite.SaveRedirectChain: insert hop: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO redirect_summary(source_url_id, chain_length, final_status_code, final_target_url_id, loop_detected)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(source_url_id) DO UPDATE SET
				chain_length = excluded.chain_length,
				final_status_code = excluded.final_status_code,
				final_target_url_id = excluded.final_target_url_id,
				loop_detected = excluded.loop_detected`,
			sourceID, len(hops), last.StatusCode, last.TargetURLID, loopDetected)
		if err != nil {
			return fmt.Errorf("sqlite.SaveRedirectChain: summary: %w", err)
		}

		return tx.Commit()
	})
}

func (s *Store) GetRedirectChain(ctx context.Context, sourceURLID int64) ([]storage.RedirectHop, *storage.RedirectSummary, error) {
	rows, err := s.crawlDB.QueryContext(ctx, `
		SELECT source_url_id, hop_index, target_url_id, status_code
		FROM redirects WHERE source_url_id = ? ORDER BY hop_index ASC`, sourceURLID)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite.GetRedirectChain: %w", err)
	}
	defer rows.Close()

	var hops []storage.RedirectHop
	for rows.Next() {
		var h storage.RedirectHop
		if err := rows.Scan(&h.SourceURLID, &h.HopIndex, &h.TargetURLID, &h.StatusCode); err != nil {
			return nil, nil, fmt.Errorf("sqlite.GetRedirectChain: scan: %w", err)
		}
		hops = append(hops, h)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("sqlite.GetRedirectChain: %w", err)
	}

	var summary storage.RedirectSummary
	err = s.crawlDB.QueryRowContext(ctx, `
		SELECT source_url_id, chain_length, final_status_code, final_target_url_id, loop_detected
		FROM redirect_summary WHERE source_url_id = ?`, sourceURLID,
	).Scan(&summary.SourceURLID, &summary.ChainLength, &summary.FinalStatusCode, &summary.FinalTargetURLID, &summary.LoopDetected)
	if err == sql.ErrNoRows {
		return hops, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite.GetRedirectChain: summary: %w", err)
	}
	return hops, &summary, nil
}
