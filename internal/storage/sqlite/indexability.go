package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

func (s *Store) SaveIndexability(ctx context.Context, rec storage.IndexabilityRecord) error {
	return s.queue.Submit(ctx, func() error {
		_, err := s.crawlDB.ExecContext(ctx, `
			INSERT INTO indexability(url_id, robots_txt_allows, html_meta_allows, http_header_allows, overall_indexable, reasons_bitmap)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(url_id) DO UPDATE SET
				robots_txt_allows = excluded.robots_txt_allows,
				html_meta_allows = excluded.html_meta_allows,
				http_header_allows = excluded.http_header_allows,
				overall_indexable = excluded.overall_indexable,
				reasons_bitmap = excluded.reasons_bitmap`,
			rec.URLID, rec.RobotsTxtAllows, rec.HTMLMetaAllows, rec.HTTPHeaderAllows, rec.OverallIndexable, rec.ReasonsBitmap)
		if err != nil {
			return fmt.Errorf("sqlite.SaveIndexability: %w", err)
		}
		return nil
	})
}

func (s *Store) GetIndexability(ctx context.Context, urlID int64) (*storage.IndexabilityRecord, error) {
	var r storage.IndexabilityRecord
	r.URLID = urlID
	err := s.crawlDB.QueryRowContext(ctx, `
		SELECT robots_txt_allows, html_meta_allows, http_header_allows, overall_indexable, reasons_bitmap
		FROM indexability WHERE url_id = ?`, urlID,
	).Scan(&r.RobotsTxtAllows, &r.HTMLMetaAllows, &r.HTTPHeaderAllows, &r.OverallIndexable, &r.ReasonsBitmap)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite.GetIndexability: %w", err)
	}
	return &r, nil
}
