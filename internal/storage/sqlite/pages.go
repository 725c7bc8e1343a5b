package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

// SavePage writes the raw fetch artifact, overwriting atomically on
// re-fetch.
func (s *Store) SavePage(ctx context.Context, rec storage.PageRecord) error {
	return s.queue.Submit(ctx, func() error {
		_, err := s.pagesDB.ExecContext(ctx, `
			INSERT INTO pages(url_id, final_status_code, fetched_at, headers_blob, body_blob, content_type, encoding)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(url_id) DO UPDATE SET
				final_status_code = excluded.final_status_code,
				fetched_at = excluded.fetched_at,
				headers_blob = excluded.headers_blob,
				body_blob = excluded.body_blob,
				content_type = excluded.content_type,
				encoding = excluded.encoding`,
			rec.URLID, rec.FinalStatusCode, rec.FetchedAt, rec.HeadersCompBlob, rec.BodyCompBlob, rec.ContentType, rec.Encoding)
		if err != nil {
			return fmt.Errorf("sqlite.SavePage: %w", err)
		}
		return nil
	})
}

func (s *Store) GetPage(ctx context.Context, urlID int64) (*storage.PageRecord, error) {
	var r storage.PageRecord
	r.URLID = urlID
	var contentType, encoding sql.NullString
	err := s.pagesDB.QueryRowContext(ctx, `
		SELECT final_status_code, fetched_at, headers_blob, body_blob, content_type, encoding
		FROM pages WHERE url_id = ?`, urlID,
	).Scan(&r.FinalStatusCode, &r.FetchedAt, &r.HeadersCompBlob, &r.BodyCompBlob, &contentType, &encoding)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite.GetPage: %w", err)
	}
	r.ContentType = contentType.String
	r.Encoding = encoding.String
	return &r, nil
}
