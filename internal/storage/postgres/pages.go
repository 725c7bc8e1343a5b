package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

func (s *Store) SavePage(ctx context.Context, rec storage.PageRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pages(url_id, final_status_code, fetched_at, headers_blob, body_blob, content_type, encoding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT(url_id) DO UPDATE SET
			final_status_code = excluded.final_status_code,
			fetched_at = excluded.fetched_at,
			headers_blob = excluded.headers_blob,
			body_blob = excluded.body_blob,
			content_type = excluded.content_type,
			encoding = excluded.encoding`,
		rec.URLID, rec.FinalStatusCode, rec.FetchedAt, rec.HeadersCompBlob, rec.BodyCompBlob, rec.ContentType, rec.Encoding)
	if err != nil {
		return fmt.Errorf("postgres.SavePage: %w", err)
	}
	return nil
}

func (s *Store) GetPage(ctx context.Context, urlID int64) (*storage.PageRecord, error) {
	var r storage.PageRecord
	r.URLID = urlID
	var contentType, encoding *string
	err := s.pool.QueryRow(ctx, `
		SELECT final_status_code, fetched_at, headers_blob, body_blob, content_type, encoding
		FROM pages WHERE url_id = $1`, urlID,
	).Scan(&r.FinalStatusCode, &r.FetchedAt, &r.HeadersCompBlob, &r.BodyCompBlob, &contentType, &encoding)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres.GetPage: %w", err)
	}
	if contentType != nil {
		r.ContentType = *contentType
	}
	if encoding != nil {
		r.Encoding = *encoding
	}
	return &r, nil
}
