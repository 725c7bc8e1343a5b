package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

func (s *Store) SaveContent(ctx context.Context, rec storage.ContentRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO content(
			url_id, title, meta_description, h1_count, h2_count, first_h1, first_h2,
			word_count, canonical_url_id, meta_robots_id, internal_link_count, external_link_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT(url_id) DO UPDATE SET
			title = excluded.title,
			meta_description = excluded.meta_description,
			h1_count = excluded.h1_count,
			h2_count = excluded.h2_count,
			first_h1 = excluded.first_h1,
			first_h2 = excluded.first_h2,
			word_count = excluded.word_count,
			canonical_url_id = excluded.canonical_url_id,
			meta_robots_id = excluded.meta_robots_id,
			internal_link_count = excluded.internal_link_count,
			external_link_count = excluded.external_link_count`,
		rec.URLID, rec.Title, rec.MetaDescription, rec.H1Count, rec.H2Count, rec.FirstH1, rec.FirstH2,
		rec.WordCount, rec.CanonicalURLID, rec.MetaRobotsID, rec.InternalLinkCount, rec.ExternalLinkCount)
	if err != nil {
		return fmt.Errorf("postgres.SaveContent: %w", err)
	}
	return nil
}

func (s *Store) GetContent(ctx context.Context, urlID int64) (*storage.ContentRecord, error) {
	var r storage.ContentRecord
	r.URLID = urlID
	var title, desc, firstH1, firstH2 *string

	err := s.pool.QueryRow(ctx, `
		SELECT title, meta_description, h1_count, h2_count, first_h1, first_h2,
			word_count, canonical_url_id, meta_robots_id, internal_link_count, external_link_count
		FROM content WHERE url_id = $1`, urlID,
	).Scan(&title, &desc, &r.H1Count, &r.H2Count, &firstH1, &firstH2,
		&r.WordCount, &r.CanonicalURLID, &r.MetaRobotsID, &r.InternalLinkCount, &r.ExternalLinkCount)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres.GetContent: %w", err)
	}

	if title != nil {
		r.Title = *title
	}
	if desc != nil {
		r.MetaDescription = *desc
	}
	if firstH1 != nil {
		r.FirstH1 = *firstH1
	}
	if firstH2 != nil {
		r.FirstH2 = *firstH2
	}
	return &r, nil
}
