package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

func (s *Store) SaveContent(ctx context.Context, rec storage.ContentRecord) error {
	return s.queue.Submit(ctx, func() error {
		_, err := s.crawlDB.ExecContext(ctx, `
			INSERT INTO content(
				url_id, title, meta_description, h1_count, h2_count, first_h1, first_h2,
				word_count, canonical_url_id, meta_robots_id, internal_link_count, external_link_count
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
			return fmt.Errorf("sqlite.SaveContent: %w", err)
		}
		return nil
	})
}

func (s *Store) GetContent(ctx context.Context, urlID int64) (*storage.ContentRecord, error) {
	var r storage.ContentRecord
	r.URLID = urlID
	var title, desc, firstH1, firstH2 sql.NullString
	var canonicalID, metaRobotsID sql.NullInt64

	err := s.crawlDB.QueryRowContext(ctx, `
		SELECT title, meta_description, h1_count, h2_count, first_h1, first_h2,
			word_count, canonical_url_id, meta_robots_id, internal_link_count, external_link_count
		FROM content WHERE url_id = ?`, urlID,
	).Scan(&title, &desc, &r.H1Count, &r.H2Count, &firstH1, &firstH2,
		&r.WordCount, &canonicalID, &metaRobotsID, &r.InternalLinkCount, &r.ExternalLinkCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite.GetContent: %w", err)
	}

	r.Title = title.String
	r.MetaDescription = desc.String
	r.FirstH1 = firstH1.String
	r.FirstH2 = firstH2.String
	if canonicalID.Valid {
		v := canonicalID.Int64
		r.CanonicalURLID = &v
	}
	if metaRobotsID.Valid {
		v := metaRobotsID.Int64
		r.MetaRobotsID = &v
	}
	return &r, nil
}
