package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

// InternURL mirrors sqlite.InternURL's insert-then-select fallback: with ON
// CONFLICT DO NOTHING the RETURNING clause yields no row when the canonical
// already exists, so that pgx.ErrNoRows scan falls back to a plain SELECT of
// the existing id.
func (s *Store) InternURL(ctx context.Context, canonical, host, scheme, classification string) (int64, bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO urls(canonical, host, scheme, classification) VALUES ($1, $2, $3, $4)
		ON CONFLICT(canonical) DO NOTHING
		RETURNING id`,
		canonical, host, scheme, classification).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if err != pgx.ErrNoRows {
		return 0, false, fmt.Errorf("postgres.InternURL: insert: %w", err)
	}

	err = s.pool.QueryRow(ctx, `SELECT id FROM urls WHERE canonical = $1`, canonical).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("postgres.InternURL: select: %w", err)
	}
	return id, false, nil
}

func (s *Store) GetURL(ctx context.Context, id int64) (*storage.URLRecord, error) {
	var r storage.URLRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, canonical, host, scheme, classification FROM urls WHERE id = $1`, id,
	).Scan(&r.ID, &r.Canonical, &r.Host, &r.Scheme, &r.Classification)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres.GetURL: %w", err)
	}
	return &r, nil
}

func (s *Store) InternAnchorText(ctx context.Context, text string) (int64, error) {
	return s.internLookup(ctx, "anchor_texts", "text", text)
}

func (s *Store) InternXPath(ctx context.Context, xpath string) (int64, error) {
	return s.internLookup(ctx, "xpaths", "xpath", xpath)
}

func (s *Store) InternHref(ctx context.Context, href string) (int64, error) {
	return s.internLookup(ctx, "hrefs", "href", href)
}

func (s *Store) InternLanguageCode(ctx context.Context, code string) (int64, error) {
	return s.internLookup(ctx, "language_codes", "code", code)
}

func (s *Store) InternMetaRobotsSet(ctx context.Context, tokensCSV string) (int64, error) {
	return s.internLookup(ctx, "meta_robots_sets", "tokens", tokensCSV)
}

func (s *Store) internLookup(ctx context.Context, table, column, value string) (int64, error) {
	var id int64
	insertQuery := fmt.Sprintf(`INSERT INTO %s(%s) VALUES ($1) ON CONFLICT(%s) DO NOTHING RETURNING id`, table, column, column)
	err := s.pool.QueryRow(ctx, insertQuery, value).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != pgx.ErrNoRows {
		return 0, fmt.Errorf("postgres.internLookup(%s): insert: %w", table, err)
	}

	selectQuery := fmt.Sprintf(`SELECT id FROM %s WHERE %s = $1`, table, column)
	if err := s.pool.QueryRow(ctx, selectQuery, value).Scan(&id); err != nil {
		return 0, fmt.Errorf("postgres.internLookup(%s): select: %w", table, err)
	}
	return id, nil
}
