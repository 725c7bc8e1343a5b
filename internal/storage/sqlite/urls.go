package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

// InternURL maps a normalized URL to a stable integer id, inserting on
// first sighting. Concurrent callers racing on the same URL observe the
// same id: the insert is attempted first with ON CONFLICT DO NOTHING, and
// when it affects no row the existing id is selected.
func (s *Store) InternURL(ctx context.Context, canonical, host, scheme, classification string) (int64, bool, error) {
	var id int64
	var isNew bool

	err := s.queue.Submit(ctx, func() error {
		res, err := s.crawlDB.ExecContext(ctx,
			`INSERT INTO urls(canonical, host, scheme, classification) VALUES (?, ?, ?, ?)
			 ON CONFLICT(canonical) DO NOTHING`,
			canonical, host, scheme, classification)
		if err != nil {
			return fmt.Errorf("sqlite.InternURL: insert: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite.InternURL: rows affected: %w", err)
		}
		if affected > 0 {
			lastID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("sqlite.InternURL: last insert id: %w", err)
			}
			id = lastID
			isNew = true
			return nil
		}

		// Already existed: select its id.
		return s.crawlDB.QueryRowContext(ctx, `SELECT id FROM urls WHERE canonical = ?`, canonical).Scan(&id)
	})
	if err != nil {
		return 0, false, err
	}
	return id, isNew, nil
}

func (s *Store) GetURL(ctx context.Context, id int64) (*storage.URLRecord, error) {
	var r storage.URLRecord
	err := s.crawlDB.QueryRowContext(ctx,
		`SELECT id, canonical, host, scheme, classification FROM urls WHERE id = ?`, id,
	).Scan(&r.ID, &r.Canonical, &r.Host, &r.Scheme, &r.Classification)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite.GetURL: %w", err)
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

// internLookup is the shared insert-or-select pattern for the small
// normalized lookup tables (anchor text, xpath, href, language code, meta
// robots token sets).
func (s *Store) internLookup(ctx context.Context, table, column, value string) (int64, error) {
	var id int64
	err := s.queue.Submit(ctx, func() error {
		query := fmt.Sprintf(`INSERT INTO %s(%s) VALUES (?) ON CONFLICT(%s) DO NOTHING`, table, column, column)
		res, err := s.crawlDB.ExecContext(ctx, query, value)
		if err != nil {
			return fmt.Errorf("sqlite.internLookup(%s): insert: %w", table, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite.internLookup(%s): rows affected: %w", table, err)
		}
		if affected > 0 {
			lastID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("sqlite.internLookup(%s): last insert id: %w", table, err)
			}
			id = lastID
			return nil
		}
		selectQuery := fmt.Sprintf(`SELECT id FROM %s WHERE %s = ?`, table, column)
		return s.crawlDB.QueryRowContext(ctx, selectQuery, value).Scan(&id)
	})
	return id, err
}
