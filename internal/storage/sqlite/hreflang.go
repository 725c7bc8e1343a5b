package sqlite

import (
	"context"
	"fmt"

	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

func hreflangTable(source storage.HreflangSource) string {
	switch source {
	case storage.HreflangSitemap:
		return "hreflang_sitemap"
	case storage.HreflangHeader:
		return "hreflang_header"
	default:
		return "hreflang_html"
	}
}

// SaveHreflang writes one of the three hreflang flavors in bounded-size
// transactions.
func (s *Store) SaveHreflang(ctx context.Context, source storage.HreflangSource, records []storage.HreflangRecord) error {
	table := hreflangTable(source)
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.saveHreflangBatch(ctx, table, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) saveHreflangBatch(ctx context.Context, table string, batch []storage.HreflangRecord) error {
	return s.queue.Submit(ctx, func() error {
		tx, err := s.crawlDB.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("sqlite.saveHreflangBatch: begin: %w", err)
		}
		defer tx.Rollback()

		query := fmt.Sprintf(`INSERT INTO %s(url_id, language_code_id, href_url_id) VALUES (?, ?, ?)`, table)
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("sqlite.saveHreflangBatch: prepare: %w", err)
		}
		defer stmt.Close()

		for _, r := range batch {
			if _, err := stmt.ExecContext(ctx, r.URLID, r.LanguageCodeID, r.HrefURLID); err != nil {
				return fmt.Errorf("sqlite.saveHreflangBatch: insert: %w", err)
			}
		}
		return tx.Commit()
	})
}
