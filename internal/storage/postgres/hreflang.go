package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
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
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres.saveHreflangBatch: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`INSERT INTO %s(url_id, language_code_id, href_url_id) VALUES ($1, $2, $3)`, table)
	b := &pgx.Batch{}
	for _, r := range batch {
		b.Queue(query, r.URLID, r.LanguageCodeID, r.HrefURLID)
	}

	br := tx.SendBatch(ctx, b)
	for range batch {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("postgres.saveHreflangBatch(%s): insert: %w", table, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres.saveHreflangBatch(%s): close batch: %w", table, err)
	}

	return tx.Commit(ctx)
}
