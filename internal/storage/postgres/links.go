package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

// batchSize bounds transaction size the same way sqlite.batchSize does,
// kept consistent across backends even though Postgres does not need it
// to amortize fsync.
const batchSize = 500

func (s *Store) SaveLinks(ctx context.Context, links []storage.Link) error {
	for start := 0; start < len(links); start += batchSize {
		end := start + batchSize
		if end > len(links) {
			end = len(links)
		}
		if err := s.saveLinksBatch(ctx, links[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) saveLinksBatch(ctx context.Context, batch []storage.Link) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres.saveLinksBatch: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	for _, l := range batch {
		b.Queue(`
			INSERT INTO links(source_url_id, target_url_id, anchor_text_id, xpath_id, href_id, rel_flags, kind)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.SourceURLID, l.TargetURLID, l.AnchorTextID, l.XPathID, l.HrefID, l.RelFlags, string(l.Kind))
	}

	br := tx.SendBatch(ctx, b)
	for range batch {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("postgres.saveLinksBatch: insert: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres.saveLinksBatch: close batch: %w", err)
	}

	return tx.Commit(ctx)
}
