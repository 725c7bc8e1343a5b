package sqlite

import (
	"context"
	"fmt"

	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

// batchSize bounds transaction size for link/hreflang inserts, amortizing
// fsync.
const batchSize = 500

// SaveLinks writes the anchor inventory in bounded-size transactions.
func (s *Store) SaveLinks(ctx context.Context, links []storage.Link) error {
	for start := 0; start < len(links); start += batchSize {
		end := start + batchSize
		if end > len(links) {
			end = len(links)
		}
		batch := links[start:end]
		if err := s.saveLinksBatch(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) saveLinksBatch(ctx context.Context, batch []storage.Link) error {
	return s.queue.Submit(ctx, func() error {
		tx, err := s.crawlDB.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("sqlite.saveLinksBatch: begin: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO links(source_url_id, target_url_id, anchor_text_id, xpath_id, href_id, rel_flags, kind)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("sqlite.saveLinksBatch: prepare: %w", err)
		}
		defer stmt.Close()

		for _, l := range batch {
			if _, err := stmt.ExecContext(ctx, l.SourceURLID, l.TargetURLID, l.AnchorTextID, l.XPathID, l.HrefID, l.RelFlags, string(l.Kind)); err != nil {
				return fmt.Errorf("sqlite.saveLinksBatch: insert: %w", err)
			}
		}
		return tx.Commit()
	})
}
