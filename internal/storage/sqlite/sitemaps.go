package sqlite

import (
	"context"
	"fmt"

	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

// SaveSitemapListing is idempotent: the UNIQUE(url_id, sitemap_url_id)
// constraint absorbs re-discovery of the same URL from the same sitemap.
func (s *Store) SaveSitemapListing(ctx context.Context, listing storage.SitemapListing) error {
	return s.queue.Submit(ctx, func() error {
		_, err := s.crawlDB.ExecContext(ctx, `
			INSERT INTO sitemaps_listed(url_id, sitemap_url_id, discovered_at)
			VALUES (?, ?, ?)
			ON CONFLICT(url_id, sitemap_url_id) DO NOTHING`,
			listing.URLID, listing.SitemapURLID, listing.DiscoveredAt)
		if err != nil {
			return fmt.Errorf("sqlite.SaveSitemapListing: %w", err)
		}
		return nil
	})
}

func (s *Store) CountSitemapListings(ctx context.Context) (int, error) {
	var count int
	err := s.crawlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sitemaps_listed`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite.CountSitemapListings: %w", err)
	}
	return count, nil
}
