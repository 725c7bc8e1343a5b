package postgres

import (
	"context"
	"fmt"

	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

func (s *Store) SaveSitemapListing(ctx context.Context, listing storage.SitemapListing) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sitemaps_listed(url_id, sitemap_url_id, discovered_at)
		VALUES ($1, $2, $3)
		ON CONFLICT(url_id, sitemap_url_id) DO NOTHING`,
		listing.URLID, listing.SitemapURLID, listing.DiscoveredAt)
	if err != nil {
		return fmt.Errorf("postgres.SaveSitemapListing: %w", err)
	}
	return nil
}

func (s *Store) CountSitemapListings(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sitemaps_listed`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres.CountSitemapListings: %w", err)
	}
	return count, nil
}
