// Package sqlite is the default Storage Layer backend: two WAL-mode SQLite
// files, "{host}_pages.db" and "{host}_crawl.db", accessed through
// modernc.org/sqlite (pure Go, no cgo) against the crawler's full normalized
// schema.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ridgeline-labs/seocrawl/internal/crawlerrors"
	"github.com/ridgeline-labs/seocrawl/internal/storage"
	_ "modernc.org/sqlite"
)

// Store implements storage.Repository against a pair of SQLite files.
type Store struct {
	crawlDB *sql.DB
	pagesDB *sql.DB
	queue   *storage.WriteQueue
}

var _ storage.Repository = (*Store)(nil)

// Config controls how the sqlite Store opens its two files.
type Config struct {
	PagesPath string
	CrawlPath string
	// Writers sizes the shared writer-worker pool (default 2).
	Writers int
	// QueueSize bounds the writer queue (default 256).
	QueueSize int
}

// Open opens (creating if absent) the pages and crawl databases, enables
// WAL mode, applies the schema, and verifies the schema_version meta row.
// A mismatched schema_version returns a *crawlerrors.Error of Kind
// SchemaMismatch with a migration hint.
func Open(cfg Config) (*Store, error) {
	crawlDB, err := openWAL(cfg.CrawlPath)
	if err != nil {
		return nil, crawlerrors.New(crawlerrors.StorageFatal, "sqlite.Open", fmt.Errorf("open crawl db: %w", err))
	}
	pagesDB, err := openWAL(cfg.PagesPath)
	if err != nil {
		_ = crawlDB.Close()
		return nil, crawlerrors.New(crawlerrors.StorageFatal, "sqlite.Open", fmt.Errorf("open pages db: %w", err))
	}

	if _, err := crawlDB.Exec(crawlSchema); err != nil {
		_ = crawlDB.Close()
		_ = pagesDB.Close()
		return nil, crawlerrors.New(crawlerrors.StorageFatal, "sqlite.Open", fmt.Errorf("apply crawl schema: %w", err))
	}
	if _, err := pagesDB.Exec(pagesSchema); err != nil {
		_ = crawlDB.Close()
		_ = pagesDB.Close()
		return nil, crawlerrors.New(crawlerrors.StorageFatal, "sqlite.Open", fmt.Errorf("apply pages schema: %w", err))
	}

	s := &Store{
		crawlDB: crawlDB,
		pagesDB: pagesDB,
		queue:   storage.NewWriteQueue(cfg.Writers, cfg.QueueSize),
	}

	if err := checkOrSetSchemaVersion(context.Background(), crawlDB); err != nil {
		_ = crawlDB.Close()
		_ = pagesDB.Close()
		return nil, err
	}
	if err := checkOrSetSchemaVersion(context.Background(), pagesDB); err != nil {
		_ = crawlDB.Close()
		_ = pagesDB.Close()
		return nil, err
	}

	return s, nil
}

func openWAL(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(8)
	return db, nil
}

func checkOrSetSchemaVersion(ctx context.Context, db *sql.DB) error {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&value)
	if err == sql.ErrNoRows {
		_, err := db.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES ('schema_version', ?)`, storage.SchemaVersion)
		if err != nil {
			return crawlerrors.New(crawlerrors.StorageFatal, "sqlite.checkOrSetSchemaVersion", err)
		}
		return nil
	}
	if err != nil {
		return crawlerrors.New(crawlerrors.StorageFatal, "sqlite.checkOrSetSchemaVersion", err)
	}
	if value != storage.SchemaVersion {
		return crawlerrors.New(crawlerrors.SchemaMismatch, "sqlite.checkOrSetSchemaVersion",
			fmt.Errorf("database schema_version %q does not match expected %q; run a migration or start a fresh database pair", value, storage.SchemaVersion))
	}
	return nil
}

// Close drains the write queue and closes both database handles.
func (s *Store) Close() error {
	s.queue.Close()
	errCrawl := s.crawlDB.Close()
	errPages := s.pagesDB.Close()
	if errCrawl != nil {
		return errCrawl
	}
	return errPages
}

func (s *Store) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.crawlDB.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite.GetMeta: %w", err)
	}
	return value, true, nil
}

func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	return s.queue.Submit(ctx, func() error {
		_, err := s.crawlDB.ExecContext(ctx, `
			INSERT INTO meta(key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
		if err != nil {
			return fmt.Errorf("sqlite.SetMeta: %w", err)
		}
		return nil
	})
}
