// Package postgres is the alternate Storage Layer backend, selected with
// --storage-driver postgres / SEOCRAWL_STORAGE_DSN, mirroring the sqlite
// schema row-for-row over a single DSN via jackc/pgx/v5. Unlike sqlite's WAL
// file pair, Postgres handles concurrent writers itself, so there is no
// write-queue serialization here.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ridgeline-labs/seocrawl/internal/crawlerrors"
	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

// Store implements storage.Repository against a single Postgres database.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Store)(nil)

// Open connects to dsn, applies the schema, and verifies the
// schema_version meta row.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, crawlerrors.New(crawlerrors.StorageFatal, "postgres.Open", fmt.Errorf("connect: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, crawlerrors.New(crawlerrors.StorageFatal, "postgres.Open", fmt.Errorf("ping: %w", err))
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, crawlerrors.New(crawlerrors.StorageFatal, "postgres.Open", fmt.Errorf("apply schema: %w", err))
	}

	s := &Store{pool: pool}
	if err := s.checkOrSetSchemaVersion(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) checkOrSetSchemaVersion(ctx context.Context) error {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&value)
	if err != nil {
		_, insertErr := s.pool.Exec(ctx, `
			INSERT INTO meta(key, value) VALUES ('schema_version', $1)
			ON CONFLICT(key) DO NOTHING`, storage.SchemaVersion)
		if insertErr != nil {
			return crawlerrors.New(crawlerrors.StorageFatal, "postgres.checkOrSetSchemaVersion", insertErr)
		}
		return nil
	}
	if value != storage.SchemaVersion {
		return crawlerrors.New(crawlerrors.SchemaMismatch, "postgres.checkOrSetSchemaVersion",
			fmt.Errorf("database schema_version %q does not match expected %q; run a migration or start a fresh database", value, storage.SchemaVersion))
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM meta WHERE key = $1`, key).Scan(&value)
	if err != nil {
		return "", false, nil
	}
	return value, true, nil
}

func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO meta(key, value) VALUES ($1, $2)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("postgres.SetMeta: %w", err)
	}
	return nil
}
