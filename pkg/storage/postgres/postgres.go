// Package postgres provides a PostgreSQL storage backend. Every collection
// lives in one documents table as JSONB; list filters use JSONB containment.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/debug"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/storage"
)

// uniqueViolation is the SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// Store is a PostgreSQL-backed storage.Backend.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements the storage interfaces at compile time.
var (
	_ storage.Backend = (*Store)(nil)
	_ storage.Store   = (*Store)(nil)
)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Name implements storage.Backend.
func (s *Store) Name() string { return "postgres" }

// Repositories returns typed repositories backed by this store.
func (s *Store) Repositories() storage.Repositories {
	return storage.NewRepositories(s)
}

// Get implements storage.Backend.
func (s *Store) Get(ctx context.Context, collection, id string) ([]byte, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		"SELECT body FROM documents WHERE collection = $1 AND id = $2",
		collection, id,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s document: %w", collection, err)
	}
	return body, nil
}

// List implements storage.Backend.
func (s *Store) List(ctx context.Context, collection string, filter []byte) ([][]byte, error) {
	debug.Trace("storage", "listing documents", "collection", collection, "filter", string(filter))
	rows, err := s.pool.Query(ctx,
		"SELECT body FROM documents WHERE collection = $1 AND body @> $2 ORDER BY seq",
		collection, filter,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s documents: %w", collection, err)
	}
	docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("reading %s documents: %w", collection, err)
	}
	return docs, nil
}

// Insert implements storage.Backend.
func (s *Store) Insert(ctx context.Context, collection, id string, doc []byte) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)",
		collection, id, doc,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting %s document: %w", collection, err)
	}
	return nil
}

// Replace implements storage.Backend.
func (s *Store) Replace(ctx context.Context, collection, id string, doc []byte) error {
	result, err := s.pool.Exec(ctx,
		"UPDATE documents SET body = $3, updated_at = now() WHERE collection = $1 AND id = $2",
		collection, id, doc,
	)
	if err != nil {
		return fmt.Errorf("updating %s document: %w", collection, err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Remove implements storage.Backend.
func (s *Store) Remove(ctx context.Context, collection, id string) error {
	result, err := s.pool.Exec(ctx,
		"DELETE FROM documents WHERE collection = $1 AND id = $2",
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("deleting %s document: %w", collection, err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
