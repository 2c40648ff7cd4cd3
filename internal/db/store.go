package db

import (
	"context"

	"github.com/cyphera/cyphera-agent/internal/helpers"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const maxTxRetries = 3

// Store is a Querier that can also run a group of queries atomically.
type Store interface {
	Querier
	ExecTx(ctx context.Context, fn func(Querier) error) error
}

// PostgresStore runs queries against a pgx pool.
type PostgresStore struct {
	*Queries
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		Queries: New(pool),
		pool:    pool,
	}
}

// ExecTx runs fn in a serializable transaction, retrying serialization failures.
func (s *PostgresStore) ExecTx(ctx context.Context, fn func(Querier) error) error {
	return helpers.WithTransactionRetry(ctx, s.pool, maxTxRetries, func(tx pgx.Tx) error {
		return fn(s.Queries.WithTx(tx))
	})
}

// Connect opens a pool and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
