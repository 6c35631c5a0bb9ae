package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore provides access to queries and transaction scoping over a pgx pool.
type PostgresStore struct {
	db      *pgxpool.Pool
	queries *Queries
}

// NewPostgresStore creates a store wrapper around a pgx connection pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		db:      db,
		queries: New(db),
	}
}

// Queries returns the non-transactional query set.
func (s *PostgresStore) Queries() Querier {
	return s.queries
}

// RunInTx executes fn within a database transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return wrapErr("ping", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
var _ Querier = (*Queries)(nil)

