package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the pool-backed Session. Its embedded Queries serve reads
// directly on the pool.
type Store struct {
	*Queries
	pool *pgxpool.Pool
}

// NewStore wraps pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Queries: New(pool), pool: pool}
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Begin starts a transaction on a pooled connection.
func (s *Store) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return newTx(tx), nil
}

// pgTx adapts pgx.Tx to Tx. pgx implements Begin on a transaction as a
// savepoint, so nesting comes for free.
type pgTx struct {
	*Queries
	tx pgx.Tx
}

func newTx(tx pgx.Tx) *pgTx {
	return &pgTx{Queries: New(tx), tx: tx}
}

func (t *pgTx) Begin(ctx context.Context) (Tx, error) {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create savepoint: %w", err)
	}
	return newTx(sp), nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

var (
	_ Session    = (*Store)(nil)
	_ Tx         = (*pgTx)(nil)
	_ Repository = (*Queries)(nil)
)
