package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgpay/internal/store"
)

var _ store.Store = (*Store)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements store.Store using PostgreSQL.
// Members and schedules are removed with their organization via ON DELETE CASCADE.
type Store struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

// NewStore opens a connection pool, optionally runs migrations, and returns the store.
func NewStore(ctx context.Context, cfg *StoreConfig) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	pool, err := NewPool(ctx, &cfg.Pool)
	if err != nil {
		return nil, err
	}

	// Run migrations only if explicitly enabled
	if cfg.AutoMigrate {
		if err := RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return NewStoreFromPool(pool), nil
}

// NewStoreFromPool creates a store sharing an existing connection pool.
func NewStoreFromPool(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		q:    pool,
	}
}

func (s *Store) Organizations() store.OrganizationStore {
	return &OrganizationStore{q: s.q}
}

func (s *Store) Members() store.MemberStore {
	return &MemberStore{q: s.q}
}

func (s *Store) Schedules() store.ScheduleStore {
	return &ScheduleStore{q: s.q}
}

// WithTx runs fn inside a single database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Store{pool: s.pool, q: tx, inTx: true})
	})
}

// Close closes the connection pool.
func (s *Store) Close() error {
	log.Info().Msg("Closing PostgreSQL connection pool")
	s.pool.Close()
	return nil
}
