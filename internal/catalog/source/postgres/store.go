// Package postgres reads catalog pages directly from a PostgreSQL database,
// typically the database behind the Supabase project.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cdfinder/internal/catalog"
)

// Store serves pages from one table over a lazily created pool.
type Store struct {
	dsn   string
	table string

	mu   sync.Mutex
	pool *pgxpool.Pool
}

// New returns a store for dsn. No connection is made until the first page.
func New(dsn, table string) *Store {
	return &Store{dsn: strings.TrimSpace(dsn), table: strings.TrimSpace(table)}
}

// Name implements source.Store.
func (s *Store) Name() string { return "postgres" }

// Configured implements source.Store.
func (s *Store) Configured() bool { return s.dsn != "" && s.table != "" }

// FetchPage implements source.Store.
func (s *Store) FetchPage(ctx context.Context, offset, limit int) ([]catalog.Record, error) {
	pool, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, pageQuery(s.table), limit, offset)
	if err != nil {
		return nil, describeError(err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Record, error) {
		var (
			id, model  string
			dac, laser *string
		)
		if err := row.Scan(&id, &model, &dac, &laser); err != nil {
			return catalog.Record{}, err
		}
		return catalog.Record{
			Label:  model,
			DAC:    deref(dac),
			Laser:  deref(laser),
			Origin: catalog.OriginAuthoritative,
			ID:     id,
		}, nil
	})
	if err != nil {
		return nil, describeError(err)
	}
	return records, nil
}

// Close releases pooled connections.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}

func (s *Store) connect(ctx context.Context) (*pgxpool.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		return s.pool, nil
	}
	cfg, err := pgxpool.ParseConfig(s.dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	s.pool = pool
	return pool, nil
}

func pageQuery(table string) string {
	ident := pgx.Identifier{table}.Sanitize()
	return "SELECT id::text, coalesce(model, ''), dac, laser FROM " + ident +
		" ORDER BY model ASC LIMIT $1 OFFSET $2"
}

func describeError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "42P01":
			return fmt.Errorf("catalog table missing: %w", err)
		case "42501":
			return fmt.Errorf("permission denied reading catalog table: %w", err)
		case "28P01", "28000":
			return fmt.Errorf("postgres authentication failed: %w", err)
		}
	}
	return fmt.Errorf("query catalog page: %w", err)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
