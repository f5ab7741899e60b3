// Package sqlite reads catalog pages from a local SQLite database file that
// mirrors the remote table layout (id, model, dac, laser).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"cdfinder/internal/catalog"
)

// Store serves pages from one table of a SQLite file. The file is opened on
// first use and never written.
type Store struct {
	path  string
	table string

	mu sync.Mutex
	db *sql.DB
}

// New returns a store for the database at path.
func New(path, table string) *Store {
	return &Store{path: strings.TrimSpace(path), table: strings.TrimSpace(table)}
}

// Name implements source.Store.
func (s *Store) Name() string { return "sqlite" }

// Configured reports whether the database file exists.
func (s *Store) Configured() bool {
	if s.path == "" || s.table == "" {
		return false
	}
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// FetchPage implements source.Store.
func (s *Store) FetchPage(ctx context.Context, offset, limit int) ([]catalog.Record, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT CAST(id AS TEXT), COALESCE(model, ''), COALESCE(dac, ''), COALESCE(laser, '')
         FROM %s ORDER BY model ASC LIMIT ? OFFSET ?`, quoteIdent(s.table))
	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query catalog page: %w", err)
	}
	defer rows.Close()

	var records []catalog.Record
	for rows.Next() {
		var (
			id                sql.NullString
			model, dac, laser string
		)
		if err := rows.Scan(&id, &model, &dac, &laser); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		records = append(records, catalog.Record{
			Label:  model,
			DAC:    strings.TrimSpace(dac),
			Laser:  strings.TrimSpace(laser),
			Origin: catalog.OriginAuthoritative,
			ID:     id.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}
	return records, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) open() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}
	s.db = db
	return db, nil
}

// quoteIdent quotes name as an SQL identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
