package source

import (
	"fmt"
	"io"
	"time"

	"cdfinder/internal/catalog/source/builtin"
	"cdfinder/internal/catalog/source/postgres"
	"cdfinder/internal/catalog/source/postgrest"
	"cdfinder/internal/catalog/source/sqlite"
	"cdfinder/internal/config"
)

// Open builds the Store selected by catalog.backend. The returned closer
// releases backend connections and is never nil.
func Open(cfg *config.Config) (Store, io.Closer, error) {
	switch cfg.Catalog.Backend {
	case config.BackendPostgREST:
		timeout := time.Duration(cfg.Supabase.TimeoutSeconds) * time.Second
		return postgrest.New(cfg.Supabase.URL, cfg.Supabase.AnonKey, cfg.Catalog.Table, timeout), nopCloser{}, nil
	case config.BackendPostgres:
		store := postgres.New(cfg.Postgres.DSN, cfg.Catalog.Table)
		return store, store, nil
	case config.BackendSQLite:
		store := sqlite.New(cfg.SQLite.Path, cfg.Catalog.Table)
		return store, store, nil
	case config.BackendBuiltin:
		return builtin.New(), nopCloser{}, nil
	default:
		return nil, nopCloser{}, fmt.Errorf("unsupported catalog backend %q", cfg.Catalog.Backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
