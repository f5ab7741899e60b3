package source_test

import (
	"testing"

	"cdfinder/internal/catalog/source"
	"cdfinder/internal/config"
)

func TestOpenSelectsBackend(t *testing.T) {
	tests := []struct {
		backend    string
		wantName   string
		configured bool
	}{
		{config.BackendPostgREST, "postgrest", false},
		{config.BackendPostgres, "postgres", true},
		{config.BackendSQLite, "sqlite", false},
		{config.BackendBuiltin, "builtin", true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := config.Default()
			cfg.Catalog.Backend = tt.backend
			cfg.Postgres.DSN = "postgres://localhost/cdp"
			cfg.SQLite.Path = t.TempDir() + "/missing.db"

			store, closer, err := source.Open(&cfg)
			if err != nil {
				t.Fatalf("Open returned error: %v", err)
			}
			defer closer.Close()
			if store.Name() != tt.wantName {
				t.Fatalf("expected backend %q, got %q", tt.wantName, store.Name())
			}
			if store.Configured() != tt.configured {
				t.Fatalf("expected configured=%v", tt.configured)
			}
		})
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Backend = "mongo"
	if _, _, err := source.Open(&cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
