package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestPageQueryQuotesTableAndOrdersByModel(t *testing.T) {
	got := pageQuery("cdp_models")
	if !strings.Contains(got, `FROM "cdp_models"`) {
		t.Fatalf("expected quoted table identifier, got %q", got)
	}
	if !strings.Contains(got, "ORDER BY model ASC LIMIT $1 OFFSET $2") {
		t.Fatalf("expected ordered window, got %q", got)
	}
}

func TestDescribeErrorClassifiesPgErrors(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"42P01", "catalog table missing"},
		{"42501", "permission denied"},
		{"28P01", "authentication failed"},
		{"XX000", "query catalog page"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			src := &pgconn.PgError{Code: tt.code, Message: "boom"}
			err := describeError(src)
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("describeError(%s) = %v, want %q", tt.code, err, tt.want)
			}
			var pgErr *pgconn.PgError
			if !errors.As(err, &pgErr) {
				t.Fatal("expected wrapped PgError")
			}
		})
	}
}

func TestConfigured(t *testing.T) {
	if New("", "cdp_models").Configured() {
		t.Fatal("expected empty dsn to be unconfigured")
	}
	if !New("postgres://user@localhost/db", "cdp_models").Configured() {
		t.Fatal("expected dsn to configure store")
	}
}

func TestFetchPageRejectsInvalidDSN(t *testing.T) {
	store := New("://not a dsn", "cdp_models")
	defer store.Close()
	if _, err := store.FetchPage(context.Background(), 0, 1000); err == nil {
		t.Fatal("expected invalid dsn to fail")
	}
}
