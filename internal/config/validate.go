package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
//
// A missing Supabase URL or key is not an error: the catalog reader reports
// the store as unconfigured when a load is attempted, and builtin/sqlite
// backends remain available offline.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validatePostgres(); err != nil {
		return err
	}
	if err := c.validateAI(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Backend {
	case BackendPostgREST, BackendPostgres, BackendSQLite, BackendBuiltin:
	default:
		return fmt.Errorf("catalog.backend: unsupported value %q (want postgrest, postgres, sqlite, or builtin)", c.Catalog.Backend)
	}
	if c.Catalog.PageSize <= 0 {
		return errors.New("catalog.page_size must be positive")
	}
	if !validIdentifier(c.Catalog.Table) {
		return fmt.Errorf("catalog.table: invalid table name %q", c.Catalog.Table)
	}
	if c.Catalog.Backend == BackendPostgREST && c.Supabase.URL != "" &&
		!strings.HasPrefix(c.Supabase.URL, "http://") && !strings.HasPrefix(c.Supabase.URL, "https://") {
		return errors.New("supabase.url must start with http:// or https://")
	}
	return nil
}

func (c *Config) validatePostgres() error {
	if c.Catalog.Backend != BackendPostgres {
		return nil
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn must be set when catalog.backend is postgres (or set DATABASE_URL)")
	}
	return nil
}

func (c *Config) validateAI() error {
	switch c.AI.Provider {
	case ProviderOpenRouter, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("ai.provider: unsupported value %q (want openrouter, openai, or anthropic)", c.AI.Provider)
	}
	if c.AI.Provider == ProviderOpenRouter && c.AI.BaseURL == "" {
		return errors.New("ai.base_url must be set when ai.provider is openrouter")
	}
	if c.AI.IdentifyCacheMinutes < 0 {
		return errors.New("ai.identify_cache_minutes must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
