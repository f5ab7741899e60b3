package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeSupabase()
	c.normalizePostgres()
	if err := c.normalizeSQLite(); err != nil {
		return err
	}
	c.normalizeAI()
	c.normalizeCapture()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	c.Catalog.Backend = strings.ToLower(strings.TrimSpace(c.Catalog.Backend))
	if c.Catalog.Backend == "" {
		c.Catalog.Backend = defaultCatalogBackend
	}
	c.Catalog.Table = strings.TrimSpace(c.Catalog.Table)
	if c.Catalog.Table == "" {
		c.Catalog.Table = defaultCatalogTable
	}
	if c.Catalog.PageSize == 0 {
		c.Catalog.PageSize = defaultCatalogPageSize
	}
}

func (c *Config) normalizeSupabase() {
	if strings.TrimSpace(c.Supabase.URL) == "" {
		if value, ok := os.LookupEnv("SUPABASE_URL"); ok {
			c.Supabase.URL = value
		}
	}
	if strings.TrimSpace(c.Supabase.AnonKey) == "" {
		if value, ok := os.LookupEnv("SUPABASE_ANON_KEY"); ok {
			c.Supabase.AnonKey = value
		}
	}
	c.Supabase.URL = strings.TrimRight(strings.TrimSpace(c.Supabase.URL), "/")
	c.Supabase.AnonKey = strings.TrimSpace(c.Supabase.AnonKey)
	if c.Supabase.TimeoutSeconds <= 0 {
		c.Supabase.TimeoutSeconds = defaultSupabaseTimeout
	}
}

func (c *Config) normalizePostgres() {
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if value, ok := os.LookupEnv("DATABASE_URL"); ok {
			c.Postgres.DSN = value
		}
	}
	c.Postgres.DSN = strings.TrimSpace(c.Postgres.DSN)
}

func (c *Config) normalizeSQLite() error {
	if strings.TrimSpace(c.SQLite.Path) == "" {
		c.SQLite.Path = defaultSQLitePath
	}
	var err error
	if c.SQLite.Path, err = expandPath(strings.TrimSpace(c.SQLite.Path)); err != nil {
		return fmt.Errorf("sqlite.path: %w", err)
	}
	return nil
}

// aiKeyEnv lists the credential variables consulted in order when ai.api_key is unset.
var aiKeyEnv = map[string][]string{
	ProviderOpenRouter: {"API_KEY", "OPENROUTER_API_KEY"},
	ProviderOpenAI:     {"API_KEY", "OPENAI_API_KEY"},
	ProviderAnthropic:  {"API_KEY", "ANTHROPIC_API_KEY"},
}

func (c *Config) normalizeAI() {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		c.AI.Provider = defaultAIProvider
	}
	if c.AI.APIKey == "" {
		for _, name := range aiKeyEnv[c.AI.Provider] {
			if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
				c.AI.APIKey = value
				break
			}
		}
	}
	c.AI.APIKey = strings.TrimSpace(c.AI.APIKey)
	c.AI.BaseURL = strings.TrimSpace(c.AI.BaseURL)
	if c.AI.BaseURL == defaultAIBaseURL && c.AI.Provider != ProviderOpenRouter {
		// Provider SDKs carry their own endpoints.
		c.AI.BaseURL = ""
	}
	c.AI.Model = strings.TrimSpace(c.AI.Model)
	if c.AI.Model == "" || (c.AI.Model == defaultAIModel && c.AI.Provider != ProviderOpenRouter) {
		c.AI.Model = defaultModelFor(c.AI.Provider)
	}
	c.AI.Referer = strings.TrimSpace(c.AI.Referer)
	c.AI.Title = strings.TrimSpace(c.AI.Title)
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = defaultAITimeoutSeconds
	}
}

func defaultModelFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	default:
		return defaultAIModel
	}
}

func (c *Config) normalizeCapture() {
	cmd := c.Capture.Command[:0]
	for _, part := range c.Capture.Command {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			cmd = append(cmd, trimmed)
		}
	}
	c.Capture.Command = cmd
	if c.Capture.TimeoutSeconds <= 0 {
		c.Capture.TimeoutSeconds = defaultCaptureTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
