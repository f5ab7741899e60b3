package config

import "time"

const (
	defaultStateDir              = "~/.local/share/cdfinder"
	defaultLogDir                = "~/.local/share/cdfinder/logs"
	defaultCatalogBackend        = BackendPostgREST
	defaultCatalogTable          = "cdp_models"
	defaultCatalogPageSize       = 1000
	defaultSupabaseTimeout       = 15
	defaultSQLitePath            = "~/.local/share/cdfinder/catalog.db"
	defaultAIProvider            = ProviderOpenRouter
	defaultAIBaseURL             = "https://openrouter.ai/api/v1/chat/completions"
	defaultAIModel               = "google/gemini-3-flash-preview"
	defaultAIReferer             = "https://github.com/cdfinder/cdfinder"
	defaultAITitle               = "CD Player Spec Finder"
	defaultAITimeoutSeconds      = 60
	defaultIdentifyCacheMinutes  = 30
	defaultCaptureTimeoutSeconds = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Catalog backend names.
const (
	BackendPostgREST = "postgrest"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendBuiltin   = "builtin"
)

// AI provider names.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Catalog: Catalog{
			Backend:  defaultCatalogBackend,
			Table:    defaultCatalogTable,
			PageSize: defaultCatalogPageSize,
			Dedupe:   true,
		},
		Supabase: Supabase{
			TimeoutSeconds: defaultSupabaseTimeout,
		},
		SQLite: SQLite{
			Path: defaultSQLitePath,
		},
		AI: AI{
			Provider:             defaultAIProvider,
			BaseURL:              defaultAIBaseURL,
			Model:                defaultAIModel,
			Referer:              defaultAIReferer,
			Title:                defaultAITitle,
			TimeoutSeconds:       defaultAITimeoutSeconds,
			IdentifyCacheMinutes: defaultIdentifyCacheMinutes,
		},
		Capture: Capture{
			TimeoutSeconds: defaultCaptureTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// AITimeout returns the per-call deadline applied to AI requests.
func (c *Config) AITimeout() time.Duration {
	if c.AI.TimeoutSeconds <= 0 {
		return defaultAITimeoutSeconds * time.Second
	}
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// IdentifyCacheTTL returns how long identification results stay cached in memory.
// Zero disables the cache.
func (c *Config) IdentifyCacheTTL() time.Duration {
	if c.AI.IdentifyCacheMinutes <= 0 {
		return 0
	}
	return time.Duration(c.AI.IdentifyCacheMinutes) * time.Minute
}
