package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains state and log directories.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Catalog selects the authoritative store backend and merge policy.
type Catalog struct {
	Backend  string `toml:"backend"`
	Table    string `toml:"table"`
	PageSize int    `toml:"page_size"`
	// Dedupe collapses records whose normalized labels collide; first seen wins.
	Dedupe bool `toml:"dedupe"`
	// MatchSpecs extends query matching to the DAC and laser fields.
	MatchSpecs bool `toml:"match_specs"`
}

// Supabase contains the hosted PostgREST endpoint settings.
type Supabase struct {
	URL            string `toml:"url"`
	AnonKey        string `toml:"anon_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Postgres contains a direct database connection string.
type Postgres struct {
	DSN string `toml:"dsn"`
}

// SQLite points at a local catalog database file.
type SQLite struct {
	Path string `toml:"path"`
}

// AI contains the multimodal model connection settings.
type AI struct {
	Provider             string `toml:"provider"`
	APIKey               string `toml:"api_key"`
	BaseURL              string `toml:"base_url"`
	Model                string `toml:"model"`
	Referer              string `toml:"referer"`
	Title                string `toml:"title"`
	TimeoutSeconds       int    `toml:"timeout_seconds"`
	IdentifyCacheMinutes int    `toml:"identify_cache_minutes"`
}

// Capture configures the external camera command used for live captures.
type Capture struct {
	// Command is run with an output file path appended; it must write a JPEG or PNG there.
	Command        []string `toml:"command"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cdfinder.
//
// Configuration sections by subsystem:
//   - Paths: state (session lock) and log directories
//   - Catalog: backend selection plus dedupe/matching policy
//   - Supabase, Postgres, SQLite: per-backend connection details
//   - AI: image identification and spec lookup provider
//   - Capture: camera command for live captures
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Catalog  Catalog  `toml:"catalog"`
	Supabase Supabase `toml:"supabase"`
	Postgres Postgres `toml:"postgres"`
	SQLite   SQLite   `toml:"sqlite"`
	AI       AI       `toml:"ai"`
	Capture  Capture  `toml:"capture"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cdfinder/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cdfinder.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SessionLockPath is the lock file guarding the single active session.
func (c *Config) SessionLockPath() string {
	return filepath.Join(c.Paths.StateDir, "session.lock")
}

// AICredential returns the raw credential used to decide AI availability.
func (c *Config) AICredential() string {
	return c.AI.APIKey
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML, masking secrets.
func (c *Config) Encode() (string, error) {
	masked := *c
	masked.Supabase.AnonKey = mask(masked.Supabase.AnonKey)
	masked.AI.APIKey = mask(masked.AI.APIKey)
	masked.Postgres.DSN = mask(masked.Postgres.DSN)
	data, err := toml.Marshal(masked)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + strings.Repeat("*", 8)
}
