package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreNone     = "none"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	Port     string `mapstructure:"PORT"`

	// Source workbook and extraction.
	SourceURL       string        `mapstructure:"SOURCE_URL"`
	SourceFile      string        `mapstructure:"SOURCE_FILE"`
	Sheet           string        `mapstructure:"SHEET"`
	DownloadTimeout time.Duration `mapstructure:"DOWNLOAD_TIMEOUT"`
	StrictKeyWords  bool          `mapstructure:"STRICT_KEY_WORDS"`

	// Export.
	OutputDir    string `mapstructure:"OUTPUT_DIR"`
	OutputFormat string `mapstructure:"OUTPUT_FORMAT"`
	Description  string `mapstructure:"MANIFEST_DESCRIPTION"`

	// Store.
	Store       string `mapstructure:"STORE"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBSchema    string `mapstructure:"DB_SCHEMA"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`

	// HTTP API.
	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string        `mapstructure:"AUTH_AUDIENCE"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
}

var defaults = map[string]interface{}{
	"ENV":                  "development",
	"LOG_LEVEL":            "info",
	"PORT":                 "8000",
	"SOURCE_URL":           "",
	"SOURCE_FILE":          "TestDownload.xlsx",
	"SHEET":                "",
	"DOWNLOAD_TIMEOUT":     "30s",
	"STRICT_KEY_WORDS":     false,
	"OUTPUT_DIR":           "Scenarios",
	"OUTPUT_FORMAT":        "json",
	"MANIFEST_DESCRIPTION": "Scenario configuration",
	"STORE":                StoreNone,
	"DATABASE_URL":         "",
	"DB_SCHEMA":            "public",
	"DB_MAX_CONNS":         10,
	"DB_MIN_CONNS":         1,
	"SQLITE_PATH":          "scenarios.db",
	"AUTH_SIGNING_KEY":     "",
	"AUTH_ISSUER":          "",
	"AUTH_AUDIENCE":        "",
	"CORS_ORIGINS":         "http://localhost:3000",
	"BODY_LIMIT":           "20M",
	"REQUEST_TIMEOUT":      "60s",
	"RATE_LIMIT_RPS":       5,
	"RATE_LIMIT_BURST":     20,
}

// Load reads .env (if present) and the environment. Environment variables
// win over .env.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
		// AutomaticEnv alone is not seen by Unmarshal.
		v.BindEnv(key)
	}

	// A missing .env is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if cfg.Store == "" {
		cfg.Store = StoreNone
	}
	return cfg, nil
}

// splitList flattens comma separated entries, which is how lists arrive
// from the environment.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks enum values and settings that require a companion.
func (c *Config) Validate() error {
	switch c.Env {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENV must be development, staging or production, got %q", c.Env)
	}
	switch c.OutputFormat {
	case "json", "yaml", "yml":
	default:
		return fmt.Errorf("OUTPUT_FORMAT must be json or yaml, got %q", c.OutputFormat)
	}
	switch c.Store {
	case StoreNone, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE is postgres")
		}
	default:
		return fmt.Errorf("STORE must be none, postgres or sqlite, got %q", c.Store)
	}
	if c.Store == StoreSQLite && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required when STORE is sqlite")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required when ENV is %q", c.Env)
	}
	if c.AuthSigningKey != "" && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes, got %d", len(c.AuthSigningKey))
	}
	if c.DownloadTimeout < 0 || c.RequestTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}
