// Package config provides unified configuration for the bookstore API.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Legacy environment variables (PORT, AUTH_SECRET_KEY, AUTH0_*, ...)
//  4. Environment variable overrides (BOOKSTORE_ prefix)
//  5. File reference resolution (_file suffix fields)
//  6. Validation
//
// The result is resolved once at startup and never changes afterwards.
package config

import "time"

// Authentication modes.
const (
	AuthModeLocal     = "local"
	AuthModeDelegated = "delegated"
)

// Config holds all configuration for the bookstore API.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       StorageConfig       `yaml:"storage"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`   // default: 1 MiB
}

// AuthConfig selects how bearer tokens are issued and verified.
type AuthConfig struct {
	Mode string `yaml:"mode"` // "local" or "delegated", default: "local"

	// WriteScopes are required on every mutating route. Empty means any
	// authenticated caller may write.
	WriteScopes []string `yaml:"write_scopes"`

	Local     LocalAuthConfig     `yaml:"local"`
	Delegated DelegatedAuthConfig `yaml:"delegated"`
}

// LocalAuthConfig holds settings for self-issued HS256 tokens.
type LocalAuthConfig struct {
	Secret     string        `yaml:"secret"`
	SecretFile string        `yaml:"secret_file"` // _file variant for secret
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	TokenTTL   time.Duration `yaml:"token_ttl"` // default: 1h
}

// DelegatedAuthConfig holds settings for an external identity provider.
type DelegatedAuthConfig struct {
	Domain           string        `yaml:"domain"`
	Issuer           string        `yaml:"issuer"`   // default: https://<domain>/
	Audience         string        `yaml:"audience"` // required
	JWKSURL          string        `yaml:"jwks_url"`
	TokenURL         string        `yaml:"token_url"`
	ClientID         string        `yaml:"client_id"`
	ClientSecret     string        `yaml:"client_secret"`
	ClientSecretFile string        `yaml:"client_secret_file"` // _file variant for client_secret
	ScopesClaim      string        `yaml:"scopes_claim"`       // default: "scope"
	Timeout          time.Duration `yaml:"timeout"`            // default: 10s

	// ServiceTokenOnWrite obtains a client-credentials token before every
	// write operation.
	ServiceTokenOnWrite bool `yaml:"service_token_on_write"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"`      // "memory" or "postgres", default: "memory"
	SeedFile string         `yaml:"seed_file"` // optional JSON seed loaded at startup
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: true
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error; default: info
	Format string `yaml:"format"` // "json" or "text", default: "json"
	Debug  string `yaml:"debug"`  // comma-separated debug categories
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Sentry  SentryConfig  `yaml:"sentry"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// SentryConfig holds error telemetry settings. Reporting is disabled when
// DSN is empty.
type SentryConfig struct {
	DSN         string   `yaml:"dsn"`
	DSNFile     string   `yaml:"dsn_file"` // _file variant for dsn
	Environment string   `yaml:"environment"`
	SampleRate  float64  `yaml:"sample_rate"` // default: 1.0
	Kinds       []string `yaml:"kinds"`       // default: internal, upstream
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Auth: AuthConfig{
			Mode: AuthModeLocal,
			Local: LocalAuthConfig{
				TokenTTL: time.Hour,
			},
			Delegated: DelegatedAuthConfig{
				ScopesClaim: "scope",
				Timeout:     10 * time.Second,
			},
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns:       25,
				MigrateOnStart: true,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
			Sentry: SentryConfig{
				SampleRate: 1.0,
				Kinds:      []string{"internal", "upstream"},
			},
		},
	}
}
