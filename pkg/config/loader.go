package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/debug"
)

// EnvPrefix prefixes every structured environment override.
const EnvPrefix = "BOOKSTORE_"

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, BOOKSTORE_CONFIG env, ./config.yaml, /etc/bookstore/config.yaml)
//  3. Legacy environment variables
//  4. BOOKSTORE_* environment variables
//  5. File reference resolution (_file suffix)
//  6. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	debug.Log("config", "config file discovery", "path", filePath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyLegacyEnv(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	debug.Log("config", "config loaded", "auth_mode", cfg.Auth.Mode, "storage", cfg.Storage.Type, "port", cfg.Server.Port)
	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. BOOKSTORE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/bookstore/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv(EnvPrefix + "CONFIG"); envPath != "" {
		return envPath
	}
	for _, path := range []string{"config.yaml", "/etc/bookstore/config.yaml"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyLegacyEnv maps the environment variables used by earlier
// deployments of the service.
func applyLegacyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("AUTH_SECRET_KEY"); v != "" {
		cfg.Auth.Local.Secret = v
	}
	if v := os.Getenv("AUTH0_DOMAIN"); v != "" {
		cfg.Auth.Delegated.Domain = v
	}
	if v := os.Getenv("AUTH0_AUDIENCE"); v != "" {
		cfg.Auth.Delegated.Audience = v
	}
	if v := os.Getenv("AUTH0_CLIENT_ID"); v != "" {
		cfg.Auth.Delegated.ClientID = v
	}
	if v := os.Getenv("AUTH0_CLIENT_SECRET"); v != "" {
		cfg.Auth.Delegated.ClientSecret = v
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		cfg.Observability.Sentry.DSN = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.Type = "postgres"
		cfg.Storage.Postgres.DSN = v
	}
}

// applyEnvOverrides maps BOOKSTORE_* variables to config fields. They take
// precedence over both the file and the legacy variables.
func applyEnvOverrides(cfg *Config) error {
	str := map[string]*string{
		"AUTH_MODE":          &cfg.Auth.Mode,
		"AUTH_SECRET":        &cfg.Auth.Local.Secret,
		"AUTH_ISSUER":        &cfg.Auth.Local.Issuer,
		"AUTH_DOMAIN":        &cfg.Auth.Delegated.Domain,
		"AUTH_AUDIENCE":      &cfg.Auth.Delegated.Audience,
		"AUTH_CLIENT_ID":     &cfg.Auth.Delegated.ClientID,
		"AUTH_CLIENT_SECRET": &cfg.Auth.Delegated.ClientSecret,
		"AUTH_TOKEN_URL":     &cfg.Auth.Delegated.TokenURL,
		"AUTH_JWKS_URL":      &cfg.Auth.Delegated.JWKSURL,
		"STORAGE":            &cfg.Storage.Type,
		"DATABASE_URL":       &cfg.Storage.Postgres.DSN,
		"SEED_FILE":          &cfg.Storage.SeedFile,
		"LOG_LEVEL":          &cfg.Logging.Level,
		"LOG_FORMAT":         &cfg.Logging.Format,
		"SENTRY_DSN":         &cfg.Observability.Sentry.DSN,
		"SENTRY_ENVIRONMENT": &cfg.Observability.Sentry.Environment,
		"METRICS_PATH":       &cfg.Observability.Metrics.Path,
	}
	for name, field := range str {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*field = v
		}
	}

	if v := os.Getenv(EnvPrefix + "PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv(EnvPrefix + "WRITE_SCOPES"); v != "" {
		cfg.Auth.WriteScopes = splitList(v)
	}
	if v := os.Getenv(EnvPrefix + "SERVICE_TOKEN_ON_WRITE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSERVICE_TOKEN_ON_WRITE: %w", EnvPrefix, err)
		}
		cfg.Auth.Delegated.ServiceTokenOnWrite = b
	}
	if v := os.Getenv(EnvPrefix + "METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sMETRICS_ENABLED: %w", EnvPrefix, err)
		}
		cfg.Observability.Metrics.Enabled = b
	}
	return nil
}

// splitList parses a comma or space separated list, dropping empty items.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	refs := []struct {
		name  string
		file  string
		value *string
	}{
		{"auth.local.secret_file", cfg.Auth.Local.SecretFile, &cfg.Auth.Local.Secret},
		{"auth.delegated.client_secret_file", cfg.Auth.Delegated.ClientSecretFile, &cfg.Auth.Delegated.ClientSecret},
		{"storage.postgres.dsn_file", cfg.Storage.Postgres.DSNFile, &cfg.Storage.Postgres.DSN},
		{"observability.sentry.dsn_file", cfg.Observability.Sentry.DSNFile, &cfg.Observability.Sentry.DSN},
	}
	for _, ref := range refs {
		if ref.file == "" || *ref.value != "" {
			continue
		}
		val, err := readSecretFile(ref.file)
		if err != nil {
			return fmt.Errorf("%s: %w", ref.name, err)
		}
		*ref.value = val
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
