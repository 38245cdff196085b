package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/debug"
)

// Validate checks the configuration for required fields and valid values.
// All problems are returned together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be > 0, got %d", c.Server.MaxBodyBytes))
	}

	switch c.Auth.Mode {
	case AuthModeLocal:
		if c.Auth.Local.Secret == "" {
			errs = append(errs, errors.New("auth.local.secret or auth.local.secret_file is required when auth.mode is \"local\""))
		}
		if c.Auth.Local.TokenTTL <= 0 {
			errs = append(errs, fmt.Errorf("auth.local.token_ttl must be > 0, got %s", c.Auth.Local.TokenTTL))
		}
	case AuthModeDelegated:
		d := c.Auth.Delegated
		if d.Domain == "" && d.Issuer == "" {
			errs = append(errs, errors.New("auth.delegated.domain or auth.delegated.issuer is required when auth.mode is \"delegated\""))
		}
		if d.Audience == "" {
			errs = append(errs, errors.New("auth.delegated.audience is required when auth.mode is \"delegated\""))
		}
		if d.ClientID == "" {
			errs = append(errs, errors.New("auth.delegated.client_id is required when auth.mode is \"delegated\""))
		}
		if d.Domain == "" && d.TokenURL == "" {
			errs = append(errs, errors.New("auth.delegated.token_url is required when auth.delegated.domain is empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be \"local\" or \"delegated\", got %q", c.Auth.Mode))
	}

	switch c.Storage.Type {
	case "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			errs = append(errs, errors.New("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	if !debug.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"json\" or \"text\", got %q", c.Logging.Format))
	}

	s := c.Observability.Sentry
	if s.SampleRate < 0 || s.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("observability.sentry.sample_rate must be within [0, 1], got %v", s.SampleRate))
	}
	for _, k := range s.Kinds {
		if !slices.Contains(api.Kinds, api.Kind(k)) {
			errs = append(errs, fmt.Errorf("observability.sentry.kinds: unknown kind %q", k))
		}
	}

	return errors.Join(errs...)
}
