// Package app assembles the bookstore API from a loaded configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/auth"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/auth/jwt"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/auth/local"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/auth/login"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/auth/tokenclient"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/config"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/observability"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/seed"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/storage"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/storage/memory"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/storage/postgres"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/transport"
	transporthttp "github.com/JunbolWincAcademyBackend/bookstore/pkg/transport/http"
)

// App is a fully wired API.
type App struct {
	Store   storage.Store
	Handler http.Handler

	closers []func()
}

// Close releases the store, the key set refresher and flushes error reports.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// New builds the store, authentication, reporters and HTTP handler
// described by cfg. Callers must Close the returned App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{}

	store, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing store failed", "error", err)
		}
	})

	if cfg.Storage.SeedFile != "" {
		if err := SeedFromFile(ctx, store, cfg.Storage.SeedFile, logger); err != nil {
			a.Close()
			return nil, err
		}
	}

	verifier, authenticator, tokens, err := a.buildAuth(ctx, cfg, store, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	reporter, err := a.buildReporter(cfg.Observability.Sentry, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	exec := transport.NewExecutor(transport.Config{
		Verifier: verifier,
		Reporter: reporter,
		Logger:   logger,
	})

	adapter := transporthttp.NewAdapter(transporthttp.Config{
		Repositories:  store.Repositories(),
		Login:         authenticator,
		WriteScopes:   cfg.Auth.WriteScopes,
		ServiceTokens: tokens,
		Health:        store,
		MaxBodySize:   cfg.Server.MaxBodyBytes,
		Logger:        logger,
	})

	mux := http.NewServeMux()
	if cfg.Observability.Metrics.Enabled {
		mux.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
	}
	if err := adapter.Mount(mux, exec); err != nil {
		a.Close()
		return nil, fmt.Errorf("mounting routes: %w", err)
	}

	// The metrics middleware reads the pattern the mux sets on the request,
	// so it must sit directly around the mux.
	a.Handler = transport.Logging(logger)(observability.MetricsMiddleware(mux))
	return a, nil
}

// OpenStore opens the configured storage backend.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(), nil
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// SeedFromFile applies the seed file at path to store.
func SeedFromFile(ctx context.Context, store storage.Store, path string, logger *slog.Logger) error {
	data, err := seed.Load(path)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, store.Repositories(), data, logger)
	if err != nil {
		return err
	}
	logger.Info("seed applied", "file", path, "created", res.Created, "skipped", res.Skipped)
	return nil
}

// NewTokenClient creates the identity provider client of delegated mode.
func NewTokenClient(cfg config.DelegatedAuthConfig, logger *slog.Logger) (*tokenclient.Client, error) {
	return tokenclient.New(tokenclient.Config{
		TokenURL:     cfg.TokenURL,
		Domain:       cfg.Domain,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Audience:     cfg.Audience,
		Timeout:      cfg.Timeout,
		Logger:       logger,
	})
}

func (a *App) buildAuth(ctx context.Context, cfg *config.Config, store storage.Store, logger *slog.Logger) (auth.Verifier, login.Authenticator, transport.TokenSource, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeLocal:
		lc := local.Config{
			Secret:   []byte(cfg.Auth.Local.Secret),
			Issuer:   cfg.Auth.Local.Issuer,
			Audience: cfg.Auth.Local.Audience,
			TokenTTL: cfg.Auth.Local.TokenTTL,
		}
		verifier, err := local.NewVerifier(lc)
		if err != nil {
			return nil, nil, nil, err
		}
		signer, err := local.NewSigner(lc)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("authentication configured", "mode", config.AuthModeLocal)
		return verifier, login.NewLocal(store.Repositories().Credentials, signer), nil, nil

	case config.AuthModeDelegated:
		dc := cfg.Auth.Delegated
		verifier, err := jwt.New(ctx, jwt.Config{
			Domain:      dc.Domain,
			Issuer:      dc.Issuer,
			Audience:    dc.Audience,
			JWKSURL:     dc.JWKSURL,
			ScopesClaim: dc.ScopesClaim,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		a.closers = append(a.closers, verifier.Close)

		client, err := NewTokenClient(dc, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		var tokens transport.TokenSource
		if dc.ServiceTokenOnWrite {
			tokens = client
		}
		logger.Info("authentication configured", "mode", config.AuthModeDelegated,
			"domain", dc.Domain, "service_token_on_write", dc.ServiceTokenOnWrite)
		return verifier, login.NewDelegated(client), tokens, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}

func (a *App) buildReporter(cfg config.SentryConfig, logger *slog.Logger) (transport.Reporter, error) {
	reporters := []transport.Reporter{
		transport.LogReporter{Logger: logger},
		observability.MetricsReporter{},
	}
	if cfg.DSN == "" {
		return transport.Reporters(reporters...), nil
	}

	kinds := make([]api.Kind, 0, len(cfg.Kinds))
	for _, k := range cfg.Kinds {
		kinds = append(kinds, api.Kind(k))
	}
	sentryReporter, err := observability.NewSentryReporter(observability.SentryConfig{
		DSN:         cfg.DSN,
		Environment: cfg.Environment,
		SampleRate:  cfg.SampleRate,
		Kinds:       kinds,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring error reporting: %w", err)
	}
	a.closers = append(a.closers, func() { sentryReporter.Flush(2 * time.Second) })
	logger.Info("error reporting enabled", "environment", cfg.Environment)
	return transport.Reporters(append(reporters, sentryReporter)...), nil
}
