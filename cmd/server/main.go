// Command server runs the bookstore API.
//
// Configuration is read from a YAML file (-config, BOOKSTORE_CONFIG,
// ./config.yaml or /etc/bookstore/config.yaml) and BOOKSTORE_* environment
// variables. The legacy variables PORT, AUTH_SECRET_KEY, AUTH0_DOMAIN,
// AUTH0_AUDIENCE, AUTH0_CLIENT_ID, AUTH0_CLIENT_SECRET, SENTRY_DSN and
// DATABASE_URL are honoured as well.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/app"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/config"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/debug"
	transporthttp "github.com/JunbolWincAcademyBackend/bookstore/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := debug.Init(os.Stderr, cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := transporthttp.NewServer(a.Handler,
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(logger),
	)
	logger.Info("server starting", "port", cfg.Server.Port, "auth_mode", cfg.Auth.Mode, "storage", cfg.Storage.Type)
	return srv.ListenAndServe()
}
