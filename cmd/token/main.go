// Command token requests a client-credentials token from the configured
// identity provider and prints it to stdout.
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
)

func main() {
	if err := run(); err != nil {
		slog.Error("token request failed", "error", err)
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
	if cfg.Auth.Mode != config.AuthModeDelegated {
		return fmt.Errorf("auth mode is %q, client credentials need %q", cfg.Auth.Mode, config.AuthModeDelegated)
	}
	logger := debug.Init(os.Stderr, cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)

	client, err := app.NewTokenClient(cfg.Auth.Delegated, logger)
	if err != nil {
		return err
	}
	tok, err := client.ClientCredentials(context.Background())
	if err != nil {
		return err
	}
	fmt.Println(tok.AccessToken)
	return nil
}
