// Command seed loads a JSON seed file into the configured store.
// Documents that already exist are left unchanged.
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
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the YAML config file")
	file := flag.String("file", "data/seed.json", "seed file to apply")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := debug.Init(os.Stderr, cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)
	if cfg.Storage.Type == "memory" {
		logger.Warn("seeding the in-memory store has no lasting effect")
	}

	ctx := context.Background()
	store, err := app.OpenStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	return app.SeedFromFile(ctx, store, *file, logger)
}
