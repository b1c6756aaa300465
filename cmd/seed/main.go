package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"libraryapi/internal/config"
	"libraryapi/internal/logger"
	"libraryapi/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Datastore.Engine != config.EnginePostgres {
		return fmt.Errorf("seeding requires the %q engine, got %q", config.EnginePostgres, cfg.Datastore.Engine)
	}

	pool, err := store.OpenPool(ctx, cfg.Datastore.URI, cfg.Datastore.ConnectTimeout, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	res, err := store.Seed(ctx, store.NewPG(pool, cfg.Datastore.Timeout), store.SampleLibrary())
	if err != nil {
		return err
	}

	log.Info("seed complete",
		zap.Int("authors_created", res.AuthorsCreated),
		zap.Int("books_created", res.BooksCreated),
	)
	return nil
}
