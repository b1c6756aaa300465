package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"libraryapi/db/migrations"
	"libraryapi/internal/auth"
	"libraryapi/internal/config"
	"libraryapi/internal/graph"
	"libraryapi/internal/loader"
	"libraryapi/internal/logger"
	"libraryapi/internal/pubsub"
	"libraryapi/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
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

	st, closeStore, err := openStore(ctx, cfg.Datastore, log)
	if err != nil {
		return err
	}
	defer closeStore()

	bus := pubsub.New(
		pubsub.WithListenerBuffer(cfg.PubSub.ListenerBuffer),
		pubsub.WithInboxSize(cfg.PubSub.InboxSize),
		pubsub.WithLogger(log),
	)
	defer bus.Close()

	authService := auth.NewService(cfg.Auth.JWTSecret, st,
		auth.WithTokenTTL(cfg.Auth.TokenTTL),
		auth.WithPasswordStrength(cfg.Auth.EnforcePasswordStrength),
		auth.WithLogger(log),
	)

	resolver := graph.NewResolver(st, authService, bus,
		graph.WithLoaderConfig(loader.Config{Wait: cfg.Loader.Wait, MaxBatch: cfg.Loader.MaxBatch}),
		graph.WithDeleteAllRequiresAuth(cfg.Auth.RequireForDeleteAll),
		graph.WithLogger(log),
	)
	schema, err := graph.NewSchema(resolver, graphql.MaxParallelism(cfg.GraphQL.MaxParallelism))
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}

	srv := newServer(serverDeps{
		cfg:      cfg.HTTP,
		schema:   schema,
		resolver: resolver,
		builder:  auth.NewContextBuilder(cfg.Auth.JWTSecret, st, log),
		ready:    st.Ping,
		logger:   log,
	})
	defer srv.Close()

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("graphql", "/graphql"),
			zap.String("subscriptions", "/subscriptions"),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Closing the bus ends open subscriptions so their connections can drain.
		bus.Close()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg config.DatastoreConfig, log *zap.Logger) (store.Store, func(), error) {
	if cfg.Engine == config.EngineMemory {
		log.Warn("using the in-memory datastore, data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	pool, err := store.OpenPool(connectCtx, cfg.URI, cfg.ConnectTimeout, log)
	if err != nil {
		return nil, nil, err
	}

	if cfg.AutoMigrate {
		db := stdlib.OpenDBFromPool(pool)
		err := migrations.Up(ctx, db, log)
		_ = db.Close()
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
	}

	return store.NewPG(pool, cfg.Timeout), pool.Close, nil
}
