package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"libraryapi/db/migrations"
	"libraryapi/internal/logger"
	"libraryapi/internal/store"
)

func main() {
	loadEnvFiles()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		dsn            string
		connectTimeout time.Duration
	)

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the library database schema",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", databaseDSN(), "Postgres connection string (DB_DSN)")
	root.PersistentFlags().DurationVar(&connectTimeout, "connect-timeout", 30*time.Second, "how long to wait for the database")

	withDB := func(fn func(ctx context.Context, db *sql.DB, log *zap.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			log := logger.MustNew("text", "info")
			ctx := cmd.Context()

			pool, err := store.OpenPool(ctx, dsn, connectTimeout, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			db := stdlib.OpenDBFromPool(pool)
			defer db.Close()

			return fn(ctx, db, log)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withDB(func(ctx context.Context, db *sql.DB, log *zap.Logger) error {
				if err := migrations.Up(ctx, db, log); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
				log.Info("migrations applied successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: withDB(func(ctx context.Context, db *sql.DB, log *zap.Logger) error {
				if err := migrations.Down(ctx, db, log); err != nil {
					return fmt.Errorf("rollback migrations: %w", err)
				}
				log.Info("migrations rolled back successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the migration status",
			Args:  cobra.NoArgs,
			RunE: withDB(func(ctx context.Context, db *sql.DB, log *zap.Logger) error {
				return migrations.Status(ctx, db, log)
			}),
		},
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create a new SQL migration in the migrations directory",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := goose.Create(nil, migrationsDir(), args[0], "sql"); err != nil {
					return fmt.Errorf("create migration: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Migration created: %s\n", args[0])
				return nil
			},
		},
	)
	return root
}
