// Package migrations embeds the goose SQL migrations so binaries can apply
// them without the source tree.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed *.sql
var FS embed.FS

const dialect = "postgres"

type gooseLogger struct {
	sugar *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.sugar.Fatalf(strings.TrimSuffix(format, "\n"), v...)
}

func configure(logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	goose.SetBaseFS(FS)
	goose.SetLogger(gooseLogger{sugar: logger.Sugar()})
	return goose.SetDialect(dialect)
}

// Up applies every pending embedded migration.
func Up(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if err := configure(logger); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if err := configure(logger); err != nil {
		return err
	}
	return goose.DownContext(ctx, db, ".")
}

func Status(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if err := configure(logger); err != nil {
		return err
	}
	return goose.StatusContext(ctx, db, ".")
}
