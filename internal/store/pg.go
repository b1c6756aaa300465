package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation      = "23505"
	pgInvalidTextRepresent = "22P02"
	pgForeignKeyViolation  = "23503"
)

// PG is the Postgres implementation of Store.
type PG struct {
	db      *pgxpool.Pool
	timeout time.Duration
	sb      sq.StatementBuilderType
}

var _ Store = (*PG)(nil)

func NewPG(db *pgxpool.Pool, timeout time.Duration) *PG {
	return &PG{
		db:      db,
		timeout: timeout,
		sb:      sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (s *PG) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *PG) Ping(ctx context.Context) error {
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.db.Ping(timeoutCtx)
}

func (s *PG) deleteAll(ctx context.Context, table string) (int, error) {
	query, args, err := s.sb.Delete(table).ToSql()
	if err != nil {
		return 0, err
	}
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	tag, err := s.db.Exec(timeoutCtx, query, args...)
	if err != nil {
		return 0, mapPGError(err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PG) count(ctx context.Context, table string) (int, error) {
	query, args, err := s.sb.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, err
	}
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	var n int
	if err := s.db.QueryRow(timeoutCtx, query, args...).Scan(&n); err != nil {
		return 0, mapPGError(err)
	}
	return n, nil
}

// mapPGError translates driver errors into the package sentinels.
func mapPGError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.Detail)
		case pgInvalidTextRepresent:
			// ids are uuids; a malformed one cannot match any row
			return ErrNotFound
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.Detail)
		}
	}
	return err
}
