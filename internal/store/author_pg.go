package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"libraryapi/internal/entity"
)

var authorColumns = []string{"id", "name", "born", "created_at", "updated_at"}

func (s *PG) FindAuthorByName(ctx context.Context, name string) (entity.Author, error) {
	query, args, err := s.sb.Select(authorColumns...).
		From("authors").
		Where(sq.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return entity.Author{}, err
	}

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	var a entity.Author
	err = s.db.QueryRow(timeoutCtx, query, args...).Scan(&a.ID, &a.Name, &a.Born, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return entity.Author{}, mapPGError(err)
	}
	return a, nil
}

func (s *PG) CreateAuthor(ctx context.Context, a *entity.Author) error {
	query, args, err := s.sb.Insert("authors").
		Columns("name", "born").
		Values(a.Name, a.Born).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return err
	}

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return mapPGError(s.db.QueryRow(timeoutCtx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt))
}

func (s *PG) UpdateAuthor(ctx context.Context, a *entity.Author) error {
	query, args, err := s.sb.Update("authors").
		Set("name", a.Name).
		Set("born", a.Born).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": a.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return err
	}

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return mapPGError(s.db.QueryRow(timeoutCtx, query, args...).Scan(&a.UpdatedAt))
}

func (s *PG) ListAuthors(ctx context.Context) ([]entity.Author, error) {
	query, args, err := s.sb.Select(authorColumns...).
		From("authors").
		OrderBy("created_at", "name").
		ToSql()
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, mapPGError(err)
	}
	defer rows.Close()

	out := []entity.Author{}
	for rows.Next() {
		var a entity.Author
		if err := rows.Scan(&a.ID, &a.Name, &a.Born, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PG) CountAuthors(ctx context.Context) (int, error) {
	return s.count(ctx, "authors")
}

func (s *PG) DeleteAllAuthors(ctx context.Context) (int, error) {
	return s.deleteAll(ctx, "authors")
}
