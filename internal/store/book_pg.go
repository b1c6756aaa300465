package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"libraryapi/internal/entity"
)

func (s *PG) CreateBook(ctx context.Context, b *entity.Book) error {
	genres := b.Genres
	if genres == nil {
		genres = []string{}
	}
	query, args, err := s.sb.Insert("books").
		Columns("title", "published", "genres", "author_id").
		Values(b.Title, b.Published, genres, b.AuthorID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return err
	}

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return mapPGError(s.db.QueryRow(timeoutCtx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt))
}

func (s *PG) ListBooks(ctx context.Context, f BookFilter) ([]entity.Book, error) {
	q := s.sb.Select(
		"b.id", "b.title", "b.published", "b.genres", "b.author_id", "b.created_at", "b.updated_at",
		"a.id", "a.name", "a.born", "a.created_at", "a.updated_at",
	).
		From("books b").
		Join("authors a ON a.id = b.author_id").
		OrderBy("b.created_at", "b.title")

	if f.Author != nil {
		q = q.Where(sq.Eq{"a.name": *f.Author})
	}
	if f.Genre != nil {
		q = q.Where("? = ANY(b.genres)", *f.Genre)
	}

	query, args, err := q.ToSql()
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

	out := []entity.Book{}
	for rows.Next() {
		var (
			b entity.Book
			a entity.Author
		)
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Published, &b.Genres, &b.AuthorID, &b.CreatedAt, &b.UpdatedAt,
			&a.ID, &a.Name, &a.Born, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		b.Author = &a
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PG) CountBooks(ctx context.Context) (int, error) {
	return s.count(ctx, "books")
}

func (s *PG) CountBooksGroupedByAuthorNames(ctx context.Context, names []string) (map[string]int, error) {
	counts := make(map[string]int, len(names))
	if len(names) == 0 {
		return counts, nil
	}

	query, args, err := s.sb.Select("a.name", "COUNT(b.id)").
		From("authors a").
		Join("books b ON b.author_id = a.id").
		Where(sq.Eq{"a.name": names}).
		GroupBy("a.name").
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

	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

func (s *PG) DeleteAllBooks(ctx context.Context) (int, error) {
	return s.deleteAll(ctx, "books")
}
