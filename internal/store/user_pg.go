package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"libraryapi/internal/entity"
)

var userColumns = []string{"id", "username", "password_hash", "favorite_genre", "created_at", "updated_at"}

func (s *PG) CreateUser(ctx context.Context, u *entity.User) error {
	query, args, err := s.sb.Insert("users").
		Columns("username", "password_hash", "favorite_genre").
		Values(u.Username, u.PasswordHash, u.FavoriteGenre).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return err
	}

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return mapPGError(s.db.QueryRow(timeoutCtx, query, args...).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt))
}

func (s *PG) FindUserByUsername(ctx context.Context, username string) (entity.User, error) {
	return s.findUser(ctx, sq.Eq{"username": username})
}

func (s *PG) FindUserByID(ctx context.Context, id string) (entity.User, error) {
	return s.findUser(ctx, sq.Eq{"id": id})
}

func (s *PG) findUser(ctx context.Context, where sq.Eq) (entity.User, error) {
	query, args, err := s.sb.Select(userColumns...).
		From("users").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return entity.User{}, err
	}

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	var u entity.User
	err = s.db.QueryRow(timeoutCtx, query, args...).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.FavoriteGenre, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return entity.User{}, mapPGError(err)
	}
	return u, nil
}
