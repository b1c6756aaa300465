package store

import (
	"context"
	"errors"

	"libraryapi/internal/entity"
)

//go:generate mockgen -destination=../mocks/mock_store.go -package=mocks libraryapi/internal/store Store

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record already exists")
)

// BookFilter narrows ListBooks. Nil fields are ignored; set fields combine with AND.
type BookFilter struct {
	Author *string
	Genre  *string
}

type AuthorRepository interface {
	FindAuthorByName(ctx context.Context, name string) (entity.Author, error)
	CreateAuthor(ctx context.Context, a *entity.Author) error
	UpdateAuthor(ctx context.Context, a *entity.Author) error
	ListAuthors(ctx context.Context) ([]entity.Author, error)
	CountAuthors(ctx context.Context) (int, error)
	DeleteAllAuthors(ctx context.Context) (int, error)
}

type BookRepository interface {
	CreateBook(ctx context.Context, b *entity.Book) error
	ListBooks(ctx context.Context, f BookFilter) ([]entity.Book, error)
	CountBooks(ctx context.Context) (int, error)
	// CountBooksGroupedByAuthorNames returns the number of books per author name.
	// Names with no books may be absent from the result.
	CountBooksGroupedByAuthorNames(ctx context.Context, names []string) (map[string]int, error)
	DeleteAllBooks(ctx context.Context) (int, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *entity.User) error
	FindUserByUsername(ctx context.Context, username string) (entity.User, error)
	FindUserByID(ctx context.Context, id string) (entity.User, error)
}

// Store is the full persistence contract used by the API.
type Store interface {
	AuthorRepository
	BookRepository
	UserRepository
	Ping(ctx context.Context) error
}
