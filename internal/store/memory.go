package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"libraryapi/internal/entity"
)

// Memory is an in-process Store with the same constraints as the Postgres
// schema. Records are kept in insertion order.
type Memory struct {
	mu      sync.RWMutex
	authors []entity.Author
	books   []entity.Book
	users   []entity.User
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) FindAuthorByName(ctx context.Context, name string) (entity.Author, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.authorIndexByName(name); i >= 0 {
		return copyAuthor(m.authors[i]), nil
	}
	return entity.Author{}, ErrNotFound
}

func (m *Memory) CreateAuthor(ctx context.Context, a *entity.Author) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authorIndexByName(a.Name) >= 0 {
		return fmt.Errorf("%w: author name %q", ErrConflict, a.Name)
	}
	now := time.Now()
	a.ID = uuid.NewString()
	a.CreatedAt, a.UpdatedAt = now, now
	m.authors = append(m.authors, copyAuthor(*a))
	return nil
}

func (m *Memory) UpdateAuthor(ctx context.Context, a *entity.Author) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := -1
	for i := range m.authors {
		if m.authors[i].ID == a.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	if j := m.authorIndexByName(a.Name); j >= 0 && j != idx {
		return fmt.Errorf("%w: author name %q", ErrConflict, a.Name)
	}
	a.UpdatedAt = time.Now()
	a.CreatedAt = m.authors[idx].CreatedAt
	m.authors[idx] = copyAuthor(*a)
	return nil
}

func (m *Memory) ListAuthors(ctx context.Context) ([]entity.Author, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]entity.Author, 0, len(m.authors))
	for _, a := range m.authors {
		out = append(out, copyAuthor(a))
	}
	return out, nil
}

func (m *Memory) CountAuthors(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.authors), nil
}

func (m *Memory) DeleteAllAuthors(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.books) > 0 {
		return 0, fmt.Errorf("delete authors: %d books still reference authors", len(m.books))
	}
	n := len(m.authors)
	m.authors = nil
	return n, nil
}

func (m *Memory) CreateBook(ctx context.Context, b *entity.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authorIndexByID(b.AuthorID) < 0 {
		return fmt.Errorf("%w: author %q", ErrNotFound, b.AuthorID)
	}
	for _, existing := range m.books {
		if existing.Title == b.Title {
			return fmt.Errorf("%w: book title %q", ErrConflict, b.Title)
		}
	}
	now := time.Now()
	b.ID = uuid.NewString()
	b.CreatedAt, b.UpdatedAt = now, now
	if b.Genres == nil {
		b.Genres = []string{}
	}
	stored := *b
	stored.Genres = append([]string(nil), b.Genres...)
	stored.Author = nil
	m.books = append(m.books, stored)
	return nil
}

func (m *Memory) ListBooks(ctx context.Context, f BookFilter) ([]entity.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []entity.Book{}
	for _, b := range m.books {
		ai := m.authorIndexByID(b.AuthorID)
		if ai < 0 {
			continue
		}
		author := copyAuthor(m.authors[ai])
		if f.Author != nil && author.Name != *f.Author {
			continue
		}
		if f.Genre != nil && !b.HasGenre(*f.Genre) {
			continue
		}
		b.Genres = append([]string{}, b.Genres...)
		b.Author = &author
		out = append(out, b)
	}
	return out, nil
}

func (m *Memory) CountBooks(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.books), nil
}

func (m *Memory) CountBooksGroupedByAuthorNames(ctx context.Context, names []string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[string]string, len(names)) // author id -> name
	for _, name := range names {
		if i := m.authorIndexByName(name); i >= 0 {
			wanted[m.authors[i].ID] = name
		}
	}
	counts := make(map[string]int, len(wanted))
	for _, b := range m.books {
		if name, ok := wanted[b.AuthorID]; ok {
			counts[name]++
		}
	}
	return counts, nil
}

func (m *Memory) DeleteAllBooks(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.books)
	m.books = nil
	return n, nil
}

func (m *Memory) CreateUser(ctx context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return fmt.Errorf("%w: username %q", ErrConflict, u.Username)
		}
	}
	now := time.Now()
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users = append(m.users, *u)
	return nil
}

func (m *Memory) FindUserByUsername(ctx context.Context, username string) (entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return entity.User{}, ErrNotFound
}

func (m *Memory) FindUserByID(ctx context.Context, id string) (entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return entity.User{}, ErrNotFound
}

func (m *Memory) authorIndexByName(name string) int {
	for i := range m.authors {
		if m.authors[i].Name == name {
			return i
		}
	}
	return -1
}

func (m *Memory) authorIndexByID(id string) int {
	for i := range m.authors {
		if m.authors[i].ID == id {
			return i
		}
	}
	return -1
}

func copyAuthor(a entity.Author) entity.Author {
	if a.Born != nil {
		born := *a.Born
		a.Born = &born
	}
	return a
}
