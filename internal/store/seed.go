package store

import (
	"context"
	"errors"
	"fmt"

	"libraryapi/internal/entity"
)

type SeedAuthor struct {
	Name string
	Born *int
}

type SeedBook struct {
	Title     string
	Published int
	Author    string
	Genres    []string
}

type Dataset struct {
	Authors []SeedAuthor
	Books   []SeedBook
}

func intPtr(v int) *int { return &v }

// SampleLibrary is the demo dataset loaded by the seed command.
func SampleLibrary() Dataset {
	return Dataset{
		Authors: []SeedAuthor{
			{Name: "Robert Martin", Born: intPtr(1952)},
			{Name: "Martin Fowler", Born: intPtr(1963)},
			{Name: "Fyodor Dostoevsky", Born: intPtr(1821)},
			{Name: "Joshua Kerievsky"},
			{Name: "Sandi Metz"},
		},
		Books: []SeedBook{
			{Title: "Clean Code", Published: 2008, Author: "Robert Martin", Genres: []string{"refactoring"}},
			{Title: "Agile software development", Published: 2002, Author: "Robert Martin", Genres: []string{"agile", "patterns", "design"}},
			{Title: "Refactoring, edition 2", Published: 2018, Author: "Martin Fowler", Genres: []string{"refactoring"}},
			{Title: "Refactoring to patterns", Published: 2008, Author: "Joshua Kerievsky", Genres: []string{"refactoring", "patterns"}},
			{Title: "Practical Object-Oriented Design, An Agile Primer Using Ruby", Published: 2012, Author: "Sandi Metz", Genres: []string{"refactoring", "design"}},
			{Title: "Crime and punishment", Published: 1866, Author: "Fyodor Dostoevsky", Genres: []string{"classic", "crime"}},
			{Title: "The Demon", Published: 1872, Author: "Fyodor Dostoevsky", Genres: []string{"classic", "revolution"}},
		},
	}
}

type SeedResult struct {
	AuthorsCreated int
	BooksCreated   int
}

// Seed inserts the dataset. Records that already exist are skipped, so
// seeding twice is harmless.
func Seed(ctx context.Context, s Store, ds Dataset) (SeedResult, error) {
	var res SeedResult
	ids := make(map[string]string, len(ds.Authors))

	for _, sa := range ds.Authors {
		a := entity.Author{Name: sa.Name, Born: sa.Born}
		err := s.CreateAuthor(ctx, &a)
		switch {
		case err == nil:
			res.AuthorsCreated++
		case errors.Is(err, ErrConflict):
			if a, err = s.FindAuthorByName(ctx, sa.Name); err != nil {
				return res, fmt.Errorf("seed author %q: %w", sa.Name, err)
			}
		default:
			return res, fmt.Errorf("seed author %q: %w", sa.Name, err)
		}
		ids[sa.Name] = a.ID
	}

	for _, sb := range ds.Books {
		authorID, ok := ids[sb.Author]
		if !ok {
			return res, fmt.Errorf("seed book %q: unknown author %q", sb.Title, sb.Author)
		}
		b := entity.Book{Title: sb.Title, Published: sb.Published, Genres: sb.Genres, AuthorID: authorID}
		err := s.CreateBook(ctx, &b)
		switch {
		case err == nil:
			res.BooksCreated++
		case errors.Is(err, ErrConflict):
		default:
			return res, fmt.Errorf("seed book %q: %w", sb.Title, err)
		}
	}
	return res, nil
}
