package graph

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"libraryapi/internal/entity"
	"libraryapi/internal/pubsub"
	"libraryapi/internal/store"
)

type addBookArgs struct {
	Title     string   `validate:"min=2"`
	Published int32
	Author    string   `validate:"min=2"`
	Genres    []string `validate:"dive,required"`
}

func (a addBookArgs) invalidArgs() map[string]any {
	return map[string]any{
		"title":     a.Title,
		"published": a.Published,
		"author":    a.Author,
		"genres":    a.Genres,
	}
}

// AddBook stores a book, creating its author by name when needed, and
// announces it to bookAdded subscribers.
func (r *Resolver) AddBook(ctx context.Context, args addBookArgs) (*bookResolver, error) {
	if err := requireUser(ctx); err != nil {
		return nil, err
	}
	if err := validateArgs(args, args.invalidArgs()); err != nil {
		return nil, err
	}

	author, err := r.findOrCreateAuthor(ctx, args.Author)
	if err != nil {
		return nil, toGraphQLError(err, args.invalidArgs())
	}

	book := entity.Book{
		Title:     args.Title,
		Published: int(args.Published),
		Genres:    args.Genres,
		AuthorID:  author.ID,
	}
	if err := r.store.CreateBook(ctx, &book); err != nil {
		return nil, toGraphQLError(err, args.invalidArgs())
	}
	book.Author = &author

	r.logger.Info("book added",
		zap.String("book_id", book.ID),
		zap.String("title", book.Title),
		zap.String("author", author.Name),
	)
	r.bus.Publish(pubsub.TopicBookAdded, book)

	return newBookResolver(book, r.bookCounts(ctx), nil), nil
}

func (r *Resolver) findOrCreateAuthor(ctx context.Context, name string) (entity.Author, error) {
	author, err := r.store.FindAuthorByName(ctx, name)
	if err == nil {
		return author, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return entity.Author{}, err
	}

	author = entity.Author{Name: name}
	err = r.store.CreateAuthor(ctx, &author)
	if errors.Is(err, store.ErrConflict) {
		// Created concurrently by another request.
		return r.store.FindAuthorByName(ctx, name)
	}
	if err != nil {
		return entity.Author{}, err
	}
	r.logger.Info("author created", zap.String("author_id", author.ID), zap.String("name", author.Name))
	return author, nil
}

type addAuthorArgs struct {
	Name string `validate:"min=2"`
	Born *int32
}

func (r *Resolver) AddAuthor(ctx context.Context, args addAuthorArgs) (*authorResolver, error) {
	if err := requireUser(ctx); err != nil {
		return nil, err
	}
	invalidArgs := map[string]any{"name": args.Name, "born": args.Born}
	if err := validateArgs(args, invalidArgs); err != nil {
		return nil, err
	}

	author := entity.Author{Name: args.Name}
	if args.Born != nil {
		born := int(*args.Born)
		author.Born = &born
	}
	if err := r.store.CreateAuthor(ctx, &author); err != nil {
		return nil, toGraphQLError(err, invalidArgs)
	}

	r.logger.Info("author created", zap.String("author_id", author.ID), zap.String("name", author.Name))
	return &authorResolver{author: author, counts: r.bookCounts(ctx)}, nil
}

type editAuthorArgs struct {
	Name      string
	SetBornTo int32
}

// EditAuthor sets the birth year of the named author. An unknown name
// resolves to null.
func (r *Resolver) EditAuthor(ctx context.Context, args editAuthorArgs) (*authorResolver, error) {
	if err := requireUser(ctx); err != nil {
		return nil, err
	}

	author, err := r.store.FindAuthorByName(ctx, args.Name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	born := int(args.SetBornTo)
	author.Born = &born
	if err := r.store.UpdateAuthor(ctx, &author); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, toGraphQLError(err, map[string]any{"name": args.Name, "setBornTo": args.SetBornTo})
	}
	return &authorResolver{author: author, counts: r.bookCounts(ctx)}, nil
}

type createUserArgs struct {
	Username      string `validate:"min=3"`
	Password      string `validate:"required"`
	FavoriteGenre *string
}

func (r *Resolver) CreateUser(ctx context.Context, args createUserArgs) (*userResolver, error) {
	invalidArgs := map[string]any{"username": args.Username, "favoriteGenre": args.FavoriteGenre}
	if err := validateArgs(args, invalidArgs); err != nil {
		return nil, err
	}

	u, err := r.auth.Register(ctx, args.Username, args.Password, args.FavoriteGenre)
	if err != nil {
		return nil, toGraphQLError(err, invalidArgs)
	}
	return &userResolver{user: u}, nil
}

type loginArgs struct {
	Username string
	Password string
}

func (r *Resolver) Login(ctx context.Context, args loginArgs) (*tokenResolver, error) {
	token, err := r.auth.Login(ctx, args.Username, args.Password)
	if err != nil {
		return nil, toGraphQLError(err, nil)
	}
	return &tokenResolver{value: token}, nil
}

// DeleteAll removes every book and then every author, returning how many
// records were deleted in total.
func (r *Resolver) DeleteAll(ctx context.Context) (int32, error) {
	if r.requireAuthForDeleteAll {
		if err := requireUser(ctx); err != nil {
			return 0, err
		}
	}

	books, err := r.store.DeleteAllBooks(ctx)
	if err != nil {
		return 0, err
	}
	authors, err := r.store.DeleteAllAuthors(ctx)
	if err != nil {
		return 0, err
	}

	r.logger.Warn("library cleared", zap.Int("books", books), zap.Int("authors", authors))
	return int32(books + authors), nil
}
