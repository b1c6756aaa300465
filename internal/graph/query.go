package graph

import (
	"context"

	"libraryapi/internal/auth"
	"libraryapi/internal/store"
)

func (r *Resolver) BookCount(ctx context.Context) (int32, error) {
	n, err := r.store.CountBooks(ctx)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

func (r *Resolver) AuthorCount(ctx context.Context) (int32, error) {
	n, err := r.store.CountAuthors(ctx)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

type allBooksArgs struct {
	Author *string
	Genre  *string
}

func (r *Resolver) AllBooks(ctx context.Context, args allBooksArgs) ([]*bookResolver, error) {
	books, err := r.store.ListBooks(ctx, store.BookFilter{Author: args.Author, Genre: args.Genre})
	if err != nil {
		return nil, err
	}
	return newBookResolvers(books, r.bookCounts(ctx)), nil
}

func (r *Resolver) AllAuthors(ctx context.Context) ([]*authorResolver, error) {
	authors, err := r.store.ListAuthors(ctx)
	if err != nil {
		return nil, err
	}

	counts := r.bookCounts(ctx)
	siblings := newSiblingKeys(authors)
	out := make([]*authorResolver, 0, len(authors))
	for _, a := range authors {
		out = append(out, &authorResolver{author: a, counts: counts, siblings: siblings})
	}
	return out, nil
}

func (r *Resolver) CurrentUser(ctx context.Context) *userResolver {
	ac := auth.FromContext(ctx)
	if !ac.Authenticated() {
		return nil
	}
	return &userResolver{user: *ac.CurrentUser}
}
