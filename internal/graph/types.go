package graph

import (
	"context"
	"sync"

	graphql "github.com/graph-gophers/graphql-go"

	"libraryapi/internal/entity"
	"libraryapi/internal/loader"
)

// siblingKeys is shared by the authors resolved in one list. The first
// bookCount call enqueues every name so the whole list lands in one batch,
// however the executor schedules the field resolvers.
type siblingKeys struct {
	once  sync.Once
	names []string
}

func newSiblingKeys(authors []entity.Author) *siblingKeys {
	seen := make(map[string]struct{}, len(authors))
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if _, ok := seen[a.Name]; ok {
			continue
		}
		seen[a.Name] = struct{}{}
		names = append(names, a.Name)
	}
	return &siblingKeys{names: names}
}

type authorResolver struct {
	author   entity.Author
	counts   *loader.BookCount
	siblings *siblingKeys
}

func (r *authorResolver) ID() graphql.ID {
	return graphql.ID(r.author.ID)
}

func (r *authorResolver) Name() string {
	return r.author.Name
}

func (r *authorResolver) Born() *int32 {
	if r.author.Born == nil {
		return nil
	}
	born := int32(*r.author.Born)
	return &born
}

func (r *authorResolver) BookCount(ctx context.Context) (int32, error) {
	if r.siblings != nil {
		r.siblings.once.Do(func() {
			r.counts.Enqueue(ctx, r.siblings.names)
		})
	}
	n, err := r.counts.Load(ctx, r.author.Name)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

type bookResolver struct {
	book   entity.Book
	author *authorResolver
}

func newBookResolver(b entity.Book, counts *loader.BookCount, siblings *siblingKeys) *bookResolver {
	r := &bookResolver{book: b}
	if b.Author != nil {
		r.author = &authorResolver{author: *b.Author, counts: counts, siblings: siblings}
	} else {
		r.author = &authorResolver{author: entity.Author{ID: b.AuthorID}, counts: counts}
	}
	return r
}

// newBookResolvers shares one loader and one sibling set across the list.
func newBookResolvers(books []entity.Book, counts *loader.BookCount) []*bookResolver {
	authors := make([]entity.Author, 0, len(books))
	for _, b := range books {
		if b.Author != nil {
			authors = append(authors, *b.Author)
		}
	}
	siblings := newSiblingKeys(authors)

	out := make([]*bookResolver, 0, len(books))
	for _, b := range books {
		out = append(out, newBookResolver(b, counts, siblings))
	}
	return out
}

func (r *bookResolver) ID() graphql.ID {
	return graphql.ID(r.book.ID)
}

func (r *bookResolver) Title() string {
	return r.book.Title
}

func (r *bookResolver) Published() int32 {
	return int32(r.book.Published)
}

func (r *bookResolver) Genres() []string {
	if r.book.Genres == nil {
		return []string{}
	}
	return r.book.Genres
}

func (r *bookResolver) Author() *authorResolver {
	return r.author
}

type userResolver struct {
	user entity.User
}

func (r *userResolver) ID() graphql.ID {
	return graphql.ID(r.user.ID)
}

func (r *userResolver) Username() string {
	return r.user.Username
}

func (r *userResolver) FavoriteGenre() *string {
	return r.user.FavoriteGenre
}

type tokenResolver struct {
	value string
}

func (r *tokenResolver) Value() string {
	return r.value
}
