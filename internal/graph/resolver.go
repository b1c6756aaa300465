// Package graph maps the library GraphQL schema onto the store, the auth
// service and the event bus.
package graph

import (
	"context"

	"go.uber.org/zap"

	"libraryapi/internal/auth"
	"libraryapi/internal/loader"
	"libraryapi/internal/store"
)

// EventBus is the publish/subscribe surface the resolvers need.
type EventBus interface {
	Publish(topic string, payload any)
	Subscribe(ctx context.Context, topic string) (<-chan any, error)
}

// Resolver is the root resolver for queries, mutations and subscriptions.
type Resolver struct {
	store                   store.Store
	auth                    *auth.Service
	bus                     EventBus
	loaderConfig            loader.Config
	requireAuthForDeleteAll bool
	logger                  *zap.Logger
}

type Option func(*Resolver)

func WithLoaderConfig(cfg loader.Config) Option {
	return func(r *Resolver) {
		r.loaderConfig = cfg
	}
}

// WithDeleteAllRequiresAuth controls whether deleteAll needs a current user.
func WithDeleteAllRequiresAuth(required bool) Option {
	return func(r *Resolver) {
		r.requireAuthForDeleteAll = required
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewResolver(s store.Store, authService *auth.Service, bus EventBus, opts ...Option) *Resolver {
	r := &Resolver{
		store:                   s,
		auth:                    authService,
		bus:                     bus,
		loaderConfig:            loader.Config{Wait: loader.DefaultWait},
		requireAuthForDeleteAll: true,
		logger:                  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewBookCountLoader returns a loader bound to the resolver's store. The HTTP
// layer creates one per request.
func (r *Resolver) NewBookCountLoader() *loader.BookCount {
	return loader.NewBookCount(r.store, r.loaderConfig, r.logger)
}

// bookCounts returns the request's loader, or a new one when the operation
// did not arrive through the HTTP layer.
func (r *Resolver) bookCounts(ctx context.Context) *loader.BookCount {
	if l, ok := loader.FromContext(ctx); ok {
		return l
	}
	return r.NewBookCountLoader()
}

func requireUser(ctx context.Context) error {
	if !auth.FromContext(ctx).Authenticated() {
		return authenticationError(auth.ErrNotAuthenticated)
	}
	return nil
}
