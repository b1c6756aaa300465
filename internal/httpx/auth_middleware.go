package httpx

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"libraryapi/internal/auth"
	"libraryapi/internal/loader"
)

// AuthBuilder resolves the caller from the Authorization header.
type AuthBuilder interface {
	Build(ctx context.Context, authorization string) (auth.Context, error)
}

// OperationContext prepares the context every GraphQL operation runs with:
// the caller's auth state and a request scoped book count loader.
type OperationContext struct {
	auth      AuthBuilder
	newLoader func() *loader.BookCount
	logger    *zap.Logger
}

func NewOperationContext(a AuthBuilder, newLoader func() *loader.BookCount, logger *zap.Logger) *OperationContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperationContext{auth: a, newLoader: newLoader, logger: logger}
}

// WithAuth attaches the auth state derived from authorization to ctx.
func (o *OperationContext) WithAuth(ctx context.Context, authorization string) (context.Context, error) {
	ac, err := o.auth.Build(ctx, authorization)
	if err != nil {
		return ctx, err
	}
	if ac.Authenticated() {
		setUserID(ctx, ac.CurrentUser.ID)
	}
	return auth.NewContext(ctx, ac), nil
}

// Middleware rejects requests carrying an invalid token with 401 and gives
// every other request its auth state and a fresh loader.
func (o *OperationContext) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := o.WithAuth(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				JSONError(w, r, http.StatusUnauthorized, CodeUnauthenticated, auth.ErrInvalidToken.Error())
				return
			}
			o.logger.Error("building request context failed",
				zap.String("request_id", RequestIDFrom(r)),
				zap.Error(err),
			)
			JSONError(w, r, http.StatusInternalServerError, CodeInternal, "An internal error occurred")
			return
		}

		ctx = loader.NewContext(ctx, o.newLoader())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BuildContext satisfies the WebSocket transport's context generator. No
// loader is attached: a connection outlives any single operation.
func (o *OperationContext) BuildContext(ctx context.Context, r *http.Request) (context.Context, error) {
	return o.WithAuth(ctx, r.Header.Get("Authorization"))
}
