package auth

import (
	"context"

	"libraryapi/internal/entity"
)

// Context is the authentication state of one operation. A nil CurrentUser
// means the caller is anonymous.
type Context struct {
	CurrentUser *entity.User
}

func (c Context) Authenticated() bool {
	return c.CurrentUser != nil
}

type ctxKey struct{}

func NewContext(ctx context.Context, ac Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, ac)
}

// FromContext returns the anonymous Context when none was attached.
func FromContext(ctx context.Context) Context {
	ac, _ := ctx.Value(ctxKey{}).(Context)
	return ac
}
