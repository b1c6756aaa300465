package loader

import "context"

type ctxKey struct{}

func NewContext(ctx context.Context, l *BookCount) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

func FromContext(ctx context.Context) (*BookCount, bool) {
	l, ok := ctx.Value(ctxKey{}).(*BookCount)
	return l, ok && l != nil
}
