package httpx

import (
	"context"
	"net/http"
)

type contextKey string

const (
	requestIDKey contextKey = "requestID"
	userIDKey    contextKey = "userID"
)

// ContextWithRequestID returns a new context carrying the request ID.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFrom retrieves the request ID from the request context.
func RequestIDFrom(r *http.Request) string {
	return RequestIDFromContext(r.Context())
}

func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// userSlot lets inner middleware report the authenticated user to the
// access log, which only sees the outer request.
type userSlot struct {
	id string
}

func contextWithUserSlot(ctx context.Context) (context.Context, *userSlot) {
	slot := &userSlot{}
	return context.WithValue(ctx, userIDKey, slot), slot
}

func setUserID(ctx context.Context, id string) {
	if slot, ok := ctx.Value(userIDKey).(*userSlot); ok {
		slot.id = id
	}
}
