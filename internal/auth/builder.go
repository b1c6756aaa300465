package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"libraryapi/internal/entity"
	"libraryapi/internal/platform/crypto"
	"libraryapi/internal/store"
)

const bearerPrefix = "bearer "

// UserFinder resolves the user a token was issued for.
type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (entity.User, error)
}

// ContextBuilder turns a raw Authorization header into a Context. It keeps
// no state between calls.
type ContextBuilder struct {
	secret string
	users  UserFinder
	logger *zap.Logger
}

func NewContextBuilder(secret string, users UserFinder, logger *zap.Logger) *ContextBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextBuilder{secret: secret, users: users, logger: logger}
}

// Build resolves the current user from a bearer token.
//
// Headers without a bearer token, and tokens that cannot be decoded at all,
// yield an anonymous Context. A decodable token that fails verification is
// rejected with ErrInvalidToken. A token for a user that no longer exists is
// treated as anonymous.
func (b *ContextBuilder) Build(ctx context.Context, authorization string) (Context, error) {
	if len(authorization) < len(bearerPrefix) ||
		!strings.EqualFold(authorization[:len(bearerPrefix)], bearerPrefix) {
		return Context{}, nil
	}
	token := strings.TrimSpace(authorization[len(bearerPrefix):])
	if token == "" {
		return Context{}, nil
	}

	claims, err := crypto.ParseToken(b.secret, token)
	if err != nil {
		if crypto.IsMalformed(err) {
			b.logger.Debug("ignoring malformed bearer token", zap.Error(err))
			return Context{}, nil
		}
		return Context{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return Context{}, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}

	u, err := b.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			b.logger.Debug("token user no longer exists", zap.String("user_id", userID))
			return Context{}, nil
		}
		return Context{}, fmt.Errorf("load current user: %w", err)
	}
	return Context{CurrentUser: &u}, nil
}
