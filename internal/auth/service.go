package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"libraryapi/internal/entity"
	"libraryapi/internal/platform/crypto"
	"libraryapi/internal/store"
)

// Users is the persistence the Service needs.
type Users interface {
	CreateUser(ctx context.Context, u *entity.User) error
	FindUserByUsername(ctx context.Context, username string) (entity.User, error)
}

type Service struct {
	secret                  string
	tokenTTL                time.Duration
	enforcePasswordStrength bool
	users                   Users
	logger                  *zap.Logger
}

type ServiceOption func(*Service)

func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.tokenTTL = ttl
	}
}

func WithPasswordStrength(enforce bool) ServiceOption {
	return func(s *Service) {
		s.enforcePasswordStrength = enforce
	}
}

func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(secret string, users Users, opts ...ServiceOption) *Service {
	s := &Service{
		secret:   secret,
		tokenTTL: 24 * time.Hour,
		users:    users,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with a bcrypt hash of password.
func (s *Service) Register(ctx context.Context, username, password string, favoriteGenre *string) (entity.User, error) {
	if s.enforcePasswordStrength {
		if err := crypto.ValidatePasswordStrength(password); err != nil {
			return entity.User{}, err
		}
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return entity.User{}, err
	}

	u := entity.User{
		Username:      username,
		PasswordHash:  hash,
		FavoriteGenre: favoriteGenre,
	}
	if err := s.users.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return entity.User{}, ErrUsernameTaken
		}
		return entity.User{}, err
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// fallbackHash is compared against when the username is unknown, so a
// failed login costs the same whether or not the user exists.
func fallbackHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = crypto.HashPassword("not-a-real-password")
	})
	return dummyHash
}

// Login verifies the credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return "", err
		}
		crypto.VerifyPassword(fallbackHash(), password)
		return "", ErrInvalidCredentials
	}
	if !crypto.VerifyPassword(u.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := crypto.GenerateToken(s.secret, u.Username, u.ID, s.tokenTTL)
	if err != nil {
		return "", err
	}
	return token, nil
}
