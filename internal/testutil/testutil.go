package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/entity"
	"libraryapi/internal/platform/crypto"
	"libraryapi/internal/store"
)

const TestSecret = "test-secret-key"

var favoriteGenre = "refactoring"

// TestUser is a user fixture for tests
var TestUser = entity.User{
	ID:            "test-user-id-123",
	Username:      "testuser",
	PasswordHash:  "hashedpassword",
	FavoriteGenre: &favoriteGenre,
	CreatedAt:     time.Now(),
	UpdatedAt:     time.Now(),
}

// GenerateTestToken generates a JWT token for testing
func GenerateTestToken(secret string, u entity.User) string {
	token, _ := crypto.GenerateToken(secret, u.Username, u.ID, time.Hour)
	return token
}

// GenerateExpiredToken generates an expired JWT token for testing
func GenerateExpiredToken(secret string, u entity.User) string {
	c := crypto.Claims{
		Username: u.Username,
		UserID:   u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	token, _ := t.SignedString([]byte(secret))
	return token
}

// NewMemoryStore returns an in-memory store loaded with the sample library.
func NewMemoryStore(t testing.TB) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	_, err := store.Seed(context.Background(), m, store.SampleLibrary())
	require.NoError(t, err)
	return m
}

// CreateUser stores a user with a real bcrypt hash of password.
func CreateUser(t testing.TB, s store.UserRepository, username, password string) entity.User {
	t.Helper()
	hash, err := crypto.HashPassword(password)
	require.NoError(t, err)
	u := entity.User{Username: username, PasswordHash: hash}
	require.NoError(t, s.CreateUser(context.Background(), &u))
	return u
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body any) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// NewRequestWithAuth creates a new HTTP request with JWT auth for testing
func NewRequestWithAuth(method, path string, body any, token string) *http.Request {
	r := NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// GraphQLParams is the POST body of a GraphQL request.
type GraphQLParams struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// NewGraphQLRequest creates a POST /graphql request, authenticated when token is set.
func NewGraphQLRequest(query string, variables map[string]any, token string) *http.Request {
	return NewRequestWithAuth(http.MethodPost, "/graphql", GraphQLParams{Query: query, Variables: variables}, token)
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

// RecordHTTPResponse records the HTTP response
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]any
	if len(bodyBytes) > 0 {
		_ = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}

// AssertResponseCode checks if the response code matches expected
func AssertResponseCode(t interface {
	Errorf(format string, args ...any)
}, got, want int) {
	if got != want {
		t.Errorf("got status code %d, want %d", got, want)
	}
}
