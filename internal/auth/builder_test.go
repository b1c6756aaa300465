package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/entity"
	"libraryapi/internal/mocks"
	"libraryapi/internal/store"
	"libraryapi/internal/testutil"
)

func TestContextBuilder_Build(t *testing.T) {
	ctx := context.Background()
	users := store.NewMemory()
	u := entity.User{Username: "mluukkai", PasswordHash: "x"}
	require.NoError(t, users.CreateUser(ctx, &u))

	builder := NewContextBuilder(testutil.TestSecret, users, nil)
	valid := testutil.GenerateTestToken(testutil.TestSecret, u)

	tests := []struct {
		name     string
		header   string
		wantUser bool
		wantErr  error
	}{
		{name: "no header", header: ""},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "bearer without token", header: "Bearer "},
		{name: "bearer prefix only", header: "bearer"},
		{name: "malformed token", header: "Bearer not-a-jwt"},
		{name: "valid token", header: "Bearer " + valid, wantUser: true},
		{name: "lowercase scheme", header: "bearer " + valid, wantUser: true},
		{name: "mixed case scheme", header: "BeArEr " + valid, wantUser: true},
		{name: "wrong secret", header: "Bearer " + testutil.GenerateTestToken("other-secret", u), wantErr: ErrInvalidToken},
		{name: "expired token", header: "Bearer " + testutil.GenerateExpiredToken(testutil.TestSecret, u), wantErr: ErrInvalidToken},
		{name: "deleted user", header: "Bearer " + testutil.GenerateTestToken(testutil.TestSecret, entity.User{ID: "gone", Username: "gone"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ac, err := builder.Build(ctx, tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, ac.Authenticated())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, ac.Authenticated())
			if tt.wantUser {
				assert.Equal(t, u.ID, ac.CurrentUser.ID)
				assert.Equal(t, "mluukkai", ac.CurrentUser.Username)
			}
		})
	}
}

func TestContextBuilder_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dbErr := errors.New("connection reset")
	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().FindUserByID(gomock.Any(), testutil.TestUser.ID).Return(entity.User{}, dbErr)

	builder := NewContextBuilder(testutil.TestSecret, mockStore, nil)
	_, err := builder.Build(context.Background(), "Bearer "+testutil.GenerateTestToken(testutil.TestSecret, testutil.TestUser))

	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

func TestContext_RoundTrip(t *testing.T) {
	assert.False(t, FromContext(context.Background()).Authenticated())

	u := testutil.TestUser
	ctx := NewContext(context.Background(), Context{CurrentUser: &u})
	got := FromContext(ctx)
	require.True(t, got.Authenticated())
	assert.Equal(t, u.Username, got.CurrentUser.Username)
}
