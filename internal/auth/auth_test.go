package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcnelson/playfinder/internal/storage"
)

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	db, err := storage.Open(storage.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewAuthService(storage.NewUserRepository(db), AuthConfig{
		JWTSecret:       "test-secret",
		SessionDuration: time.Hour,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	registered, err := service.Register(ctx, RegisterRequest{
		Email:       "Parent@Example.com",
		Password:    "playground123",
		DisplayName: "Sam",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "parent@example.com", registered.User.Email)
	assert.False(t, registered.User.IsAdmin)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := service.Register(ctx, RegisterRequest{Email: "parent@example.com", Password: "another-pass"})
		assert.True(t, errors.Is(err, ErrEmailTaken))
	})

	t.Run("short password", func(t *testing.T) {
		_, err := service.Register(ctx, RegisterRequest{Email: "new@example.com", Password: "short"})
		assert.True(t, errors.Is(err, ErrInvalidUser))
	})

	t.Run("login succeeds with the right password", func(t *testing.T) {
		resp, err := service.Login(ctx, LoginRequest{Email: "parent@example.com", Password: "playground123"})
		require.NoError(t, err)

		claims, err := service.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, claims.UserID)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)

		user, err := service.CurrentUser(ctx, claims)
		require.NoError(t, err)
		assert.Equal(t, "Sam", user.DisplayName)
	})

	t.Run("login fails with a wrong password or unknown email", func(t *testing.T) {
		_, err := service.Login(ctx, LoginRequest{Email: "parent@example.com", Password: "wrong-password"})
		assert.True(t, errors.Is(err, ErrInvalidCredentials))

		_, err = service.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "playground123"})
		assert.True(t, errors.Is(err, ErrInvalidCredentials))

		_, err = service.Login(ctx, LoginRequest{})
		assert.True(t, errors.Is(err, ErrInvalidCredentials))
	})
}

func TestCreateAdminUser(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	admin, err := service.CreateUser(ctx, "admin@example.com", "Admin", "admin-password", true)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	resp, err := service.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "admin-password"})
	require.NoError(t, err)

	claims, err := service.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
}

func TestTokenService(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)

	t.Run("round trip", func(t *testing.T) {
		token, expiresAt, err := tokens.GenerateToken("user-1", false)
		require.NoError(t, err)

		claims, err := tokens.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := NewTokenService("other", time.Hour).GenerateToken("user-1", true)
		require.NoError(t, err)
		_, err = tokens.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewTokenService("secret", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := past.GenerateToken("user-1", false)
		require.NoError(t, err)

		_, err = tokens.ValidateToken(token)
		assert.True(t, errors.Is(err, ErrTokenExpired))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}
