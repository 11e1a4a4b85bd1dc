package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminID    = "6f1c2a8e-3b7d-4d0e-9a51-2c3e4f5a6b7c"
	customerID = "0b9e8d7c-6a5f-4e3d-8c2b-1a0f9e8d7c6b"
)

type failingBlacklist struct{}

func (failingBlacklist) AddToBlacklist(context.Context, string, time.Duration) error {
	return errors.New("redis down")
}

func (failingBlacklist) IsBlacklisted(context.Context, string) (bool, error) { return false, nil }

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newTestService(t *testing.T, blacklist auth.TokenBlacklist) (*AuthService, *auth.JWTService) {
	t.Helper()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-that-is-long-enough",
		AccessTokenExpiration: time.Hour,
		Issuer:                "storefront-test",
	})
	svc, err := NewAuthService([]config.Account{
		{ID: adminID, Username: "admin", Email: "admin@example.com", PasswordHash: hash(t, "s3cret"), Roles: []string{auth.RoleAdmin}},
		{ID: customerID, Username: "Alice", Email: "alice@example.com", PasswordHash: hash(t, "wonderland"), Roles: []string{auth.RoleCustomer}},
	}, jwtService, blacklist, zaptest.NewLogger(t))
	require.NoError(t, err)
	return svc, jwtService
}

func TestNewAuthService_RejectsBadAccounts(t *testing.T) {
	tests := []struct {
		name     string
		accounts []config.Account
	}{
		{"invalid id", []config.Account{{ID: "42", Username: "admin", PasswordHash: "x"}}},
		{"duplicate username", []config.Account{
			{ID: adminID, Username: "admin", PasswordHash: "x"},
			{ID: customerID, Username: "ADMIN", PasswordHash: "y"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAuthService(tt.accounts, nil, nil, nil)
			assert.Error(t, err)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, jwtService := newTestService(t, nil)
	ctx := context.Background()

	t.Run("issues token with roles", func(t *testing.T) {
		result, err := svc.Login(ctx, LoginInput{Username: "admin", Password: "s3cret", IP: "10.0.0.1"})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", result.TokenType)
		assert.Equal(t, uuid.MustParse(adminID), result.User.ID)

		claims, err := jwtService.Validate(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, adminID, claims.UserID)
		assert.True(t, claims.IsAdmin())
	})

	t.Run("username is case insensitive", func(t *testing.T) {
		result, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "wonderland"})
		require.NoError(t, err)
		assert.Equal(t, "Alice", result.User.Username)
		assert.Equal(t, []string{auth.RoleCustomer}, result.User.Roles)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Username: "admin", Password: "nope"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user gets the same error", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Username: "mallory", Password: "s3cret"})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
		assert.Equal(t, "Invalid username or password", domainErr.Message)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("blacklists until expiry", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		svc, _ := newTestService(t, blacklist)

		// the in-memory blacklist expires entries by wall clock
		expires := time.Now().Add(time.Hour)
		require.NoError(t, svc.Logout(ctx, LogoutInput{UserID: uuid.MustParse(adminID), TokenJTI: "jti-1", ExpiresAt: expires}))

		revoked, err := blacklist.IsBlacklisted(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("expired token is not stored", func(t *testing.T) {
		svc, _ := newTestService(t, failingBlacklist{})
		svc.now = func() time.Time { return now }
		assert.NoError(t, svc.Logout(ctx, LogoutInput{TokenJTI: "jti-2", ExpiresAt: now.Add(-time.Minute)}))
	})

	t.Run("blacklist error is returned", func(t *testing.T) {
		svc, _ := newTestService(t, failingBlacklist{})
		svc.now = func() time.Time { return now }
		err := svc.Logout(ctx, LogoutInput{TokenJTI: "jti-3", ExpiresAt: now.Add(time.Minute)})
		assert.EqualError(t, err, "redis down")
	})

	t.Run("no blacklist configured", func(t *testing.T) {
		svc, _ := newTestService(t, nil)
		assert.NoError(t, svc.Logout(ctx, LogoutInput{TokenJTI: "jti-4", ExpiresAt: now.Add(time.Minute)}))
	})
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	svc, _ := newTestService(t, nil)

	user, err := svc.GetCurrentUser(context.Background(), uuid.MustParse(customerID))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = svc.GetCurrentUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
