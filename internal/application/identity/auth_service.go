// Package identity authenticates the store's configured admin and customer
// accounts and issues their access tokens.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for unknown users and wrong passwords alike
var ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")

// dummyHash is compared against when the username is unknown so both failure
// paths cost one bcrypt comparison
var dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z1ZuIQXsLtCvjNXNKbjC6dOe")

type account struct {
	info UserInfo
	hash []byte
}

// AuthService handles authentication operations
type AuthService struct {
	byUsername map[string]*account
	byID       map[uuid.UUID]*account
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service over the configured
// accounts. blacklist may be nil, in which case logout is a no-op.
func NewAuthService(
	accounts []config.Account,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) (*AuthService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuthService{
		byUsername: make(map[string]*account, len(accounts)),
		byID:       make(map[uuid.UUID]*account, len(accounts)),
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
		now:        time.Now,
	}
	for _, a := range accounts {
		id, err := uuid.Parse(a.ID)
		if err != nil {
			return nil, fmt.Errorf("account %q: invalid id: %w", a.Username, err)
		}
		key := strings.ToLower(a.Username)
		if _, dup := s.byUsername[key]; dup {
			return nil, fmt.Errorf("account %q is configured twice", a.Username)
		}
		acc := &account{
			info: UserInfo{ID: id, Username: a.Username, Email: a.Email, Roles: a.Roles},
			hash: []byte(a.PasswordHash),
		}
		s.byUsername[key] = acc
		s.byID[id] = acc
	}
	return s, nil
}

// Login checks the password and issues an access token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	acc, ok := s.byUsername[strings.ToLower(input.Username)]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(input.Password))
		s.logger.Info("Login failed: unknown user", zap.String("username", input.Username), zap.String("ip", input.IP))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(input.Password)); err != nil {
		s.logger.Info("Login failed: wrong password", zap.String("username", input.Username), zap.String("ip", input.IP))
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtService.Issue(auth.Principal{
		UserID:   acc.info.ID,
		Username: acc.info.Username,
		Email:    acc.info.Email,
		Roles:    acc.info.Roles,
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("User logged in",
		zap.String("user_id", acc.info.ID.String()),
		zap.String("username", acc.info.Username),
		zap.String("ip", input.IP),
	)
	return &LoginResult{
		AccessToken: token.Token,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   token.TokenType,
		User:        acc.info,
	}, nil
}

// Logout revokes the token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if s.blacklist == nil || input.TokenJTI == "" {
		return nil
	}
	ttl := input.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, ttl); err != nil {
		return err
	}
	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// GetCurrentUser returns the account behind userID
func (s *AuthService) GetCurrentUser(_ context.Context, userID uuid.UUID) (*UserInfo, error) {
	acc, ok := s.byID[userID]
	if !ok {
		return nil, shared.NewDomainError("NOT_FOUND", "User not found")
	}
	info := acc.info
	return &info, nil
}
