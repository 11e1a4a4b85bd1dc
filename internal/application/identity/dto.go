package identity

import (
	"time"

	"github.com/google/uuid"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Username string
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	TokenType   string
	User        UserInfo
}

// UserInfo describes a configured account without its password hash
type UserInfo struct {
	ID       uuid.UUID
	Username string
	Email    string
	Roles    []string
}

// LogoutInput identifies the token to revoke
type LogoutInput struct {
	UserID   uuid.UUID
	TokenJTI string
	// ExpiresAt is the token's own expiry; the blacklist entry lives until then
	ExpiresAt time.Time
}
