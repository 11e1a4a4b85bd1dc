package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/identity"
)

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100" example:"admin"`
	Password string `json:"password" binding:"required,min=8,max=128" example:"correct-horse-battery"`
}

// AuthUserResponse represents user data in auth responses
type AuthUserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username" example:"admin"`
	Email    string    `json:"email,omitempty" example:"admin@example.com"`
	Roles    []string  `json:"roles" example:"admin"`
}

// LoginResponse represents the response body for successful login
type LoginResponse struct {
	AccessToken string           `json:"access_token"`
	ExpiresAt   time.Time        `json:"expires_at"`
	TokenType   string           `json:"token_type" example:"Bearer"`
	User        AuthUserResponse `json:"user"`
}

// LogoutResponse confirms a revoked token
type LogoutResponse struct {
	Message string `json:"message" example:"Logged out"`
}

func toAuthUserResponse(u identity.UserInfo) AuthUserResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return AuthUserResponse{ID: u.ID, Username: u.Username, Email: u.Email, Roles: roles}
}
