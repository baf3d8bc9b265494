package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the payload carried by access tokens.
type JWTClaims struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest carries credentials for token issuance.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a new student account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8"`
	Email    string `json:"email" validate:"required,email"`
}

// PromoteRequest upgrades the caller's role given the matching
// promotion password from configuration.
type PromoteRequest struct {
	Password string `json:"password" validate:"required"`
}

// ResetRequest starts a password reset for a username.
type ResetRequest struct {
	Username string `json:"username" validate:"required"`
}

// ResetConfirmRequest completes a password reset with the emailed code.
type ResetConfirmRequest struct {
	Username string `json:"username" validate:"required"`
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserInfo is the public projection of a user.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// LoginResponse returns the issued token and the user it belongs to.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        UserInfo  `json:"user"`
}
