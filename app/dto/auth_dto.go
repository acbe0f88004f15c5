// Package dto contains Data Transfer Objects for API request and response structures
package dto

import "time"

// RegisterRequest represents the request payload for user registration
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64" example:"jane.doe"`
	Email    string `json:"email" validate:"required,email,max=255" example:"jane@example.com"`
	Password string `json:"password" validate:"required,min=6,max=100" example:"SecurePass123"`
}

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,min=3,max=255" example:"jane.doe or jane@example.com"`
	Password   string `json:"password" validate:"required,min=6,max=100" example:"SecurePass123"`
}

// RefreshTokenRequest represents the request payload for refreshing an access token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// AuthUserDTO represents user information returned by auth endpoints
type AuthUserDTO struct {
	ID        string    `json:"id" example:"64f1a2b3c4d5e6f7a8b9c0d1"`
	Username  string    `json:"username" example:"jane.doe"`
	Email     string    `json:"email" example:"jane@example.com"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// AuthTokensData represents the token payload returned on register and login
type AuthTokensData struct {
	AccessToken  string      `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string      `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType    string      `json:"token_type" example:"Bearer"`
	ExpiresIn    int         `json:"expires_in" example:"86400"`
	User         AuthUserDTO `json:"user"`
}

// Common error codes for auth operations
const (
	ErrorCodeUserNotFound       = "USER_NOT_FOUND"
	ErrorCodeUserAlreadyExists  = "USER_ALREADY_EXISTS"
	ErrorCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrorCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrorCodeTokenInvalid       = "TOKEN_INVALID"
)
