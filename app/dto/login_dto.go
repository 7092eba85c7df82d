// Package dto contains Data Transfer Objects for API request and response structures
package dto

import (
	"time"
)

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"user@example.com"`
	Password string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
}

// AuthCustomerDTO represents customer information returned in auth responses
type AuthCustomerDTO struct {
	ID          uint   `json:"id" example:"123"`
	UUID        string `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Email       string `json:"email" example:"user@example.com"`
	FullName    string `json:"full_name" example:"John Doe"`
	WorkspaceID uint   `json:"workspace_id" example:"7"`
	IsActive    bool   `json:"is_active" example:"true"`
	CreatedAt   string `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// TokenPairDTO carries the issued access and refresh tokens
type TokenPairDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int    `json:"expires_in" example:"86400"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Message  string          `json:"message"`
	Customer AuthCustomerDTO `json:"customer"`
	Tokens   TokenPairDTO    `json:"tokens"`
}

// RefreshTokenRequest represents the request to rotate a refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse represents the response with the rotated token pair
type RefreshTokenResponse struct {
	Message string       `json:"message"`
	Tokens  TokenPairDTO `json:"tokens"`
}

// Common error codes for login operations
const (
	ErrorUserNotFound      = "USER_NOT_FOUND"
	ErrorIncorrectPassword = "INCORRECT_PASSWORD"
	ErrorAccountInactive   = "ACCOUNT_INACTIVE"
	ErrorTokenInvalid      = "TOKEN_INVALID"
)

// MaskPhoneNumber masks the middle digits of a phone number for display
func MaskPhoneNumber(phone string) string {
	if len(phone) < 8 {
		return phone
	}

	// For numbers like +989123456789, show +9891234*****
	if len(phone) >= 10 {
		return phone[:7] + "*****"
	}

	// For shorter numbers, mask the middle part
	start := len(phone) / 3
	end := len(phone) - start
	masked := phone[:start] + "*****" + phone[end:]
	return masked
}

// FormatTokenExpiry converts a token TTL to whole seconds for responses
func FormatTokenExpiry(ttl time.Duration) int {
	return int(ttl.Seconds())
}
