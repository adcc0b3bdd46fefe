package dtos

import "github.com/google/uuid"

type Credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// OTPRequest asks for a one-time code to be emailed.
type OTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyRequest redeems a one-time code. Type is "signup", "recovery" or "email".
type VerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Token string `json:"token" binding:"required,len=6,numeric"`
	Type  string `json:"type" binding:"required,oneof=signup recovery email"`
}

type PasswordUpdate struct {
	Password string `json:"password" binding:"required,min=8"`
}

type AuthUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// SessionResponse is returned by the token and verify endpoints.
type SessionResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	User        AuthUser `json:"user"`
}
