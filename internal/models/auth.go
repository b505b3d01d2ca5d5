package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Subject distinguishes admin tokens from student tokens.
type Subject string

const (
	SubjectAdmin Subject = "admin"
	SubjectUser  Subject = "user"
)

// JWTClaims is the token payload attached to authenticated requests.
type JWTClaims struct {
	AccountID string    `json:"account_id"`
	Subject   Subject   `json:"subject"`
	Role      AdminRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// LoginRequest holds credentials for authenticating an account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and account info.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	Account     interface{} `json:"account"`
}
