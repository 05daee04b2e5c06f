package dto

import "github.com/golang-jwt/jwt/v5"

// GoogleUserInfo is the subset of the Google userinfo payload the account
// record is built from.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// AuthClaims is the JWT payload. TokenType separates access from refresh tokens.
type AuthClaims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenResponse carries a signed token pair.
// @Description Access and refresh tokens
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse is returned by the OAuth callback.
// @Description Tokens plus the streak after the login activity
type LoginResponse struct {
	TokenResponse
	UserID string `json:"userId"`
	Streak int    `json:"streak"`
}

// @Description Request body for refreshing JWT tokens
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// @Description Generic message response
type MessageResponse struct {
	Message string `json:"message"`
}
