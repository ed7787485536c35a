// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	ExpiresIn    int       `json:"expiresIn"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type UserSummary struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenantId"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

type AuthResponse struct {
	User   UserSummary   `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}
