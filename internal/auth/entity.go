// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// Session is a refresh token issued at login. Only the SHA-256 of the
// token is stored.
type Session struct {
	ID               string    `db:"id"`
	TenantID         string    `db:"tenant_id"`
	UserID           string    `db:"user_id"`
	RefreshTokenHash string    `db:"refresh_token_hash"`
	ExpiresAt        time.Time `db:"expires_at"`
	CreatedAt        time.Time `db:"created_at"`
	UserAgent        string    `db:"user_agent"`
	IPAddress        string    `db:"ip_address"`
}

var sessionColumns = []string{
	"id", "tenant_id", "user_id", "refresh_token_hash",
	"expires_at", "created_at", "user_agent", "ip_address",
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// UserInfo is the view of a user that authentication needs.
type UserInfo struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
}
