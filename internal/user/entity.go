// AngelaMos | 2026
// entity.go

package user

import (
	"fmt"
	"strings"
	"time"
)

// AnonymizedDomain is the email domain of anonymized accounts. An email
// under it can never be restored.
const AnonymizedDomain = "deleted.com"

type User struct {
	ID           string     `db:"id"`
	TenantID     string     `db:"tenant_id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	IsDeleted    bool       `db:"is_deleted"`
	DeletedAt    *time.Time `db:"deleted_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

var userColumns = []string{
	"id", "tenant_id", "email", "password_hash",
	"is_deleted", "deleted_at", "created_at", "updated_at",
}

func (u *User) IsActive() bool {
	return !u.IsDeleted
}

func (u *User) IsAnonymized() bool {
	return strings.HasSuffix(u.Email, "@"+AnonymizedDomain)
}

func anonymizedEmail(id string) string {
	return fmt.Sprintf("deleted_user_%s@%s", id, AnonymizedDomain)
}
