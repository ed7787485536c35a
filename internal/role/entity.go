// AngelaMos | 2026
// entity.go

package role

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	NameTenantAdmin = "tenant_admin"
	NameMember      = "member"
)

type Role struct {
	ID          string      `db:"id"`
	TenantID    string      `db:"tenant_id"`
	Name        string      `db:"name"`
	Description string      `db:"description"`
	Permissions Permissions `db:"permissions"`
	IsDefault   bool        `db:"is_default"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

var roleColumns = []string{
	"id", "tenant_id", "name", "description", "permissions",
	"is_default", "created_at", "updated_at",
}

type UserRole struct {
	TenantID  string    `db:"tenant_id"`
	UserID    string    `db:"user_id"`
	RoleID    string    `db:"role_id"`
	CreatedAt time.Time `db:"created_at"`
}

var userRoleColumns = []string{"tenant_id", "user_id", "role_id", "created_at"}

// Permissions is stored as a JSONB array.
type Permissions []string

func (p Permissions) Value() (driver.Value, error) {
	if p == nil {
		p = Permissions{}
	}
	b, err := json.Marshal([]string(p))
	if err != nil {
		return nil, fmt.Errorf("encode permissions: %w", err)
	}
	return string(b), nil
}

func (p *Permissions) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = Permissions{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan permissions: unsupported type %T", src)
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode permissions: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*p = out
	return nil
}
