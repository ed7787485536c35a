// AngelaMos | 2026
// entity.go

package profile

import (
	"time"
)

type Profile struct {
	ID                     string     `db:"id"`
	TenantID               string     `db:"tenant_id"`
	UserID                 string     `db:"user_id"`
	Name                   string     `db:"name"`
	CellPhone              string     `db:"cell_phone"`
	PhotoURL               *string    `db:"photo_url"`
	IdentificationDocument string     `db:"identification_document"`
	Street                 string     `db:"street"`
	Number                 string     `db:"number"`
	Neighborhood           string     `db:"neighborhood"`
	DueDate                *time.Time `db:"due_date"`
	BillingEmail           string     `db:"billing_email"`
	IsDeleted              bool       `db:"is_deleted"`
	DeletedAt              *time.Time `db:"deleted_at"`
	CreatedAt              time.Time  `db:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at"`
}

var profileColumns = []string{
	"id", "tenant_id", "user_id", "name", "cell_phone", "photo_url",
	"identification_document", "street", "number", "neighborhood",
	"due_date", "billing_email", "is_deleted", "deleted_at",
	"created_at", "updated_at",
}
