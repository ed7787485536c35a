// AngelaMos | 2026
// repository.go

package profile

import (
	"context"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
	"github.com/carterperez-dev/templates/tenant-api/internal/repository"
)

type Repository interface {
	Create(ctx context.Context, tenantID string, p *Profile) (*Profile, error)
	GetByID(ctx context.Context, tenantID, id string) (*Profile, error)
	ExistsForUser(ctx context.Context, tenantID, userID string) (bool, error)
	SetPhotoURL(ctx context.Context, tenantID, id, url string) (*Profile, error)
	SoftDelete(ctx context.Context, tenantID, id string) (*Profile, error)
}

type repo struct {
	profiles *repository.Store[Profile]
}

func NewRepository(db core.DBTX) Repository {
	return &repo{
		profiles: repository.NewStore[Profile](db, repository.Table{
			Name:            "profiles",
			Columns:         profileColumns,
			UpdatedAtColumn: "updated_at",
			DefaultOrder:    "created_at DESC",
			SoftDelete: &repository.SoftDelete{
				Column:   "is_deleted",
				Value:    true,
				AtColumn: "deleted_at",
			},
		}),
	}
}

func (r *repo) Create(ctx context.Context, tenantID string, p *Profile) (*Profile, error) {
	return r.profiles.Create(ctx, tenantID, repository.Values{
		"id":                      p.ID,
		"user_id":                 p.UserID,
		"name":                    p.Name,
		"cell_phone":              p.CellPhone,
		"photo_url":               p.PhotoURL,
		"identification_document": p.IdentificationDocument,
		"street":                  p.Street,
		"number":                  p.Number,
		"neighborhood":            p.Neighborhood,
		"due_date":                p.DueDate,
		"billing_email":           p.BillingEmail,
	})
}

// GetByID returns live profiles only.
func (r *repo) GetByID(ctx context.Context, tenantID, id string) (*Profile, error) {
	return r.profiles.FindFirst(ctx, tenantID, repository.Filter{
		"id":         id,
		"is_deleted": false,
	})
}

func (r *repo) ExistsForUser(ctx context.Context, tenantID, userID string) (bool, error) {
	return r.profiles.Exists(ctx, tenantID, repository.Filter{
		"user_id":    userID,
		"is_deleted": false,
	})
}

func (r *repo) SetPhotoURL(ctx context.Context, tenantID, id, url string) (*Profile, error) {
	return r.profiles.Update(ctx, tenantID, id, repository.Values{"photo_url": url})
}

func (r *repo) SoftDelete(ctx context.Context, tenantID, id string) (*Profile, error) {
	return r.profiles.SoftDelete(ctx, tenantID, id)
}
