// AngelaMos | 2026
// repository.go

package role

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
	"github.com/carterperez-dev/templates/tenant-api/internal/repository"
)

type Repository interface {
	Create(ctx context.Context, tenantID string, r *Role) (*Role, error)
	Ensure(ctx context.Context, tenantID string, r *Role) (*Role, error)
	GetByID(ctx context.Context, tenantID, id string) (*Role, error)
	GetByName(ctx context.Context, tenantID, name string) (*Role, error)
	ExistsByName(ctx context.Context, tenantID, name string) (bool, error)
	List(ctx context.Context, tenantID string) ([]Role, error)
	ListDefaults(ctx context.Context, tenantID string) ([]Role, error)
	Assign(ctx context.Context, tenantID, userID, roleID string) (*UserRole, error)
	NamesForUser(ctx context.Context, tenantID, userID string) ([]string, error)
}

type repo struct {
	db        core.DBTX
	roles     *repository.Store[Role]
	userRoles *repository.Store[UserRole]
}

func NewRepository(db core.DBTX) Repository {
	return &repo{
		db: db,
		roles: repository.NewStore[Role](db, repository.Table{
			Name:            "roles",
			Columns:         roleColumns,
			UpdatedAtColumn: "updated_at",
			DefaultOrder:    "name ASC",
		}),
		userRoles: repository.NewStore[UserRole](db, repository.Table{
			Name:     "user_roles",
			Columns:  userRoleColumns,
			IDColumn: "user_id",
		}),
	}
}

func (r *repo) Create(ctx context.Context, tenantID string, role *Role) (*Role, error) {
	return r.roles.Create(ctx, tenantID, repository.Values{
		"id":          role.ID,
		"name":        role.Name,
		"description": role.Description,
		"permissions": role.Permissions,
		"is_default":  role.IsDefault,
	})
}

// Ensure creates the role unless one with the same name exists in the
// tenant, in which case the existing row is returned unchanged.
func (r *repo) Ensure(ctx context.Context, tenantID string, role *Role) (*Role, error) {
	return r.roles.Upsert(ctx, tenantID,
		[]string{"tenant_id", "name"},
		repository.Values{
			"id":          role.ID,
			"name":        role.Name,
			"description": role.Description,
			"permissions": role.Permissions,
			"is_default":  role.IsDefault,
		},
		nil,
	)
}

func (r *repo) GetByID(ctx context.Context, tenantID, id string) (*Role, error) {
	return r.roles.FindUnique(ctx, tenantID, id)
}

func (r *repo) GetByName(ctx context.Context, tenantID, name string) (*Role, error) {
	return r.roles.FindFirst(ctx, tenantID, repository.Filter{"name": name})
}

func (r *repo) ExistsByName(ctx context.Context, tenantID, name string) (bool, error) {
	return r.roles.Exists(ctx, tenantID, repository.Filter{"name": name})
}

func (r *repo) List(ctx context.Context, tenantID string) ([]Role, error) {
	return r.roles.FindAll(ctx, tenantID)
}

func (r *repo) ListDefaults(ctx context.Context, tenantID string) ([]Role, error) {
	return r.roles.FindWithFilters(ctx, tenantID, repository.Query{
		Where: repository.Filter{"is_default": true},
	})
}

// Assign is idempotent: assigning a held role returns the existing row.
func (r *repo) Assign(ctx context.Context, tenantID, userID, roleID string) (*UserRole, error) {
	return r.userRoles.Upsert(ctx, tenantID,
		[]string{"tenant_id", "user_id", "role_id"},
		repository.Values{"user_id": userID, "role_id": roleID},
		nil,
	)
}

func (r *repo) NamesForUser(ctx context.Context, tenantID, userID string) ([]string, error) {
	if tenantID == "" {
		return nil, core.ErrTenantRequired
	}

	query := `
		SELECT r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id AND r.tenant_id = ur.tenant_id
		WHERE ur.tenant_id = $1 AND ur.user_id = $2
		ORDER BY r.name`

	names := []string{}
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &names, query, tenantID, userID); err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}

	return names, nil
}
