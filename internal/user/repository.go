// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
	"github.com/carterperez-dev/templates/tenant-api/internal/repository"
)

type Repository interface {
	Create(ctx context.Context, tenantID string, u *User) (*User, error)
	GetByID(ctx context.Context, tenantID, id string) (*User, error)
	GetActiveByEmail(ctx context.Context, tenantID, email string) (*User, error)
	FindActiveByEmailAnyTenant(ctx context.Context, email string) (*User, error)
	ExistsActiveByEmail(ctx context.Context, tenantID, email string) (bool, error)
	ExistsByID(ctx context.Context, tenantID, id string) (bool, error)
	Count(ctx context.Context, tenantID string) (int, error)
	Update(ctx context.Context, tenantID, id string, values repository.Values) (*User, error)
	SetDeleted(ctx context.Context, tenantID, id string, deleted bool) (*User, error)
	Anonymize(ctx context.Context, tenantID, id string) (*User, error)
	List(ctx context.Context, tenantID string, params ListParams, activeOnly bool) ([]User, int, error)
	LockTenant(ctx context.Context, tenantID string) error
}

type repo struct {
	db    core.DBTX
	users *repository.Store[User]
}

func NewRepository(db core.DBTX) Repository {
	return &repo{
		db: db,
		users: repository.NewStore[User](db, repository.Table{
			Name:            "users",
			Columns:         userColumns,
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

func (r *repo) Create(ctx context.Context, tenantID string, u *User) (*User, error) {
	return r.users.Create(ctx, tenantID, repository.Values{
		"id":            u.ID,
		"email":         u.Email,
		"password_hash": u.PasswordHash,
	})
}

func (r *repo) GetByID(ctx context.Context, tenantID, id string) (*User, error) {
	return r.users.FindUnique(ctx, tenantID, id)
}

func (r *repo) GetActiveByEmail(ctx context.Context, tenantID, email string) (*User, error) {
	return r.users.FindFirst(ctx, tenantID, repository.Filter{
		"email":      email,
		"is_deleted": false,
	})
}

// FindActiveByEmailAnyTenant serves login requests that carry no tenant.
// It returns the oldest active account with that email.
func (r *repo) FindActiveByEmailAnyTenant(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, tenant_id, email, password_hash, is_deleted, deleted_at,
		       created_at, updated_at
		FROM users
		WHERE email = $1 AND is_deleted = FALSE
		ORDER BY created_at ASC
		LIMIT 1`

	var u User
	err := core.Conn(ctx, r.db).GetContext(ctx, &u, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	return &u, nil
}

// LockTenant takes a row lock on the tenant until the surrounding
// transaction ends, serializing user creation within the tenant.
func (r *repo) LockTenant(ctx context.Context, tenantID string) error {
	var id string
	err := core.Conn(ctx, r.db).GetContext(ctx, &id,
		`SELECT id FROM tenants WHERE id = $1 FOR UPDATE`, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock tenant: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock tenant: %w", err)
	}
	return nil
}

func (r *repo) ExistsActiveByEmail(ctx context.Context, tenantID, email string) (bool, error) {
	return r.users.Exists(ctx, tenantID, repository.Filter{
		"email":      email,
		"is_deleted": false,
	})
}

func (r *repo) ExistsByID(ctx context.Context, tenantID, id string) (bool, error) {
	return r.users.Exists(ctx, tenantID, repository.Filter{
		"id":         id,
		"is_deleted": false,
	})
}

func (r *repo) Count(ctx context.Context, tenantID string) (int, error) {
	return r.users.Count(ctx, tenantID, nil)
}

func (r *repo) Update(
	ctx context.Context,
	tenantID, id string,
	values repository.Values,
) (*User, error) {
	return r.users.Update(ctx, tenantID, id, values)
}

func (r *repo) SetDeleted(ctx context.Context, tenantID, id string, deleted bool) (*User, error) {
	if deleted {
		return r.users.SoftDelete(ctx, tenantID, id)
	}
	return r.users.Update(ctx, tenantID, id, repository.Values{
		"is_deleted": false,
		"deleted_at": nil,
	})
}

func (r *repo) Anonymize(ctx context.Context, tenantID, id string) (*User, error) {
	return r.users.Update(ctx, tenantID, id, repository.Values{
		"email":      anonymizedEmail(id),
		"is_deleted": true,
		"deleted_at": sq.Expr("NOW()"),
	})
}

func (r *repo) List(
	ctx context.Context,
	tenantID string,
	params ListParams,
	activeOnly bool,
) ([]User, int, error) {
	params.Normalize()

	filter := repository.Filter{}
	if activeOnly {
		filter["is_deleted"] = false
	}

	total, err := r.users.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}

	users, err := r.users.FindWithFilters(ctx, tenantID, repository.Query{
		Where:  filter,
		Limit:  uint64(params.PageSize),
		Offset: uint64(params.Offset()),
	})
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
