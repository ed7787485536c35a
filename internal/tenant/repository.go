// AngelaMos | 2026
// repository.go

package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	GetActiveBySlug(ctx context.Context, slug string) (*Tenant, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	SetActive(ctx context.Context, id string, active bool) (*Tenant, error)
	List(ctx context.Context, params ListParams) ([]Tenant, int, error)
	Count(ctx context.Context) (total, active int, err error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const tenantColumns = `id, name, slug, is_active, created_at, updated_at`

func (r *repository) Create(ctx context.Context, t *Tenant) error {
	query := `
		INSERT INTO tenants (id, name, slug, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, t, query, t.ID, t.Name, t.Slug, t.IsActive)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create tenant: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create tenant: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Tenant, error) {
	return r.getOne(ctx, "get tenant",
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return r.getOne(ctx, "get tenant by slug",
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug)
}

func (r *repository) GetActiveBySlug(
	ctx context.Context,
	slug string,
) (*Tenant, error) {
	return r.getOne(ctx, "get active tenant",
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = $1 AND is_active = true`,
		slug)
}

func (r *repository) getOne(
	ctx context.Context,
	op, query string,
	args ...any,
) (*Tenant, error) {
	var t Tenant
	err := core.Conn(ctx, r.db).GetContext(ctx, &t, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &t, nil
}

func (r *repository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM tenants WHERE slug = $1)`

	var exists bool
	if err := core.Conn(ctx, r.db).GetContext(ctx, &exists, query, slug); err != nil {
		return false, fmt.Errorf("check tenant slug: %w", err)
	}

	return exists, nil
}

func (r *repository) SetActive(
	ctx context.Context,
	id string,
	active bool,
) (*Tenant, error) {
	query := `
		UPDATE tenants
		SET is_active = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + tenantColumns

	return r.getOne(ctx, "set tenant status", query, id, active)
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Tenant, int, error) {
	params.Normalize()

	var total int
	if err := core.Conn(ctx, r.db).GetContext(ctx, &total, `SELECT COUNT(*) FROM tenants`); err != nil {
		return nil, 0, fmt.Errorf("count tenants: %w", err)
	}

	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	tenants := []Tenant{}
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &tenants, query, params.PageSize, params.Offset()); err != nil {
		return nil, 0, fmt.Errorf("list tenants: %w", err)
	}

	return tenants, total, nil
}

func (r *repository) Count(ctx context.Context) (int, int, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE is_active) AS active
		FROM tenants`

	var row struct {
		Total  int `db:"total"`
		Active int `db:"active"`
	}
	if err := core.Conn(ctx, r.db).GetContext(ctx, &row, query); err != nil {
		return 0, 0, fmt.Errorf("count tenants: %w", err)
	}

	return row.Total, row.Active, nil
}
