// AngelaMos | 2026
// service.go

package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/tenant-api/internal/audit"
	"github.com/carterperez-dev/templates/tenant-api/internal/core"
	"github.com/carterperez-dev/templates/tenant-api/internal/events"
	"github.com/carterperez-dev/templates/tenant-api/internal/middleware"
)

var ErrSlugTaken = core.ConflictError(
	"a tenant with this slug already exists",
	"TENANT_ALREADY_EXISTS",
)

type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

// RoleSeeder creates the built-in roles of a freshly provisioned tenant.
type RoleSeeder interface {
	SeedDefaults(ctx context.Context, tenantID string) error
}

type Service struct {
	repo   Repository
	tx     core.Transactor
	cache  Cache
	roles  RoleSeeder
	audit  Auditor
	events events.Publisher
	logger *slog.Logger
}

type ServiceDeps struct {
	Repo   Repository
	Tx     core.Transactor
	Cache  Cache
	Roles  RoleSeeder
	Audit  Auditor
	Events events.Publisher
	Logger *slog.Logger
}

func NewService(deps ServiceDeps) *Service {
	if deps.Events == nil {
		deps.Events = events.NoopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Tx == nil {
		deps.Tx = core.NoTx{}
	}
	return &Service{
		repo:   deps.Repo,
		tx:     deps.Tx,
		cache:  deps.Cache,
		roles:  deps.Roles,
		audit:  deps.Audit,
		events: deps.Events,
		logger: deps.Logger,
	}
}

// Provision creates a tenant row in the shared store. Tenants are isolated
// only by the tenant_id column of every scoped table.
func (s *Service) Provision(ctx context.Context, req CreateTenantRequest) (*Tenant, error) {
	ctx, span := core.StartSpan(ctx, "tenant.Provision",
		attribute.String("tenant.slug", req.Slug))
	defer span.End()

	exists, err := s.repo.ExistsBySlug(ctx, req.Slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSlugTaken
	}

	t := &Tenant{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Slug:     req.Slug,
		IsActive: req.Active(),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, t); err != nil {
			if errors.Is(err, core.ErrDuplicateKey) {
				return ErrSlugTaken
			}
			return err
		}
		if s.roles != nil {
			if err := s.roles.SeedDefaults(ctx, t.ID); err != nil {
				return fmt.Errorf("seed roles: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		TenantID: t.ID,
		UserID:   middleware.GetUserID(ctx),
		Action:   audit.ActionProvisionTenant,
		Details:  fmt.Sprintf("tenant %s (%s) provisioned", t.Slug, t.ID),
	})
	s.events.Publish(ctx, events.New(ctx, events.TypeTenantProvisioned, t.ID, t.ID, ToTenantResponse(t)))

	return t, nil
}

// GetActiveBySlug serves the tenant resolver. The cache is advisory: any
// cache error falls through to the database.
func (s *Service) GetActiveBySlug(
	ctx context.Context,
	slug string,
) (*middleware.TenantInfo, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, slug)
		if err != nil {
			s.logger.WarnContext(ctx, "tenant cache read failed", "error", err, "slug", slug)
		}
		if cached != nil && cached.IsActive {
			return toTenantInfo(cached), nil
		}
	}

	t, err := s.repo.GetActiveBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, t); err != nil {
			s.logger.WarnContext(ctx, "tenant cache write failed", "error", err, "slug", slug)
		}
	}

	return toTenantInfo(t), nil
}

func (s *Service) Get(ctx context.Context, id string) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// IsActive reports whether the tenant exists and is active.
func (s *Service) IsActive(ctx context.Context, id string) (bool, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return t.IsActive, nil
}

// SetActive changes the only mutable attribute of a tenant.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (*Tenant, error) {
	t, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, t.Slug); err != nil {
			s.logger.WarnContext(ctx, "tenant cache invalidate failed", "error", err, "slug", t.Slug)
		}
	}

	status := "deactivated"
	if active {
		status = "activated"
	}
	s.audit.Record(ctx, audit.Entry{
		TenantID: t.ID,
		UserID:   middleware.GetUserID(ctx),
		Action:   audit.ActionTenantStatus,
		Details:  fmt.Sprintf("tenant %s %s", t.Slug, status),
	})
	s.events.Publish(ctx, events.New(ctx, events.TypeTenantStatus, t.ID, t.ID, map[string]bool{
		"isActive": active,
	}))

	return t, nil
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Tenant, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) CountTenants(ctx context.Context) (int, int, error) {
	return s.repo.Count(ctx)
}

func toTenantInfo(t *Tenant) *middleware.TenantInfo {
	return &middleware.TenantInfo{
		ID:     t.ID,
		Name:   t.Name,
		Slug:   t.Slug,
		Active: t.IsActive,
	}
}

var _ middleware.TenantLookup = (*Service)(nil)
