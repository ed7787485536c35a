// AngelaMos | 2026
// service.go

package role

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/tenant-api/internal/audit"
	"github.com/carterperez-dev/templates/tenant-api/internal/core"
	"github.com/carterperez-dev/templates/tenant-api/internal/events"
	"github.com/carterperez-dev/templates/tenant-api/internal/middleware"
)

var (
	ErrRoleExists = core.ConflictError(
		"a role with this name already exists",
		"ROLE_ALREADY_EXISTS",
	)
	ErrReservedRole = core.ForbiddenError("role name is reserved")
)

type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

// UserChecker reports whether an active user exists in a tenant.
type UserChecker interface {
	ExistsByID(ctx context.Context, tenantID, id string) (bool, error)
}

type Service struct {
	repo   Repository
	users  UserChecker
	audit  Auditor
	events events.Publisher
}

func NewService(
	repo Repository,
	users UserChecker,
	auditor Auditor,
	publisher events.Publisher,
) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{repo: repo, users: users, audit: auditor, events: publisher}
}

func (s *Service) Create(
	ctx context.Context,
	tenantID, actorID string,
	req CreateRoleRequest,
) (*Role, error) {
	// super_admin grants platform access; only an existing super admin may
	// create it.
	if req.Name == middleware.RoleSuperAdmin {
		if claims := middleware.GetClaims(ctx); claims == nil ||
			!claims.HasRole(middleware.RoleSuperAdmin) {
			return nil, ErrReservedRole
		}
	}

	exists, err := s.repo.ExistsByName(ctx, tenantID, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrRoleExists
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}
	permissions := Permissions(req.Permissions)
	if permissions == nil {
		permissions = Permissions{}
	}

	created, err := s.repo.Create(ctx, tenantID, &Role{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: description,
		Permissions: permissions,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrRoleExists
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		TenantID: tenantID,
		UserID:   actorID,
		Action:   audit.ActionCreateRole,
		Details:  fmt.Sprintf("role %s created by user %s", created.Name, actorID),
	})
	s.events.Publish(ctx, events.New(ctx, events.TypeRoleCreated, tenantID, created.ID, ToRoleResponse(created)))

	return created, nil
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Role, error) {
	return s.repo.List(ctx, tenantID)
}

// Assign grants roleID to userID. Both must belong to tenantID.
func (s *Service) Assign(
	ctx context.Context,
	tenantID, actorID, roleID, userID string,
) (*UserRole, error) {
	r, err := s.repo.GetByID(ctx, tenantID, roleID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("role")
		}
		return nil, err
	}

	ok, err := s.users.ExistsByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.NotFoundError("user")
	}

	assignment, err := s.repo.Assign(ctx, tenantID, userID, r.ID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		TenantID: tenantID,
		UserID:   actorID,
		Action:   audit.ActionAssignRole,
		Details:  fmt.Sprintf("role %s assigned to user %s by user %s", r.Name, userID, actorID),
	})

	return assignment, nil
}

// SeedDefaults creates the built-in roles of a new tenant.
func (s *Service) SeedDefaults(ctx context.Context, tenantID string) error {
	defaults := []Role{
		{
			Name:        NameTenantAdmin,
			Description: "Full access to the tenant",
			Permissions: Permissions{"*"},
		},
		{
			Name:        NameMember,
			Description: "Default role for new users",
			Permissions: Permissions{},
			IsDefault:   true,
		},
	}

	for i := range defaults {
		defaults[i].ID = uuid.New().String()
		if _, err := s.repo.Ensure(ctx, tenantID, &defaults[i]); err != nil {
			return fmt.Errorf("seed role %s: %w", defaults[i].Name, err)
		}
	}

	return nil
}

// AssignDefaults grants the tenant's default roles to a new user. The first
// user of a tenant also receives tenant_admin.
func (s *Service) AssignDefaults(
	ctx context.Context,
	tenantID, userID string,
	firstUser bool,
) error {
	roles, err := s.repo.ListDefaults(ctx, tenantID)
	if err != nil {
		return err
	}

	if firstUser {
		admin, err := s.repo.GetByName(ctx, tenantID, NameTenantAdmin)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return err
		}
		if admin != nil {
			roles = append(roles, *admin)
		}
	}

	for _, r := range roles {
		if _, err := s.repo.Assign(ctx, tenantID, userID, r.ID); err != nil {
			return fmt.Errorf("assign role %s: %w", r.Name, err)
		}
	}

	return nil
}

func (s *Service) NamesForUser(ctx context.Context, tenantID, userID string) ([]string, error) {
	return s.repo.NamesForUser(ctx, tenantID, userID)
}
