// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/tenant-api/internal/audit"
	"github.com/carterperez-dev/templates/tenant-api/internal/auth"
	"github.com/carterperez-dev/templates/tenant-api/internal/core"
	"github.com/carterperez-dev/templates/tenant-api/internal/events"
	"github.com/carterperez-dev/templates/tenant-api/internal/middleware"
	"github.com/carterperez-dev/templates/tenant-api/internal/repository"
)

var (
	ErrUserExists = core.ConflictError(
		"a user with this email already exists",
		"USER_ALREADY_EXISTS",
	)
	ErrEmailTaken = core.ConflictError(
		"email is already in use",
		"EMAIL_ALREADY_EXISTS",
	)
	ErrPasswordMismatch = core.ValidationError("confirmPassword must match password")
)

type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

// RoleAssigner grants the default roles of a tenant to a new user.
type RoleAssigner interface {
	AssignDefaults(ctx context.Context, tenantID, userID string, firstUser bool) error
}

// SessionRevoker removes every refresh session of a user.
type SessionRevoker interface {
	DeleteByUser(ctx context.Context, tenantID, userID string) error
}

type Service struct {
	repo     Repository
	tx       core.Transactor
	hasher   *core.PasswordHasher
	roles    RoleAssigner
	sessions SessionRevoker
	audit    Auditor
	events   events.Publisher
	logger   *slog.Logger
}

type ServiceDeps struct {
	Repo     Repository
	Tx       core.Transactor
	Hasher   *core.PasswordHasher
	Roles    RoleAssigner
	Sessions SessionRevoker
	Audit    Auditor
	Events   events.Publisher
	Logger   *slog.Logger
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
		repo:     deps.Repo,
		tx:       deps.Tx,
		hasher:   deps.Hasher,
		roles:    deps.Roles,
		sessions: deps.Sessions,
		audit:    deps.Audit,
		events:   deps.Events,
		logger:   deps.Logger,
	}
}

func (s *Service) Create(ctx context.Context, tenantID string, req CreateUserRequest) (*User, error) {
	ctx, span := core.StartSpan(ctx, "user.Create",
		attribute.String("tenant.id", tenantID))
	defer span.End()

	if req.TenantID != "" && req.TenantID != tenantID {
		return nil, middleware.ErrTenantMismatch
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	email := normalizeEmail(req.Email)

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var created *User
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockTenant(ctx, tenantID); err != nil {
			return err
		}

		exists, err := s.repo.ExistsActiveByEmail(ctx, tenantID, email)
		if err != nil {
			return err
		}
		if exists {
			return ErrUserExists
		}

		existing, err := s.repo.Count(ctx, tenantID)
		if err != nil {
			return err
		}

		created, err = s.repo.Create(ctx, tenantID, &User{
			ID:           uuid.New().String(),
			Email:        email,
			PasswordHash: hash,
		})
		if err != nil {
			if errors.Is(err, core.ErrDuplicateKey) {
				return ErrUserExists
			}
			return err
		}

		if s.roles != nil {
			if err := s.roles.AssignDefaults(ctx, tenantID, created.ID, existing == 0); err != nil {
				return fmt.Errorf("assign default roles: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	actor := middleware.GetUserID(ctx)
	if actor == "" {
		actor = created.ID
	}
	s.audit.Record(ctx, audit.Entry{
		TenantID: tenantID,
		UserID:   actor,
		Action:   audit.ActionCreateUser,
		Details:  fmt.Sprintf("user %s created by user %s", created.ID, actor),
	})
	s.events.Publish(ctx, events.New(ctx, events.TypeUserCreated, tenantID, created.ID, ToUserResponse(created)))

	return created, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("user")
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) Update(
	ctx context.Context,
	tenantID, id string,
	req UpdateUserRequest,
) (*User, error) {
	if err := canManage(ctx, id); err != nil {
		return nil, err
	}
	if !req.PasswordConfirmed() {
		return nil, ErrPasswordMismatch
	}

	target, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if target.IsDeleted {
		return nil, core.DeletedError()
	}

	values := repository.Values{}
	var changed []string

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != target.Email {
			taken, err := s.repo.ExistsActiveByEmail(ctx, tenantID, email)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrEmailTaken
			}
			values["email"] = email
			changed = append(changed, "email")
		}
	}

	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		values["password_hash"] = hash
		changed = append(changed, "password")
	}

	if len(values) == 0 {
		return target, nil
	}

	updated, err := s.repo.Update(ctx, tenantID, id, values)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	actor := middleware.GetUserID(ctx)
	s.audit.Record(ctx, audit.Entry{
		TenantID: tenantID,
		UserID:   actor,
		Action:   audit.ActionEditUser,
		Details: fmt.Sprintf("user %s edited user %s (%s)",
			actor, id, strings.Join(changed, ", ")),
	})
	s.events.Publish(ctx, events.New(ctx, events.TypeUserUpdated, tenantID, id, ToUserResponse(updated)))

	return updated, nil
}

// SetStatus enables or disables a user. Anonymized users stay disabled.
func (s *Service) SetStatus(ctx context.Context, tenantID, id string, active bool) (*User, error) {
	target, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if target.IsAnonymized() {
		return nil, core.DeletedError()
	}

	var updated *User
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.repo.SetDeleted(ctx, tenantID, id, !active)
		if err != nil {
			return err
		}
		if !active {
			return s.revokeSessions(ctx, tenantID, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome := "disabled"
	if active {
		outcome = "enabled"
	}
	actor := middleware.GetUserID(ctx)
	s.audit.Record(ctx, audit.Entry{
		TenantID: tenantID,
		UserID:   actor,
		Action:   audit.ActionEnableDisableUser,
		Details:  fmt.Sprintf("user %s %s user %s", actor, outcome, id),
	})
	s.events.Publish(ctx, events.New(ctx, events.TypeUserStatusChanged, tenantID, id, map[string]bool{
		"isActive": active,
	}))

	return updated, nil
}

// Anonymize irreversibly replaces the user's email and flags the row as
// deleted. The row itself is kept.
func (s *Service) Anonymize(ctx context.Context, tenantID, id string) error {
	if err := canManage(ctx, id); err != nil {
		return err
	}

	target, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if target.IsDeleted {
		return core.DeletedError()
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.Anonymize(ctx, tenantID, id); err != nil {
			return err
		}
		return s.revokeSessions(ctx, tenantID, id)
	})
	if err != nil {
		return err
	}

	actor := middleware.GetUserID(ctx)
	s.audit.Record(ctx, audit.Entry{
		TenantID: tenantID,
		UserID:   actor,
		Action:   audit.ActionAnonymizeUser,
		Details:  fmt.Sprintf("user %s anonymized user %s", actor, id),
	})
	s.events.Publish(ctx, events.New(ctx, events.TypeUserAnonymized, tenantID, id, nil))

	return nil
}

func (s *Service) ListAll(ctx context.Context, tenantID string, params ListParams) ([]User, int, error) {
	return s.list(ctx, tenantID, params, false)
}

func (s *Service) ListActive(ctx context.Context, tenantID string, params ListParams) ([]User, int, error) {
	return s.list(ctx, tenantID, params, true)
}

func (s *Service) list(
	ctx context.Context,
	tenantID string,
	params ListParams,
	activeOnly bool,
) ([]User, int, error) {
	users, total, err := s.repo.List(ctx, tenantID, params, activeOnly)
	if err != nil {
		return nil, 0, err
	}

	action := audit.ActionListAllUsers
	if activeOnly {
		action = audit.ActionListActiveUsers
	}
	actor := middleware.GetUserID(ctx)
	s.audit.Record(ctx, audit.Entry{
		TenantID: tenantID,
		UserID:   actor,
		Action:   action,
		Details:  fmt.Sprintf("user %s listed %d of %d users", actor, len(users), total),
	})

	return users, total, nil
}

// FindForLogin looks the user up within tenantID, or across tenants when
// tenantID is empty.
func (s *Service) FindForLogin(ctx context.Context, tenantID, email string) (*auth.UserInfo, error) {
	email = normalizeEmail(email)

	var (
		u   *User
		err error
	)
	if tenantID == "" {
		u, err = s.repo.FindActiveByEmailAnyTenant(ctx, email)
	} else {
		u, err = s.repo.GetActiveByEmail(ctx, tenantID, email)
	}
	if err != nil {
		return nil, err
	}

	return toUserInfo(u), nil
}

func (s *Service) GetActiveByID(ctx context.Context, tenantID, id string) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted {
		return nil, fmt.Errorf("get user: %w", core.ErrDeleted)
	}
	return toUserInfo(u), nil
}

func (s *Service) UpdatePasswordHash(ctx context.Context, tenantID, id, hash string) error {
	_, err := s.repo.Update(ctx, tenantID, id, repository.Values{"password_hash": hash})
	return err
}

// ExistsByID reports whether an active user exists in the tenant.
func (s *Service) ExistsByID(ctx context.Context, tenantID, id string) (bool, error) {
	return s.repo.ExistsByID(ctx, tenantID, id)
}

func (s *Service) revokeSessions(ctx context.Context, tenantID, userID string) error {
	if s.sessions == nil {
		return nil
	}
	if err := s.sessions.DeleteByUser(ctx, tenantID, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

// canManage allows callers to act on themselves; acting on another user
// needs an admin role.
func canManage(ctx context.Context, targetID string) error {
	claims := middleware.GetClaims(ctx)
	if claims == nil {
		return core.UnauthorizedError("authentication required")
	}
	if claims.UserID == targetID ||
		claims.HasRole(middleware.RoleTenantAdmin) ||
		claims.HasRole(middleware.RoleSuperAdmin) {
		return nil
	}
	return core.ForbiddenError("insufficient permissions")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		TenantID:     u.TenantID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}
}

var _ auth.UserProvider = (*Service)(nil)
