// AngelaMos | 2026
// service.go

package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/tenant-api/internal/audit"
	"github.com/carterperez-dev/templates/tenant-api/internal/core"
	"github.com/carterperez-dev/templates/tenant-api/internal/events"
	"github.com/carterperez-dev/templates/tenant-api/internal/middleware"
	"github.com/carterperez-dev/templates/tenant-api/internal/storage"
)

var (
	ErrProfileExists = core.ConflictError(
		"a profile already exists for this user",
		"PROFILE_ALREADY_EXISTS",
	)
	ErrUnsupportedImage = core.ValidationError("photo must be a jpeg, png or webp image")
)

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

type UserChecker interface {
	ExistsByID(ctx context.Context, tenantID, id string) (bool, error)
}

type Service struct {
	repo    Repository
	users   UserChecker
	storage storage.ObjectStore
	audit   Auditor
	events  events.Publisher
}

type ServiceDeps struct {
	Repo    Repository
	Users   UserChecker
	Storage storage.ObjectStore
	Audit   Auditor
	Events  events.Publisher
}

func NewService(deps ServiceDeps) *Service {
	if deps.Storage == nil {
		deps.Storage = storage.DisabledStore{}
	}
	if deps.Events == nil {
		deps.Events = events.NoopPublisher{}
	}
	return &Service{
		repo:    deps.Repo,
		users:   deps.Users,
		storage: deps.Storage,
		audit:   deps.Audit,
		events:  deps.Events,
	}
}

func (s *Service) Create(
	ctx context.Context,
	tenantID string,
	req CreateProfileRequest,
) (*Profile, error) {
	if err := canAccess(ctx, &Profile{UserID: req.UserID}); err != nil {
		return nil, err
	}

	ok, err := s.users.ExistsByID(ctx, tenantID, req.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.NotFoundError("user")
	}

	exists, err := s.repo.ExistsForUser(ctx, tenantID, req.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrProfileExists
	}

	var dueDate *time.Time
	if req.PaymentDetails.DueDate != "" {
		d, err := time.Parse(DueDateLayout, req.PaymentDetails.DueDate)
		if err != nil {
			return nil, core.ValidationError("paymentDetails.dueDate must be DD/MM/YYYY")
		}
		dueDate = &d
	}

	created, err := s.repo.Create(ctx, tenantID, &Profile{
		ID:                     uuid.New().String(),
		UserID:                 req.UserID,
		Name:                   req.Name,
		CellPhone:              req.CellPhone,
		PhotoURL:               req.PhotoURL,
		IdentificationDocument: req.IdentificationDocument,
		Street:                 req.Address.Street,
		Number:                 req.Address.Number,
		Neighborhood:           req.Address.Neighborhood,
		DueDate:                dueDate,
		BillingEmail:           req.PaymentDetails.BillingEmail,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrProfileExists
		}
		return nil, err
	}

	actor := middleware.GetUserID(ctx)
	s.audit.Record(ctx, audit.Entry{
		TenantID: tenantID,
		UserID:   actor,
		Action:   audit.ActionCreateProfile,
		Details:  fmt.Sprintf("profile %s created for user %s by user %s", created.ID, req.UserID, actor),
	})
	s.events.Publish(ctx, events.New(ctx, events.TypeProfileCreated, tenantID, created.ID, ToProfileResponse(created)))

	return created, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("profile")
		}
		return nil, err
	}

	if err := canAccess(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	p, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if _, err := s.repo.SoftDelete(ctx, tenantID, p.ID); err != nil {
		return err
	}

	actor := middleware.GetUserID(ctx)
	s.audit.Record(ctx, audit.Entry{
		TenantID: tenantID,
		UserID:   actor,
		Action:   audit.ActionDeleteProfile,
		Details:  fmt.Sprintf("profile %s deleted by user %s", p.ID, actor),
	})

	return nil
}

// UploadPhoto stores the image under profiles/<tenant>/<user>/ and returns
// the updated profile with a presigned download URL.
func (s *Service) UploadPhoto(
	ctx context.Context,
	tenantID, id, contentType string,
	body io.Reader,
	size int64,
) (*Profile, string, error) {
	ext, ok := photoExtensions[contentType]
	if !ok {
		return nil, "", ErrUnsupportedImage
	}

	p, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, "", err
	}

	key := PhotoKey(tenantID, p.UserID, ext)
	if err := s.storage.Put(ctx, key, contentType, body, size); err != nil {
		return nil, "", err
	}

	updated, err := s.repo.SetPhotoURL(ctx, tenantID, p.ID, s.storage.URL(key))
	if err != nil {
		return nil, "", err
	}

	url, err := s.storage.PresignGet(ctx, key)
	if err != nil {
		return nil, "", err
	}

	actor := middleware.GetUserID(ctx)
	s.audit.Record(ctx, audit.Entry{
		TenantID: tenantID,
		UserID:   actor,
		Action:   audit.ActionUploadPhoto,
		Details:  fmt.Sprintf("photo of profile %s uploaded to %s", p.ID, key),
	})

	return updated, url, nil
}

func PhotoKey(tenantID, userID, ext string) string {
	return fmt.Sprintf("profiles/%s/%s/photo.%s", tenantID, userID, ext)
}

// canAccess lets users reach their own profile and admins reach any
// profile of the tenant.
func canAccess(ctx context.Context, p *Profile) error {
	claims := middleware.GetClaims(ctx)
	if claims == nil {
		return core.UnauthorizedError("authentication required")
	}
	if claims.UserID == p.UserID ||
		claims.HasRole(middleware.RoleTenantAdmin) ||
		claims.HasRole(middleware.RoleSuperAdmin) {
		return nil
	}
	return core.ForbiddenError("insufficient permissions")
}
