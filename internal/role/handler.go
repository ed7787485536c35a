// AngelaMos | 2026
// handler.go

package role

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
	"github.com/carterperez-dev/templates/tenant-api/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	eb *middleware.ErrorBoundary,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/roles", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", eb.Handle(h.Create))
		r.Get("/", eb.Handle(h.List))

		r.With(eb.RequireTenantAdmin).
			Put("/{roleID}/users/{userID}", eb.Handle(h.Assign))
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) error {
	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.ValidationError("invalid request body")
	}

	if err := h.validator.Struct(req); err != nil {
		return core.ValidationError(core.FormatValidationError(err))
	}

	ctx := r.Context()
	created, err := h.service.Create(
		ctx,
		middleware.GetTenantID(ctx),
		middleware.GetUserID(ctx),
		req,
	)
	if err != nil {
		return err
	}

	core.Created(w, ToRoleResponse(created))
	return nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) error {
	roles, err := h.service.List(r.Context(), middleware.GetTenantID(r.Context()))
	if err != nil {
		return err
	}

	core.OK(w, ToRoleResponseList(roles))
	return nil
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	roleID, err := core.ParseID("roleID", chi.URLParam(r, "roleID"))
	if err != nil {
		return err
	}
	userID, err := core.ParseID("userID", chi.URLParam(r, "userID"))
	if err != nil {
		return err
	}

	assignment, err := h.service.Assign(
		ctx,
		middleware.GetTenantID(ctx),
		middleware.GetUserID(ctx),
		roleID,
		userID,
	)
	if err != nil {
		return err
	}

	core.OK(w, AssignmentResponse{
		TenantID:  assignment.TenantID,
		UserID:    assignment.UserID,
		RoleID:    assignment.RoleID,
		CreatedAt: assignment.CreatedAt,
	})
	return nil
}
