// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"net/http"
	"strconv"

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
	r.Route("/users", func(r chi.Router) {
		r.Post("/", eb.Handle(h.Create))

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Get("/list-all-active-users", eb.Handle(h.ListActive))
			r.Get("/{userID}", eb.Handle(h.Get))
			r.Put("/{userID}", eb.Handle(h.Update))
			r.Delete("/{userID}", eb.Handle(h.Anonymize))

			r.Group(func(r chi.Router) {
				r.Use(eb.RequireTenantAdmin)

				r.Get("/", eb.Handle(h.ListAll))
				r.Patch("/{userID}/status", eb.Handle(h.UpdateStatus))
			})
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) error {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.ValidationError("invalid request body")
	}

	if err := h.validator.Struct(req); err != nil {
		return core.ValidationError(core.FormatValidationError(err))
	}

	u, err := h.service.Create(r.Context(), middleware.GetTenantID(r.Context()), req)
	if err != nil {
		return err
	}

	core.Created(w, ToUserResponse(u))
	return nil
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) error {
	userID, err := core.ParseID("userID", chi.URLParam(r, "userID"))
	if err != nil {
		return err
	}

	u, err := h.service.Get(
		r.Context(),
		middleware.GetTenantID(r.Context()),
		userID,
	)
	if err != nil {
		return err
	}

	core.OK(w, ToUserResponse(u))
	return nil
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) error {
	userID, err := core.ParseID("userID", chi.URLParam(r, "userID"))
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.ValidationError("invalid request body")
	}

	if err := h.validator.Struct(req); err != nil {
		return core.ValidationError(core.FormatValidationError(err))
	}

	u, err := h.service.Update(
		r.Context(),
		middleware.GetTenantID(r.Context()),
		userID,
		req,
	)
	if err != nil {
		return err
	}

	core.OK(w, ToUserResponse(u))
	return nil
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) error {
	userID, err := core.ParseID("userID", chi.URLParam(r, "userID"))
	if err != nil {
		return err
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.ValidationError("invalid request body")
	}

	if err := h.validator.Struct(req); err != nil {
		return core.ValidationError(core.FormatValidationError(err))
	}

	u, err := h.service.SetStatus(
		r.Context(),
		middleware.GetTenantID(r.Context()),
		userID,
		*req.IsActive,
	)
	if err != nil {
		return err
	}

	core.OK(w, ToUserResponse(u))
	return nil
}

func (h *Handler) Anonymize(w http.ResponseWriter, r *http.Request) error {
	userID, err := core.ParseID("userID", chi.URLParam(r, "userID"))
	if err != nil {
		return err
	}

	err = h.service.Anonymize(
		r.Context(),
		middleware.GetTenantID(r.Context()),
		userID,
	)
	if err != nil {
		return err
	}

	core.NoContent(w)
	return nil
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) error {
	params := listParams(r)

	users, total, err := h.service.ListAll(r.Context(), middleware.GetTenantID(r.Context()), params)
	if err != nil {
		return err
	}

	core.Paginated(w, ToUserResponseList(users), params.Page, params.PageSize, total)
	return nil
}

func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) error {
	params := listParams(r)

	users, total, err := h.service.ListActive(r.Context(), middleware.GetTenantID(r.Context()), params)
	if err != nil {
		return err
	}

	core.Paginated(w, ToUserResponseList(users), params.Page, params.PageSize, total)
	return nil
}

func listParams(r *http.Request) ListParams {
	p := ListParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "pageSize", 20),
	}
	p.Normalize()
	return p
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
