// AngelaMos | 2026
// handler.go

package tenant

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

func (h *Handler) RegisterRoutes(r chi.Router, eb *middleware.ErrorBoundary) {
	r.Post("/tenants", eb.Handle(h.Create))
}

// RegisterAdminRoutes registers platform-level tenant management.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	eb *middleware.ErrorBoundary,
	authenticator, superAdmin func(http.Handler) http.Handler,
) {
	r.Route("/admin/tenants", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(superAdmin)

		r.Get("/", eb.Handle(h.List))
		r.Get("/{tenantID}", eb.Handle(h.Get))
		r.Patch("/{tenantID}/status", eb.Handle(h.UpdateStatus))
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) error {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.ValidationError("invalid request body")
	}

	if err := h.validator.Struct(req); err != nil {
		return core.ValidationError(core.FormatValidationError(err))
	}

	t, err := h.service.Provision(r.Context(), req)
	if err != nil {
		return err
	}

	core.Created(w, ToTenantResponse(t))
	return nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) error {
	params := ListParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "pageSize", 20),
	}
	params.Normalize()

	tenants, total, err := h.service.List(r.Context(), params)
	if err != nil {
		return err
	}

	core.Paginated(w, ToTenantResponseList(tenants), params.Page, params.PageSize, total)
	return nil
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) error {
	tenantID, err := core.ParseID("tenantID", chi.URLParam(r, "tenantID"))
	if err != nil {
		return err
	}

	t, err := h.service.Get(r.Context(), tenantID)
	if err != nil {
		return err
	}

	core.OK(w, ToTenantResponse(t))
	return nil
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) error {
	tenantID, err := core.ParseID("tenantID", chi.URLParam(r, "tenantID"))
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

	t, err := h.service.SetActive(r.Context(), tenantID, *req.IsActive)
	if err != nil {
		return err
	}

	core.OK(w, ToTenantResponse(t))
	return nil
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
