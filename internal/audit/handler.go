// AngelaMos | 2026
// handler.go

package audit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
	"github.com/carterperez-dev/templates/tenant-api/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	eb *middleware.ErrorBoundary,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/audit-logs", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(eb.RequireTenantAdmin)

		r.Get("/", eb.Handle(h.List))
	})
}

// List returns the current tenant's audit trail, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	params := ListParams{
		Page:     atoiOr(q.Get("page"), 1),
		PageSize: atoiOr(q.Get("pageSize"), 20),
		Action:   q.Get("action"),
		Level:    q.Get("level"),
	}
	params.Normalize()

	logs, total, err := h.service.List(
		r.Context(),
		middleware.GetTenantID(r.Context()),
		params,
	)
	if err != nil {
		return err
	}

	core.Paginated(w, ToLogResponseList(logs), params.Page, params.PageSize, total)
	return nil
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
