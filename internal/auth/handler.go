// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

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
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", eb.Handle(h.Login))
		r.Post("/refresh", eb.Handle(h.Refresh))

		r.With(authenticator).Post("/logout", eb.Handle(h.Logout))
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.ValidationError("invalid request body")
	}

	if err := h.validator.Struct(req); err != nil {
		return core.ValidationError(core.FormatValidationError(err))
	}

	resp, err := h.service.Login(
		r.Context(),
		middleware.GetTenantID(r.Context()),
		req,
		r.UserAgent(),
		extractIPAddress(r),
	)
	if err != nil {
		return err
	}

	core.OK(w, resp)
	return nil
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) error {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.ValidationError("invalid request body")
	}

	if err := h.validator.Struct(req); err != nil {
		return core.ValidationError(core.FormatValidationError(err))
	}

	resp, err := h.service.Refresh(
		r.Context(),
		middleware.GetTenantID(r.Context()),
		req.RefreshToken,
		r.UserAgent(),
		extractIPAddress(r),
	)
	if err != nil {
		return err
	}

	core.OK(w, resp)
	return nil
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) error {
	if err := h.service.Logout(r.Context(), middleware.GetClaims(r.Context())); err != nil {
		return err
	}

	core.NoContent(w)
	return nil
}

func extractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
