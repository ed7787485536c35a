// AngelaMos | 2026
// handler.go

package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
	"github.com/carterperez-dev/templates/tenant-api/internal/middleware"
)

var ErrPhotoTooLarge = core.NewAppError(
	core.ErrInvalidInput,
	"photo exceeds the upload limit",
	http.StatusRequestEntityTooLarge,
	"PAYLOAD_TOO_LARGE",
)

type Handler struct {
	service        *Service
	validator      *validator.Validate
	maxUploadBytes int64
}

func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		validator:      core.NewValidator(),
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	eb *middleware.ErrorBoundary,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/profile", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", eb.Handle(h.Create))
		r.Get("/{profileID}", eb.Handle(h.Get))
		r.Delete("/{profileID}", eb.Handle(h.Delete))
		r.Put("/{profileID}/photo", eb.Handle(h.UploadPhoto))
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) error {
	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.ValidationError("invalid request body")
	}

	if err := h.validator.Struct(req); err != nil {
		return core.ValidationError(core.FormatValidationError(err))
	}

	p, err := h.service.Create(r.Context(), middleware.GetTenantID(r.Context()), req)
	if err != nil {
		return err
	}

	core.Created(w, ToProfileResponse(p))
	return nil
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) error {
	profileID, err := core.ParseID("profileID", chi.URLParam(r, "profileID"))
	if err != nil {
		return err
	}

	p, err := h.service.Get(
		r.Context(),
		middleware.GetTenantID(r.Context()),
		profileID,
	)
	if err != nil {
		return err
	}

	core.OK(w, ToProfileResponse(p))
	return nil
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) error {
	profileID, err := core.ParseID("profileID", chi.URLParam(r, "profileID"))
	if err != nil {
		return err
	}

	err = h.service.Delete(
		r.Context(),
		middleware.GetTenantID(r.Context()),
		profileID,
	)
	if err != nil {
		return err
	}

	core.NoContent(w)
	return nil
}

// UploadPhoto takes the raw image as the request body.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) error {
	profileID, err := core.ParseID("profileID", chi.URLParam(r, "profileID"))
	if err != nil {
		return err
	}

	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ErrUnsupportedImage
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrPhotoTooLarge
		}
		return core.ValidationError("invalid request body")
	}
	if len(data) == 0 {
		return core.ValidationError("photo is empty")
	}

	p, url, err := h.service.UploadPhoto(
		r.Context(),
		middleware.GetTenantID(r.Context()),
		profileID,
		contentType,
		bytes.NewReader(data),
		int64(len(data)),
	)
	if err != nil {
		return err
	}

	core.OK(w, PhotoResponse{Profile: ToProfileResponse(p), URL: url})
	return nil
}
