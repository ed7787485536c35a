// AngelaMos | 2026
// tenant.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
)

const (
	TenantSlugHeader = "X-Tenant-Slug"
	TenantQueryParam = "tenant"

	TenantKey contextKey = "tenant"
)

// TenantInfo is the resolved tenant carried on the request context.
type TenantInfo struct {
	ID     string
	Name   string
	Slug   string
	Active bool
}

// TenantLookup returns the active tenant for a slug, or an error wrapping
// core.ErrNotFound when none exists.
type TenantLookup interface {
	GetActiveBySlug(ctx context.Context, slug string) (*TenantInfo, error)
}

// Exclusion names a route that skips mandatory tenant resolution. With
// Optional set, a supplied slug is still resolved and validated.
type Exclusion struct {
	Method   string
	Path     string
	Prefix   bool
	Optional bool
}

func (e Exclusion) matches(r *http.Request) bool {
	if e.Method != "" && !strings.EqualFold(e.Method, r.Method) {
		return false
	}
	if e.Prefix {
		return r.URL.Path == e.Path || strings.HasPrefix(r.URL.Path, strings.TrimSuffix(e.Path, "/")+"/")
	}
	return strings.TrimSuffix(r.URL.Path, "/") == strings.TrimSuffix(e.Path, "/")
}

// DefaultTenantExclusions are the routes served without a tenant.
var DefaultTenantExclusions = []Exclusion{
	{Method: http.MethodPost, Path: "/v1/auth/login", Optional: true},
	{Method: http.MethodPost, Path: "/v1/tenants"},
	{Path: "/v1/admin", Prefix: true},
}

type TenantResolverConfig struct {
	Lookup     TenantLookup
	Exclusions []Exclusion
	OnError    ErrorWriter
}

var (
	ErrTenantNotSpecified = core.NewAppError(
		core.ErrInvalidInput,
		"tenant not specified",
		http.StatusBadRequest,
		"TENANT_NOT_SPECIFIED",
	)
	ErrTenantNotFound = core.NewAppError(
		core.ErrNotFound,
		"tenant not found",
		http.StatusNotFound,
		"TENANT_NOT_FOUND",
	)
)

func tenantResolutionFailed(err error) *core.AppError {
	return core.NewAppError(
		err,
		"failed to resolve tenant",
		http.StatusInternalServerError,
		"TENANT_RESOLUTION_FAILED",
	)
}

// TenantResolver attaches the active tenant named by X-Tenant-Slug (or the
// ?tenant= query parameter) to the request context. The downstream handler
// never runs when resolution fails on a non-excluded route.
func TenantResolver(cfg TenantResolverConfig) func(http.Handler) http.Handler {
	onError := errorWriterOrDefault(cfg.OnError)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			excluded, optional := false, false
			for _, e := range cfg.Exclusions {
				if e.matches(r) {
					excluded, optional = true, e.Optional
					break
				}
			}

			slug := TenantSlugFromRequest(r)

			if excluded && (!optional || slug == "") {
				next.ServeHTTP(w, r)
				return
			}

			if slug == "" {
				onError(w, r, ErrTenantNotSpecified)
				return
			}

			tenant, err := cfg.Lookup.GetActiveBySlug(r.Context(), slug)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					onError(w, r, ErrTenantNotFound)
					return
				}
				onError(w, r, tenantResolutionFailed(err))
				return
			}

			ctx := WithTenant(r.Context(), tenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func TenantSlugFromRequest(r *http.Request) string {
	if slug := strings.TrimSpace(r.Header.Get(TenantSlugHeader)); slug != "" {
		return slug
	}
	return strings.TrimSpace(r.URL.Query().Get(TenantQueryParam))
}

func WithTenant(ctx context.Context, tenant *TenantInfo) context.Context {
	return context.WithValue(ctx, TenantKey, tenant)
}

func TenantFromContext(ctx context.Context) *TenantInfo {
	if t, ok := ctx.Value(TenantKey).(*TenantInfo); ok {
		return t
	}
	return nil
}

func GetTenantID(ctx context.Context) string {
	if t := TenantFromContext(ctx); t != nil {
		return t.ID
	}
	return ""
}
