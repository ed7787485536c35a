// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
)

const (
	UserIDKey contextKey = "user_id"
	ClaimsKey contextKey = "jwt_claims"
)

const (
	RoleTenantAdmin = "tenant_admin"
	RoleSuperAdmin  = "super_admin"
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

type AccessTokenClaims struct {
	UserID    string
	Email     string
	TenantID  string
	Roles     []string
	JTI       string
	ExpiresAt time.Time
}

func (c *AccessTokenClaims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

var ErrTenantMismatch = core.NewAppError(
	core.ErrForbidden,
	"token does not belong to this tenant",
	http.StatusForbidden,
	"TENANT_MISMATCH",
)

// ErrorWriter renders a rejected request. ErrorBoundary.WriteError is the
// production writer so guard rejections are recorded like handler errors.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

func writeJSONError(w http.ResponseWriter, _ *http.Request, err error) {
	core.JSONError(w, err)
}

func errorWriterOrDefault(onError ErrorWriter) ErrorWriter {
	if onError == nil {
		return writeJSONError
	}
	return onError
}

// Authenticator verifies the bearer token and stores its claims on the
// context. When a tenant was resolved earlier in the chain, the token must
// have been issued for that tenant. Rejections go through onError.
func Authenticator(
	verifier TokenVerifier,
	onError ErrorWriter,
) func(http.Handler) http.Handler {
	onError = errorWriterOrDefault(onError)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				onError(w, r,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				onError(w, r, authError(err))
				return
			}

			if t := TenantFromContext(r.Context()); t != nil &&
				t.ID != claims.TenantID {
				onError(w, r, ErrTenantMismatch)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, claims *AccessTokenClaims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// RequireRole passes when the caller holds any of roles.
func RequireRole(
	onError ErrorWriter,
	roles ...string,
) func(http.Handler) http.Handler {
	onError = errorWriterOrDefault(onError)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())

			if claims == nil {
				onError(w, r,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if !slices.ContainsFunc(roles, claims.HasRole) {
				onError(w, r,
					core.ForbiddenError("insufficient permissions"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (b *ErrorBoundary) RequireTenantAdmin(next http.Handler) http.Handler {
	return RequireRole(b.WriteError, RoleTenantAdmin, RoleSuperAdmin)(next)
}

func (b *ErrorBoundary) RequireSuperAdmin(next http.Handler) http.Handler {
	return RequireRole(b.WriteError, RoleSuperAdmin)(next)
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func authError(err error) error {
	if core.IsAppError(err) {
		return err
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		return core.TokenExpiredError()
	case errors.Is(err, core.ErrTokenRevoked):
		return core.TokenRevokedError()
	default:
		return core.TokenInvalidError()
	}
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}
