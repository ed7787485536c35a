// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
)

type stubVerifier map[string]*AccessTokenClaims

func (s stubVerifier) VerifyAccessToken(_ context.Context, token string) (*AccessTokenClaims, error) {
	switch token {
	case "expired":
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
	case "revoked":
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
}

var verifier = stubVerifier{
	"member": {UserID: "u1", TenantID: "t1", Roles: []string{"member"}},
	"admin":  {UserID: "u2", TenantID: "t1", Roles: []string{RoleTenantAdmin}},
	"root":   {UserID: "u3", TenantID: "t0", Roles: []string{RoleSuperAdmin}},
}

func serveAuth(
	h func(http.Handler) http.Handler,
	token string,
	tenant *TenantInfo,
) (*httptest.ResponseRecorder, *AccessTokenClaims) {
	var seen *AccessTokenClaims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetClaims(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if tenant != nil {
		req = req.WithContext(WithTenant(req.Context(), tenant))
	}

	rec := httptest.NewRecorder()
	h(next).ServeHTTP(rec, req)
	return rec, seen
}

func TestAuthenticator(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		tenant   *TenantInfo
		wantCode int
		wantErr  string
	}{
		{"missing token", "", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"invalid token", "garbage", nil, http.StatusUnauthorized, "TOKEN_INVALID"},
		{"expired token", "expired", nil, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"revoked token", "revoked", nil, http.StatusUnauthorized, "TOKEN_REVOKED"},
		{"matching tenant", "member", &TenantInfo{ID: "t1"}, http.StatusOK, ""},
		{"no tenant resolved", "member", nil, http.StatusOK, ""},
		{"tenant mismatch", "member", &TenantInfo{ID: "t2"}, http.StatusForbidden, "TENANT_MISMATCH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, seen := serveAuth(Authenticator(verifier, nil), tt.token, tt.tenant)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeError(t, rec).Code)
				assert.Nil(t, seen)
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, "u1", seen.UserID)
		})
	}
}

func TestRequireTenantAdmin(t *testing.T) {
	eb := NewErrorBoundary(nil, nil)
	chain := func(next http.Handler) http.Handler {
		return Authenticator(verifier, eb.WriteError)(eb.RequireTenantAdmin(next))
	}

	rec, _ := serveAuth(chain, "member", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = serveAuth(chain, "admin", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = serveAuth(chain, "root", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSuperAdmin(t *testing.T) {
	eb := NewErrorBoundary(nil, nil)
	chain := func(next http.Handler) http.Handler {
		return Authenticator(verifier, eb.WriteError)(eb.RequireSuperAdmin(next))
	}

	rec, _ := serveAuth(chain, "admin", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = serveAuth(chain, "root", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardRejectionsAreRecorded(t *testing.T) {
	recorder := &captureRecorder{}
	eb := NewErrorBoundary(recorder, nil)
	chain := func(next http.Handler) http.Handler {
		return Authenticator(verifier, eb.WriteError)(eb.RequireTenantAdmin(next))
	}
	tenant := &TenantInfo{ID: "t1", Slug: "acme"}

	rec, _ := serveAuth(chain, "", tenant)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serveAuth(chain, "expired", tenant)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_EXPIRED", decodeError(t, rec).Code)

	rec, _ = serveAuth(chain, "member", tenant)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = serveAuth(chain, "admin", tenant)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, recorder.failures, 3)
	for _, f := range recorder.failures[:2] {
		assert.Equal(t, http.StatusUnauthorized, f.Status)
		assert.Equal(t, "t1", f.TenantID)
		assert.Empty(t, f.UserID)
	}
	forbidden := recorder.failures[2]
	assert.Equal(t, http.StatusForbidden, forbidden.Status)
	assert.Equal(t, "t1", forbidden.TenantID)
	assert.Equal(t, "u1", forbidden.UserID)
}

func TestRequireRoleDefaultsToPlainJSON(t *testing.T) {
	rec, _ := serveAuth(RequireRole(nil, RoleSuperAdmin), "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
}

func TestExtractToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"abc":          "",
		"":             "",
	}

	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, ExtractToken(req), "header %q", header)
	}
}
