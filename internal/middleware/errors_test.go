// AngelaMos | 2026
// errors_test.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
)

type captureRecorder struct {
	mu       sync.Mutex
	failures []Failure
	err      error
}

func (c *captureRecorder) RecordFailure(_ context.Context, f Failure) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, f)
	return c.err
}

func boundaryRequest(t *testing.T, method, target string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	ctx := WithCorrelationID(req.Context(), "corr-1")
	ctx = WithTenant(ctx, &TenantInfo{ID: "t1", Slug: "acme"})
	ctx = WithClaims(ctx, &AccessTokenClaims{UserID: "u1", TenantID: "t1"})
	return req.WithContext(ctx)
}

func TestErrorBoundaryRecordsAndRenders(t *testing.T) {
	rec := &captureRecorder{}
	eb := NewErrorBoundary(rec, nil)

	h := eb.Handle(func(http.ResponseWriter, *http.Request) error {
		return core.NotFoundError("user")
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, boundaryRequest(t, http.MethodGet, "/v1/users/x"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)

	require.Len(t, rec.failures, 1)
	f := rec.failures[0]
	assert.Equal(t, "t1", f.TenantID)
	assert.Equal(t, "u1", f.UserID)
	assert.Equal(t, "corr-1", f.CorrelationID)
	assert.Equal(t, http.MethodGet, f.Method)
	assert.Equal(t, "/v1/users/x", f.Path)
	assert.Equal(t, http.StatusNotFound, f.Status)
}

func TestErrorBoundaryHidesInternalDetail(t *testing.T) {
	rec := &captureRecorder{}
	eb := NewErrorBoundary(rec, nil)

	h := eb.Handle(func(http.ResponseWriter, *http.Request) error {
		return errors.New("pq: relation users does not exist")
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, boundaryRequest(t, http.MethodGet, "/v1/users"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
	assert.NotContains(t, body.Message, "relation")

	require.Len(t, rec.failures, 1)
	assert.Contains(t, rec.failures[0].Detail, "relation users")
}

func TestErrorBoundaryRecorderFailureKeepsResponse(t *testing.T) {
	rec := &captureRecorder{err: errors.New("audit down")}
	eb := NewErrorBoundary(rec, nil)

	h := eb.Handle(func(http.ResponseWriter, *http.Request) error {
		return core.ConflictError("email taken", "EMAIL_ALREADY_EXISTS")
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, boundaryRequest(t, http.MethodPut, "/v1/users/x"))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "EMAIL_ALREADY_EXISTS", decodeError(t, w).Code)
}

func TestErrorBoundaryPassesSuccess(t *testing.T) {
	rec := &captureRecorder{}
	eb := NewErrorBoundary(rec, nil)

	h := eb.Handle(func(w http.ResponseWriter, _ *http.Request) error {
		core.OK(w, map[string]string{"ok": "yes"})
		return nil
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, boundaryRequest(t, http.MethodGet, "/"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, rec.failures)
}

func TestRecovererConvertsPanic(t *testing.T) {
	rec := &captureRecorder{}
	eb := NewErrorBoundary(rec, nil)

	h := eb.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(w, boundaryRequest(t, http.MethodGet, "/"))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, rec.failures, 1)
	assert.Contains(t, rec.failures[0].Detail, "boom")
}

func TestHandlerPanicRecordsTenantAndUser(t *testing.T) {
	rec := &captureRecorder{}
	eb := NewErrorBoundary(rec, nil)
	tokens := stubVerifier{
		"acme-member": {UserID: "u9", TenantID: "t-acme"},
	}

	panicking := eb.Handle(func(http.ResponseWriter, *http.Request) error {
		panic("nil map write")
	})
	h := eb.Recoverer(TenantResolver(TenantResolverConfig{
		Lookup:     newLookup(),
		Exclusions: DefaultTenantExclusions,
		OnError:    eb.WriteError,
	})(Authenticator(tokens, eb.WriteError)(panicking)))

	req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	req.Header.Set(TenantSlugHeader, "acme")
	req.Header.Set("Authorization", "Bearer acme-member")

	w := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(w, req) })

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, rec.failures, 1)
	f := rec.failures[0]
	assert.Equal(t, "t-acme", f.TenantID)
	assert.Equal(t, "u9", f.UserID)
	assert.Contains(t, f.Detail, "nil map write")
}

func TestHandleRethrowsAbortHandler(t *testing.T) {
	rec := &captureRecorder{}
	eb := NewErrorBoundary(rec, nil)

	h := eb.Handle(func(http.ResponseWriter, *http.Request) error {
		panic(http.ErrAbortHandler)
	})

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), boundaryRequest(t, http.MethodGet, "/"))
	})
	assert.Empty(t, rec.failures)
}
