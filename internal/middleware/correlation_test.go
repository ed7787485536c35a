// AngelaMos | 2026
// correlation_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveCorrelation(inbound string) (*httptest.ResponseRecorder, string) {
	var seen string
	h := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if inbound != "" {
		req.Header.Set(CorrelationIDHeader, inbound)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec, seen
}

func TestCorrelationIDReusesInbound(t *testing.T) {
	rec, seen := serveCorrelation("abc")

	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get(CorrelationIDHeader))
}

func TestCorrelationIDMintsUnique(t *testing.T) {
	first, seenFirst := serveCorrelation("")
	second, seenSecond := serveCorrelation("")

	_, err := uuid.Parse(seenFirst)
	require.NoError(t, err)

	assert.Equal(t, seenFirst, first.Header().Get(CorrelationIDHeader))
	assert.Equal(t, seenSecond, second.Header().Get(CorrelationIDHeader))
	assert.NotEqual(t, seenFirst, seenSecond)
}
