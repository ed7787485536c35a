// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLimiterBurstThenDeny(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newLocalLimiter()
	l.now = func() time.Time { return clock }

	limit := Per(time.Minute, 60, 2)

	for i := range 2 {
		res, err := l.allow("k", limit)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Allowed, "request %d", i)
	}

	res, err := l.allow("k", limit)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Allowed)
	assert.Equal(t, time.Second, res.RetryAfter)

	other, err := l.allow("other", limit)
	require.NoError(t, err)
	assert.Equal(t, 1, other.Allowed)

	clock = clock.Add(time.Second)
	res, err = l.allow("k", limit)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Allowed)
}

func TestLocalLimiterDropsIdleBuckets(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newLocalLimiter()
	l.now = func() time.Time { return clock }

	limit := PerMinute(60, 1)
	_, err := l.allow("stale", limit)
	require.NoError(t, err)

	clock = clock.Add(fallbackIdleTTL + time.Minute)
	_, err = l.allow("fresh", limit)
	require.NoError(t, err)

	assert.NotContains(t, l.buckets, "stale")
	assert.Contains(t, l.buckets, "fresh")
}

func TestLocalLimiterRejectsZeroRate(t *testing.T) {
	l := newLocalLimiter()
	_, err := l.allow("k", Per(time.Minute, 0, 1))
	assert.Error(t, err)
}

func TestKeyByIPIgnoresTenantSlug(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	r.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "ratelimit:ip:10.0.0.7", KeyByIP(r))

	r.Header.Set(TenantSlugHeader, "acme")
	assert.Equal(t, "ratelimit:ip:10.0.0.7", KeyByIP(r))
}

func TestRateLimiterSharesBucketAcrossSlugs(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	rl := NewRateLimiter(rdb, RateLimitConfig{Limit: Per(time.Minute, 60, 1)})
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(slug string) int {
		r := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
		r.RemoteAddr = "10.0.0.7:5555"
		r.Header.Set(TenantSlugHeader, slug)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve("acme"))
	assert.Equal(t, http.StatusTooManyRequests, serve("random-1"))
	assert.Equal(t, http.StatusTooManyRequests, serve("random-2"))
}

func TestWriteRateLimitExceeded(t *testing.T) {
	rec := httptest.NewRecorder()
	res, err := newLocalLimiter().allow("k", PerMinute(60, 1))
	require.NoError(t, err)
	res.RetryAfter = 1500 * time.Millisecond

	writeRateLimitExceeded(rec, res)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Code)
}
