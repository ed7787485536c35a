// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
)

var ErrRateLimited = errors.New("rate limited")

type RateLimitConfig struct {
	Limit      redis_rate.Limit
	KeyFunc    func(*http.Request) string
	FailOpen   bool
	BypassFunc func(*http.Request) bool
	OnLimited  func(http.ResponseWriter, *http.Request, *redis_rate.Result)
}

type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	config   RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}

	return &RateLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		fallback: newLocalLimiter(),
		config:   cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.config.BypassFunc != nil && rl.config.BypassFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.config.KeyFunc(r)
		res, err := rl.allow(r.Context(), key)
		if err != nil {
			if rl.config.FailOpen {
				slog.Warn("rate limiter error, failing open",
					"error", err,
					"key", key,
				)
				next.ServeHTTP(w, r)
				return
			}
			core.JSONError(w, core.ServiceUnavailableError(
				"rate limiter unavailable",
				"RATE_LIMITER_UNAVAILABLE",
			))
			return
		}

		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			if rl.config.OnLimited != nil {
				rl.config.OnLimited(w, r, res)
				return
			}
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(
	ctx context.Context,
	key string,
) (*redis_rate.Result, error) {
	res, err := rl.limiter.Allow(ctx, key, rl.config.Limit)
	if err != nil {
		return rl.fallback.allow(key, rl.config.Limit)
	}
	return res, nil
}

// KeyByIP is the default key. The limiter runs before tenant resolution,
// so a client-chosen slug must never be part of the key.
func KeyByIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		ip := strings.TrimSpace(ips[len(ips)-1])
		return "ratelimit:ip:" + ip
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return "ratelimit:ip:" + xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	return "ratelimit:ip:" + ip
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))

	windowSecs := int(limit.Period.Seconds())
	h.Set("RateLimit-Policy", fmt.Sprintf(`%d;w=%d`, limit.Rate, windowSecs))
	h.Set(
		"RateLimit",
		fmt.Sprintf(`%d;t=%d`, res.Remaining, int(res.ResetAfter.Seconds())),
	)
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := int(res.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	core.JSONError(w, core.NewAppError(
		ErrRateLimited,
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retryAfter),
		http.StatusTooManyRequests,
		"RATE_LIMITED",
	))
}

const fallbackIdleTTL = 10 * time.Minute

type fallbackBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter serves decisions while Redis is unreachable. Buckets are
// per instance, so the effective limit is multiplied by the replica count
// until Redis recovers.
type localLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*fallbackBucket
	lastSweep time.Time
	now       func() time.Time
}

func newLocalLimiter() *localLimiter {
	return &localLimiter{
		buckets: make(map[string]*fallbackBucket),
		now:     time.Now,
	}
}

func (l *localLimiter) allow(
	key string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	if limit.Rate <= 0 || limit.Period <= 0 {
		return nil, fmt.Errorf("invalid limit %s", limit)
	}

	perSecond := float64(limit.Rate) / limit.Period.Seconds()
	interval := time.Duration(float64(time.Second) / perSecond)
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) > fallbackIdleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > fallbackIdleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &fallbackBucket{limiter: rate.NewLimiter(rate.Limit(perSecond), limit.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)
	remaining := max(int(b.limiter.TokensAt(now)), 0)
	l.mu.Unlock()

	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  remaining,
		RetryAfter: -1,
		ResetAfter: interval,
	}
	if allowed {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}

	return res, nil
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return Per(time.Minute, rate, burst)
}

func Per(period time.Duration, rate, burst int) redis_rate.Limit {
	if period <= 0 {
		period = time.Minute
	}
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: period,
	}
}
