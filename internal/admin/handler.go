// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
	"github.com/carterperez-dev/templates/tenant-api/internal/middleware"
)

// TenantCounter reports platform-wide tenant totals.
type TenantCounter interface {
	CountTenants(ctx context.Context) (total, active int, err error)
}

type Handler struct {
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	redisPing  func(ctx context.Context) error
	dbPing     func(ctx context.Context) error
	tenants    TenantCounter
}

type HandlerConfig struct {
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error
	DBPing     func(ctx context.Context) error
	Tenants    TenantCounter
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		redisPing:  cfg.RedisPing,
		dbPing:     cfg.DBPing,
		tenants:    cfg.Tenants,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	eb *middleware.ErrorBoundary,
	authenticator, superAdmin func(http.Handler) http.Handler,
) {
	r.Route("/admin/stats", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(superAdmin)

		r.Get("/", eb.Handle(h.GetSystemStats))
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	response := SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: ping(ctx, h.dbPing),
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: ping(ctx, h.redisPing),
			Stats:   h.getRedisStats(),
		},
		Runtime: runtimeStats(),
	}

	if h.tenants != nil {
		total, active, err := h.tenants.CountTenants(ctx)
		if err != nil {
			return err
		}
		response.Tenants = &TenantStats{Total: total, Active: active}
	}

	core.OK(w, response)
	return nil
}

func ping(ctx context.Context, fn func(context.Context) error) bool {
	if fn == nil {
		return true
	}
	return fn(ctx) == nil
}

func runtimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}

type SystemStatsResponse struct {
	Tenants  *TenantStats   `json:"tenants,omitempty"`
	Database DatabaseStatus `json:"database"`
	Redis    RedisStatus    `json:"redis"`
	Runtime  RuntimeStats   `json:"runtime"`
}

type TenantStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"maxOpenConnections"`
	OpenConnections    int    `json:"openConnections"`
	InUse              int    `json:"inUse"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"waitCount"`
	WaitDuration       string `json:"waitDuration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"totalConns"`
	IdleConns  uint32 `json:"idleConns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
	NumCPU       int    `json:"numCpu"`
	MemAlloc     uint64 `json:"memAllocBytes"`
	MemSys       uint64 `json:"memSysBytes"`
	NumGC        uint32 `json:"numGc"`
}
