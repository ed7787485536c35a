// AngelaMos | 2026
// errors.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
)

// HandlerFunc is an http handler that reports failure by returning an
// error instead of writing the error response itself.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Failure is what the boundary records for every failed request.
type Failure struct {
	TenantID      string
	UserID        string
	CorrelationID string
	Method        string
	Path          string
	Status        int
	Detail        string
}

type FailureRecorder interface {
	RecordFailure(ctx context.Context, f Failure) error
}

// ErrorBoundary turns handler errors and panics into the JSON error
// envelope. Each failure is recorded before the response is written;
// a recorder failure is logged and never changes the response.
type ErrorBoundary struct {
	recorder FailureRecorder
	logger   *slog.Logger
}

func NewErrorBoundary(recorder FailureRecorder, logger *slog.Logger) *ErrorBoundary {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorBoundary{recorder: recorder, logger: logger}
}

// Handle adapts fn to http.HandlerFunc. A panic in fn is recovered here,
// below the tenant and auth middleware, so the recorded failure carries
// the tenant and user of the request.
func (b *ErrorBoundary) Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer b.recoverPanic(w, r)

		if err := fn(w, r); err != nil {
			b.WriteError(w, r, err)
		}
	}
}

// WriteError records err and writes its public rendering. Its signature
// matches TenantResolverConfig.OnError.
func (b *ErrorBoundary) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := core.ToAppError(err)
	ctx := r.Context()

	f := Failure{
		TenantID:      GetTenantID(ctx),
		UserID:        GetUserID(ctx),
		CorrelationID: GetCorrelationID(ctx),
		Method:        r.Method,
		Path:          r.URL.Path,
		Status:        appErr.StatusCode,
		Detail:        err.Error(),
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		core.SetSpanError(ctx, err)
		b.logger.ErrorContext(ctx, "request failed",
			"error", err,
			"status", f.Status,
			"correlation_id", f.CorrelationID,
			"tenant_id", f.TenantID,
		)
	}

	if b.recorder != nil {
		if recErr := b.recorder.RecordFailure(context.WithoutCancel(ctx), f); recErr != nil {
			b.logger.ErrorContext(ctx, "record failure",
				"error", recErr,
				"correlation_id", f.CorrelationID,
			)
		}
	}

	core.JSONError(w, appErr)
}

// Recoverer converts a panic in the middleware below it into a recorded
// 500. Handler panics are already caught by Handle; this catches the rest
// with whatever request context exists at the top of the chain.
func (b *ErrorBoundary) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer b.recoverPanic(w, r)

		next.ServeHTTP(w, r)
	})
}

// recoverPanic must be deferred directly.
func (b *ErrorBoundary) recoverPanic(w http.ResponseWriter, r *http.Request) {
	rec := recover()
	if rec == nil {
		return
	}
	if rec == http.ErrAbortHandler {
		panic(rec)
	}

	b.logger.ErrorContext(r.Context(), "panic recovered",
		"panic", rec,
		"stack", string(debug.Stack()),
	)
	b.WriteError(w, r, fmt.Errorf("panic: %v", rec))
}
