// AngelaMos | 2026
// service.go

package audit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/tenant-api/internal/middleware"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Write stores e and mirrors it to the application log at the matching
// level.
func (s *Service) Write(ctx context.Context, e Entry) error {
	if e.Level == "" {
		e.Level = LevelInfo
	}
	if e.CorrelationID == "" {
		e.CorrelationID = middleware.GetCorrelationID(ctx)
	}

	log := &Log{
		ID:            uuid.New().String(),
		TenantID:      nullable(e.TenantID),
		UserID:        nullable(e.UserID),
		Action:        e.Action,
		Details:       e.Details,
		Level:         e.Level,
		CorrelationID: nullable(e.CorrelationID),
	}

	s.logger.Log(ctx, slogLevel(e.Level), "audit",
		"action", e.Action,
		"tenant_id", e.TenantID,
		"user_id", e.UserID,
		"correlation_id", e.CorrelationID,
		"details", e.Details,
	)

	if err := s.repo.Insert(ctx, log); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}

	return nil
}

// Record is Write for callers whose own work already succeeded: a storage
// failure is logged and swallowed.
func (s *Service) Record(ctx context.Context, e Entry) {
	if err := s.Write(context.WithoutCancel(ctx), e); err != nil {
		s.logger.ErrorContext(ctx, "audit write failed",
			"error", err,
			"action", e.Action,
			"correlation_id", e.CorrelationID,
		)
	}
}

func (s *Service) RecordFailure(ctx context.Context, f middleware.Failure) error {
	return s.Write(ctx, Entry{
		TenantID:      f.TenantID,
		UserID:        f.UserID,
		CorrelationID: f.CorrelationID,
		Action:        ActionUnhandledError,
		Level:         LevelError,
		Details: fmt.Sprintf(
			"%s %s -> %d %s: %s",
			f.Method, f.Path, f.Status, http.StatusText(f.Status), f.Detail,
		),
	})
}

func (s *Service) List(
	ctx context.Context,
	tenantID string,
	params ListParams,
) ([]Log, int, error) {
	return s.repo.List(ctx, tenantID, params)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func slogLevel(level string) slog.Level {
	switch level {
	case LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

var _ middleware.FailureRecorder = (*Service)(nil)
