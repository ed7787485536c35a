// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
	"github.com/carterperez-dev/templates/tenant-api/internal/repository"
)

type Repository interface {
	Create(ctx context.Context, s *Session) (*Session, error)
	FindByHash(ctx context.Context, tenantID, hash string) (*Session, error)
	DeleteByID(ctx context.Context, tenantID, id string) error
	DeleteByUser(ctx context.Context, tenantID, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type repo struct {
	db       core.DBTX
	sessions *repository.Store[Session]
}

func NewRepository(db core.DBTX) Repository {
	return &repo{
		db: db,
		sessions: repository.NewStore[Session](db, repository.Table{
			Name:         "sessions",
			Columns:      sessionColumns,
			DefaultOrder: "created_at DESC",
		}),
	}
}

func (r *repo) Create(ctx context.Context, s *Session) (*Session, error) {
	return r.sessions.Create(ctx, s.TenantID, repository.Values{
		"id":                 s.ID,
		"user_id":            s.UserID,
		"refresh_token_hash": s.RefreshTokenHash,
		"expires_at":         s.ExpiresAt,
		"user_agent":         s.UserAgent,
		"ip_address":         s.IPAddress,
	})
}

func (r *repo) FindByHash(ctx context.Context, tenantID, hash string) (*Session, error) {
	return r.sessions.FindFirst(ctx, tenantID, repository.Filter{
		"refresh_token_hash": hash,
	})
}

// DeleteByID is idempotent; a session that is already gone is not an
// error.
func (r *repo) DeleteByID(ctx context.Context, tenantID, id string) error {
	_, err := r.sessions.Delete(ctx, tenantID, repository.Filter{"id": id})
	return err
}

func (r *repo) DeleteByUser(ctx context.Context, tenantID, userID string) error {
	_, err := r.sessions.Delete(ctx, tenantID, repository.Filter{"user_id": userID})
	return err
}

// DeleteExpired purges expired sessions of every tenant.
func (r *repo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := core.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	return rows, nil
}
