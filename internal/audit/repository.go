// AngelaMos | 2026
// repository.go

package audit

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
	"github.com/carterperez-dev/templates/tenant-api/internal/repository"
)

type Repository interface {
	Insert(ctx context.Context, log *Log) error
	List(ctx context.Context, tenantID string, params ListParams) ([]Log, int, error)
}

type repo struct {
	db    core.DBTX
	store *repository.Store[Log]
}

func NewRepository(db core.DBTX) Repository {
	return &repo{
		db: db,
		store: repository.NewStore[Log](db, repository.Table{
			Name:         "audit_logs",
			Columns:      logColumns,
			DefaultOrder: "created_at DESC",
		}),
	}
}

// Insert bypasses the tenant-scoped store: failures raised before a
// tenant is resolved are stored with a NULL tenant. It never joins a
// request transaction, so a failed insert cannot abort one.
func (r *repo) Insert(ctx context.Context, log *Log) error {
	query := `
		INSERT INTO audit_logs (
			id, tenant_id, user_id, action, details, level, correlation_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &log.CreatedAt, query,
		log.ID,
		log.TenantID,
		log.UserID,
		log.Action,
		log.Details,
		log.Level,
		log.CorrelationID,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	return nil
}

func (r *repo) List(
	ctx context.Context,
	tenantID string,
	params ListParams,
) ([]Log, int, error) {
	params.Normalize()

	filter := repository.Filter{}
	if params.Action != "" {
		filter["action"] = params.Action
	}
	if params.Level != "" {
		filter["level"] = params.Level
	}

	total, err := r.store.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}

	logs, err := r.store.FindWithFilters(ctx, tenantID, repository.Query{
		Where:  filter,
		Limit:  uint64(params.PageSize),
		Offset: uint64(params.Offset()),
	})
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
