// AngelaMos | 2026
// repository_test.go

package tenant

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestRepositoryGetActiveBySlug(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(
		`FROM tenants WHERE slug = $1 AND is_active = true`,
	)).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "slug", "is_active", "created_at", "updated_at"},
		).AddRow("t1", "Acme", "acme", true, now, now))

	tn, err := repo.GetActiveBySlug(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "t1", tn.ID)
	assert.True(t, tn.IsActive)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetActiveBySlugNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tenants WHERE slug = $1`)).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetActiveBySlug(context.Background(), "ghost")
	require.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCount(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`COUNT(*) FILTER (WHERE is_active)`)).
		WillReturnRows(sqlmock.NewRows([]string{"total", "active"}).AddRow(5, 3))

	total, active, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, 3, active)

	require.NoError(t, mock.ExpectationsWereMet())
}
