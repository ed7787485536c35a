// AngelaMos | 2026
// service_test.go

package tenant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/tenant-api/internal/audit"
	"github.com/carterperez-dev/templates/tenant-api/internal/core"
)

type memRepo struct {
	tenants map[string]*Tenant
	reads   int
}

func newMemRepo() *memRepo {
	return &memRepo{tenants: map[string]*Tenant{}}
}

func (m *memRepo) Create(_ context.Context, t *Tenant) error {
	for _, existing := range m.tenants {
		if existing.Slug == t.Slug {
			return fmt.Errorf("create tenant: %w", core.ErrDuplicateKey)
		}
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	stored := *t
	m.tenants[t.ID] = &stored
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Tenant, error) {
	t, ok := m.tenants[id]
	if !ok {
		return nil, fmt.Errorf("get tenant: %w", core.ErrNotFound)
	}
	out := *t
	return &out, nil
}

func (m *memRepo) GetBySlug(_ context.Context, slug string) (*Tenant, error) {
	for _, t := range m.tenants {
		if t.Slug == slug {
			out := *t
			return &out, nil
		}
	}
	return nil, fmt.Errorf("get tenant by slug: %w", core.ErrNotFound)
}

func (m *memRepo) GetActiveBySlug(ctx context.Context, slug string) (*Tenant, error) {
	m.reads++
	t, err := m.GetBySlug(ctx, slug)
	if err != nil || !t.IsActive {
		return nil, fmt.Errorf("get active tenant: %w", core.ErrNotFound)
	}
	return t, nil
}

func (m *memRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	_, err := m.GetBySlug(ctx, slug)
	return err == nil, nil
}

func (m *memRepo) SetActive(_ context.Context, id string, active bool) (*Tenant, error) {
	t, ok := m.tenants[id]
	if !ok {
		return nil, fmt.Errorf("set tenant status: %w", core.ErrNotFound)
	}
	t.IsActive = active
	out := *t
	return &out, nil
}

func (m *memRepo) List(_ context.Context, _ ListParams) ([]Tenant, int, error) {
	out := make([]Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (m *memRepo) Count(context.Context) (int, int, error) {
	active := 0
	for _, t := range m.tenants {
		if t.IsActive {
			active++
		}
	}
	return len(m.tenants), active, nil
}

type memCache struct {
	entries map[string]*Tenant
	err     error
}

func (c *memCache) Get(_ context.Context, slug string) (*Tenant, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.entries[slug], nil
}

func (c *memCache) Set(_ context.Context, t *Tenant) error {
	if c.err != nil {
		return c.err
	}
	c.entries[t.Slug] = t
	return nil
}

func (c *memCache) Invalidate(_ context.Context, slug string) error {
	delete(c.entries, slug)
	return nil
}

type fakeSeeder struct {
	seeded []string
	err    error
}

func (f *fakeSeeder) SeedDefaults(_ context.Context, tenantID string) error {
	if f.err != nil {
		return f.err
	}
	f.seeded = append(f.seeded, tenantID)
	return nil
}

type recordingAuditor struct {
	actions []string
}

func (r *recordingAuditor) Record(_ context.Context, e audit.Entry) {
	r.actions = append(r.actions, e.Action)
}

// rollbackTx restores the tenant rows when fn fails.
type rollbackTx struct {
	repo *memRepo
}

func (tx rollbackTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := make(map[string]Tenant, len(tx.repo.tenants))
	for id, t := range tx.repo.tenants {
		snap[id] = *t
	}
	if err := fn(ctx); err != nil {
		tx.repo.tenants = make(map[string]*Tenant, len(snap))
		for id, t := range snap {
			tx.repo.tenants[id] = &t
		}
		return err
	}
	return nil
}

type tenantFixture struct {
	svc    *Service
	repo   *memRepo
	cache  *memCache
	seeder *fakeSeeder
	audit  *recordingAuditor
}

func newTenantFixture() *tenantFixture {
	f := &tenantFixture{
		repo:   newMemRepo(),
		cache:  &memCache{entries: map[string]*Tenant{}},
		seeder: &fakeSeeder{},
		audit:  &recordingAuditor{},
	}
	f.svc = NewService(ServiceDeps{
		Repo:  f.repo,
		Tx:    rollbackTx{repo: f.repo},
		Cache: f.cache,
		Roles: f.seeder,
		Audit: f.audit,
	})
	return f
}

func TestProvision(t *testing.T) {
	f := newTenantFixture()

	tn, err := f.svc.Provision(context.Background(), CreateTenantRequest{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)

	assert.NotEmpty(t, tn.ID)
	assert.True(t, tn.IsActive)
	assert.Equal(t, []string{tn.ID}, f.seeder.seeded)
	assert.Equal(t, []string{audit.ActionProvisionTenant}, f.audit.actions)
}

func TestProvisionInactive(t *testing.T) {
	f := newTenantFixture()
	inactive := false

	tn, err := f.svc.Provision(context.Background(),
		CreateTenantRequest{Name: "Acme", Slug: "acme", IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, tn.IsActive)

	_, err = f.svc.GetActiveBySlug(context.Background(), "acme")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestProvisionDuplicateSlug(t *testing.T) {
	f := newTenantFixture()
	ctx := context.Background()

	_, err := f.svc.Provision(ctx, CreateTenantRequest{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)

	_, err = f.svc.Provision(ctx, CreateTenantRequest{Name: "Other", Slug: "acme"})
	appErr := core.ToAppError(err)
	assert.Equal(t, http.StatusConflict, appErr.StatusCode)
	assert.Equal(t, "TENANT_ALREADY_EXISTS", appErr.Code)
	assert.Len(t, f.seeder.seeded, 1)
}

func TestGetActiveBySlugUsesCache(t *testing.T) {
	f := newTenantFixture()
	ctx := context.Background()

	tn, err := f.svc.Provision(ctx, CreateTenantRequest{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)

	info, err := f.svc.GetActiveBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, tn.ID, info.ID)
	assert.Equal(t, 1, f.repo.reads)

	info, err = f.svc.GetActiveBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, tn.ID, info.ID)
	assert.Equal(t, 1, f.repo.reads)
}

func TestGetActiveBySlugCacheFailureFallsThrough(t *testing.T) {
	f := newTenantFixture()
	ctx := context.Background()

	_, err := f.svc.Provision(ctx, CreateTenantRequest{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)

	f.cache.err = errors.New("redis down")

	info, err := f.svc.GetActiveBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", info.Slug)
}

func TestSetActiveInvalidatesCache(t *testing.T) {
	f := newTenantFixture()
	ctx := context.Background()

	tn, err := f.svc.Provision(ctx, CreateTenantRequest{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)
	_, err = f.svc.GetActiveBySlug(ctx, "acme")
	require.NoError(t, err)

	_, err = f.svc.SetActive(ctx, tn.ID, false)
	require.NoError(t, err)
	assert.NotContains(t, f.cache.entries, "acme")
	assert.Contains(t, f.audit.actions, audit.ActionTenantStatus)

	_, err = f.svc.GetActiveBySlug(ctx, "acme")
	require.ErrorIs(t, err, core.ErrNotFound)

	active, err := f.svc.IsActive(ctx, tn.ID)
	require.NoError(t, err)
	assert.False(t, active)

	active, err = f.svc.IsActive(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestCountTenants(t *testing.T) {
	f := newTenantFixture()
	ctx := context.Background()
	inactive := false

	_, err := f.svc.Provision(ctx, CreateTenantRequest{Name: "A", Slug: "a"})
	require.NoError(t, err)
	_, err = f.svc.Provision(ctx, CreateTenantRequest{Name: "B", Slug: "b", IsActive: &inactive})
	require.NoError(t, err)

	total, active, err := f.svc.CountTenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, active)
}

func TestProvisionRollsBackWhenSeedingFails(t *testing.T) {
	f := newTenantFixture()
	ctx := context.Background()
	f.seeder.err = errors.New("connection reset")

	_, err := f.svc.Provision(ctx, CreateTenantRequest{Name: "Acme", Slug: "acme"})
	require.Error(t, err)

	exists, err := f.repo.ExistsBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, f.audit.actions)

	f.seeder.err = nil
	tn, err := f.svc.Provision(ctx, CreateTenantRequest{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)
	assert.Equal(t, []string{tn.ID}, f.seeder.seeded)
}
