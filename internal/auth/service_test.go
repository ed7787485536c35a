// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/tenant-api/internal/audit"
	"github.com/carterperez-dev/templates/tenant-api/internal/core"
)

const testPassword = "Str0ng!Passw0rd"

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]*Session{}}
}

func (m *memSessions) Create(_ context.Context, s *Session) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *s
	stored.CreatedAt = time.Now()
	m.sessions[s.ID] = &stored
	out := stored
	return &out, nil
}

func (m *memSessions) FindByHash(_ context.Context, tenantID, hash string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sessions {
		if s.TenantID == tenantID && s.RefreshTokenHash == hash {
			out := *s
			return &out, nil
		}
	}
	return nil, fmt.Errorf("session: %w", core.ErrNotFound)
}

func (m *memSessions) DeleteByID(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok && s.TenantID == tenantID {
		delete(m.sessions, id)
	}
	return nil
}

func (m *memSessions) DeleteByUser(_ context.Context, tenantID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if s.TenantID == tenantID && s.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *memSessions) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, s := range m.sessions {
		if s.IsExpired() {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) all() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out
}

type fakeUsers struct {
	users    []*UserInfo
	inactive map[string]bool
	rehashed int
}

func (f *fakeUsers) FindForLogin(_ context.Context, tenantID, email string) (*UserInfo, error) {
	for _, u := range f.users {
		if u.Email == email && (tenantID == "" || u.TenantID == tenantID) && !f.inactive[u.ID] {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, core.ErrNotFound)
}

func (f *fakeUsers) GetActiveByID(_ context.Context, tenantID, id string) (*UserInfo, error) {
	for _, u := range f.users {
		if u.ID == id && u.TenantID == tenantID {
			if f.inactive[id] {
				return nil, fmt.Errorf("user %s: %w", id, core.ErrDeleted)
			}
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", id, core.ErrNotFound)
}

func (f *fakeUsers) UpdatePasswordHash(context.Context, string, string, string) error {
	f.rehashed++
	return nil
}

type fakeRoles map[string][]string

func (f fakeRoles) NamesForUser(_ context.Context, _, userID string) ([]string, error) {
	return f[userID], nil
}

type fakeTenants map[string]bool

func (f fakeTenants) IsActive(_ context.Context, tenantID string) (bool, error) {
	return f[tenantID], nil
}

type memBlacklist struct {
	revoked map[string]time.Time
	err     error
}

func (b *memBlacklist) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	if b.err != nil {
		return b.err
	}
	b.revoked[jti] = expiresAt
	return nil
}

func (b *memBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	_, ok := b.revoked[jti]
	return ok, nil
}

type recordingAuditor struct {
	entries []audit.Entry
}

func (r *recordingAuditor) Record(_ context.Context, e audit.Entry) {
	r.entries = append(r.entries, e)
}

func (r *recordingAuditor) last() audit.Entry {
	if len(r.entries) == 0 {
		return audit.Entry{}
	}
	return r.entries[len(r.entries)-1]
}

type authFixture struct {
	svc       *Service
	sessions  *memSessions
	users     *fakeUsers
	tenants   fakeTenants
	blacklist *memBlacklist
	audit     *recordingAuditor
}

func newAuthFixture(t *testing.T, rotate bool) *authFixture {
	t.Helper()

	hasher, err := core.NewPasswordHasher(4)
	require.NoError(t, err)

	hash, err := hasher.Hash(testPassword)
	require.NoError(t, err)

	f := &authFixture{
		sessions: newMemSessions(),
		users: &fakeUsers{
			users: []*UserInfo{
				{ID: "u1", TenantID: "t1", Email: "a@a.com", PasswordHash: hash},
				{ID: "u2", TenantID: "t2", Email: "b@b.com", PasswordHash: hash},
			},
			inactive: map[string]bool{},
		},
		tenants:   fakeTenants{"t1": true, "t2": false},
		blacklist: &memBlacklist{revoked: map[string]time.Time{}},
		audit:     &recordingAuditor{},
	}

	f.svc = NewService(ServiceDeps{
		Repo:                f.sessions,
		JWT:                 newTestJWT(t, 15*time.Minute),
		Users:               f.users,
		Roles:               fakeRoles{"u1": {"member", "tenant_admin"}},
		Tenants:             f.tenants,
		Blacklist:           f.blacklist,
		Hasher:              hasher,
		Audit:               f.audit,
		RotateRefreshTokens: rotate,
	})
	return f
}

func login(t *testing.T, f *authFixture, tenantID string) *AuthResponse {
	t.Helper()

	resp, err := f.svc.Login(context.Background(), tenantID,
		LoginRequest{Email: "a@a.com", Password: testPassword}, "test-agent", "10.0.0.1")
	require.NoError(t, err)
	return resp
}

func TestLoginCreatesSession(t *testing.T) {
	f := newAuthFixture(t, false)

	resp := login(t, f, "t1")

	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, "t1", resp.User.TenantID)
	assert.Equal(t, []string{"member", "tenant_admin"}, resp.User.Roles)
	assert.Equal(t, "Bearer", resp.Tokens.TokenType)
	assert.Equal(t, 900, resp.Tokens.ExpiresIn)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)

	sessions := f.sessions.all()
	require.Len(t, sessions, 1)
	s := sessions[0]
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "t1", s.TenantID)
	assert.Equal(t, core.HashToken(resp.Tokens.RefreshToken), s.RefreshTokenHash)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), s.ExpiresAt, time.Minute)
	assert.Equal(t, "test-agent", s.UserAgent)
	assert.Equal(t, "10.0.0.1", s.IPAddress)

	assert.Equal(t, audit.ActionLogin, f.audit.last().Action)
}

func TestLoginWithoutTenantUsesUserTenant(t *testing.T) {
	f := newAuthFixture(t, false)

	resp := login(t, f, "")
	assert.Equal(t, "t1", resp.User.TenantID)

	claims, err := f.svc.VerifyAccessToken(context.Background(), resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "t1", claims.TenantID)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()

	cases := []struct {
		name     string
		tenantID string
		req      LoginRequest
	}{
		{"wrong password", "t1", LoginRequest{Email: "a@a.com", Password: "Wr0ng!Password"}},
		{"unknown email", "t1", LoginRequest{Email: "nobody@a.com", Password: testPassword}},
		{"other tenant", "t2", LoginRequest{Email: "a@a.com", Password: testPassword}},
		{"inactive tenant", "", LoginRequest{Email: "b@b.com", Password: testPassword}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Login(ctx, tc.tenantID, tc.req, "", "")
			require.Error(t, err)

			appErr := core.ToAppError(err)
			assert.Equal(t, http.StatusForbidden, appErr.StatusCode)
			assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
			assert.Equal(t, "invalid credentials", appErr.Message)

			last := f.audit.last()
			assert.Equal(t, audit.ActionLoginFailed, last.Action)
			assert.Equal(t, audit.LevelWarn, last.Level)
		})
	}

	assert.Empty(t, f.sessions.all())
}

func TestLoginDisabledUser(t *testing.T) {
	f := newAuthFixture(t, false)
	f.users.inactive["u1"] = true

	_, err := f.svc.Login(context.Background(), "t1",
		LoginRequest{Email: "a@a.com", Password: testPassword}, "", "")
	assert.Equal(t, "INVALID_CREDENTIALS", core.ToAppError(err).Code)
}

func TestRefreshKeepsTokenByDefault(t *testing.T) {
	f := newAuthFixture(t, false)
	first := login(t, f, "t1")

	resp, err := f.svc.Refresh(context.Background(), "t1", first.Tokens.RefreshToken, "", "")
	require.NoError(t, err)

	assert.Equal(t, first.Tokens.RefreshToken, resp.Tokens.RefreshToken)
	assert.NotEqual(t, first.Tokens.AccessToken, resp.Tokens.AccessToken)
	assert.Len(t, f.sessions.all(), 1)
	assert.Equal(t, audit.ActionRefreshToken, f.audit.last().Action)
}

func TestRefreshRotates(t *testing.T) {
	f := newAuthFixture(t, true)
	first := login(t, f, "t1")

	resp, err := f.svc.Refresh(context.Background(), "t1", first.Tokens.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.Tokens.RefreshToken, resp.Tokens.RefreshToken)
	assert.Len(t, f.sessions.all(), 1)

	_, err = f.svc.Refresh(context.Background(), "t1", first.Tokens.RefreshToken, "", "")
	assert.Equal(t, "TOKEN_INVALID", core.ToAppError(err).Code)
}

func TestRefreshFailures(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()
	resp := login(t, f, "t1")

	_, err := f.svc.Refresh(ctx, "t1", "unknown-token", "", "")
	assert.Equal(t, "TOKEN_INVALID", core.ToAppError(err).Code)

	_, err = f.svc.Refresh(ctx, "t2", resp.Tokens.RefreshToken, "", "")
	assert.Equal(t, "TOKEN_INVALID", core.ToAppError(err).Code)

	for id, s := range f.sessions.sessions {
		s.ExpiresAt = time.Now().Add(-time.Minute)
		f.sessions.sessions[id] = s
	}
	_, err = f.svc.Refresh(ctx, "t1", resp.Tokens.RefreshToken, "", "")
	assert.Equal(t, "TOKEN_EXPIRED", core.ToAppError(err).Code)
	assert.Empty(t, f.sessions.all())
}

func TestRefreshDisabledUser(t *testing.T) {
	f := newAuthFixture(t, false)
	resp := login(t, f, "t1")
	f.users.inactive["u1"] = true

	_, err := f.svc.Refresh(context.Background(), "t1", resp.Tokens.RefreshToken, "", "")
	assert.Equal(t, "TOKEN_INVALID", core.ToAppError(err).Code)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()
	resp := login(t, f, "t1")

	claims, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, claims))
	assert.Empty(t, f.sessions.all())
	assert.Contains(t, f.blacklist.revoked, claims.JTI)
	assert.Equal(t, audit.ActionLogout, f.audit.last().Action)

	_, err = f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = f.svc.Refresh(ctx, "t1", resp.Tokens.RefreshToken, "", "")
	assert.Equal(t, "TOKEN_INVALID", core.ToAppError(err).Code)
}

func TestLogoutRequiresClaims(t *testing.T) {
	f := newAuthFixture(t, false)

	err := f.svc.Logout(context.Background(), nil)
	assert.Equal(t, http.StatusUnauthorized, core.ToAppError(err).StatusCode)
}

func TestVerifyFailsClosedWithoutBlacklist(t *testing.T) {
	f := newAuthFixture(t, false)
	resp := login(t, f, "t1")

	f.blacklist.err = errors.New("redis: connection refused")

	_, err := f.svc.VerifyAccessToken(context.Background(), resp.Tokens.AccessToken)
	appErr := core.ToAppError(err)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.StatusCode)
	assert.Equal(t, "AUTH_UNAVAILABLE", appErr.Code)
}

func TestPurgeExpiredSessions(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()

	login(t, f, "t1")
	_, err := f.sessions.Create(ctx, &Session{
		ID:        "old",
		TenantID:  "t1",
		UserID:    "u1",
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	n, err := f.svc.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, f.sessions.all(), 1)
}
