// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/tenant-api/internal/audit"
	"github.com/carterperez-dev/templates/tenant-api/internal/core"
	"github.com/carterperez-dev/templates/tenant-api/internal/middleware"
)

// UserProvider looks up users for authentication. FindForLogin searches
// every tenant when tenantID is empty.
type UserProvider interface {
	FindForLogin(ctx context.Context, tenantID, email string) (*UserInfo, error)
	GetActiveByID(ctx context.Context, tenantID, id string) (*UserInfo, error)
	UpdatePasswordHash(ctx context.Context, tenantID, id, hash string) error
}

type RoleProvider interface {
	NamesForUser(ctx context.Context, tenantID, userID string) ([]string, error)
}

// TenantChecker confirms that a tenant is still active. Login without a
// tenant slug resolves the tenant from the user row and needs it.
type TenantChecker interface {
	IsActive(ctx context.Context, tenantID string) (bool, error)
}

type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

var ErrAuthUnavailable = core.ServiceUnavailableError(
	"authentication temporarily unavailable",
	"AUTH_UNAVAILABLE",
)

type Service struct {
	repo      Repository
	jwt       *JWTManager
	users     UserProvider
	roles     RoleProvider
	tenants   TenantChecker
	blacklist Blacklist
	hasher    *core.PasswordHasher
	audit     Auditor
	rotate    bool
	logger    *slog.Logger
}

type ServiceDeps struct {
	Repo      Repository
	JWT       *JWTManager
	Users     UserProvider
	Roles     RoleProvider
	Tenants   TenantChecker
	Blacklist Blacklist
	Hasher    *core.PasswordHasher
	Audit     Auditor
	// RotateRefreshTokens replaces the presented session on refresh.
	RotateRefreshTokens bool
	Logger              *slog.Logger
}

func NewService(deps ServiceDeps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		repo:      deps.Repo,
		jwt:       deps.JWT,
		users:     deps.Users,
		roles:     deps.Roles,
		tenants:   deps.Tenants,
		blacklist: deps.Blacklist,
		hasher:    deps.Hasher,
		audit:     deps.Audit,
		rotate:    deps.RotateRefreshTokens,
		logger:    deps.Logger,
	}
}

// Login verifies credentials and opens a session. Unknown email, wrong
// password and inactive tenant all produce the same error.
func (s *Service) Login(
	ctx context.Context,
	tenantID string,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	ctx, span := core.StartSpan(ctx, "auth.Login",
		attribute.String("tenant.id", tenantID))
	defer span.End()

	user, err := s.users.FindForLogin(ctx, tenantID, req.Email)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("get user: %w", err)
		}
		s.hasher.VerifyTimingSafe(req.Password, nil)
		s.loginFailed(ctx, tenantID, "", req.Email)
		return nil, core.InvalidCredentialsError()
	}

	if !s.hasher.VerifyTimingSafe(req.Password, &user.PasswordHash) {
		s.loginFailed(ctx, user.TenantID, user.ID, req.Email)
		return nil, core.InvalidCredentialsError()
	}

	if tenantID == "" && s.tenants != nil {
		active, err := s.tenants.IsActive(ctx, user.TenantID)
		if err != nil {
			return nil, fmt.Errorf("check tenant: %w", err)
		}
		if !active {
			s.loginFailed(ctx, user.TenantID, user.ID, req.Email)
			return nil, core.InvalidCredentialsError()
		}
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		if hash, err := s.hasher.Hash(req.Password); err == nil {
			if err := s.users.UpdatePasswordHash(ctx, user.TenantID, user.ID, hash); err != nil {
				s.logger.WarnContext(ctx, "password rehash failed", "error", err, "user_id", user.ID)
			}
		}
	}

	roles, err := s.roles.NamesForUser(ctx, user.TenantID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	access, err := s.jwt.CreateAccessToken(TokenClaims{
		UserID:   user.ID,
		Email:    user.Email,
		TenantID: user.TenantID,
		Roles:    roles,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refresh, err := s.openSession(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		TenantID: user.TenantID,
		UserID:   user.ID,
		Action:   audit.ActionLogin,
		Details:  fmt.Sprintf("user %s logged in from %s", user.ID, ipAddress),
	})

	return s.authResponse(user, roles, access, refresh.Token), nil
}

// Refresh issues a new access token for a live session. The presented
// refresh token stays valid unless rotation is enabled.
func (s *Service) Refresh(
	ctx context.Context,
	tenantID, refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	session, err := s.repo.FindByHash(ctx, tenantID, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.TokenInvalidError()
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	if session.IsExpired() {
		if err := s.repo.DeleteByID(ctx, tenantID, session.ID); err != nil {
			s.logger.WarnContext(ctx, "delete expired session", "error", err, "session_id", session.ID)
		}
		return nil, core.TokenExpiredError()
	}

	user, err := s.users.GetActiveByID(ctx, tenantID, session.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrDeleted) {
			return nil, core.TokenInvalidError()
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	roles, err := s.roles.NamesForUser(ctx, tenantID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	access, err := s.jwt.CreateAccessToken(TokenClaims{
		UserID:   user.ID,
		Email:    user.Email,
		TenantID: user.TenantID,
		Roles:    roles,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	token := refreshToken
	if s.rotate {
		if err := s.repo.DeleteByID(ctx, tenantID, session.ID); err != nil {
			return nil, fmt.Errorf("rotate session: %w", err)
		}
		refresh, err := s.openSession(ctx, user, userAgent, ipAddress)
		if err != nil {
			return nil, err
		}
		token = refresh.Token
	}

	s.audit.Record(ctx, audit.Entry{
		TenantID: tenantID,
		UserID:   user.ID,
		Action:   audit.ActionRefreshToken,
		Details:  fmt.Sprintf("session %s refreshed", session.ID),
	})

	return s.authResponse(user, roles, access, token), nil
}

// Logout ends every session of the caller and revokes the presented
// access token.
func (s *Service) Logout(ctx context.Context, claims *middleware.AccessTokenClaims) error {
	if claims == nil {
		return core.UnauthorizedError("authentication required")
	}

	if err := s.repo.DeleteByUser(ctx, claims.TenantID, claims.UserID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}

	if s.blacklist != nil && claims.JTI != "" {
		if err := s.blacklist.Revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
			return fmt.Errorf("revoke access token: %w", err)
		}
	}

	s.audit.Record(ctx, audit.Entry{
		TenantID: claims.TenantID,
		UserID:   claims.UserID,
		Action:   audit.ActionLogout,
		Details:  fmt.Sprintf("user %s logged out", claims.UserID),
	})

	return nil
}

// VerifyAccessToken checks the signature and then the revocation list.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if s.blacklist == nil || claims.JTI == "" {
		return claims, nil
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.JTI)
	if err != nil {
		s.logger.ErrorContext(ctx, "token blacklist unavailable", "error", err)
		return nil, ErrAuthUnavailable
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

// PurgeExpiredSessions removes expired sessions across all tenants.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}

func (s *Service) openSession(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress string,
) (*RefreshTokenData, error) {
	refresh, err := s.jwt.CreateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	_, err = s.repo.Create(ctx, &Session{
		ID:               uuid.New().String(),
		TenantID:         user.TenantID,
		UserID:           user.ID,
		RefreshTokenHash: refresh.Hash,
		ExpiresAt:        refresh.ExpiresAt,
		UserAgent:        userAgent,
		IPAddress:        ipAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return refresh, nil
}

func (s *Service) loginFailed(ctx context.Context, tenantID, userID, email string) {
	s.audit.Record(ctx, audit.Entry{
		TenantID: tenantID,
		UserID:   userID,
		Action:   audit.ActionLoginFailed,
		Details:  fmt.Sprintf("failed login for %s", email),
		Level:    audit.LevelWarn,
	})
}

func (s *Service) authResponse(
	user *UserInfo,
	roles []string,
	access *IssuedToken,
	refreshToken string,
) *AuthResponse {
	return &AuthResponse{
		User: UserSummary{
			ID:       user.ID,
			TenantID: user.TenantID,
			Email:    user.Email,
			Roles:    roles,
		},
		Tokens: TokenResponse{
			AccessToken:  access.Token,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.jwt.AccessTokenTTL().Seconds()),
			ExpiresAt:    access.ExpiresAt,
		},
	}
}

var _ middleware.TokenVerifier = (*Service)(nil)
