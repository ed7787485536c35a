// AngelaMos | 2026
// entity.go

package audit

import (
	"time"
)

const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

const (
	ActionCreateUser        = "CREATE_USER"
	ActionEditUser          = "EDIT_USER"
	ActionEnableDisableUser = "ENABLE_DISABLE_USER"
	ActionAnonymizeUser     = "ANONYMIZE_USER"
	ActionListAllUsers      = "LIST_ALL_USERS"
	ActionListActiveUsers   = "LIST_ALL_ACTIVE_USERS"
	ActionLogin             = "LOGIN"
	ActionLoginFailed       = "LOGIN_FAILED"
	ActionLogout            = "LOGOUT"
	ActionRefreshToken      = "REFRESH_TOKEN"
	ActionCreateRole        = "CREATE_ROLE"
	ActionAssignRole        = "ASSIGN_ROLE"
	ActionCreateProfile     = "CREATE_PROFILE"
	ActionDeleteProfile     = "DELETE_PROFILE"
	ActionUploadPhoto       = "UPLOAD_PROFILE_PHOTO"
	ActionProvisionTenant   = "PROVISION_TENANT"
	ActionTenantStatus      = "TENANT_STATUS"
	ActionUnhandledError    = "UNHANDLED_ERROR"
)

// Log is one stored audit row. Rows are never updated or deleted.
type Log struct {
	ID            string    `db:"id"`
	TenantID      *string   `db:"tenant_id"`
	UserID        *string   `db:"user_id"`
	Action        string    `db:"action"`
	Details       string    `db:"details"`
	Level         string    `db:"level"`
	CorrelationID *string   `db:"correlation_id"`
	CreatedAt     time.Time `db:"created_at"`
}

var logColumns = []string{
	"id", "tenant_id", "user_id", "action", "details",
	"level", "correlation_id", "created_at",
}

// Entry is what callers hand to the service. Empty strings are stored as
// NULL; an empty CorrelationID is taken from the context.
type Entry struct {
	TenantID      string
	UserID        string
	Action        string
	Details       string
	Level         string
	CorrelationID string
}
