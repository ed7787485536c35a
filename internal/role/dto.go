// AngelaMos | 2026
// dto.go

package role

import (
	"time"
)

type CreateRoleRequest struct {
	Name        string   `json:"name"        validate:"required,min=2,max=50"`
	Description *string  `json:"description" validate:"omitempty,max=255"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,required,max=100"`
}

type RoleResponse struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	IsDefault   bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type AssignmentResponse struct {
	TenantID  string    `json:"tenantId"`
	UserID    string    `json:"userId"`
	RoleID    string    `json:"roleId"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToRoleResponse(r *Role) RoleResponse {
	perms := []string(r.Permissions)
	if perms == nil {
		perms = []string{}
	}
	return RoleResponse{
		ID:          r.ID,
		TenantID:    r.TenantID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: perms,
		IsDefault:   r.IsDefault,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func ToRoleResponseList(roles []Role) []RoleResponse {
	out := make([]RoleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, ToRoleResponse(&roles[i]))
	}
	return out
}
