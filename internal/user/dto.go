// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type CreateUserRequest struct {
	Email           string `json:"email"           validate:"required,email,max=255"`
	Password        string `json:"password"        validate:"required,strongpassword,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	TenantID        string `json:"tenantId"        validate:"omitempty,max=64"`
}

type UpdateUserRequest struct {
	Email           *string `json:"email,omitempty"           validate:"omitempty,email,max=255"`
	Password        *string `json:"password,omitempty"        validate:"omitempty,strongpassword,max=128"`
	ConfirmPassword *string `json:"confirmPassword,omitempty" validate:"omitempty,max=128"`
}

// PasswordConfirmed reports whether a password change, if any, is
// confirmed.
func (r UpdateUserRequest) PasswordConfirmed() bool {
	if r.Password == nil {
		return true
	}
	return r.ConfirmPassword != nil && *r.ConfirmPassword == *r.Password
}

type UpdateStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type UserResponse struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenantId"`
	Email     string     `json:"email"`
	IsActive  bool       `json:"isActive"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type ListParams struct {
	Page     int
	PageSize int
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		TenantID:  u.TenantID,
		Email:     u.Email,
		IsActive:  u.IsActive(),
		DeletedAt: u.DeletedAt,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}
