// AngelaMos | 2026
// dto.go

package tenant

import (
	"time"
)

type CreateTenantRequest struct {
	Name     string `json:"name"     validate:"required,min=1,max=100"`
	Slug     string `json:"slug"     validate:"required,min=2,max=63,slug"`
	IsActive *bool  `json:"isActive"`
}

// Active defaults to true when isActive is omitted.
func (r CreateTenantRequest) Active() bool {
	return r.IsActive == nil || *r.IsActive
}

type UpdateStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type TenantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
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

func ToTenantResponse(t *Tenant) TenantResponse {
	return TenantResponse{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func ToTenantResponseList(tenants []Tenant) []TenantResponse {
	out := make([]TenantResponse, 0, len(tenants))
	for i := range tenants {
		out = append(out, ToTenantResponse(&tenants[i]))
	}
	return out
}
