// AngelaMos | 2026
// dto.go

package audit

import (
	"time"
)

type LogResponse struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenantId,omitempty"`
	UserID        string    `json:"userId,omitempty"`
	Action        string    `json:"action"`
	Details       string    `json:"details"`
	Level         string    `json:"level"`
	CorrelationID string    `json:"correlationId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ListParams struct {
	Page     int
	PageSize int
	Action   string
	Level    string
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

func ToLogResponse(l *Log) LogResponse {
	return LogResponse{
		ID:            l.ID,
		TenantID:      deref(l.TenantID),
		UserID:        deref(l.UserID),
		Action:        l.Action,
		Details:       l.Details,
		Level:         l.Level,
		CorrelationID: deref(l.CorrelationID),
		CreatedAt:     l.CreatedAt,
	}
}

func ToLogResponseList(logs []Log) []LogResponse {
	out := make([]LogResponse, 0, len(logs))
	for i := range logs {
		out = append(out, ToLogResponse(&logs[i]))
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
