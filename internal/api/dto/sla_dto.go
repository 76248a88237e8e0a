package dto

import (
	"time"

	"github.com/spec-kit/routing-engine/internal/domain"
)

// SLAStatusResponse mirrors domain.SLAStatus.
type SLAStatusResponse struct {
	TicketID             string          `json:"ticket_id"`
	ResponseStatus       domain.SLAState `json:"response_status"`
	ResolutionStatus     domain.SLAState `json:"resolution_status"`
	ResponseElapsedHours float64         `json:"response_elapsed_hours"`
	TotalElapsedHours    float64         `json:"total_elapsed_hours"`
	FirstResponseAt      *time.Time      `json:"first_response_at,omitempty"`
	IsActive             bool            `json:"is_active"`
}

// NewSLAStatusResponse builds the response from a derived status.
func NewSLAStatusResponse(status domain.SLAStatus) SLAStatusResponse {
	return SLAStatusResponse{
		TicketID:             status.TicketID,
		ResponseStatus:       status.ResponseStatus,
		ResolutionStatus:     status.ResolutionStatus,
		ResponseElapsedHours: status.ResponseElapsedHours,
		TotalElapsedHours:    status.TotalElapsedHours,
		FirstResponseAt:      status.FirstResponseAt,
		IsActive:             status.IsActive,
	}
}

// FirstResponseRequest payload for comment/chat ingestion paths.
type FirstResponseRequest struct {
	AgentID     string    `json:"agent_id"`
	RespondedAt time.Time `json:"responded_at"`
}

// FirstResponseResponse reports whether this call recorded the first
// response.
type FirstResponseResponse struct {
	Recorded bool `json:"recorded"`
}
