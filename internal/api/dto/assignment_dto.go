package dto

import (
	"time"

	"github.com/spec-kit/routing-engine/internal/domain"
)

// AssignRequest payload.
type AssignRequest struct {
	TicketID        string                `json:"ticket_id"`
	Priority        domain.TicketPriority `json:"priority"`
	CategoryID      *string               `json:"category_id,omitempty"`
	SubcategoryID   *string               `json:"subcategory_id,omitempty"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	CustomerID      string                `json:"customer_id"`
	CreatedAt       time.Time             `json:"created_at"`
	ExplicitAgentID *string               `json:"explicit_agent_id,omitempty"`
}

// Context converts the request into the engine's assignment input.
func (r AssignRequest) Context() domain.TicketContext {
	return domain.TicketContext{
		ID:            r.TicketID,
		Priority:      r.Priority,
		CategoryID:    r.CategoryID,
		SubcategoryID: r.SubcategoryID,
		Title:         r.Title,
		Description:   r.Description,
		CustomerID:    r.CustomerID,
		CreatedAt:     r.CreatedAt,
	}
}

// AssignResponse mirrors domain.AssignmentResult.
type AssignResponse struct {
	Success             bool     `json:"success"`
	AssignedAgentID     *string  `json:"assigned_agent_id,omitempty"`
	Reason              string   `json:"reason"`
	Confidence          float64  `json:"confidence"`
	AlternativeAgentIDs []string `json:"alternative_agent_ids,omitempty"`
}

// NewAssignResponse builds the response from the engine result.
func NewAssignResponse(result *domain.AssignmentResult) AssignResponse {
	return AssignResponse{
		Success:             result.Success,
		AssignedAgentID:     result.AssignedAgentID,
		Reason:              result.Reason,
		Confidence:          result.Confidence,
		AlternativeAgentIDs: result.AlternativeAgentIDs,
	}
}

// RebalanceResponse is the audit report of one rebalance pass.
type RebalanceResponse struct {
	Reassignments []ReassignmentEntry `json:"reassignments"`
}

// ReassignmentEntry is one audited move.
type ReassignmentEntry struct {
	TicketID    string `json:"ticket_id"`
	FromAgentID string `json:"from_agent_id"`
	ToAgentID   string `json:"to_agent_id"`
}
