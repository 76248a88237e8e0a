package events

import (
	"time"

	"github.com/spec-kit/routing-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketAssigned        EventType = "ticket_assigned"
	EventAssignmentChanged     EventType = "assignment_changed"
	EventSLAWarning            EventType = "sla_warning"
	EventSLABreach             EventType = "sla_breach"
	EventFirstResponseRecorded EventType = "first_response_recorded"
)

// Event represents a domain event emitted by the engine.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AgentID    string                `json:"agent_id"`
	Priority   domain.TicketPriority `json:"priority"`
	Confidence float64               `json:"confidence"`
	Reason     string                `json:"reason"`
}

// AssignmentChangedPayload payload, emitted per rebalancer move.
type AssignmentChangedPayload struct {
	FromAgentID string                `json:"from_agent_id"`
	ToAgentID   string                `json:"to_agent_id"`
	Priority    domain.TicketPriority `json:"priority"`
}

// SLAAlertKind distinguishes which SLA clock raised an alert.
type SLAAlertKind string

const (
	SLAAlertResponse   SLAAlertKind = "response"
	SLAAlertResolution SLAAlertKind = "resolution"
)

// SLAAlertPayload payload for warning and breach events.
type SLAAlertPayload struct {
	Kind            SLAAlertKind          `json:"kind"`
	State           domain.SLAState       `json:"state"`
	ElapsedHours    float64               `json:"elapsed_hours"`
	AssignedAgentID *string               `json:"assigned_agent_id,omitempty"`
	Priority        domain.TicketPriority `json:"priority"`
}

// FirstResponseRecordedPayload payload.
type FirstResponseRecordedPayload struct {
	AgentID     string    `json:"agent_id"`
	RespondedAt time.Time `json:"responded_at"`
}
