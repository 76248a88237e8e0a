package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// IsActive reports whether SLA clocks are still running for the status.
func (s TicketStatus) IsActive() bool {
	switch s {
	case TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled:
		return false
	}
	return true
}

// TicketPriority enumerates routing urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Rank orders priorities from least (0) to most urgent.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityLow:
		return 0
	case TicketPriorityMedium:
		return 1
	case TicketPriorityHigh:
		return 2
	case TicketPriorityUrgent:
		return 3
	}
	return 0
}

// TicketContext carries the ticket fields the engine needs to make a routing
// decision. It is immutable for the duration of one assignment attempt.
type TicketContext struct {
	ID            string
	Priority      TicketPriority
	CategoryID    *string
	SubcategoryID *string
	Title         string
	Description   string
	CustomerID    string
	CreatedAt     time.Time
}

// TicketRecord is the stored view of a ticket as returned by the external
// storage collaborator. The engine reads it, never writes it.
type TicketRecord struct {
	ID                string
	CustomerID        string
	AssigneeID        *string
	CategoryID        *string
	SubcategoryID     *string
	Title             string
	Description       string
	Status            TicketStatus
	Priority          TicketPriority
	SatisfactionScore *float64
	CreatedAt         time.Time
	ResolvedAt        *time.Time
	ClosedAt          *time.Time
}

// ResolutionHours returns the resolved turnaround in hours, or zero when the
// ticket is still open.
func (t TicketRecord) ResolutionHours() float64 {
	if t.ResolvedAt == nil {
		return 0
	}
	return t.ResolvedAt.Sub(t.CreatedAt).Hours()
}

// Context projects the stored record into an assignment input.
func (t TicketRecord) Context() TicketContext {
	return TicketContext{
		ID:            t.ID,
		Priority:      t.Priority,
		CategoryID:    t.CategoryID,
		SubcategoryID: t.SubcategoryID,
		Title:         t.Title,
		Description:   t.Description,
		CustomerID:    t.CustomerID,
		CreatedAt:     t.CreatedAt,
	}
}

// CommentRecord is a ticket thread entry relevant to first-response detection.
type CommentRecord struct {
	ID        string
	TicketID  string
	AuthorID  string
	CreatedAt time.Time
}
