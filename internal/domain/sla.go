package domain

import "time"

// SLARule is the per-priority pair of target hours for first response and
// resolution.
type SLARule struct {
	Priority            TicketPriority
	ResponseTimeHours   float64
	ResolutionTimeHours float64
	Active              bool
}

// SLAState is the derived severity of one SLA clock.
type SLAState string

const (
	SLAStateOK      SLAState = "OK"
	SLAStateWarning SLAState = "WARNING"
	SLAStateOverdue SLAState = "OVERDUE"
	SLAStateMet     SLAState = "MET"
	SLAStateStopped SLAState = "STOPPED"
)

// Severity orders active states for forward-only transitions. Terminal
// states (met/stopped) are outside the ordering.
func (s SLAState) Severity() int {
	switch s {
	case SLAStateWarning:
		return 1
	case SLAStateOverdue:
		return 2
	}
	return 0
}

// SLAStatus is the derived deadline state of one ticket. It is recomputed on
// demand and never persisted as authoritative state by this engine.
type SLAStatus struct {
	TicketID             string
	ResponseStatus       SLAState
	ResolutionStatus     SLAState
	ResponseElapsedHours float64
	TotalElapsedHours    float64
	FirstResponseAt      *time.Time
	IsActive             bool
}
