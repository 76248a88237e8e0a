package domain

// AssignmentResult is the outcome of one assignment attempt. A failed
// attempt is a routine outcome, not an error: the ticket stays unassigned
// for manual handling and Reason explains why.
type AssignmentResult struct {
	Success             bool
	AssignedAgentID     *string
	Reason              string
	Confidence          float64
	AlternativeAgentIDs []string
}

// Reassignment is one ticket move decided by the workload rebalancer,
// reported for audit logging.
type Reassignment struct {
	TicketID    string
	FromAgentID string
	ToAgentID   string
}
