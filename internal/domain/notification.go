package domain

// NotificationType enumerates the intents this engine emits. Delivery
// mechanics (email, webhook, push) belong to an external collaborator.
type NotificationType string

const (
	NotificationTicketAssigned    NotificationType = "ticket_assigned"
	NotificationAssignmentChanged NotificationType = "assignment_changed"
	NotificationSLAWarning        NotificationType = "sla_warning"
	NotificationSLABreach         NotificationType = "sla_breach"
)

// NotificationIntent asks the delivery collaborator to notify one user about
// one ticket.
type NotificationIntent struct {
	Type         NotificationType `json:"type"`
	TargetUserID string           `json:"target_user_id"`
	TicketID     string           `json:"ticket_id"`
	Priority     TicketPriority   `json:"priority"`
}
