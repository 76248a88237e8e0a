package domain

import "time"

// CustomerTier classifies customers for routing priority.
type CustomerTier string

const (
	CustomerTierBasic      CustomerTier = "BASIC"
	CustomerTierPremium    CustomerTier = "PREMIUM"
	CustomerTierEnterprise CustomerTier = "ENTERPRISE"
	CustomerTierVIP        CustomerTier = "VIP"
)

// CustomerRecord is the raw directory view of a customer.
type CustomerRecord struct {
	ID                 string
	Tier               CustomerTier
	LanguagePreference string
}

// CustomerInteraction is one prior agent/customer contact derived from ticket
// history.
type CustomerInteraction struct {
	AgentID           string
	SatisfactionScore float64
	Date              time.Time
	ResolutionHours   float64
}

// CustomerProfile aggregates a customer's support history. It is rebuilt
// lazily per assignment and cached with a TTL; it is never persisted as
// authoritative state by this engine.
type CustomerProfile struct {
	CustomerID           string
	Tier                 CustomerTier
	LanguagePreference   string
	PreferredAgentID     *string
	PreviousInteractions []CustomerInteraction
	TotalTickets         int
	AvgResolutionHours   float64
}
