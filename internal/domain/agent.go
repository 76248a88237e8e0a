package domain

import (
	"strings"
	"time"
)

// AgentRole enumerates directory roles eligible for ticket assignment.
type AgentRole string

const (
	AgentRoleAgent AgentRole = "AGENT"
	AgentRoleAdmin AgentRole = "ADMIN"
)

// Availability captures an agent's current presence state.
type Availability string

const (
	AvailabilityAvailable Availability = "AVAILABLE"
	AvailabilityBusy      Availability = "BUSY"
	AvailabilityAway      Availability = "AWAY"
	AvailabilityOffline   Availability = "OFFLINE"
)

// CustomerHistoryStats aggregates an agent's track record across customers.
type CustomerHistoryStats struct {
	TotalCustomersServed int
	RepeatCustomerRate   float64
	AvgSatisfaction      float64
}

// IsZero reports whether no customer history is available for the agent.
func (s CustomerHistoryStats) IsZero() bool {
	return s.TotalCustomersServed == 0 && s.RepeatCustomerRate == 0 && s.AvgSatisfaction == 0
}

// AgentSnapshot is a point-in-time view of one agent, rebuilt per assignment
// cycle. CurrentWorkload reflects the workload ledger, not the raw store.
type AgentSnapshot struct {
	ID                   string
	Name                 string
	Role                 AgentRole
	CurrentWorkload      int
	MaxConcurrentTickets int
	AvgResolutionHours   float64
	ResolutionRate       float64
	SatisfactionScore    float64
	Availability         Availability
	SkillTags            []string
	CategoryExpertise    map[string]float64
	SubcategoryExpertise map[string]float64
	Languages            []string
	CustomerHistory      CustomerHistoryStats
	Certifications       []string
	CreatedAt            time.Time
}

// HasCapacity reports whether the agent can take one more ticket.
func (a AgentSnapshot) HasCapacity() bool {
	return a.CurrentWorkload < a.MaxConcurrentTickets
}

// HasSkill reports whether the agent carries the given skill tag.
func (a AgentSnapshot) HasSkill(tag string) bool {
	return containsFold(a.SkillTags, tag)
}

// HasCertification reports whether the agent holds the given certification.
func (a AgentSnapshot) HasCertification(cert string) bool {
	return containsFold(a.Certifications, cert)
}

// SpeaksLanguage reports whether the agent lists the given language.
func (a AgentSnapshot) SpeaksLanguage(lang string) bool {
	return containsFold(a.Languages, lang)
}

// HasSkillData reports whether any skill metadata exists for the agent; when
// both skill and customer data are missing the scorer falls back to its basic
// three-factor mode.
func (a AgentSnapshot) HasSkillData() bool {
	return len(a.SkillTags) > 0 || len(a.CategoryExpertise) > 0 || len(a.SubcategoryExpertise) > 0
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return true
		}
	}
	return false
}
