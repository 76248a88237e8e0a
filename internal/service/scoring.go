package service

import (
	"strings"

	"github.com/spec-kit/routing-engine/internal/domain"
)

// Fixed component weights; the five full-mode weights total 1.0.
const (
	weightWorkload        = 0.25
	weightPerformance     = 0.25
	weightAvailability    = 0.20
	weightSkillMatch      = 0.15
	weightCustomerHistory = 0.15

	basicModeWeight = 1.0 / 3.0

	preferredAgentBonus = 0.25
	languageBonus       = 0.1

	// Confidence is capped below 100 on scored paths; the score is a
	// heuristic, never a certainty.
	maxScoredConfidence = 95.0
)

// ScoreBreakdown carries each normalized component of one agent's fitness
// score, the applied rule bonus and the capped total.
type ScoreBreakdown struct {
	Workload        float64
	Performance     float64
	Availability    float64
	SkillMatch      float64
	CustomerHistory float64
	RuleBonus       float64
	Total           float64
	BasicMode       bool
}

// Confidence converts the total score to a 0-100 confidence value.
func (b ScoreBreakdown) Confidence() float64 {
	confidence := b.Total * 100
	if confidence > maxScoredConfidence {
		return maxScoredConfidence
	}
	if confidence < 0 {
		return 0
	}
	return confidence
}

// ScoringEngine computes multi-factor agent fitness scores. It is stateless;
// every method is a pure function over its inputs.
type ScoringEngine struct{}

// NewScoringEngine creates the engine.
func NewScoringEngine() *ScoringEngine {
	return &ScoringEngine{}
}

// Score computes the weighted fitness of one agent for one ticket. When the
// agent has neither skill metadata nor customer history, a basic three-factor
// mode renormalizes the weights over workload, performance and availability.
func (e *ScoringEngine) Score(agent domain.AgentSnapshot, ticket domain.TicketContext, profile *domain.CustomerProfile, ruleBonus float64) ScoreBreakdown {
	breakdown := ScoreBreakdown{
		Workload:     e.workloadScore(agent),
		Performance:  e.performanceScore(agent),
		Availability: e.availabilityScore(agent),
		RuleBonus:    ruleBonus,
	}

	breakdown.BasicMode = !agent.HasSkillData() && agent.CustomerHistory.IsZero()
	if breakdown.BasicMode {
		breakdown.Total = basicModeWeight*breakdown.Workload +
			basicModeWeight*breakdown.Performance +
			basicModeWeight*breakdown.Availability
	} else {
		breakdown.SkillMatch = e.skillMatchScore(agent, ticket)
		breakdown.CustomerHistory = e.customerHistoryScore(agent)
		breakdown.Total = weightWorkload*breakdown.Workload +
			weightPerformance*breakdown.Performance +
			weightAvailability*breakdown.Availability +
			weightSkillMatch*breakdown.SkillMatch +
			weightCustomerHistory*breakdown.CustomerHistory
	}

	breakdown.Total += ruleBonus
	if breakdown.Total > 1 {
		breakdown.Total = 1
	}
	if breakdown.Total < 0 {
		breakdown.Total = 0
	}
	return breakdown
}

// RuleBonus sums the priority boosts of all applicable rules plus the
// preferred-agent and language affinity bonuses for this customer.
func (e *ScoringEngine) RuleBonus(agent domain.AgentSnapshot, profile *domain.CustomerProfile, applicable []domain.AssignmentRule) float64 {
	bonus := 0.0
	for _, rule := range applicable {
		bonus += rule.Actions.PriorityBoost
	}
	if profile != nil {
		if profile.PreferredAgentID != nil && *profile.PreferredAgentID == agent.ID {
			bonus += preferredAgentBonus
		}
		if profile.LanguagePreference != "" && agent.SpeaksLanguage(profile.LanguagePreference) {
			bonus += languageBonus
		}
	}
	return bonus
}

func (e *ScoringEngine) workloadScore(agent domain.AgentSnapshot) float64 {
	if agent.MaxConcurrentTickets <= 0 {
		return 0
	}
	score := 1 - float64(agent.CurrentWorkload)/float64(agent.MaxConcurrentTickets)
	if score < 0 {
		return 0
	}
	return score
}

func (e *ScoringEngine) performanceScore(agent domain.AgentSnapshot) float64 {
	speed := 1 - agent.AvgResolutionHours/48
	if speed < 0 {
		speed = 0
	}
	return (agent.ResolutionRate + agent.SatisfactionScore/5 + speed) / 3
}

func (e *ScoringEngine) availabilityScore(agent domain.AgentSnapshot) float64 {
	switch agent.Availability {
	case domain.AvailabilityAvailable:
		return 1.0
	case domain.AvailabilityBusy:
		return 0.7
	case domain.AvailabilityAway:
		return 0.3
	}
	// Offline agents are excluded upstream and never scored.
	return 0.0
}

// skillMatchScore starts at a neutral 0.5 and is only ever raised: category
// and subcategory expertise act as ceilings, as does the skill-tag overlap
// with the ticket text (scaled by 0.8).
func (e *ScoringEngine) skillMatchScore(agent domain.AgentSnapshot, ticket domain.TicketContext) float64 {
	score := 0.5

	if ticket.CategoryID != nil {
		if expertise, ok := agent.CategoryExpertise[*ticket.CategoryID]; ok && expertise > score {
			score = expertise
		}
	}
	if ticket.SubcategoryID != nil {
		if expertise, ok := agent.SubcategoryExpertise[*ticket.SubcategoryID]; ok && expertise > score {
			score = expertise
		}
	}

	if len(agent.SkillTags) > 0 {
		tokens := tokenize(ticket.Title + " " + ticket.Description)
		matched := 0
		for _, tag := range agent.SkillTags {
			if _, ok := tokens[strings.ToLower(tag)]; ok {
				matched++
			}
		}
		overlap := float64(matched) / float64(len(agent.SkillTags)) * 0.8
		if overlap > score {
			score = overlap
		}
	}

	if score > 1 {
		return 1
	}
	return score
}

func (e *ScoringEngine) customerHistoryScore(agent domain.AgentSnapshot) float64 {
	score := agent.CustomerHistory.AvgSatisfaction / 5
	if agent.CustomerHistory.RepeatCustomerRate > 0.3 {
		score += 0.2
	}
	if agent.CustomerHistory.TotalCustomersServed > 50 {
		score += 0.1
	}
	if score > 1 {
		return 1
	}
	return score
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		token := strings.Trim(field, ".,;:!?\"'()[]")
		if token != "" {
			tokens[token] = struct{}{}
		}
	}
	return tokens
}
