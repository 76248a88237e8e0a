package service

import (
	"sort"
	"time"

	"github.com/spec-kit/routing-engine/internal/domain"
)

// RuleEngine evaluates routing rules against a ticket and customer context.
// Evaluation is pure: it returns which rules apply and leaves applying their
// actions to the orchestrator.
type RuleEngine struct {
	now func() time.Time
}

// NewRuleEngine creates the engine with the wall clock.
func NewRuleEngine() *RuleEngine {
	return &RuleEngine{now: time.Now}
}

// NewRuleEngineAt creates the engine with an injected clock.
func NewRuleEngineAt(now func() time.Time) *RuleEngine {
	return &RuleEngine{now: now}
}

// Evaluate returns the enabled rules applicable to the ticket, ordered by
// descending priority rank. A rule applies when every present condition
// group matches; absent groups are "don't care", so a rule with no
// conditions applies to every ticket (and, if it carries a priority boost,
// boosts every agent equally).
func (e *RuleEngine) Evaluate(ticket domain.TicketContext, profile *domain.CustomerProfile, rules []domain.AssignmentRule) []domain.AssignmentRule {
	var applicable []domain.AssignmentRule
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if e.matches(rule, ticket, profile) {
			applicable = append(applicable, rule)
		}
	}
	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].PriorityRank > applicable[j].PriorityRank
	})
	return applicable
}

// ForcedDirectives returns, in rank order, the applicable rules that name a
// specific agent. Forced assignment walks them in order and stops at the
// first rule whose agent is capacity-eligible.
func (e *RuleEngine) ForcedDirectives(applicable []domain.AssignmentRule) []domain.AssignmentRule {
	var forced []domain.AssignmentRule
	for _, rule := range applicable {
		if rule.Actions.AssignToAgentID != nil && *rule.Actions.AssignToAgentID != "" {
			forced = append(forced, rule)
		}
	}
	return forced
}

func (e *RuleEngine) matches(rule domain.AssignmentRule, ticket domain.TicketContext, profile *domain.CustomerProfile) bool {
	conditions := rule.Conditions

	if len(conditions.Priorities) > 0 && !containsPriority(conditions.Priorities, ticket.Priority) {
		return false
	}
	if len(conditions.Categories) > 0 {
		if ticket.CategoryID == nil || !containsString(conditions.Categories, *ticket.CategoryID) {
			return false
		}
	}
	if len(conditions.CustomerTiers) > 0 {
		if profile == nil || !containsTier(conditions.CustomerTiers, profile.Tier) {
			return false
		}
	}
	if len(conditions.Keywords) > 0 && !rule.MatchesKeywords(ticket.Title+" "+ticket.Description) {
		return false
	}
	if conditions.TimeOfDay != nil && !conditions.TimeOfDay.Contains(e.now().Format("15:04")) {
		return false
	}
	return true
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func containsPriority(values []domain.TicketPriority, target domain.TicketPriority) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func containsTier(values []domain.CustomerTier, target domain.CustomerTier) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
