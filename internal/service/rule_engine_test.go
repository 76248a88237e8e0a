package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/routing-engine/internal/domain"
)

func fixedClock(hhmm string) func() time.Time {
	parsed, _ := time.Parse("15:04", hhmm)
	return func() time.Time {
		return time.Date(2024, 5, 1, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
	}
}

func ticketCtx(priority domain.TicketPriority, category, title, description string) domain.TicketContext {
	ctx := domain.TicketContext{
		ID:          "t1",
		Priority:    priority,
		Title:       title,
		Description: description,
		CustomerID:  "c1",
		CreatedAt:   time.Now(),
	}
	if category != "" {
		ctx.CategoryID = &category
	}
	return ctx
}

func enabledRule(name string, rank int, conditions domain.RuleConditions) domain.AssignmentRule {
	return domain.AssignmentRule{
		ID:           name,
		Name:         name,
		PriorityRank: rank,
		Enabled:      true,
		Conditions:   conditions,
	}
}

func TestEvaluatePriorityCondition(t *testing.T) {
	engine := NewRuleEngine()
	rule := enabledRule("urgent-only", 10, domain.RuleConditions{
		Priorities: []domain.TicketPriority{domain.TicketPriorityUrgent},
	})

	applicable := engine.Evaluate(ticketCtx(domain.TicketPriorityUrgent, "", "help", ""), nil, []domain.AssignmentRule{rule})
	assert.Len(t, applicable, 1)

	applicable = engine.Evaluate(ticketCtx(domain.TicketPriorityLow, "", "help", ""), nil, []domain.AssignmentRule{rule})
	assert.Empty(t, applicable)
}

func TestEvaluateCategoryRequiresTicketCategory(t *testing.T) {
	engine := NewRuleEngine()
	rule := enabledRule("billing", 5, domain.RuleConditions{
		Categories: []string{"billing"},
	})

	// Ticket without a category cannot satisfy a present category group.
	applicable := engine.Evaluate(ticketCtx(domain.TicketPriorityHigh, "", "invoice wrong", ""), nil, []domain.AssignmentRule{rule})
	assert.Empty(t, applicable)

	applicable = engine.Evaluate(ticketCtx(domain.TicketPriorityHigh, "billing", "invoice wrong", ""), nil, []domain.AssignmentRule{rule})
	assert.Len(t, applicable, 1)
}

func TestEvaluateTierConditionNeedsProfile(t *testing.T) {
	engine := NewRuleEngine()
	rule := enabledRule("vip-route", 5, domain.RuleConditions{
		CustomerTiers: []domain.CustomerTier{domain.CustomerTierVIP},
	})
	ticket := ticketCtx(domain.TicketPriorityHigh, "", "x", "")

	assert.Empty(t, engine.Evaluate(ticket, nil, []domain.AssignmentRule{rule}))

	profile := &domain.CustomerProfile{CustomerID: "c1", Tier: domain.CustomerTierVIP}
	assert.Len(t, engine.Evaluate(ticket, profile, []domain.AssignmentRule{rule}), 1)

	profile.Tier = domain.CustomerTierBasic
	assert.Empty(t, engine.Evaluate(ticket, profile, []domain.AssignmentRule{rule}))
}

func TestEvaluateKeywordsCaseInsensitive(t *testing.T) {
	engine := NewRuleEngine()
	rule := enabledRule("outage", 5, domain.RuleConditions{
		Keywords: []string{"OUTAGE", "down"},
	})

	ticket := ticketCtx(domain.TicketPriorityHigh, "", "Production outage", "everything broken")
	assert.Len(t, engine.Evaluate(ticket, nil, []domain.AssignmentRule{rule}), 1)

	ticket = ticketCtx(domain.TicketPriorityHigh, "", "question about invoice", "")
	assert.Empty(t, engine.Evaluate(ticket, nil, []domain.AssignmentRule{rule}))
}

func TestEvaluateTimeWindowHalfOpen(t *testing.T) {
	rule := enabledRule("business-hours", 5, domain.RuleConditions{
		TimeOfDay: &domain.TimeWindow{Start: "09:00", End: "17:00"},
	})
	ticket := ticketCtx(domain.TicketPriorityLow, "", "x", "")

	assert.Len(t, NewRuleEngineAt(fixedClock("09:00")).Evaluate(ticket, nil, []domain.AssignmentRule{rule}), 1)
	assert.Len(t, NewRuleEngineAt(fixedClock("16:59")).Evaluate(ticket, nil, []domain.AssignmentRule{rule}), 1)
	assert.Empty(t, NewRuleEngineAt(fixedClock("17:00")).Evaluate(ticket, nil, []domain.AssignmentRule{rule}))
	assert.Empty(t, NewRuleEngineAt(fixedClock("08:59")).Evaluate(ticket, nil, []domain.AssignmentRule{rule}))
}

func TestEvaluateTimeWindowNoMidnightWrap(t *testing.T) {
	rule := enabledRule("night-shift", 5, domain.RuleConditions{
		TimeOfDay: &domain.TimeWindow{Start: "22:00", End: "06:00"},
	})
	ticket := ticketCtx(domain.TicketPriorityLow, "", "x", "")

	// Start > End never matches; wraparound is a documented limitation.
	assert.Empty(t, NewRuleEngineAt(fixedClock("23:00")).Evaluate(ticket, nil, []domain.AssignmentRule{rule}))
	assert.Empty(t, NewRuleEngineAt(fixedClock("05:00")).Evaluate(ticket, nil, []domain.AssignmentRule{rule}))
}

func TestEvaluateEmptyConditionsAlwaysApply(t *testing.T) {
	engine := NewRuleEngine()
	rule := enabledRule("catch-all", 1, domain.RuleConditions{})

	applicable := engine.Evaluate(ticketCtx(domain.TicketPriorityLow, "", "anything", ""), nil, []domain.AssignmentRule{rule})
	assert.Len(t, applicable, 1)
}

func TestEvaluateSkipsDisabledRules(t *testing.T) {
	engine := NewRuleEngine()
	rule := enabledRule("off", 1, domain.RuleConditions{})
	rule.Enabled = false

	assert.Empty(t, engine.Evaluate(ticketCtx(domain.TicketPriorityLow, "", "x", ""), nil, []domain.AssignmentRule{rule}))
}

func TestEvaluateOrdersByPriorityRankDesc(t *testing.T) {
	engine := NewRuleEngine()
	rules := []domain.AssignmentRule{
		enabledRule("low-rank", 1, domain.RuleConditions{}),
		enabledRule("high-rank", 10, domain.RuleConditions{}),
		enabledRule("mid-rank", 5, domain.RuleConditions{}),
	}

	applicable := engine.Evaluate(ticketCtx(domain.TicketPriorityLow, "", "x", ""), nil, rules)
	require.Len(t, applicable, 3)
	assert.Equal(t, "high-rank", applicable[0].Name)
	assert.Equal(t, "mid-rank", applicable[1].Name)
	assert.Equal(t, "low-rank", applicable[2].Name)
}

func TestForcedDirectivesOrderedByRank(t *testing.T) {
	engine := NewRuleEngine()
	agentA := "agent-a"
	agentB := "agent-b"
	rules := []domain.AssignmentRule{
		enabledRule("plain", 20, domain.RuleConditions{}),
		enabledRule("force-b", 5, domain.RuleConditions{}),
		enabledRule("force-a", 10, domain.RuleConditions{}),
	}
	rules[1].Actions.AssignToAgentID = &agentB
	rules[2].Actions.AssignToAgentID = &agentA

	applicable := engine.Evaluate(ticketCtx(domain.TicketPriorityLow, "", "x", ""), nil, rules)
	forced := engine.ForcedDirectives(applicable)
	require.Len(t, forced, 2)
	assert.Equal(t, "force-a", forced[0].Name)
	assert.Equal(t, "force-b", forced[1].Name)
}

func TestForcedDirectivesAbsent(t *testing.T) {
	engine := NewRuleEngine()
	assert.Empty(t, engine.ForcedDirectives([]domain.AssignmentRule{enabledRule("plain", 1, domain.RuleConditions{})}))
}
