package domain

import "strings"

// TimeWindow is a half-open [Start,End) wall-clock window in "HH:MM" form.
// Windows do not wrap across midnight: a window with Start > End never
// matches. This mirrors the behavior of the system the rules were written
// for; wraparound semantics were ambiguous there and are not invented here.
type TimeWindow struct {
	Start string
	End   string
}

// Contains reports whether the given "HH:MM" time falls inside the window.
func (w TimeWindow) Contains(hhmm string) bool {
	return w.Start <= hhmm && hhmm < w.End
}

// RuleConditions are the optional condition groups of an assignment rule.
// A rule applies when every PRESENT group matches; absent groups are treated
// as "don't care". A rule with no conditions at all therefore applies to
// every ticket.
type RuleConditions struct {
	Categories    []string
	Priorities    []TicketPriority
	CustomerTiers []CustomerTier
	TimeOfDay     *TimeWindow
	Keywords      []string
}

// Empty reports whether no condition group is present.
func (c RuleConditions) Empty() bool {
	return len(c.Categories) == 0 && len(c.Priorities) == 0 &&
		len(c.CustomerTiers) == 0 && c.TimeOfDay == nil && len(c.Keywords) == 0
}

// RuleActions are the effects an applicable rule contributes to assignment.
type RuleActions struct {
	AssignToAgentID       *string
	RequireSkills         []string
	RequireCertifications []string
	MaxResponseMinutes    *int
	EscalateAfterMinutes  *int
	NotifyManager         bool
	PriorityBoost         float64
}

// AssignmentRule is an operator-configured routing rule. Rules are evaluated
// in descending PriorityRank; a rule that forces a specific agent
// short-circuits scoring as soon as that agent is capacity-eligible.
type AssignmentRule struct {
	ID           string
	Name         string
	PriorityRank int
	Enabled      bool
	Conditions   RuleConditions
	Actions      RuleActions
}

// MatchesKeywords reports whether any rule keyword occurs case-insensitively
// in the given text.
func (r AssignmentRule) MatchesKeywords(text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range r.Conditions.Keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
