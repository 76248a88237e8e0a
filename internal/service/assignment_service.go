package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/routing-engine/internal/domain"
	"github.com/spec-kit/routing-engine/internal/events"
	"github.com/spec-kit/routing-engine/internal/observability"
	"github.com/spec-kit/routing-engine/internal/repository"
)

const maxAlternatives = 3

// AssignmentService orchestrates one assignment attempt: manual override,
// rule-forced assignment, then scored ranking. A failed attempt is returned
// as an unsuccessful AssignmentResult, never as an error; the error return is
// reserved for infrastructure failures reaching the directory.
type AssignmentService struct {
	snapshots  *SnapshotService
	profiles   *ProfileService
	rules      repository.RuleRepository
	ruleEngine *RuleEngine
	scorer     *ScoringEngine
	ledger     *WorkloadLedger
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	Snapshots  *SnapshotService
	Profiles   *ProfileService
	RuleRepo   repository.RuleRepository
	RuleEngine *RuleEngine
	Scorer     *ScoringEngine
	Ledger     *WorkloadLedger
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		snapshots:  deps.Snapshots,
		profiles:   deps.Profiles,
		rules:      deps.RuleRepo,
		ruleEngine: deps.RuleEngine,
		scorer:     deps.Scorer,
		ledger:     deps.Ledger,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

type scoredAgent struct {
	agent     domain.AgentSnapshot
	breakdown ScoreBreakdown
}

// Assign selects an agent for the ticket. When explicitAgentID is set the
// call is a manual override and bypasses rules and scoring entirely.
func (s *AssignmentService) Assign(ctx context.Context, ticket domain.TicketContext, explicitAgentID *string) (*domain.AssignmentResult, error) {
	agents, err := s.snapshots.BuildSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	if explicitAgentID != nil && *explicitAgentID != "" {
		return s.assignManually(ctx, ticket, agents, *explicitAgentID), nil
	}

	available := filterAgents(agents, func(a domain.AgentSnapshot) bool {
		return a.Availability != domain.AvailabilityOffline
	})
	if len(available) == 0 {
		return s.failure(ctx, "no available agents found", nil), nil
	}

	profile := s.profiles.BuildProfile(ctx, ticket.CustomerID)

	eligible := filterAgents(available, func(a domain.AgentSnapshot) bool {
		return s.ledger.Workload(a.ID) < a.MaxConcurrentTickets
	})
	if len(eligible) == 0 {
		alternatives := s.topAgentIDs(available, ticket, profile, nil, maxAlternatives)
		return s.failure(ctx, "all agents are at capacity", alternatives), nil
	}

	rules, err := s.rules.FetchEnabledRules(ctx)
	if err != nil {
		s.logger.Warn("rule fetch degraded, scoring without rules", zap.Error(err))
		rules = nil
	}
	applicable := s.ruleEngine.Evaluate(ticket, profile, rules)

	for _, rule := range s.ruleEngine.ForcedDirectives(applicable) {
		if result := s.assignForced(ctx, ticket, eligible, rule, *rule.Actions.AssignToAgentID); result != nil {
			return result, nil
		}
		// Forced agent missing or at capacity: try the next directive.
	}

	constrained := filterAgents(eligible, func(a domain.AgentSnapshot) bool {
		return meetsRuleRequirements(a, applicable)
	})
	if len(constrained) == 0 {
		// Alternatives come from the full available pool, at-capacity
		// agents included, since none of them satisfies the rules anyway.
		alternatives := s.topAgentIDs(available, ticket, profile, applicable, maxAlternatives)
		return s.failure(ctx, "no agents meet rule requirements", alternatives), nil
	}

	return s.assignByScore(ctx, ticket, profile, applicable, constrained), nil
}

// Complete releases one workload slot for the agent, e.g. when its ticket
// resolves or closes.
func (s *AssignmentService) Complete(agentID string) {
	s.ledger.Release(agentID)
}

func (s *AssignmentService) assignManually(ctx context.Context, ticket domain.TicketContext, agents []domain.AgentSnapshot, agentID string) *domain.AssignmentResult {
	var target *domain.AgentSnapshot
	for i := range agents {
		if agents[i].ID == agentID {
			target = &agents[i]
			break
		}
	}
	if target == nil || target.Availability == domain.AvailabilityOffline {
		return s.failure(ctx, "selected agent is not available", nil)
	}
	if !s.ledger.TryAcquire(agentID) {
		return s.failure(ctx, "selected agent is at capacity", nil)
	}

	result := &domain.AssignmentResult{
		Success:         true,
		AssignedAgentID: &target.ID,
		Reason:          "manual assignment",
		Confidence:      100,
	}
	s.commit(ctx, ticket, result, "manual")
	return result
}

func (s *AssignmentService) assignForced(ctx context.Context, ticket domain.TicketContext, eligible []domain.AgentSnapshot, rule domain.AssignmentRule, agentID string) *domain.AssignmentResult {
	for i := range eligible {
		if eligible[i].ID != agentID {
			continue
		}
		if !s.ledger.TryAcquire(agentID) {
			return nil
		}
		result := &domain.AssignmentResult{
			Success:         true,
			AssignedAgentID: &eligible[i].ID,
			Reason:          fmt.Sprintf("assignment rule %q forced this agent", rule.Name),
			Confidence:      95,
		}
		s.commit(ctx, ticket, result, "rule")
		return result
	}
	return nil
}

func (s *AssignmentService) assignByScore(ctx context.Context, ticket domain.TicketContext, profile *domain.CustomerProfile, applicable []domain.AssignmentRule, candidates []domain.AgentSnapshot) *domain.AssignmentResult {
	ranked := s.rank(candidates, ticket, profile, applicable)

	for i, candidate := range ranked {
		if !s.ledger.TryAcquire(candidate.agent.ID) {
			// Lost a race with a concurrent assignment; try the runner-up.
			continue
		}
		result := &domain.AssignmentResult{
			Success:         true,
			AssignedAgentID: &ranked[i].agent.ID,
			Reason:          composeReason(applicable, candidate.breakdown),
			Confidence:      candidate.breakdown.Confidence(),
		}
		for _, alt := range ranked[i+1:] {
			if len(result.AlternativeAgentIDs) == maxAlternatives {
				break
			}
			result.AlternativeAgentIDs = append(result.AlternativeAgentIDs, alt.agent.ID)
		}
		s.commit(ctx, ticket, result, "scored")
		return result
	}
	return s.failure(ctx, "all agents are at capacity", nil)
}

// rank scores candidates and sorts them by descending total. The sort is
// stable, so equal scores keep their snapshot order (directory creation time
// ascending).
func (s *AssignmentService) rank(candidates []domain.AgentSnapshot, ticket domain.TicketContext, profile *domain.CustomerProfile, applicable []domain.AssignmentRule) []scoredAgent {
	ranked := make([]scoredAgent, 0, len(candidates))
	for _, agent := range candidates {
		agent.CurrentWorkload = s.ledger.Workload(agent.ID)
		bonus := s.scorer.RuleBonus(agent, profile, applicable)
		ranked = append(ranked, scoredAgent{
			agent:     agent,
			breakdown: s.scorer.Score(agent, ticket, profile, bonus),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].breakdown.Total > ranked[j].breakdown.Total
	})
	return ranked
}

func (s *AssignmentService) topAgentIDs(candidates []domain.AgentSnapshot, ticket domain.TicketContext, profile *domain.CustomerProfile, applicable []domain.AssignmentRule, limit int) []string {
	ranked := s.rank(candidates, ticket, profile, applicable)
	ids := make([]string, 0, limit)
	for _, candidate := range ranked {
		if len(ids) == limit {
			break
		}
		ids = append(ids, candidate.agent.ID)
	}
	return ids
}

func (s *AssignmentService) failure(ctx context.Context, reason string, alternatives []string) *domain.AssignmentResult {
	s.metrics.RecordAssignment("failed:" + reason)
	s.logger.Info("assignment failed", zap.String("reason", reason))
	return &domain.AssignmentResult{
		Success:             false,
		Reason:              reason,
		Confidence:          0,
		AlternativeAgentIDs: alternatives,
	}
}

func (s *AssignmentService) commit(ctx context.Context, ticket domain.TicketContext, result *domain.AssignmentResult, path string) {
	s.metrics.RecordAssignment(path)
	s.logger.Info("ticket assigned",
		zap.String("ticket_id", ticket.ID),
		zap.String("agent_id", *result.AssignedAgentID),
		zap.String("path", path),
		zap.Float64("confidence", result.Confidence))
	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketAssigned,
		TicketID:  ticket.ID,
		Timestamp: time.Now(),
		Payload: events.TicketAssignedPayload{
			AgentID:    *result.AssignedAgentID,
			Priority:   ticket.Priority,
			Confidence: result.Confidence,
			Reason:     result.Reason,
		},
	})
}

func (s *AssignmentService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// meetsRuleRequirements checks required skills and certifications across all
// applicable rules: within one rule any listed skill (or certification)
// suffices, but every rule that lists requirements must be satisfied.
func meetsRuleRequirements(agent domain.AgentSnapshot, applicable []domain.AssignmentRule) bool {
	for _, rule := range applicable {
		if len(rule.Actions.RequireSkills) > 0 && !hasAny(rule.Actions.RequireSkills, agent.HasSkill) {
			return false
		}
		if len(rule.Actions.RequireCertifications) > 0 && !hasAny(rule.Actions.RequireCertifications, agent.HasCertification) {
			return false
		}
	}
	return true
}

func hasAny(values []string, has func(string) bool) bool {
	for _, v := range values {
		if has(v) {
			return true
		}
	}
	return false
}

func composeReason(applicable []domain.AssignmentRule, breakdown ScoreBreakdown) string {
	var parts []string
	if breakdown.Workload >= 0.7 {
		parts = append(parts, "favorable workload balance")
	}
	if breakdown.Performance >= 0.8 {
		parts = append(parts, "strong performance record")
	}
	if breakdown.Availability >= 1 {
		parts = append(parts, "currently available")
	}
	if breakdown.SkillMatch > 0.7 {
		parts = append(parts, "strong skill match")
	}
	if breakdown.CustomerHistory > 0.7 {
		parts = append(parts, "good customer history")
	}
	if len(parts) == 0 {
		parts = append(parts, "best overall score")
	}

	reason := "selected by score: " + strings.Join(parts, ", ")
	if len(applicable) > 0 {
		names := make([]string, 0, len(applicable))
		for _, rule := range applicable {
			names = append(names, rule.Name)
		}
		reason += "; rules applied: " + strings.Join(names, ", ")
	}
	return reason
}

func filterAgents(agents []domain.AgentSnapshot, keep func(domain.AgentSnapshot) bool) []domain.AgentSnapshot {
	out := make([]domain.AgentSnapshot, 0, len(agents))
	for _, agent := range agents {
		if keep(agent) {
			out = append(out, agent)
		}
	}
	return out
}
