package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/routing-engine/internal/domain"
)

// RuleRepository reads operator-configured assignment rules.
type RuleRepository interface {
	FetchEnabledRules(ctx context.Context) ([]domain.AssignmentRule, error)
}

// ruleConditionsDoc mirrors the jsonb conditions column.
type ruleConditionsDoc struct {
	Categories    []string                `json:"categories,omitempty"`
	Priorities    []domain.TicketPriority `json:"priorities,omitempty"`
	CustomerTiers []domain.CustomerTier   `json:"customer_tiers,omitempty"`
	TimeOfDay     *domain.TimeWindow      `json:"time_of_day,omitempty"`
	Keywords      []string                `json:"keywords,omitempty"`
}

// ruleActionsDoc mirrors the jsonb actions column.
type ruleActionsDoc struct {
	AssignToAgentID       *string  `json:"assign_to_agent_id,omitempty"`
	RequireSkills         []string `json:"require_skills,omitempty"`
	RequireCertifications []string `json:"require_certifications,omitempty"`
	MaxResponseMinutes    *int     `json:"max_response_minutes,omitempty"`
	EscalateAfterMinutes  *int     `json:"escalate_after_minutes,omitempty"`
	NotifyManager         bool     `json:"notify_manager,omitempty"`
	PriorityBoost         float64  `json:"priority_boost,omitempty"`
}

type ruleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository instantiates the repository.
func NewRuleRepository(pool *pgxpool.Pool) RuleRepository {
	return &ruleRepository{pool: pool}
}

func (r *ruleRepository) FetchEnabledRules(ctx context.Context) ([]domain.AssignmentRule, error) {
	const query = `
        SELECT id, name, priority_rank, enabled_flag, conditions, actions
        FROM assignment_rules
        WHERE enabled_flag=TRUE
        ORDER BY priority_rank DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AssignmentRule
	for rows.Next() {
		var (
			rule          domain.AssignmentRule
			conditionsRaw []byte
			actionsRaw    []byte
		)
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.PriorityRank, &rule.Enabled, &conditionsRaw, &actionsRaw); err != nil {
			return nil, err
		}

		var conditions ruleConditionsDoc
		if err := json.Unmarshal(conditionsRaw, &conditions); err != nil {
			return nil, err
		}
		var actions ruleActionsDoc
		if err := json.Unmarshal(actionsRaw, &actions); err != nil {
			return nil, err
		}

		rule.Conditions = domain.RuleConditions{
			Categories:    conditions.Categories,
			Priorities:    conditions.Priorities,
			CustomerTiers: conditions.CustomerTiers,
			TimeOfDay:     conditions.TimeOfDay,
			Keywords:      conditions.Keywords,
		}
		rule.Actions = domain.RuleActions{
			AssignToAgentID:       actions.AssignToAgentID,
			RequireSkills:         actions.RequireSkills,
			RequireCertifications: actions.RequireCertifications,
			MaxResponseMinutes:    actions.MaxResponseMinutes,
			EscalateAfterMinutes:  actions.EscalateAfterMinutes,
			NotifyManager:         actions.NotifyManager,
			PriorityBoost:         actions.PriorityBoost,
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}
