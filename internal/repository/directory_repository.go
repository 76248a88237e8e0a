package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/routing-engine/internal/domain"
)

// AgentPerformance aggregates an agent's recent resolution stats.
type AgentPerformance struct {
	AvgResolutionHours float64
	ResolutionRate     float64
	SatisfactionScore  float64
}

// DirectoryRepository reads agents and their workload/performance from the
// external directory collaborator.
type DirectoryRepository interface {
	FetchAgents(ctx context.Context, roles []domain.AgentRole) ([]domain.AgentSnapshot, error)
	FetchAgentWorkload(ctx context.Context, agentID string) (int, error)
	FetchAgentPerformance(ctx context.Context, agentID string, windowDays int) (AgentPerformance, error)
	FetchAgentCustomerStats(ctx context.Context, agentID string) (domain.CustomerHistoryStats, error)
}

type directoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository instantiates the repository.
func NewDirectoryRepository(pool *pgxpool.Pool) DirectoryRepository {
	return &directoryRepository{pool: pool}
}

func (r *directoryRepository) FetchAgents(ctx context.Context, roles []domain.AgentRole) ([]domain.AgentSnapshot, error) {
	query := `
        SELECT id, name, role, availability, max_concurrent_tickets,
               skill_tags, languages, certifications,
               category_expertise, subcategory_expertise, created_at
        FROM agents`
	args := []any{}
	if len(roles) > 0 {
		placeholders := make([]string, 0, len(roles))
		for _, role := range roles {
			args = append(args, role)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		query += " WHERE role IN (" + strings.Join(placeholders, ",") + ")"
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AgentSnapshot
	for rows.Next() {
		var agent domain.AgentSnapshot
		if err := rows.Scan(
			&agent.ID,
			&agent.Name,
			&agent.Role,
			&agent.Availability,
			&agent.MaxConcurrentTickets,
			&agent.SkillTags,
			&agent.Languages,
			&agent.Certifications,
			&agent.CategoryExpertise,
			&agent.SubcategoryExpertise,
			&agent.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, agent)
	}
	return result, rows.Err()
}

func (r *directoryRepository) FetchAgentWorkload(ctx context.Context, agentID string) (int, error) {
	const query = `
        SELECT COUNT(*)
        FROM tickets
        WHERE assignee_id=$1 AND status IN ('OPEN','PENDING','IN_PROGRESS')`

	var count int
	if err := r.pool.QueryRow(ctx, query, agentID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *directoryRepository) FetchAgentPerformance(ctx context.Context, agentID string, windowDays int) (AgentPerformance, error) {
	const query = `
        SELECT
            COALESCE(AVG(EXTRACT(EPOCH FROM resolved_at - created_at) / 3600.0), 0),
            COALESCE(AVG(CASE WHEN status IN ('RESOLVED','CLOSED') THEN 1.0 ELSE 0.0 END), 0),
            COALESCE(AVG(satisfaction_score), 0)
        FROM tickets
        WHERE assignee_id=$1 AND created_at > NOW() - make_interval(days => $2)`

	var perf AgentPerformance
	if err := r.pool.QueryRow(ctx, query, agentID, windowDays).Scan(
		&perf.AvgResolutionHours,
		&perf.ResolutionRate,
		&perf.SatisfactionScore,
	); err != nil {
		return AgentPerformance{}, err
	}
	return perf, nil
}

func (r *directoryRepository) FetchAgentCustomerStats(ctx context.Context, agentID string) (domain.CustomerHistoryStats, error) {
	const query = `
        SELECT
            COUNT(DISTINCT customer_id),
            COALESCE(AVG(CASE WHEN customer_tickets > 1 THEN 1.0 ELSE 0.0 END), 0),
            COALESCE(AVG(avg_satisfaction), 0)
        FROM (
            SELECT customer_id, COUNT(*) AS customer_tickets, AVG(satisfaction_score) AS avg_satisfaction
            FROM tickets
            WHERE assignee_id=$1
            GROUP BY customer_id
        ) per_customer`

	var stats domain.CustomerHistoryStats
	if err := r.pool.QueryRow(ctx, query, agentID).Scan(
		&stats.TotalCustomersServed,
		&stats.RepeatCustomerRate,
		&stats.AvgSatisfaction,
	); err != nil {
		return domain.CustomerHistoryStats{}, err
	}
	return stats, nil
}
