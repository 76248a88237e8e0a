package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/routing-engine/internal/domain"
)

// SLARepository reads per-priority SLA rules and owns the first-response log.
type SLARepository interface {
	FetchSLARule(ctx context.Context, priority domain.TicketPriority) (*domain.SLARule, error)
	FirstResponseAt(ctx context.Context, ticketID string) (*time.Time, error)
	RecordFirstResponse(ctx context.Context, ticketID, agentID string, respondedAt time.Time) error
}

type slaRepository struct {
	pool *pgxpool.Pool
}

// NewSLARepository instantiates the repository.
func NewSLARepository(pool *pgxpool.Pool) SLARepository {
	return &slaRepository{pool: pool}
}

func (r *slaRepository) FetchSLARule(ctx context.Context, priority domain.TicketPriority) (*domain.SLARule, error) {
	const query = `
        SELECT priority, response_time_hours, resolution_time_hours, active_flag
        FROM sla_rules WHERE priority=$1 AND active_flag=TRUE`

	var rule domain.SLARule
	if err := r.pool.QueryRow(ctx, query, priority).Scan(
		&rule.Priority,
		&rule.ResponseTimeHours,
		&rule.ResolutionTimeHours,
		&rule.Active,
	); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *slaRepository) FirstResponseAt(ctx context.Context, ticketID string) (*time.Time, error) {
	const query = `
        SELECT responded_at FROM first_response_log WHERE ticket_id=$1`

	var respondedAt time.Time
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(&respondedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &respondedAt, nil
}

// RecordFirstResponse inserts at most one log row per ticket. The conflict
// clause keeps the insert idempotent even if two callers race past the
// in-process guard.
func (r *slaRepository) RecordFirstResponse(ctx context.Context, ticketID, agentID string, respondedAt time.Time) error {
	const query = `
        INSERT INTO first_response_log (ticket_id, agent_id, responded_at)
        VALUES ($1,$2,$3)
        ON CONFLICT (ticket_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query, ticketID, agentID, respondedAt)
	return err
}
