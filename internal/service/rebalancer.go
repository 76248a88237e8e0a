package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/routing-engine/internal/domain"
	"github.com/spec-kit/routing-engine/internal/events"
	"github.com/spec-kit/routing-engine/internal/observability"
	"github.com/spec-kit/routing-engine/internal/repository"
)

const (
	overloadMargin  = 2.0
	underloadMargin = 1.0

	// Destinations must keep one spare slot after receiving a ticket.
	moveCapacityMargin = 1
)

// Rebalancer periodically moves low-urgency tickets from overloaded agents
// to underloaded ones. Every individual move re-validates destination
// capacity against the workload ledger immediately before committing, since
// an agent may have received a new ticket between planning and execution.
type Rebalancer struct {
	tickets       repository.TicketRepository
	ledger        *WorkloadLedger
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	movesPerAgent int
}

// NewRebalancer creates the rebalancer.
func NewRebalancer(tickets repository.TicketRepository, ledger *WorkloadLedger, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger, movesPerAgent int) *Rebalancer {
	if movesPerAgent <= 0 {
		movesPerAgent = 2
	}
	return &Rebalancer{
		tickets:       tickets,
		ledger:        ledger,
		dispatcher:    dispatcher,
		metrics:       metrics,
		logger:        logger,
		movesPerAgent: movesPerAgent,
	}
}

// Rebalance computes average workload across the given agents and moves up
// to movesPerAgent tickets away from each agent sitting more than two above
// the average, toward agents more than one below it. The returned tuples are
// the audit report.
func (r *Rebalancer) Rebalance(ctx context.Context, agents []domain.AgentSnapshot) ([]domain.Reassignment, error) {
	if len(agents) < 2 {
		return nil, nil
	}

	byID := make(map[string]domain.AgentSnapshot, len(agents))
	total := 0
	for _, agent := range agents {
		r.ledger.Ensure(agent.ID, agent.MaxConcurrentTickets, agent.CurrentWorkload)
		byID[agent.ID] = agent
		total += r.ledger.Workload(agent.ID)
	}
	avg := float64(total) / float64(len(agents))

	var overloaded, underloaded []string
	for _, agent := range agents {
		workload := float64(r.ledger.Workload(agent.ID))
		switch {
		case workload > avg+overloadMargin:
			overloaded = append(overloaded, agent.ID)
		case workload < avg-underloadMargin:
			underloaded = append(underloaded, agent.ID)
		}
	}
	if len(overloaded) == 0 || len(underloaded) == 0 {
		return nil, nil
	}

	var report []domain.Reassignment
	for _, fromID := range overloaded {
		candidates, err := r.tickets.FetchOpenTicketsByAgent(ctx, fromID)
		if err != nil {
			r.logger.Warn("rebalance: ticket fetch failed, skipping agent",
				zap.String("agent_id", fromID), zap.Error(err))
			continue
		}

		// Move the least urgent, most recently created tickets first.
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].Priority.Rank() != candidates[j].Priority.Rank() {
				return candidates[i].Priority.Rank() < candidates[j].Priority.Rank()
			}
			return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
		})

		moved := 0
		for _, ticket := range candidates {
			if moved == r.movesPerAgent {
				break
			}
			toID, ok := r.pickDestination(underloaded)
			if !ok {
				break
			}
			if !r.ledger.TryMove(fromID, toID, moveCapacityMargin) {
				continue
			}
			if err := r.tickets.ReassignTicket(ctx, ticket.ID, fromID, toID); err != nil {
				r.ledger.TryMove(toID, fromID, 0)
				r.logger.Warn("rebalance: persist failed, move rolled back",
					zap.String("ticket_id", ticket.ID), zap.Error(err))
				continue
			}
			moved++
			report = append(report, domain.Reassignment{
				TicketID:    ticket.ID,
				FromAgentID: fromID,
				ToAgentID:   toID,
			})
			r.publishMove(ctx, ticket, fromID, toID)
		}
	}

	if len(report) > 0 {
		r.metrics.RecordRebalanceMoves(len(report))
		r.logger.Info("rebalance pass complete", zap.Int("moves", len(report)))
	}
	return report, nil
}

// pickDestination returns the least-loaded underloaded agent that still has
// spare capacity beyond the safety margin.
func (r *Rebalancer) pickDestination(underloaded []string) (string, bool) {
	bestID := ""
	bestLoad := 0
	for _, id := range underloaded {
		if !r.ledger.HasSpare(id, moveCapacityMargin) {
			continue
		}
		load := r.ledger.Workload(id)
		if bestID == "" || load < bestLoad {
			bestID = id
			bestLoad = load
		}
	}
	if bestID == "" {
		return "", false
	}
	return bestID, true
}

func (r *Rebalancer) publishMove(ctx context.Context, ticket domain.TicketRecord, fromID, toID string) {
	if r.dispatcher == nil {
		return
	}
	_ = r.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventAssignmentChanged,
		TicketID:  ticket.ID,
		Timestamp: time.Now(),
		Payload: events.AssignmentChangedPayload{
			FromAgentID: fromID,
			ToAgentID:   toID,
			Priority:    ticket.Priority,
		},
	})
}
