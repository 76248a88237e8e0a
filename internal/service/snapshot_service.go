package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/spec-kit/routing-engine/internal/domain"
	"github.com/spec-kit/routing-engine/internal/repository"
)

// Fallback stats applied when the performance fetch for an agent degrades.
// A degraded fetch is logged and never fails the assignment.
const (
	defaultAvgResolutionHours = 24.0
	defaultResolutionRate     = 0.8
	defaultSatisfactionScore  = 4.0
)

// SnapshotService assembles point-in-time agent views from the directory
// collaborator and seeds the workload ledger.
type SnapshotService struct {
	directory  repository.DirectoryRepository
	ledger     *WorkloadLedger
	logger     *zap.Logger
	windowDays int
}

// NewSnapshotService creates the service.
func NewSnapshotService(directory repository.DirectoryRepository, ledger *WorkloadLedger, logger *zap.Logger, windowDays int) *SnapshotService {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &SnapshotService{
		directory:  directory,
		ledger:     ledger,
		logger:     logger,
		windowDays: windowDays,
	}
}

// BuildSnapshots fetches agent and admin records and layers workload,
// performance and customer-history stats on top. The returned slice is
// ordered by directory creation time ascending, which is also the tie-break
// order for equal scores downstream.
func (s *SnapshotService) BuildSnapshots(ctx context.Context) ([]domain.AgentSnapshot, error) {
	agents, err := s.directory.FetchAgents(ctx, []domain.AgentRole{domain.AgentRoleAgent, domain.AgentRoleAdmin})
	if err != nil {
		return nil, err
	}

	for i := range agents {
		agent := &agents[i]

		workload, err := s.directory.FetchAgentWorkload(ctx, agent.ID)
		if err != nil {
			s.logger.Warn("workload fetch degraded, assuming ledger value",
				zap.String("agent_id", agent.ID), zap.Error(err))
			workload = 0
		}
		s.ledger.Ensure(agent.ID, agent.MaxConcurrentTickets, workload)
		agent.CurrentWorkload = s.ledger.Workload(agent.ID)

		perf, err := s.directory.FetchAgentPerformance(ctx, agent.ID, s.windowDays)
		if err != nil {
			s.logger.Warn("performance fetch degraded, using defaults",
				zap.String("agent_id", agent.ID), zap.Error(err))
			perf = repository.AgentPerformance{
				AvgResolutionHours: defaultAvgResolutionHours,
				ResolutionRate:     defaultResolutionRate,
				SatisfactionScore:  defaultSatisfactionScore,
			}
		}
		agent.AvgResolutionHours = perf.AvgResolutionHours
		agent.ResolutionRate = perf.ResolutionRate
		agent.SatisfactionScore = perf.SatisfactionScore

		stats, err := s.directory.FetchAgentCustomerStats(ctx, agent.ID)
		if err != nil {
			s.logger.Warn("customer stats fetch degraded, using empty stats",
				zap.String("agent_id", agent.ID), zap.Error(err))
			stats = domain.CustomerHistoryStats{}
		}
		agent.CustomerHistory = stats
	}

	sort.SliceStable(agents, func(i, j int) bool {
		return agents[i].CreatedAt.Before(agents[j].CreatedAt)
	})
	return agents, nil
}
