package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/routing-engine/internal/service"
)

// RebalanceWorker runs the workload rebalancer on a fixed interval.
type RebalanceWorker struct {
	snapshots  *service.SnapshotService
	rebalancer *service.Rebalancer
	logger     *zap.Logger
	interval   time.Duration
}

// NewRebalanceWorker creates the worker.
func NewRebalanceWorker(snapshots *service.SnapshotService, rebalancer *service.Rebalancer, logger *zap.Logger, interval time.Duration) *RebalanceWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &RebalanceWorker{
		snapshots:  snapshots,
		rebalancer: rebalancer,
		logger:     logger,
		interval:   interval,
	}
}

// Start launches the ticker loop; it stops when the context is cancelled.
func (w *RebalanceWorker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()
}

func (w *RebalanceWorker) runOnce(ctx context.Context) {
	agents, err := w.snapshots.BuildSnapshots(ctx)
	if err != nil {
		w.logger.Warn("rebalance worker: snapshot build failed", zap.Error(err))
		return
	}
	report, err := w.rebalancer.Rebalance(ctx, agents)
	if err != nil {
		w.logger.Warn("rebalance worker: pass failed", zap.Error(err))
		return
	}
	for _, move := range report {
		w.logger.Info("rebalanced ticket",
			zap.String("ticket_id", move.TicketID),
			zap.String("from_agent_id", move.FromAgentID),
			zap.String("to_agent_id", move.ToAgentID))
	}
}
