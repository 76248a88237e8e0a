package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/routing-engine/internal/service"
)

// SLAWorker sweeps open tickets for SLA warnings and breaches on a fixed
// interval.
type SLAWorker struct {
	sla      *service.SLAService
	logger   *zap.Logger
	interval time.Duration
}

// NewSLAWorker creates the worker.
func NewSLAWorker(sla *service.SLAService, logger *zap.Logger, interval time.Duration) *SLAWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SLAWorker{sla: sla, logger: logger, interval: interval}
}

// Start launches the ticker loop; it stops when the context is cancelled.
func (w *SLAWorker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.sla.Sweep(ctx); err != nil {
					w.logger.Warn("sla sweep failed", zap.Error(err))
				}
			}
		}
	}()
}
