package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/routing-engine/internal/domain"
	"github.com/spec-kit/routing-engine/internal/events"
	"github.com/spec-kit/routing-engine/internal/observability"
	"github.com/spec-kit/routing-engine/internal/repository"
)

// SLAService derives response/resolution deadline state and owns the single
// first-response detection entry point. Every ingestion path (public comment,
// chat message) must funnel through RecordPotentialFirstResponse; the
// per-ticket guard makes detection idempotent under concurrent submissions.
//
// SLA computation never blocks ticket mutation paths: any failure degrades
// to a safe ok/ok status and is logged.
type SLAService struct {
	sla        repository.SLARepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	warnRatio  float64
	now        func() time.Time

	mu          sync.Mutex
	ticketLocks map[string]*sync.Mutex
	alertLevels map[string]domain.SLAState
}

// NewSLAService creates the service.
func NewSLAService(sla repository.SLARepository, tickets repository.TicketRepository, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger, warnRatio float64) *SLAService {
	if warnRatio <= 0 || warnRatio >= 1 {
		warnRatio = 0.75
	}
	return &SLAService{
		sla:         sla,
		tickets:     tickets,
		dispatcher:  dispatcher,
		metrics:     metrics,
		logger:      logger,
		warnRatio:   warnRatio,
		now:         time.Now,
		ticketLocks: make(map[string]*sync.Mutex),
		alertLevels: make(map[string]domain.SLAState),
	}
}

// WithClock injects a clock, used by the sweep tests.
func (s *SLAService) WithClock(now func() time.Time) *SLAService {
	s.now = now
	return s
}

// Status derives the current SLA state of the ticket. It never returns an
// error; a missing SLA rule or any fetch failure yields the safe default.
func (s *SLAService) Status(ctx context.Context, ticket domain.TicketRecord) domain.SLAStatus {
	status := domain.SLAStatus{
		TicketID:         ticket.ID,
		ResponseStatus:   domain.SLAStateOK,
		ResolutionStatus: domain.SLAStateOK,
		IsActive:         ticket.Status.IsActive(),
	}
	if ticket.ID == "" || ticket.CreatedAt.IsZero() {
		return status
	}

	rule, err := s.sla.FetchSLARule(ctx, ticket.Priority)
	if err != nil || rule == nil || !rule.Active {
		if err != nil {
			s.logger.Warn("sla rule fetch degraded, returning safe default",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
		return status
	}

	firstResponseAt, err := s.sla.FirstResponseAt(ctx, ticket.ID)
	if err != nil {
		s.logger.Warn("first response lookup degraded",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		firstResponseAt = nil
	}
	status.FirstResponseAt = firstResponseAt

	if ticket.Status == domain.TicketStatusCancelled {
		status.ResponseStatus = domain.SLAStateStopped
		status.ResolutionStatus = domain.SLAStateStopped
		return status
	}

	now := s.now()
	endOfLife := now
	if !status.IsActive {
		if ticket.ResolvedAt != nil {
			endOfLife = *ticket.ResolvedAt
		} else if ticket.ClosedAt != nil {
			endOfLife = *ticket.ClosedAt
		}
	}
	status.TotalElapsedHours = endOfLife.Sub(ticket.CreatedAt).Hours()

	if firstResponseAt != nil {
		status.ResponseElapsedHours = firstResponseAt.Sub(ticket.CreatedAt).Hours()
		if status.ResponseElapsedHours <= rule.ResponseTimeHours {
			status.ResponseStatus = domain.SLAStateMet
		} else {
			status.ResponseStatus = domain.SLAStateOverdue
		}
	} else {
		status.ResponseElapsedHours = status.TotalElapsedHours
		if status.IsActive {
			status.ResponseStatus = s.threshold(status.ResponseElapsedHours, rule.ResponseTimeHours)
		} else {
			// Closed without a response: stamped overdue permanently.
			status.ResponseStatus = domain.SLAStateOverdue
		}
	}

	if status.IsActive {
		status.ResolutionStatus = s.threshold(status.TotalElapsedHours, rule.ResolutionTimeHours)
	} else if status.TotalElapsedHours <= rule.ResolutionTimeHours {
		status.ResolutionStatus = domain.SLAStateMet
	} else {
		status.ResolutionStatus = domain.SLAStateOverdue
	}
	return status
}

func (s *SLAService) threshold(elapsed, target float64) domain.SLAState {
	if target <= 0 {
		return domain.SLAStateOK
	}
	ratio := elapsed / target
	switch {
	case ratio > 1:
		return domain.SLAStateOverdue
	case ratio >= s.warnRatio:
		return domain.SLAStateWarning
	}
	return domain.SLAStateOK
}

// RecordPotentialFirstResponse checks whether the message at the given
// reference timestamp is the ticket's first qualifying agent response and
// logs it exactly once. The returned flag reports whether this call recorded
// it. Logging is non-blocking: failures are logged and swallowed so the
// comment write that triggered the check never fails because of SLA
// bookkeeping.
func (s *SLAService) RecordPotentialFirstResponse(ctx context.Context, ticketID, agentID string, respondedAt time.Time) bool {
	lock := s.lockFor(ticketID)
	lock.Lock()
	defer lock.Unlock()

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		s.logger.Warn("first response check degraded: ticket fetch failed",
			zap.String("ticket_id", ticketID), zap.Error(err))
		return false
	}
	if ticket.CustomerID == agentID {
		// The ticket creator can never be its first responder.
		return false
	}
	if !ticket.Status.IsActive() {
		return false
	}

	existing, err := s.sla.FirstResponseAt(ctx, ticketID)
	if err != nil {
		s.logger.Warn("first response check degraded: log lookup failed",
			zap.String("ticket_id", ticketID), zap.Error(err))
		return false
	}
	if existing != nil {
		return false
	}

	earlier, err := s.tickets.FetchCommentsBefore(ctx, ticketID, respondedAt)
	if err != nil {
		s.logger.Warn("first response check degraded: comment fetch failed",
			zap.String("ticket_id", ticketID), zap.Error(err))
		return false
	}
	if len(earlier) > 0 {
		return false
	}

	if err := s.sla.RecordFirstResponse(ctx, ticketID, agentID, respondedAt); err != nil {
		s.logger.Warn("first response log write failed",
			zap.String("ticket_id", ticketID), zap.Error(err))
		return false
	}

	s.metrics.RecordFirstResponse()
	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventFirstResponseRecorded,
		TicketID:  ticketID,
		Timestamp: s.now(),
		Payload: events.FirstResponseRecordedPayload{
			AgentID:     agentID,
			RespondedAt: respondedAt,
		},
	})
	return true
}

// Sweep recomputes SLA state for all open tickets and emits warning/breach
// events. An event fires at most once per ticket, clock and severity level;
// severity only moves forward while a ticket is active.
func (s *SLAService) Sweep(ctx context.Context) error {
	tickets, err := s.tickets.FetchOpenTickets(ctx)
	if err != nil {
		return err
	}
	for _, ticket := range tickets {
		status := s.Status(ctx, ticket)
		s.alert(ctx, ticket, events.SLAAlertResponse, status.ResponseStatus, status.ResponseElapsedHours)
		s.alert(ctx, ticket, events.SLAAlertResolution, status.ResolutionStatus, status.TotalElapsedHours)
	}
	return nil
}

func (s *SLAService) alert(ctx context.Context, ticket domain.TicketRecord, kind events.SLAAlertKind, state domain.SLAState, elapsed float64) {
	if state != domain.SLAStateWarning && state != domain.SLAStateOverdue {
		return
	}

	key := ticket.ID + "|" + string(kind)
	s.mu.Lock()
	previous := s.alertLevels[key]
	if state.Severity() <= previous.Severity() {
		s.mu.Unlock()
		return
	}
	s.alertLevels[key] = state
	s.mu.Unlock()

	eventType := events.EventSLAWarning
	if state == domain.SLAStateOverdue {
		eventType = events.EventSLABreach
	}
	s.metrics.RecordSLAAlert(string(kind), string(state))
	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		Timestamp: s.now(),
		Payload: events.SLAAlertPayload{
			Kind:            kind,
			State:           state,
			ElapsedHours:    elapsed,
			AssignedAgentID: ticket.AssigneeID,
			Priority:        ticket.Priority,
		},
	})
}

func (s *SLAService) lockFor(ticketID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.ticketLocks[ticketID]
	if !ok {
		lock = &sync.Mutex{}
		s.ticketLocks[ticketID] = lock
	}
	return lock
}

func (s *SLAService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
