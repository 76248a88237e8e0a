package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/routing-engine/internal/domain"
	"github.com/spec-kit/routing-engine/internal/events"
	"github.com/spec-kit/routing-engine/internal/observability"
)

var slaBase = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

type slaHarness struct {
	service    *SLAService
	sla        *fakeSLA
	tickets    *fakeTickets
	dispatcher *capturingDispatcher
}

func newSLAHarness(elapsed time.Duration) *slaHarness {
	sla := newFakeSLA()
	sla.rules[domain.TicketPriorityHigh] = &domain.SLARule{
		Priority:            domain.TicketPriorityHigh,
		ResponseTimeHours:   4,
		ResolutionTimeHours: 24,
		Active:              true,
	}
	tickets := newFakeTickets()
	dispatcher := &capturingDispatcher{}

	svc := NewSLAService(sla, tickets, dispatcher, observability.NewMetrics(), zap.NewNop(), 0.75).
		WithClock(func() time.Time { return slaBase.Add(elapsed) })
	return &slaHarness{service: svc, sla: sla, tickets: tickets, dispatcher: dispatcher}
}

func highTicket(id string, status domain.TicketStatus) domain.TicketRecord {
	return domain.TicketRecord{
		ID:         id,
		CustomerID: "cust-1",
		Priority:   domain.TicketPriorityHigh,
		Status:     status,
		CreatedAt:  slaBase,
	}
}

func TestStatusThresholds(t *testing.T) {
	cases := []struct {
		elapsed        time.Duration
		wantResponse   domain.SLAState
		wantResolution domain.SLAState
	}{
		{2 * time.Hour, domain.SLAStateOK, domain.SLAStateOK},
		// 3h of a 4h response target is exactly the 0.75 warning ratio.
		{3 * time.Hour, domain.SLAStateWarning, domain.SLAStateOK},
		{5 * time.Hour, domain.SLAStateOverdue, domain.SLAStateOK},
		{20 * time.Hour, domain.SLAStateOverdue, domain.SLAStateWarning},
		{25 * time.Hour, domain.SLAStateOverdue, domain.SLAStateOverdue},
	}
	for _, tc := range cases {
		h := newSLAHarness(tc.elapsed)
		status := h.service.Status(context.Background(), highTicket("t1", domain.TicketStatusOpen))
		assert.Equal(t, tc.wantResponse, status.ResponseStatus, tc.elapsed.String())
		assert.Equal(t, tc.wantResolution, status.ResolutionStatus, tc.elapsed.String())
		assert.True(t, status.IsActive)
	}
}

func TestStatusResponseMetStopsTheClock(t *testing.T) {
	h := newSLAHarness(10 * time.Hour)
	h.sla.firstAt["t1"] = slaBase.Add(2 * time.Hour)

	status := h.service.Status(context.Background(), highTicket("t1", domain.TicketStatusOpen))
	assert.Equal(t, domain.SLAStateMet, status.ResponseStatus)
	assert.InDelta(t, 2.0, status.ResponseElapsedHours, 1e-9)
	require.NotNil(t, status.FirstResponseAt)
}

func TestStatusLateResponseStaysOverdue(t *testing.T) {
	h := newSLAHarness(10 * time.Hour)
	h.sla.firstAt["t1"] = slaBase.Add(6 * time.Hour)

	status := h.service.Status(context.Background(), highTicket("t1", domain.TicketStatusOpen))
	assert.Equal(t, domain.SLAStateOverdue, status.ResponseStatus)
}

func TestStatusCancelledStopsBothClocks(t *testing.T) {
	h := newSLAHarness(100 * time.Hour)
	status := h.service.Status(context.Background(), highTicket("t1", domain.TicketStatusCancelled))
	assert.Equal(t, domain.SLAStateStopped, status.ResponseStatus)
	assert.Equal(t, domain.SLAStateStopped, status.ResolutionStatus)
	assert.False(t, status.IsActive)
}

func TestStatusResolvedTicketJudgedAtResolution(t *testing.T) {
	h := newSLAHarness(100 * time.Hour)
	resolvedAt := slaBase.Add(10 * time.Hour)
	h.sla.firstAt["t1"] = slaBase.Add(time.Hour)

	ticket := highTicket("t1", domain.TicketStatusResolved)
	ticket.ResolvedAt = &resolvedAt

	status := h.service.Status(context.Background(), ticket)
	assert.Equal(t, domain.SLAStateMet, status.ResponseStatus)
	assert.Equal(t, domain.SLAStateMet, status.ResolutionStatus)
	assert.InDelta(t, 10.0, status.TotalElapsedHours, 1e-9)
}

func TestStatusClosedWithoutResponseIsOverdue(t *testing.T) {
	h := newSLAHarness(5 * time.Hour)
	closedAt := slaBase.Add(2 * time.Hour)

	ticket := highTicket("t1", domain.TicketStatusClosed)
	ticket.ClosedAt = &closedAt

	status := h.service.Status(context.Background(), ticket)
	assert.Equal(t, domain.SLAStateOverdue, status.ResponseStatus)
	assert.Equal(t, domain.SLAStateMet, status.ResolutionStatus)
}

func TestStatusDegradesToSafeDefault(t *testing.T) {
	h := newSLAHarness(100 * time.Hour)
	h.sla.ruleErr = true

	status := h.service.Status(context.Background(), highTicket("t1", domain.TicketStatusOpen))
	assert.Equal(t, domain.SLAStateOK, status.ResponseStatus)
	assert.Equal(t, domain.SLAStateOK, status.ResolutionStatus)
}

func TestStatusInactiveRuleYieldsDefault(t *testing.T) {
	h := newSLAHarness(100 * time.Hour)
	h.sla.rules[domain.TicketPriorityHigh].Active = false

	status := h.service.Status(context.Background(), highTicket("t1", domain.TicketStatusOpen))
	assert.Equal(t, domain.SLAStateOK, status.ResponseStatus)
	assert.Equal(t, domain.SLAStateOK, status.ResolutionStatus)
}

func TestRecordFirstResponseHappyPath(t *testing.T) {
	h := newSLAHarness(2 * time.Hour)
	h.tickets.byID["t1"] = highTicket("t1", domain.TicketStatusOpen)

	recorded := h.service.RecordPotentialFirstResponse(context.Background(), "t1", "agent-1", slaBase.Add(time.Hour))
	assert.True(t, recorded)
	assert.Equal(t, 1, h.sla.recordCalls)

	published := h.dispatcher.byType(events.EventFirstResponseRecorded)
	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.FirstResponseRecordedPayload)
	require.True(t, ok)
	assert.Equal(t, "agent-1", payload.AgentID)
}

func TestRecordFirstResponseIgnoresTicketCreator(t *testing.T) {
	h := newSLAHarness(2 * time.Hour)
	h.tickets.byID["t1"] = highTicket("t1", domain.TicketStatusOpen)

	recorded := h.service.RecordPotentialFirstResponse(context.Background(), "t1", "cust-1", slaBase.Add(time.Hour))
	assert.False(t, recorded)
	assert.Zero(t, h.sla.recordCalls)
}

func TestRecordFirstResponseIgnoresInactiveTicket(t *testing.T) {
	h := newSLAHarness(2 * time.Hour)
	h.tickets.byID["t1"] = highTicket("t1", domain.TicketStatusResolved)

	recorded := h.service.RecordPotentialFirstResponse(context.Background(), "t1", "agent-1", slaBase.Add(time.Hour))
	assert.False(t, recorded)
}

func TestRecordFirstResponseIdempotentAcrossEntryPoints(t *testing.T) {
	h := newSLAHarness(2 * time.Hour)
	h.tickets.byID["t1"] = highTicket("t1", domain.TicketStatusOpen)

	// Same message observed from the comment path and the chat path.
	first := h.service.RecordPotentialFirstResponse(context.Background(), "t1", "agent-1", slaBase.Add(time.Hour))
	second := h.service.RecordPotentialFirstResponse(context.Background(), "t1", "agent-1", slaBase.Add(time.Hour))
	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, 1, h.sla.recordCalls)
}

func TestRecordFirstResponseSkipsWhenEarlierAgentCommentExists(t *testing.T) {
	h := newSLAHarness(2 * time.Hour)
	h.tickets.byID["t1"] = highTicket("t1", domain.TicketStatusOpen)
	h.tickets.comments["t1"] = []domain.CommentRecord{
		{ID: "c1", TicketID: "t1", AuthorID: "agent-0", CreatedAt: slaBase.Add(30 * time.Minute)},
	}

	recorded := h.service.RecordPotentialFirstResponse(context.Background(), "t1", "agent-1", slaBase.Add(time.Hour))
	assert.False(t, recorded)
	assert.Zero(t, h.sla.recordCalls)
}

func TestRecordFirstResponseConcurrentCallsRecordOnce(t *testing.T) {
	h := newSLAHarness(2 * time.Hour)
	h.tickets.byID["t1"] = highTicket("t1", domain.TicketStatusOpen)

	var wg sync.WaitGroup
	var mu sync.Mutex
	recorded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h.service.RecordPotentialFirstResponse(context.Background(), "t1", "agent-1", slaBase.Add(time.Hour)) {
				mu.Lock()
				recorded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, recorded)
	assert.Equal(t, 1, h.sla.recordCalls)
}

func TestSweepEmitsWarningOnceThenEscalates(t *testing.T) {
	h := newSLAHarness(3 * time.Hour)
	h.tickets.open = []domain.TicketRecord{highTicket("t1", domain.TicketStatusOpen)}

	require.NoError(t, h.service.Sweep(context.Background()))
	require.NoError(t, h.service.Sweep(context.Background()))
	assert.Len(t, h.dispatcher.byType(events.EventSLAWarning), 1)
	assert.Empty(t, h.dispatcher.byType(events.EventSLABreach))

	// Same ticket past the response deadline: severity moves forward once.
	h.service.WithClock(func() time.Time { return slaBase.Add(5 * time.Hour) })
	require.NoError(t, h.service.Sweep(context.Background()))
	require.NoError(t, h.service.Sweep(context.Background()))

	breaches := h.dispatcher.byType(events.EventSLABreach)
	require.Len(t, breaches, 1)
	payload, ok := breaches[0].Payload.(events.SLAAlertPayload)
	require.True(t, ok)
	assert.Equal(t, events.SLAAlertResponse, payload.Kind)
	assert.Equal(t, domain.SLAStateOverdue, payload.State)
	assert.Equal(t, domain.TicketPriorityHigh, payload.Priority)
}

func TestSweepAlertsBothClocksIndependently(t *testing.T) {
	h := newSLAHarness(25 * time.Hour)
	h.tickets.open = []domain.TicketRecord{highTicket("t1", domain.TicketStatusOpen)}

	require.NoError(t, h.service.Sweep(context.Background()))

	breaches := h.dispatcher.byType(events.EventSLABreach)
	require.Len(t, breaches, 2)
	kinds := map[events.SLAAlertKind]bool{}
	for _, event := range breaches {
		payload := event.Payload.(events.SLAAlertPayload)
		kinds[payload.Kind] = true
	}
	assert.True(t, kinds[events.SLAAlertResponse])
	assert.True(t, kinds[events.SLAAlertResolution])
}
