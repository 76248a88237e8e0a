package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/routing-engine/internal/domain"
	"github.com/spec-kit/routing-engine/internal/events"
	"github.com/spec-kit/routing-engine/internal/observability"
	"github.com/spec-kit/routing-engine/internal/persistence"
	"github.com/spec-kit/routing-engine/internal/repository"
)

var errFakeUnavailable = errors.New("fake: unavailable")

var (
	_ repository.DirectoryRepository = (*fakeDirectory)(nil)
	_ repository.CustomerRepository  = (*fakeCustomers)(nil)
	_ repository.RuleRepository      = (*fakeRules)(nil)
	_ repository.TicketRepository    = (*fakeTickets)(nil)
	_ repository.SLARepository       = (*fakeSLA)(nil)
	_ events.Dispatcher              = (*capturingDispatcher)(nil)
)

type fakeDirectory struct {
	agents    []domain.AgentSnapshot
	workloads map[string]int
	perf      map[string]repository.AgentPerformance
	stats     map[string]domain.CustomerHistoryStats
	perfErr   bool
}

func (f *fakeDirectory) FetchAgents(_ context.Context, _ []domain.AgentRole) ([]domain.AgentSnapshot, error) {
	out := make([]domain.AgentSnapshot, len(f.agents))
	copy(out, f.agents)
	return out, nil
}

func (f *fakeDirectory) FetchAgentWorkload(_ context.Context, agentID string) (int, error) {
	return f.workloads[agentID], nil
}

func (f *fakeDirectory) FetchAgentPerformance(_ context.Context, agentID string, _ int) (repository.AgentPerformance, error) {
	if f.perfErr {
		return repository.AgentPerformance{}, errFakeUnavailable
	}
	return f.perf[agentID], nil
}

func (f *fakeDirectory) FetchAgentCustomerStats(_ context.Context, agentID string) (domain.CustomerHistoryStats, error) {
	return f.stats[agentID], nil
}

type fakeCustomers struct {
	customer   *domain.CustomerRecord
	history    []domain.TicketRecord
	fetchErr   bool
	historyErr bool
}

func (f *fakeCustomers) FetchCustomer(_ context.Context, _ string) (*domain.CustomerRecord, error) {
	if f.fetchErr || f.customer == nil {
		return nil, errFakeUnavailable
	}
	return f.customer, nil
}

func (f *fakeCustomers) FetchCustomerTicketHistory(_ context.Context, _ string) ([]domain.TicketRecord, error) {
	if f.historyErr {
		return nil, errFakeUnavailable
	}
	return f.history, nil
}

type fakeRules struct {
	rules []domain.AssignmentRule
	err   bool
}

func (f *fakeRules) FetchEnabledRules(_ context.Context) ([]domain.AssignmentRule, error) {
	if f.err {
		return nil, errFakeUnavailable
	}
	return f.rules, nil
}

type fakeTickets struct {
	mu          sync.Mutex
	byID        map[string]domain.TicketRecord
	open        []domain.TicketRecord
	byAgent     map[string][]domain.TicketRecord
	comments    map[string][]domain.CommentRecord
	reassigned  []domain.Reassignment
	reassignErr bool
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{
		byID:     make(map[string]domain.TicketRecord),
		byAgent:  make(map[string][]domain.TicketRecord),
		comments: make(map[string][]domain.CommentRecord),
	}
}

func (f *fakeTickets) GetByID(_ context.Context, id string) (*domain.TicketRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.byID[id]
	if !ok {
		return nil, errFakeUnavailable
	}
	return &ticket, nil
}

func (f *fakeTickets) FetchOpenTickets(_ context.Context) ([]domain.TicketRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.TicketRecord, len(f.open))
	copy(out, f.open)
	return out, nil
}

func (f *fakeTickets) FetchOpenTicketsByAgent(_ context.Context, agentID string) ([]domain.TicketRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.TicketRecord, len(f.byAgent[agentID]))
	copy(out, f.byAgent[agentID])
	return out, nil
}

func (f *fakeTickets) ReassignTicket(_ context.Context, ticketID, fromAgentID, toAgentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reassignErr {
		return errFakeUnavailable
	}
	f.reassigned = append(f.reassigned, domain.Reassignment{
		TicketID:    ticketID,
		FromAgentID: fromAgentID,
		ToAgentID:   toAgentID,
	})
	return nil
}

func (f *fakeTickets) FetchCommentsBefore(_ context.Context, ticketID string, before time.Time) ([]domain.CommentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket := f.byID[ticketID]
	var out []domain.CommentRecord
	for _, comment := range f.comments[ticketID] {
		if comment.CreatedAt.Before(before) && comment.AuthorID != ticket.CustomerID {
			out = append(out, comment)
		}
	}
	return out, nil
}

type fakeSLA struct {
	mu           sync.Mutex
	rules        map[domain.TicketPriority]*domain.SLARule
	firstAt      map[string]time.Time
	recordCalls  int
	ruleErr      bool
	recordFailed bool
}

func newFakeSLA() *fakeSLA {
	return &fakeSLA{
		rules:   make(map[domain.TicketPriority]*domain.SLARule),
		firstAt: make(map[string]time.Time),
	}
}

func (f *fakeSLA) FetchSLARule(_ context.Context, priority domain.TicketPriority) (*domain.SLARule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ruleErr {
		return nil, errFakeUnavailable
	}
	rule, ok := f.rules[priority]
	if !ok {
		return nil, errFakeUnavailable
	}
	return rule, nil
}

func (f *fakeSLA) FirstResponseAt(_ context.Context, ticketID string) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if at, ok := f.firstAt[ticketID]; ok {
		return &at, nil
	}
	return nil, nil
}

func (f *fakeSLA) RecordFirstResponse(_ context.Context, ticketID, _ string, respondedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordFailed {
		return errFakeUnavailable
	}
	if _, ok := f.firstAt[ticketID]; !ok {
		f.firstAt[ticketID] = respondedAt
		f.recordCalls++
	}
	return nil
}

type capturingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *capturingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

func (d *capturingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

// assignmentHarness wires an AssignmentService over fakes.
type assignmentHarness struct {
	service    *AssignmentService
	ledger     *WorkloadLedger
	dispatcher *capturingDispatcher
	directory  *fakeDirectory
	rules      *fakeRules
}

func newAssignmentHarness(directory *fakeDirectory, customers *fakeCustomers, rules *fakeRules) *assignmentHarness {
	logger := zap.NewNop()
	ledger := NewWorkloadLedger()
	dispatcher := &capturingDispatcher{}

	snapshots := NewSnapshotService(directory, ledger, logger, 30)
	profiles := NewProfileService(customers, persistence.NewMemoryProfileCache(), logger, time.Minute)

	svc := NewAssignmentService(AssignmentDependencies{
		Snapshots:  snapshots,
		Profiles:   profiles,
		RuleRepo:   rules,
		RuleEngine: NewRuleEngine(),
		Scorer:     NewScoringEngine(),
		Ledger:     ledger,
		Dispatcher: dispatcher,
		Metrics:    observability.NewMetrics(),
		Logger:     logger,
	})
	return &assignmentHarness{
		service:    svc,
		ledger:     ledger,
		dispatcher: dispatcher,
		directory:  directory,
		rules:      rules,
	}
}
