package service

import "sync"

// WorkloadLedger is the authoritative in-process view of per-agent workload
// counters. Every mutation is serialized behind one mutex so two concurrent
// assignments can never both observe a stale count and jointly push an agent
// past its maximum.
type WorkloadLedger struct {
	mu     sync.Mutex
	agents map[string]*agentSlot
}

type agentSlot struct {
	count int
	max   int
}

// NewWorkloadLedger creates an empty ledger.
func NewWorkloadLedger() *WorkloadLedger {
	return &WorkloadLedger{agents: make(map[string]*agentSlot)}
}

// Ensure registers an agent with its observed workload if the ledger does not
// track it yet. Known agents keep their live counter; the stored observation
// may be stale relative to assignments committed since the snapshot.
func (l *WorkloadLedger) Ensure(agentID string, maxConcurrent, observed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.agents[agentID]
	if !ok {
		l.agents[agentID] = &agentSlot{count: observed, max: maxConcurrent}
		return
	}
	slot.max = maxConcurrent
}

// Workload returns the current counter for the agent, zero if untracked.
func (l *WorkloadLedger) Workload(agentID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if slot, ok := l.agents[agentID]; ok {
		return slot.count
	}
	return 0
}

// TryAcquire reserves one workload slot for the agent. It fails when the
// agent is unknown or already at its maximum.
func (l *WorkloadLedger) TryAcquire(agentID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.agents[agentID]
	if !ok || slot.count >= slot.max {
		return false
	}
	slot.count++
	return true
}

// Release returns one workload slot, e.g. when a ticket resolves or a
// downstream persist fails after TryAcquire.
func (l *WorkloadLedger) Release(agentID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if slot, ok := l.agents[agentID]; ok && slot.count > 0 {
		slot.count--
	}
}

// HasSpare reports whether the agent sits at least `margin+1` slots below
// its maximum, i.e. could take one more ticket and still keep the margin.
func (l *WorkloadLedger) HasSpare(agentID string, margin int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.agents[agentID]
	return ok && slot.count < slot.max-margin
}

// TryMove transfers one slot from one agent to another as a single logical
// unit. The destination must stay `margin` slots below its maximum after the
// move; the rebalancer passes 1 to keep a one-ticket safety margin.
func (l *WorkloadLedger) TryMove(fromID, toID string, margin int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	from, ok := l.agents[fromID]
	if !ok || from.count == 0 {
		return false
	}
	to, ok := l.agents[toID]
	if !ok || to.count >= to.max-margin {
		return false
	}
	from.count--
	to.count++
	return true
}
