package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the engine and its HTTP
// boundary.
type Metrics struct {
	mu             sync.Mutex
	requestCount   map[string]int64
	errorCount     map[string]int64
	assignments    map[string]int64
	rebalanceMoves int64
	slaAlerts      map[string]int64
	firstResponses int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		assignments:  make(map[string]int64),
		slaAlerts:    make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordAssignment counts assignment outcomes by path (manual, rule, scored)
// or failure reason.
func (m *Metrics) RecordAssignment(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[outcome]++
}

// RecordRebalanceMoves adds to the total of rebalancer ticket moves.
func (m *Metrics) RecordRebalanceMoves(count int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebalanceMoves += int64(count)
}

// RecordSLAAlert counts warning/breach emissions by clock kind and state.
func (m *Metrics) RecordSLAAlert(kind, state string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slaAlerts[kind+"|"+state]++
}

// RecordFirstResponse counts recorded first responses.
func (m *Metrics) RecordFirstResponse() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.firstResponses++
}

// Snapshot returns a copy of all counters for diagnostics endpoints.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64)
	for k, v := range m.requestCount {
		out["request|"+k] = v
	}
	for k, v := range m.errorCount {
		out["error|"+k] = v
	}
	for k, v := range m.assignments {
		out["assignment|"+k] = v
	}
	for k, v := range m.slaAlerts {
		out["sla_alert|"+k] = v
	}
	out["rebalance_moves"] = m.rebalanceMoves
	out["first_responses"] = m.firstResponses
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
