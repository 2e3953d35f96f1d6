package metrics

import "sync"

// InMemory accumulates counts by name, for use in tests and demos that
// don't need a real Prometheus endpoint.
type InMemory struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewInMemory constructs an empty InMemory recorder.
func NewInMemory() *InMemory {
	return &InMemory{counts: make(map[string]int64)}
}

// Count adds delta to name's running total.
func (m *InMemory) Count(name string, delta int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[name] += delta
}

// Get returns name's current total.
func (m *InMemory) Get(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

// Snapshot returns a copy of all accumulated counts.
func (m *InMemory) Snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}
