package persistence

import (
	"sync"

	"github.com/sidelinestream/sidespout"
)

// Memory is an in-process PersistenceAdapter backed by a map. It's the
// default used by tests and by single-process demos; state does not
// survive a process restart.
type Memory struct {
	mu     sync.RWMutex
	states map[string]sidespout.ConsumerState
	// sideline tracks cleared-or-not per (requestID, partition); absence
	// means "never stored / already cleared."
	sideline map[string]map[sidespout.ConsumerPartition]int64
}

// NewMemory constructs an empty Memory adapter.
func NewMemory() *Memory {
	return &Memory{
		states:   make(map[string]sidespout.ConsumerState),
		sideline: make(map[string]map[sidespout.ConsumerPartition]int64),
	}
}

// PersistConsumerState stores state under consumerID, replacing whatever
// was stored before.
func (m *Memory) PersistConsumerState(consumerID string, state sidespout.ConsumerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[consumerID] = state
	return nil
}

// RetrieveConsumerState returns the last-persisted state for consumerID,
// if any.
func (m *Memory) RetrieveConsumerState(consumerID string) (sidespout.ConsumerState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[consumerID]
	return state, ok, nil
}

// ClearConsumerState erases consumerID's stored state.
func (m *Memory) ClearConsumerState(consumerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, consumerID)
	return nil
}

// StoreSidelineRequestOffset records the ending offset for (requestID,
// partition). Used by the sideline-trigger subsystem (out of scope here)
// to seed the offsets a replay VirtualConsumer's ending state reads from.
func (m *Memory) StoreSidelineRequestOffset(requestID string, partition sidespout.ConsumerPartition, offset int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sideline[requestID] == nil {
		m.sideline[requestID] = make(map[sidespout.ConsumerPartition]int64)
	}
	m.sideline[requestID][partition] = offset
	return nil
}

// SidelineRequestOffset returns the stored ending offset for (requestID,
// partition), if any.
func (m *Memory) SidelineRequestOffset(requestID string, partition sidespout.ConsumerPartition) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	offsets, ok := m.sideline[requestID]
	if !ok {
		return 0, false
	}
	off, ok := offsets[partition]
	return off, ok
}

// ClearSidelineRequest removes the stored entry for (requestID, partition).
func (m *Memory) ClearSidelineRequest(requestID string, partition sidespout.ConsumerPartition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offsets, ok := m.sideline[requestID]; ok {
		delete(offsets, partition)
		if len(offsets) == 0 {
			delete(m.sideline, requestID)
		}
	}
	return nil
}

// Close is a no-op; Memory holds no external resources.
func (m *Memory) Close() error { return nil }
