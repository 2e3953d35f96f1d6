package sidespout_test

import (
	"sync"

	"github.com/sidelinestream/sidespout"
)

// fakeLogConsumer is an in-memory LogConsumer test double: records are
// preloaded via push and handed back in FIFO order per call, honoring
// unsubscribe so a completed partition stops producing.
type fakeLogConsumer struct {
	mu         sync.Mutex
	records    []sidespout.Record
	cursor     int
	committed  map[sidespout.ConsumerPartition]int64
	unsub      map[sidespout.ConsumerPartition]bool
	closed     bool
	persisted  *sidespout.ConsumerState
	stateGone  bool
	openCalled bool
}

func newFakeLogConsumer(records ...sidespout.Record) *fakeLogConsumer {
	return &fakeLogConsumer{
		records:   records,
		committed: make(map[sidespout.ConsumerPartition]int64),
		unsub:     make(map[sidespout.ConsumerPartition]bool),
	}
}

func (f *fakeLogConsumer) Open(startingState *sidespout.ConsumerState) error {
	f.openCalled = true
	return nil
}

func (f *fakeLogConsumer) NextRecord() (*sidespout.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for f.cursor < len(f.records) {
		rec := f.records[f.cursor]
		f.cursor++
		cp := sidespout.ConsumerPartition{Namespace: rec.Namespace, Partition: rec.Partition}
		if f.unsub[cp] {
			continue
		}
		return &rec, nil
	}
	return nil, nil
}

func (f *fakeLogConsumer) CommitOffset(namespace string, partition int32, offset int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := sidespout.ConsumerPartition{Namespace: namespace, Partition: partition}
	if existing, ok := f.committed[cp]; ok && existing >= offset {
		return nil
	}
	f.committed[cp] = offset
	return nil
}

func (f *fakeLogConsumer) FlushConsumerState() error { return nil }

func (f *fakeLogConsumer) RemoveConsumerState() error {
	f.stateGone = true
	return nil
}

func (f *fakeLogConsumer) CurrentState() sidespout.ConsumerState {
	f.mu.Lock()
	defer f.mu.Unlock()
	offsets := make(map[sidespout.ConsumerPartition]int64, len(f.committed))
	for cp, off := range f.committed {
		if !f.unsub[cp] {
			offsets[cp] = off
		}
	}
	return sidespout.NewConsumerState(offsets)
}

func (f *fakeLogConsumer) MaxLag() float64 { return 0 }

func (f *fakeLogConsumer) UnsubscribeConsumerPartition(p sidespout.ConsumerPartition) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unsub[p] {
		return false
	}
	f.unsub[p] = true
	return true
}

func (f *fakeLogConsumer) Close() error {
	f.closed = true
	return nil
}

// fakeRetryPolicy is a minimal in-memory RetryPolicy test double with a
// fixed retry budget.
type fakeRetryPolicy struct {
	mu         sync.Mutex
	maxRetries int
	attempts   map[sidespout.MessageID]int
	due        map[sidespout.MessageID]bool
}

func newFakeRetryPolicy(maxRetries int) *fakeRetryPolicy {
	return &fakeRetryPolicy{
		maxRetries: maxRetries,
		attempts:   make(map[sidespout.MessageID]int),
		due:        make(map[sidespout.MessageID]bool),
	}
}

func (f *fakeRetryPolicy) Failed(id sidespout.MessageID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[id]++
	f.due[id] = true
}

func (f *fakeRetryPolicy) Acked(id sidespout.MessageID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.attempts, id)
	delete(f.due, id)
}

func (f *fakeRetryPolicy) RetryFurther(id sidespout.MessageID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[id] < f.maxRetries
}

func (f *fakeRetryPolicy) NextFailedMessageToRetry() (sidespout.MessageID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, due := range f.due {
		if due {
			f.due[id] = false
			return id, true
		}
	}
	return sidespout.MessageID{}, false
}

// fakePersistence is a minimal in-memory PersistenceAdapter test double.
type fakePersistence struct {
	mu             sync.Mutex
	clearedRequest map[string][]sidespout.ConsumerPartition
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{clearedRequest: make(map[string][]sidespout.ConsumerPartition)}
}

func (f *fakePersistence) PersistConsumerState(consumerID string, state sidespout.ConsumerState) error {
	return nil
}

func (f *fakePersistence) RetrieveConsumerState(consumerID string) (sidespout.ConsumerState, bool, error) {
	return sidespout.ConsumerState{}, false, nil
}

func (f *fakePersistence) ClearConsumerState(consumerID string) error { return nil }

func (f *fakePersistence) ClearSidelineRequest(requestID string, partition sidespout.ConsumerPartition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearedRequest[requestID] = append(f.clearedRequest[requestID], partition)
	return nil
}

// fakeMetrics is a minimal in-memory MetricsRecorder test double.
type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{counts: make(map[string]int64)}
}

func (f *fakeMetrics) Count(name string, delta int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[name] += delta
}

func (f *fakeMetrics) get(name string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[name]
}
