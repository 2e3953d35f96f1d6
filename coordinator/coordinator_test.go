package coordinator_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidelinestream/sidespout"
	"github.com/sidelinestream/sidespout/coordinator"
	"github.com/sidelinestream/sidespout/filter"
)

// fakeLogConsumer is a minimal in-memory LogConsumer for exercising
// Coordinator's goroutine-per-member fan-in without a real broker.
type fakeLogConsumer struct {
	mu        sync.Mutex
	records   []sidespout.Record
	cursor    int
	committed map[sidespout.ConsumerPartition]int64
}

func newFakeLogConsumer(records ...sidespout.Record) *fakeLogConsumer {
	return &fakeLogConsumer{records: records, committed: make(map[sidespout.ConsumerPartition]int64)}
}

func (f *fakeLogConsumer) Open(*sidespout.ConsumerState) error { return nil }

func (f *fakeLogConsumer) NextRecord() (*sidespout.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cursor >= len(f.records) {
		return nil, nil
	}
	rec := f.records[f.cursor]
	f.cursor++
	return &rec, nil
}

func (f *fakeLogConsumer) CommitOffset(namespace string, partition int32, offset int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed[sidespout.ConsumerPartition{Namespace: namespace, Partition: partition}] = offset
	return nil
}

func (f *fakeLogConsumer) FlushConsumerState() error                                  { return nil }
func (f *fakeLogConsumer) RemoveConsumerState() error                                 { return nil }
func (f *fakeLogConsumer) CurrentState() sidespout.ConsumerState                       { return sidespout.NewConsumerState(nil) }
func (f *fakeLogConsumer) MaxLag() float64                                            { return 0 }
func (f *fakeLogConsumer) UnsubscribeConsumerPartition(sidespout.ConsumerPartition) bool { return true }
func (f *fakeLogConsumer) Close() error                                               { return nil }

type noopRetryPolicy struct{}

func (noopRetryPolicy) Failed(sidespout.MessageID) {}
func (noopRetryPolicy) Acked(sidespout.MessageID)  {}
func (noopRetryPolicy) RetryFurther(sidespout.MessageID) bool { return false }
func (noopRetryPolicy) NextFailedMessageToRetry() (sidespout.MessageID, bool) {
	return sidespout.MessageID{}, false
}

type noopPersistence struct{}

func (noopPersistence) PersistConsumerState(string, sidespout.ConsumerState) error { return nil }
func (noopPersistence) RetrieveConsumerState(string) (sidespout.ConsumerState, bool, error) {
	return sidespout.ConsumerState{}, false, nil
}
func (noopPersistence) ClearConsumerState(string) error                              { return nil }
func (noopPersistence) ClearSidelineRequest(string, sidespout.ConsumerPartition) error { return nil }

type noopMetrics struct{}

func (noopMetrics) Count(string, int64) {}

func newTestVirtualConsumer(t *testing.T, id string, records ...sidespout.Record) *sidespout.VirtualConsumer {
	t.Helper()
	deps := sidespout.Dependencies{
		LogConsumer: newFakeLogConsumer(records...),
		RetryPolicy: noopRetryPolicy{},
		Persistence: noopPersistence{},
		Metrics:     noopMetrics{},
	}
	vc, err := sidespout.New(id, sidespout.Config{}, nil, nil, filter.New(), deps)
	require.NoError(t, err)
	require.NoError(t, vc.Open())
	return vc
}

func TestCoordinator_FansMessagesFromRegisteredMembers(t *testing.T) {
	vc := newTestVirtualConsumer(t, "vc-1",
		sidespout.Record{Namespace: "orders", Partition: 0, Offset: 0, Values: []byte("a")},
		sidespout.Record{Namespace: "orders", Partition: 0, Offset: 1, Values: []byte("b")},
	)

	coord := coordinator.New(coordinator.Config{PollInterval: time.Millisecond})
	coord.Register(vc)

	seen := make(map[string]bool)
	timeout := time.After(2 * time.Second)
	for len(seen) < 2 {
		select {
		case msg := <-coord.Messages():
			seen[string(msg.Values)] = true
			require.NoError(t, coord.Ack(msg.ID))
		case <-timeout:
			t.Fatal("timed out waiting for messages")
		}
	}

	assert.True(t, seen["a"])
	assert.True(t, seen["b"])

	coord.Stop()
}

func TestCoordinator_AckUnknownConsumerErrors(t *testing.T) {
	coord := coordinator.New(coordinator.Config{})
	err := coord.Ack(sidespout.MessageID{VirtualConsumerID: "ghost"})
	assert.Error(t, err)
	coord.Stop()
}
