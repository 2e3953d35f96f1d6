package sidespout

// Record is a single record pulled from the underlying partitioned log.
// Produced by a LogConsumer; immutable once constructed.
type Record struct {
	Namespace string
	Partition int32
	Offset    int64
	Values    []byte
}

// LogConsumer is the capability interface a VirtualConsumer uses to talk
// to the underlying partitioned log. Exactly one VirtualConsumer owns a
// given LogConsumer instance at a time — see logconsumer.KafkaLogConsumer
// for the confluent-kafka-go backed implementation.
type LogConsumer interface {
	// Open initializes the consumer against its configured brokers/topic.
	// If startingState is non-nil, seeks to the offsets it specifies;
	// otherwise seeks to persisted offsets if any, else earliest.
	Open(startingState *ConsumerState) error

	// NextRecord pulls one record from any subscribed partition. Returns
	// (nil, nil) when none is immediately available. Must never return
	// the same (partition, offset) twice within one Open lifetime.
	NextRecord() (*Record, error)

	// CommitOffset records offset as the committed frontier for
	// (namespace, partition). Cumulative: commits for an
	// already-committed-or-higher offset are permitted no-ops.
	CommitOffset(namespace string, partition int32, offset int64) error

	// FlushConsumerState pushes committed state to the persistence
	// adapter under this consumer's id.
	FlushConsumerState() error

	// RemoveConsumerState erases this consumer's persisted state.
	RemoveConsumerState() error

	// CurrentState returns a snapshot of committed offsets.
	CurrentState() ConsumerState

	// MaxLag returns the maximum (latest offset - committed offset)
	// across subscribed partitions.
	MaxLag() float64

	// UnsubscribeConsumerPartition removes p from the active set. Returns
	// true iff it was previously subscribed.
	UnsubscribeConsumerPartition(p ConsumerPartition) bool

	// Close releases broker connections.
	Close() error
}

// RetryPolicy mirrors retry.Policy structurally so that VirtualConsumer
// can depend on it without importing the retry package. Any retry.Policy
// implementation satisfies this interface automatically.
type RetryPolicy interface {
	Failed(id MessageID)
	Acked(id MessageID)
	RetryFurther(id MessageID) bool
	NextFailedMessageToRetry() (MessageID, bool)
}

// PersistenceAdapter mirrors persistence.Adapter structurally, for the
// same reason as RetryPolicy above.
type PersistenceAdapter interface {
	PersistConsumerState(consumerID string, state ConsumerState) error
	RetrieveConsumerState(consumerID string) (ConsumerState, bool, error)
	ClearConsumerState(consumerID string) error
	ClearSidelineRequest(requestID string, partition ConsumerPartition) error
}

// MetricsRecorder mirrors metrics.Recorder structurally. name follows the
// spec's "<virtualConsumerId>.<kind>" convention, e.g.
// "sideline-42.exceeded_retry_limit".
type MetricsRecorder interface {
	Count(name string, delta int64)
}

// Deserializer converts a raw log payload into the value bytes a Message
// carries. The identity deserializer (Identity) is used when the caller
// doesn't need structured decoding at this layer.
type Deserializer interface {
	Deserialize(raw []byte) ([]byte, error)
}

// Identity is a Deserializer that returns raw unchanged.
type Identity struct{}

// Deserialize returns raw as-is.
func (Identity) Deserialize(raw []byte) ([]byte, error) { return raw, nil }

// Dependencies bundles the pluggable collaborators a VirtualConsumer
// needs, wired via plain constructor injection rather than a reflection-
// based plugin lookup. The Deserializer collaborator is a dependency of
// LogConsumer, not of VirtualConsumer directly — it's handed to the log
// consumer when it is constructed (logconsumer.Config) — so it isn't
// repeated here.
type Dependencies struct {
	LogConsumer LogConsumer
	RetryPolicy RetryPolicy
	Persistence PersistenceAdapter
	Metrics     MetricsRecorder
}
