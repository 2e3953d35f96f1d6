// Package logconsumer implements sidespout.LogConsumer against a real
// Kafka cluster via confluent-kafka-go, handing one record at a time to
// a single caller rather than pushing messages into a shared pool.
package logconsumer

import (
	"time"

	"github.com/sidelinestream/sidespout"
)

// Config carries the Kafka connection and partition-assignment settings
// a KafkaLogConsumer needs. NumConsumers/ConsumerIndex assign partitions
// deterministically by (numConsumers, consumerIndex) modulo arithmetic.
type Config struct {
	Brokers []string
	Topic   string

	// ConsumerID is this virtual consumer's identity: used as the
	// persistence-adapter key and as the Kafka consumer group id.
	ConsumerID string

	// NumConsumers/ConsumerIndex deterministically partition the topic's
	// partitions among peers sharing one logical consumer. When
	// NumConsumers <= 1 this consumer owns every partition. Partitions are
	// always statically assigned; group-based subscription is not used.
	NumConsumers int
	ConsumerIndex int

	// PollTimeout bounds how long NextRecord may block waiting for a
	// message before returning (nil, nil). Defaults to 100ms.
	PollTimeout time.Duration

	Persistence  sidespout.PersistenceAdapter
	Deserializer sidespout.Deserializer
}
