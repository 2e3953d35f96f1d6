package logconsumer

import (
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"github.com/sidelinestream/sidespout"
)

// KafkaLogConsumer implements sidespout.LogConsumer against a real Kafka
// topic using confluent-kafka-go. It hands records back one at a time;
// VirtualConsumer owns filtering, in-flight tracking and retry.
type KafkaLogConsumer struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	consumer *kafka.Consumer
	assigned map[sidespout.ConsumerPartition]bool
	seen     map[sidespout.ConsumerPartition]int64 // highest offset returned
	latest   map[sidespout.ConsumerPartition]int64 // highest offset read, for MaxLag

	committed map[sidespout.ConsumerPartition]int64
}

// New constructs a KafkaLogConsumer. logger may be nil.
func New(cfg Config, logger *zap.Logger) *KafkaLogConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 100 * time.Millisecond
	}
	return &KafkaLogConsumer{
		cfg:       cfg,
		logger:    logger,
		assigned:  make(map[sidespout.ConsumerPartition]bool),
		seen:      make(map[sidespout.ConsumerPartition]int64),
		latest:    make(map[sidespout.ConsumerPartition]int64),
		committed: make(map[sidespout.ConsumerPartition]int64),
	}
}

// Open builds the underlying *kafka.Consumer, seeks to startingState (or
// persisted offsets, or earliest) and assigns this consumer's share of
// the topic's partitions.
func (c *KafkaLogConsumer) Open(startingState *sidespout.ConsumerState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  joinBrokers(c.cfg.Brokers),
		"group.id":           c.cfg.ConsumerID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return fmt.Errorf("creating kafka consumer: %w", err)
	}
	c.consumer = consumer

	meta, err := consumer.GetMetadata(&c.cfg.Topic, false, 5000)
	if err != nil {
		return fmt.Errorf("fetching topic metadata for %s: %w", c.cfg.Topic, err)
	}
	topicMeta, ok := meta.Topics[c.cfg.Topic]
	if !ok {
		return fmt.Errorf("topic %s not found in cluster metadata", c.cfg.Topic)
	}

	// A starting state's offsets are the first ones to read (inclusive); a
	// persisted state's offsets are the last ones committed.
	var resolved *sidespout.ConsumerState
	inclusive := false
	if startingState != nil {
		resolved = startingState
		inclusive = true
	} else if c.cfg.Persistence != nil {
		if state, found, err := c.cfg.Persistence.RetrieveConsumerState(c.cfg.ConsumerID); err != nil {
			return fmt.Errorf("retrieving persisted consumer state: %w", err)
		} else if found {
			resolved = &state
		}
	}

	var assignment []kafka.TopicPartition
	for _, pm := range topicMeta.Partitions {
		partition := pm.ID
		if !c.owns(partition) {
			continue
		}

		cp := sidespout.ConsumerPartition{Namespace: c.cfg.Topic, Partition: partition}
		tp := kafka.TopicPartition{Topic: &c.cfg.Topic, Partition: partition}

		if resolved != nil {
			if off, ok := resolved.Offset(cp); ok {
				if inclusive {
					tp.Offset = kafka.Offset(off)
					c.committed[cp] = off - 1
				} else {
					tp.Offset = kafka.Offset(off + 1)
					c.committed[cp] = off
				}
			} else {
				tp.Offset = kafka.OffsetBeginning
			}
		} else {
			tp.Offset = kafka.OffsetBeginning
		}

		assignment = append(assignment, tp)
		c.assigned[cp] = true
	}

	if err := consumer.Assign(assignment); err != nil {
		return fmt.Errorf("assigning partitions: %w", err)
	}

	c.logger.Info("log consumer opened",
		zap.String("topic", c.cfg.Topic),
		zap.Int("partitions", len(assignment)),
		zap.Int("num_consumers", c.cfg.NumConsumers),
		zap.Int("consumer_index", c.cfg.ConsumerIndex))

	return nil
}

// owns reports whether partition belongs to this consumer's static share
// of a (numConsumers, consumerIndex) modulo assignment.
func (c *KafkaLogConsumer) owns(partition int32) bool {
	if c.cfg.NumConsumers <= 1 {
		return true
	}
	return int(partition)%c.cfg.NumConsumers == c.cfg.ConsumerIndex
}

// NextRecord pulls one record, applying the configured Deserializer to
// its payload. Returns (nil, nil) on timeout (no subscribed partition
// produced a record) or for an unsubscribed partition's leftover message.
func (c *KafkaLogConsumer) NextRecord() (*sidespout.Record, error) {
	c.mu.Lock()
	consumer := c.consumer
	c.mu.Unlock()
	if consumer == nil {
		return nil, fmt.Errorf("log consumer not open")
	}

	kMsg, err := consumer.ReadMessage(c.cfg.PollTimeout)
	if err != nil {
		if kafkaErr, ok := err.(kafka.Error); ok && kafkaErr.Code() == kafka.ErrTimedOut {
			return nil, nil
		}
		return nil, fmt.Errorf("reading kafka message: %w", err)
	}
	if kMsg == nil {
		return nil, nil
	}

	cp := sidespout.ConsumerPartition{Namespace: *kMsg.TopicPartition.Topic, Partition: kMsg.TopicPartition.Partition}

	c.mu.Lock()
	if !c.assigned[cp] {
		c.mu.Unlock()
		// Unsubscribed mid-flight; drop the stray message.
		return nil, nil
	}
	offset := int64(kMsg.TopicPartition.Offset)
	if offset > c.seen[cp] {
		c.seen[cp] = offset
	}
	if offset > c.latest[cp] {
		c.latest[cp] = offset
	}
	c.mu.Unlock()

	values := kMsg.Value
	if c.cfg.Deserializer != nil {
		values, err = c.cfg.Deserializer.Deserialize(kMsg.Value)
		if err != nil {
			return nil, fmt.Errorf("deserializing message at %s offset %d: %w", cp, offset, err)
		}
	}

	return &sidespout.Record{
		Namespace: cp.Namespace,
		Partition: cp.Partition,
		Offset:    offset,
		Values:    values,
	}, nil
}

// CommitOffset records offset as committed for (namespace, partition).
// Cumulative: a lower-or-equal offset is a no-op.
func (c *KafkaLogConsumer) CommitOffset(namespace string, partition int32, offset int64) error {
	cp := sidespout.ConsumerPartition{Namespace: namespace, Partition: partition}

	c.mu.Lock()
	if existing, ok := c.committed[cp]; ok && existing >= offset {
		c.mu.Unlock()
		return nil
	}
	c.committed[cp] = offset
	consumer := c.consumer
	c.mu.Unlock()

	if consumer == nil {
		return fmt.Errorf("log consumer not open")
	}

	_, err := consumer.CommitOffsets([]kafka.TopicPartition{{
		Topic:     &namespace,
		Partition: partition,
		Offset:    kafka.Offset(offset + 1),
	}})
	if err != nil {
		return fmt.Errorf("committing offset %d for %s: %w", offset, cp, err)
	}
	return nil
}

// FlushConsumerState pushes the current committed snapshot to the
// persistence adapter under this consumer's id.
func (c *KafkaLogConsumer) FlushConsumerState() error {
	if c.cfg.Persistence == nil {
		return nil
	}
	state := c.CurrentState()
	if err := c.cfg.Persistence.PersistConsumerState(c.cfg.ConsumerID, state); err != nil {
		return fmt.Errorf("persisting consumer state for %s: %w", c.cfg.ConsumerID, err)
	}
	return nil
}

// RemoveConsumerState erases this consumer's persisted state.
func (c *KafkaLogConsumer) RemoveConsumerState() error {
	if c.cfg.Persistence == nil {
		return nil
	}
	if err := c.cfg.Persistence.ClearConsumerState(c.cfg.ConsumerID); err != nil {
		return fmt.Errorf("clearing consumer state for %s: %w", c.cfg.ConsumerID, err)
	}
	return nil
}

// CurrentState returns a snapshot of committed offsets, restricted to
// partitions still in the active (non-unsubscribed) assignment.
func (c *KafkaLogConsumer) CurrentState() sidespout.ConsumerState {
	c.mu.Lock()
	defer c.mu.Unlock()

	offsets := make(map[sidespout.ConsumerPartition]int64, len(c.committed))
	for cp, off := range c.committed {
		if c.assigned[cp] {
			offsets[cp] = off
		}
	}
	return sidespout.NewConsumerState(offsets)
}

// MaxLag returns the maximum (latest seen offset - committed offset)
// across subscribed partitions.
func (c *KafkaLogConsumer) MaxLag() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var max float64
	for cp := range c.assigned {
		lag := float64(c.latest[cp] - c.committed[cp])
		if lag > max {
			max = lag
		}
	}
	return max
}

// UnsubscribeConsumerPartition removes p from the active set so future
// NextRecord calls never return it again. Returns true iff p was
// previously subscribed.
func (c *KafkaLogConsumer) UnsubscribeConsumerPartition(p sidespout.ConsumerPartition) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.assigned[p] {
		return false
	}
	delete(c.assigned, p)

	consumer := c.consumer
	if consumer == nil {
		return true
	}

	var remaining []kafka.TopicPartition
	for cp := range c.assigned {
		topic := cp.Namespace
		remaining = append(remaining, kafka.TopicPartition{
			Topic:     &topic,
			Partition: cp.Partition,
			Offset:    kafka.Offset(c.committed[cp] + 1),
		})
	}
	if err := consumer.Assign(remaining); err != nil {
		c.logger.Warn("failed reassigning after unsubscribe",
			zap.Stringer("partition", p), zap.Error(err))
	}
	return true
}

// Close releases the broker connection.
func (c *KafkaLogConsumer) Close() error {
	c.mu.Lock()
	consumer := c.consumer
	c.consumer = nil
	c.mu.Unlock()

	if consumer == nil {
		return nil
	}
	if err := consumer.Close(); err != nil {
		return fmt.Errorf("closing kafka consumer: %w", err)
	}
	return nil
}

func joinBrokers(brokers []string) string {
	out := ""
	for i, b := range brokers {
		if i > 0 {
			out += ","
		}
		out += b
	}
	return out
}
