// Package sidespout implements a sidelineable stream-consumption engine: a
// virtual consumer that layers filtering, bounded retry, and optional
// start/end offset ranges on top of a partitioned, offset-addressed log.
package sidespout

import "fmt"

// ConsumerPartition identifies a single partition within a namespace
// (topic). It is the key type for every per-partition offset map in the
// system.
type ConsumerPartition struct {
	Namespace string
	Partition int32
}

func (cp ConsumerPartition) String() string {
	return fmt.Sprintf("%s-%d", cp.Namespace, cp.Partition)
}

// MessageID is the immutable tuple that identifies one in-flight record:
// the partition it came from, its offset within that partition, and the
// virtual consumer that pulled it. It is used both as the in-flight table
// key and as the ack/fail token handed back to callers.
type MessageID struct {
	Namespace         string
	Partition         int32
	Offset            int64
	VirtualConsumerID string
}

func (id MessageID) String() string {
	return fmt.Sprintf("%s-%d:%d@%s", id.Namespace, id.Partition, id.Offset, id.VirtualConsumerID)
}

// ConsumerPartition returns the (namespace, partition) this id belongs to.
func (id MessageID) ConsumerPartition() ConsumerPartition {
	return ConsumerPartition{Namespace: id.Namespace, Partition: id.Partition}
}

// Message is the unit emitted downstream: a MessageID plus its opaque
// payload. It is owned by the virtual consumer's in-flight table until
// Ack or a terminal Fail resolves it.
type Message struct {
	ID     MessageID
	Values []byte
}
