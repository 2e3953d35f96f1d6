package sidespout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sidelinestream/sidespout"
)

func TestMessageID_String(t *testing.T) {
	id := sidespout.MessageID{Namespace: "orders", Partition: 2, Offset: 17, VirtualConsumerID: "vc-1"}
	assert.Equal(t, "orders-2:17@vc-1", id.String())
}

func TestMessageID_ConsumerPartition(t *testing.T) {
	id := sidespout.MessageID{Namespace: "orders", Partition: 2, Offset: 17, VirtualConsumerID: "vc-1"}
	assert.Equal(t, sidespout.ConsumerPartition{Namespace: "orders", Partition: 2}, id.ConsumerPartition())
}

func TestConsumerPartition_String(t *testing.T) {
	cp := sidespout.ConsumerPartition{Namespace: "orders", Partition: 5}
	assert.Equal(t, "orders-5", cp.String())
}
