package sidespout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sidelinestream/sidespout"
)

func TestConsumerState_OffsetAndPartitions(t *testing.T) {
	p0 := sidespout.ConsumerPartition{Namespace: "orders", Partition: 0}
	p1 := sidespout.ConsumerPartition{Namespace: "orders", Partition: 1}

	cs := sidespout.NewConsumerState(map[sidespout.ConsumerPartition]int64{p0: 10, p1: 20})

	off, ok := cs.Offset(p0)
	assert.True(t, ok)
	assert.Equal(t, int64(10), off)

	_, ok = cs.Offset(sidespout.ConsumerPartition{Namespace: "orders", Partition: 2})
	assert.False(t, ok)

	assert.Equal(t, 2, cs.Len())
	assert.ElementsMatch(t, []sidespout.ConsumerPartition{p0, p1}, cs.Partitions())
}

func TestConsumerState_ZeroValue(t *testing.T) {
	var cs sidespout.ConsumerState
	_, ok := cs.Offset(sidespout.ConsumerPartition{Namespace: "orders", Partition: 0})
	assert.False(t, ok)
	assert.Equal(t, 0, cs.Len())
}

func TestConsumerState_WithOffsetDoesNotMutateOriginal(t *testing.T) {
	p0 := sidespout.ConsumerPartition{Namespace: "orders", Partition: 0}
	cs := sidespout.NewConsumerState(map[sidespout.ConsumerPartition]int64{p0: 10})

	next := cs.WithOffset(p0, 11)

	off, _ := cs.Offset(p0)
	assert.Equal(t, int64(10), off, "original must be unchanged")

	off, _ = next.Offset(p0)
	assert.Equal(t, int64(11), off)
}

func TestConsumerState_WithoutPartition(t *testing.T) {
	p0 := sidespout.ConsumerPartition{Namespace: "orders", Partition: 0}
	p1 := sidespout.ConsumerPartition{Namespace: "orders", Partition: 1}
	cs := sidespout.NewConsumerState(map[sidespout.ConsumerPartition]int64{p0: 10, p1: 20})

	next := cs.WithoutPartition(p0)

	assert.Equal(t, 2, cs.Len())
	assert.Equal(t, 1, next.Len())
	_, ok := next.Offset(p0)
	assert.False(t, ok)
}

func TestConsumerState_AsMapIsDefensiveCopy(t *testing.T) {
	p0 := sidespout.ConsumerPartition{Namespace: "orders", Partition: 0}
	cs := sidespout.NewConsumerState(map[sidespout.ConsumerPartition]int64{p0: 10})

	m := cs.AsMap()
	m[p0] = 999

	off, _ := cs.Offset(p0)
	assert.Equal(t, int64(10), off)
}

func TestNewConsumerState_CopiesInputMap(t *testing.T) {
	p0 := sidespout.ConsumerPartition{Namespace: "orders", Partition: 0}
	src := map[sidespout.ConsumerPartition]int64{p0: 10}
	cs := sidespout.NewConsumerState(src)

	src[p0] = 999

	off, _ := cs.Offset(p0)
	assert.Equal(t, int64(10), off)
}
