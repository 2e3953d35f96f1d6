package sidespout

// ConsumerState is a snapshot mapping (namespace, partition) to an offset.
// It plays two roles depending on where it's used: a starting state is an
// inclusive lower bound for the initial seek (nil entry == seek to head);
// an ending state is an inclusive upper bound (nil == unbounded). It is
// also used to report the committed frontier.
//
// The set of keys in a starting/ending ConsumerState identifies the exact
// set of partitions a virtual consumer subscribes to initially. Offsets
// never decrease once observed as "committed" — see LogConsumer.CommitOffset.
type ConsumerState struct {
	offsets map[ConsumerPartition]int64
}

// NewConsumerState builds a ConsumerState from a plain map. The map is
// copied; mutating the argument afterwards has no effect on the result.
func NewConsumerState(offsets map[ConsumerPartition]int64) ConsumerState {
	cp := make(map[ConsumerPartition]int64, len(offsets))
	for k, v := range offsets {
		cp[k] = v
	}
	return ConsumerState{offsets: cp}
}

// Offset returns the offset recorded for partition p and whether it was
// present at all.
func (cs ConsumerState) Offset(p ConsumerPartition) (int64, bool) {
	if cs.offsets == nil {
		return 0, false
	}
	off, ok := cs.offsets[p]
	return off, ok
}

// Partitions returns the set of partitions this state covers. Order is
// unspecified.
func (cs ConsumerState) Partitions() []ConsumerPartition {
	out := make([]ConsumerPartition, 0, len(cs.offsets))
	for p := range cs.offsets {
		out = append(out, p)
	}
	return out
}

// Len reports how many partitions this state covers.
func (cs ConsumerState) Len() int {
	return len(cs.offsets)
}

// WithOffset returns a copy of cs with p's offset set to offset. The
// underlying map is not mutated in place so that a ConsumerState can be
// safely handed to callers as a value-type snapshot.
func (cs ConsumerState) WithOffset(p ConsumerPartition, offset int64) ConsumerState {
	next := make(map[ConsumerPartition]int64, len(cs.offsets)+1)
	for k, v := range cs.offsets {
		next[k] = v
	}
	next[p] = offset
	return ConsumerState{offsets: next}
}

// WithoutPartition returns a copy of cs with p removed entirely. Used when
// a partition is unsubscribed: its entry remains in the *configured*
// bound but is removed from the live committed state (spec invariant).
func (cs ConsumerState) WithoutPartition(p ConsumerPartition) ConsumerState {
	next := make(map[ConsumerPartition]int64, len(cs.offsets))
	for k, v := range cs.offsets {
		if k == p {
			continue
		}
		next[k] = v
	}
	return ConsumerState{offsets: next}
}

// AsMap returns a defensive copy of the underlying offsets as a plain map,
// for callers (e.g. persistence adapters) that need to serialize it.
func (cs ConsumerState) AsMap() map[ConsumerPartition]int64 {
	out := make(map[ConsumerPartition]int64, len(cs.offsets))
	for k, v := range cs.offsets {
		out[k] = v
	}
	return out
}
