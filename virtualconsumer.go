package sidespout

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sidelinestream/sidespout/errs"
)

// state is the VirtualConsumer's lifecycle position: Created -> Opened ->
// Closed. The running and completing phases are both stateOpened;
// completion is tracked separately by the completed flag.
type state int32

const (
	stateCreated state = iota
	stateOpened
	stateClosed
)

// Config carries the tunables a VirtualConsumer itself needs. The
// strategy collaborators (retry policy, persistence adapter, etc.) are
// constructed and Open'd by the caller — via config.BuildDependencies or
// by hand — and handed in already-initialized through Dependencies, so
// wiring is explicit constructor injection rather than reflection-based
// plugin lookup.
type Config struct {
	Logger *zap.Logger
}

// VirtualConsumer is a single logical consumer: it owns one
// consumer-group identity against the log, applies a filter chain, tracks
// in-flight records, and handles per-record ack/fail with pluggable retry
// policy.
type VirtualConsumer struct {
	id     string
	cfg    Config
	logger *zap.Logger

	deps Dependencies

	starting *ConsumerState
	ending   *ConsumerState

	filterChain Filterer

	mu           sync.Mutex
	state        state
	completed    bool
	inflight     map[MessageID]*Message
	requestStop  atomic.Bool
	ctxCancelled atomic.Bool

	sidelineRequestID string
	hasSidelineID     bool

	filteredApplied int64
}

// Filterer is the minimal interface VirtualConsumer needs from
// filter.Chain, kept here so this file doesn't import the filter package
// (it accepts one via the constructor instead).
type Filterer interface {
	Filter(msg *Message) bool
	Len() int
}

// New constructs a VirtualConsumer. starting/ending may be nil (firehose:
// no bounds). id must be non-empty and unique among sibling consumers.
func New(id string, cfg Config, starting, ending *ConsumerState, chain Filterer, deps Dependencies) (*VirtualConsumer, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: virtual consumer id must not be empty", errs.ErrProtocolMisuse)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VirtualConsumer{
		id:          id,
		cfg:         cfg,
		logger:      logger,
		deps:        deps,
		starting:    starting,
		ending:      ending,
		filterChain: chain,
		inflight:    make(map[MessageID]*Message),
	}, nil
}

// SetSidelineRequestID associates this consumer with a sideline request.
// On completion, the persistence adapter is instructed to clear that
// request's stored offsets for every partition in the ending bound.
func (vc *VirtualConsumer) SetSidelineRequestID(id string) {
	vc.sidelineRequestID = id
	vc.hasSidelineID = true
}

// ID returns this consumer's VirtualConsumerIdentifier.
func (vc *VirtualConsumer) ID() string { return vc.id }

// Open instantiates the log consumer against the starting ConsumerState.
// Fails with errs.ErrProtocolMisuse if already opened. Not thread-safe;
// called once by the supervisor before any NextTuple/Ack/Fail call.
func (vc *VirtualConsumer) Open() error {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	if vc.state != stateCreated {
		return fmt.Errorf("%w: Open called more than once on virtual consumer %s", errs.ErrProtocolMisuse, vc.id)
	}

	vc.logger.Info("opening virtual consumer",
		zap.String("virtual_consumer_id", vc.id),
		zap.Any("starting_state", vc.starting),
		zap.Any("ending_state", vc.ending))

	if err := vc.deps.LogConsumer.Open(vc.starting); err != nil {
		return fmt.Errorf("opening log consumer: %w", err)
	}

	vc.state = stateOpened
	return nil
}

// Close is idempotent. If the consumer reached completion, it instructs
// the log consumer to erase its persisted state and — if a sideline
// request id is associated and an ending bound is set — clears that
// request from the persistence adapter for every partition in the
// *ending* bound, the bound this consumer was actually scoped to replay.
// With no ending bound nothing is cleared. Otherwise it flushes
// current committed state so a restart resumes correctly.
func (vc *VirtualConsumer) Close() error {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	if vc.state == stateClosed {
		return nil
	}
	if vc.state == stateCreated {
		vc.state = stateClosed
		return nil
	}

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if vc.completed {
		vc.logger.Info("virtual consumer completed, clearing persisted state", zap.String("virtual_consumer_id", vc.id))
		record(vc.deps.LogConsumer.RemoveConsumerState())

		if vc.hasSidelineID && vc.ending != nil {
			for _, p := range vc.ending.Partitions() {
				if err := vc.deps.Persistence.ClearSidelineRequest(vc.sidelineRequestID, p); err != nil {
					vc.logger.Warn("failed clearing sideline request partition",
						zap.String("sideline_request_id", vc.sidelineRequestID),
						zap.Stringer("partition", p),
						zap.Error(err))
					record(err)
				}
			}
		}
	} else {
		vc.logger.Info("closing virtual consumer, flushing state", zap.String("virtual_consumer_id", vc.id))
		record(vc.deps.LogConsumer.FlushConsumerState())
	}

	record(vc.deps.LogConsumer.Close())

	vc.starting = nil
	vc.ending = nil
	vc.state = stateClosed
	return firstErr
}

// NextTuple pulls one emittable record: retries due for redelivery take
// priority over fresh records, which are then run through the filter
// chain and bounds check before being handed to the caller. ctx governs
// cooperative cancellation observed via IsStopRequested, not a hard
// deadline on the pull itself.
func (vc *VirtualConsumer) NextTuple(ctx context.Context) (*Message, error) {
	if ctx != nil && ctx.Err() != nil {
		vc.ctxCancelled.Store(true)
	}

	// Step 1: consult the retry policy first.
	if id, ok := vc.deps.RetryPolicy.NextFailedMessageToRetry(); ok {
		vc.mu.Lock()
		msg, tracked := vc.inflight[id]
		vc.mu.Unlock()

		if tracked {
			return msg, nil
		}
		vc.logger.Warn("retry policy returned id no longer tracked, discarding", zap.Stringer("message_id", id))
		vc.deps.RetryPolicy.Acked(id)
	}

	// Step 2: pull the next record.
	record, err := vc.deps.LogConsumer.NextRecord()
	if err != nil {
		return nil, fmt.Errorf("pulling next record: %w", err)
	}
	if record == nil {
		return nil, nil
	}

	// Step 3: construct the MessageId.
	msgID := MessageID{
		Namespace:         record.Namespace,
		Partition:         record.Partition,
		Offset:            record.Offset,
		VirtualConsumerID: vc.id,
	}
	partition := msgID.ConsumerPartition()

	// Step 4: ending-bound check.
	if vc.ending != nil {
		endingOffset, ok := vc.ending.Offset(partition)
		if !ok {
			return nil, fmt.Errorf("%w: record from %s has no configured ending offset", errs.ErrProtocolMisuse, partition)
		}
		if record.Offset > endingOffset {
			vc.deps.LogConsumer.UnsubscribeConsumerPartition(partition)
			return nil, nil
		}
	}

	// Step 5: construct the Message. Deserialization already happened
	// inside the log consumer via its configured deserializer;
	// record.Values is the final payload.
	msg := &Message{ID: msgID, Values: record.Values}

	// Step 6: filter chain.
	if vc.filterChain != nil && vc.filterChain.Filter(msg) {
		atomic.AddInt64(&vc.filteredApplied, 1)
		vc.deps.Metrics.Count(vc.id+".filtered", 1)
		if err := vc.Ack(msgID); err != nil {
			vc.logger.Warn("failed acking filtered message", zap.Stringer("message_id", msgID), zap.Error(err))
		}
		return nil, nil
	}

	// Step 7: track and emit.
	vc.mu.Lock()
	vc.inflight[msgID] = msg
	vc.mu.Unlock()

	return msg, nil
}

// Ack commits the offset at the log consumer, removes the id from the
// in-flight table, and informs the retry policy. Idempotent if repeated
// with the same id. A nil-equivalent (zero-value) id is logged and
// ignored rather than erroring.
func (vc *VirtualConsumer) Ack(id MessageID) error {
	if id == (MessageID{}) {
		vc.logger.Warn("nil message id passed to Ack, ignoring")
		return nil
	}
	if id.VirtualConsumerID != vc.id {
		return fmt.Errorf("%w: ack id %s does not belong to virtual consumer %s", errs.ErrInvalidMessageID, id, vc.id)
	}

	if err := vc.deps.LogConsumer.CommitOffset(id.Namespace, id.Partition, id.Offset); err != nil {
		return fmt.Errorf("committing offset for %s: %w", id, err)
	}

	vc.mu.Lock()
	delete(vc.inflight, id)
	vc.mu.Unlock()

	vc.deps.RetryPolicy.Acked(id)
	return nil
}

// Fail routes a failed record either to the retry policy (if it still has
// retry budget) or treats it as terminal: committed, counted, and never
// replayed again. A nil-equivalent id is logged and ignored rather than
// erroring.
func (vc *VirtualConsumer) Fail(id MessageID) error {
	if id == (MessageID{}) {
		vc.logger.Warn("nil message id passed to Fail, ignoring")
		return nil
	}
	if id.VirtualConsumerID != vc.id {
		return fmt.Errorf("%w: fail id %s does not belong to virtual consumer %s", errs.ErrInvalidMessageID, id, vc.id)
	}

	if !vc.deps.RetryPolicy.RetryFurther(id) {
		vc.logger.Warn("retry budget exhausted, treating as terminal", zap.Stringer("message_id", id))
		vc.deps.RetryPolicy.Acked(id)

		if err := vc.deps.LogConsumer.CommitOffset(id.Namespace, id.Partition, id.Offset); err != nil {
			return fmt.Errorf("committing exhausted-retry offset for %s: %w", id, err)
		}
		vc.mu.Lock()
		delete(vc.inflight, id)
		vc.mu.Unlock()

		vc.deps.Metrics.Count(vc.id+".exceeded_retry_limit", 1)
		return nil
	}

	vc.deps.RetryPolicy.Failed(id)
	vc.deps.Metrics.Count(vc.id+".fail", 1)
	return nil
}

// FlushState commits current consumer state to persistence, then attempts
// completion detection.
func (vc *VirtualConsumer) FlushState() error {
	if err := vc.deps.LogConsumer.FlushConsumerState(); err != nil {
		return fmt.Errorf("flushing consumer state: %w", err)
	}
	return vc.attemptToComplete()
}

// attemptToComplete is a no-op if there's no ending bound or the in-flight
// table is non-empty. Otherwise it unsubscribes every partition whose
// committed offset has reached its ending offset, and marks the consumer
// completed once all of them have.
func (vc *VirtualConsumer) attemptToComplete() error {
	if vc.ending == nil {
		return nil
	}

	vc.mu.Lock()
	inflightEmpty := len(vc.inflight) == 0
	vc.mu.Unlock()
	if !inflightEmpty {
		return nil
	}

	current := vc.deps.LogConsumer.CurrentState()

	allDone := true
	for _, p := range current.Partitions() {
		committed, _ := current.Offset(p)
		endingOffset, ok := vc.ending.Offset(p)
		if !ok {
			return fmt.Errorf("%w: no ending offset configured for partition %s", errs.ErrProtocolMisuse, p)
		}
		if committed < endingOffset {
			allDone = false
			continue
		}
		if vc.deps.LogConsumer.UnsubscribeConsumerPartition(p) {
			vc.logger.Debug("partition reached ending offset",
				zap.Stringer("partition", p),
				zap.Int64("committed", committed),
				zap.Int64("ending_offset", endingOffset))
		}
	}

	if !allDone {
		return nil
	}

	vc.logger.Info("all partitions complete", zap.String("virtual_consumer_id", vc.id))
	vc.mu.Lock()
	vc.completed = true
	vc.mu.Unlock()
	vc.RequestStop()
	return nil
}

// RequestStop signals this instance to cleanly stop. Safe to call from
// any goroutine, any time after construction. Idempotent.
func (vc *VirtualConsumer) RequestStop() {
	vc.requestStop.Store(true)
}

// IsStopRequested reports whether RequestStop has been called, OR'd with
// the last context.Context observed by NextTuple having been cancelled.
// This flag is never cleared: Go contexts are one-shot, so re-observing
// a cancelled context is always safe.
func (vc *VirtualConsumer) IsStopRequested() bool {
	return vc.requestStop.Load() || vc.ctxCancelled.Load()
}

// IsCompleted reports whether this consumer reached its ending bound with
// an empty in-flight table.
func (vc *VirtualConsumer) IsCompleted() bool {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return vc.completed
}

// CurrentState returns the log consumer's committed-offset snapshot.
func (vc *VirtualConsumer) CurrentState() ConsumerState {
	return vc.deps.LogConsumer.CurrentState()
}

// MaxLag returns the log consumer's maximum partition lag.
func (vc *VirtualConsumer) MaxLag() float64 {
	return vc.deps.LogConsumer.MaxLag()
}

// FiltersApplied returns the number of filter chain steps installed —
// spec's getNumberOfFiltersApplied, which (per the original) reports the
// chain's step count, not a running total of filtered records.
func (vc *VirtualConsumer) FiltersApplied() int {
	if vc.filterChain == nil {
		return 0
	}
	return vc.filterChain.Len()
}

// FilteredCount returns the running total of records this consumer has
// filtered (distinct from FiltersApplied's step count; exposed for the
// <id>.filtered metric's in-process counterpart).
func (vc *VirtualConsumer) FilteredCount() int64 {
	return atomic.LoadInt64(&vc.filteredApplied)
}

// InFlightCount reports the current size of the in-flight table, useful
// for tests and for a supervisor deciding whether it's safe to stop.
func (vc *VirtualConsumer) InFlightCount() int {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return len(vc.inflight)
}
