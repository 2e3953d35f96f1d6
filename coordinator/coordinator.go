// Package coordinator multiplexes a firehose VirtualConsumer with zero or
// more replay VirtualConsumers, fanning their emitted messages into one
// channel for a downstream caller to drain and routing Ack/Fail calls back
// to the originating consumer. Concurrency shape is grounded in the
// teacher's worker.go/pool.go (one goroutine per unit of work, a shared
// results channel, graceful Stop), repurposed so each goroutine runs one
// VirtualConsumer's own NextTuple/Ack/Fail loop instead of a shared pool
// processing arbitrary jobs.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sidelinestream/sidespout"
)

// member is a registered VirtualConsumer, looked up by id to route
// Ack/Fail calls.
type member struct {
	vc *sidespout.VirtualConsumer
}

// Coordinator runs one goroutine per registered VirtualConsumer, each
// repeatedly calling NextTuple and forwarding non-nil results to a shared
// channel. The caller drains Messages() and must call Ack/Fail on the
// Coordinator (not on the VirtualConsumer directly) so routing by
// MessageID.VirtualConsumerID works.
type Coordinator struct {
	logger *zap.Logger

	pollInterval         time.Duration
	maxConsecutiveErrors int

	mu      sync.RWMutex
	members map[string]*member

	messages chan *sidespout.Message

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Config carries Coordinator tunables.
type Config struct {
	// PollInterval is how long a member's goroutine sleeps after a nil
	// NextTuple result before polling again. Defaults to 10ms.
	PollInterval time.Duration
	// BufferSize sizes the shared messages channel. Defaults to 256.
	BufferSize int
	// MaxConsecutiveErrors halts a member's goroutine after this many
	// consecutive NextTuple errors. 0 disables the check.
	MaxConsecutiveErrors int
	Logger               *zap.Logger
}

// New constructs an idle Coordinator. Each VirtualConsumer starts being
// polled as soon as it is passed to Register.
func New(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 10 * time.Millisecond
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 256
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		logger:               logger,
		pollInterval:         pollInterval,
		maxConsecutiveErrors: cfg.MaxConsecutiveErrors,
		members:              make(map[string]*member),
		messages:             make(chan *sidespout.Message, bufferSize),
		ctx:                  ctx,
		cancel:               cancel,
	}
}

// Register adds vc (already Open'd) to this Coordinator and starts its
// dedicated polling goroutine immediately.
func (c *Coordinator) Register(vc *sidespout.VirtualConsumer) {
	c.mu.Lock()
	c.members[vc.ID()] = &member{vc: vc}
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(vc)
}

// Unregister stops polling the VirtualConsumer with this id for new
// tuples; its goroutine exits before its next NextTuple call. From then
// on Ack and Fail for its message ids return an error.
func (c *Coordinator) Unregister(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.members, id)
}

// run is the per-member goroutine loop: poll NextTuple, forward non-nil
// results, stop when the context is cancelled, the member is unregistered,
// or the member requests stop and has completed.
func (c *Coordinator) run(vc *sidespout.VirtualConsumer) {
	defer c.wg.Done()

	tracker := newErrorTracker(c.maxConsecutiveErrors, c.logger, vc.ID())

	for {
		if c.ctx.Err() != nil {
			return
		}
		if _, ok := c.memberFor(vc.ID()); !ok {
			return
		}
		if vc.IsStopRequested() && vc.IsCompleted() {
			c.logger.Info("virtual consumer completed, stopping its goroutine",
				zap.String("virtual_consumer_id", vc.ID()))
			return
		}

		msg, err := vc.NextTuple(c.ctx)
		if err != nil {
			if tracker.recordError(err) {
				vc.RequestStop()
				return
			}
			time.Sleep(c.pollInterval)
			continue
		}
		tracker.recordSuccess()
		if msg == nil {
			if err := vc.FlushState(); err != nil {
				c.logger.Warn("flush state failed",
					zap.String("virtual_consumer_id", vc.ID()), zap.Error(err))
			}
			select {
			case <-time.After(c.pollInterval):
			case <-c.ctx.Done():
				return
			}
			continue
		}

		select {
		case c.messages <- msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// Messages returns the channel every registered VirtualConsumer's emitted
// records are fanned into.
func (c *Coordinator) Messages() <-chan *sidespout.Message {
	return c.messages
}

// Ack routes an acknowledgment to the VirtualConsumer named in id.
func (c *Coordinator) Ack(id sidespout.MessageID) error {
	m, ok := c.memberFor(id.VirtualConsumerID)
	if !ok {
		return fmt.Errorf("coordinator: no registered virtual consumer %s for ack", id.VirtualConsumerID)
	}
	return m.vc.Ack(id)
}

// Fail routes a failure to the VirtualConsumer named in id.
func (c *Coordinator) Fail(id sidespout.MessageID) error {
	m, ok := c.memberFor(id.VirtualConsumerID)
	if !ok {
		return fmt.Errorf("coordinator: no registered virtual consumer %s for fail", id.VirtualConsumerID)
	}
	return m.vc.Fail(id)
}

func (c *Coordinator) memberFor(id string) (*member, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.members[id]
	return m, ok
}

// Stop signals every member goroutine to exit and waits for them: cancel
// then wait, no forced kill.
func (c *Coordinator) Stop() {
	c.cancel()
	c.wg.Wait()
	close(c.messages)
}
