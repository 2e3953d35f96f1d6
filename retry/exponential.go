package retry

import (
	"sync"
	"time"

	"github.com/sidelinestream/sidespout"
)

// entry tracks one failed message's retry bookkeeping. waiting is false
// once the id has been handed back by NextFailedMessageToRetry, so it
// isn't returned again until a subsequent Failed call re-arms it — while
// still remembering attempts so the retry budget isn't reset.
type entry struct {
	attempts  int
	nextRetry time.Time
	waiting   bool
}

// ExponentialBackoff retries a message up to MaxRetries times, waiting
// Base*2^attempt between attempts, capped at Max, scoped per-MessageID
// instead of tracking one global consecutive-error counter.
type ExponentialBackoff struct {
	mu         sync.Mutex
	maxRetries int
	base       time.Duration
	max        time.Duration
	entries    map[sidespout.MessageID]*entry
	now        func() time.Time
}

// NewExponentialBackoff constructs a ready-to-Open policy. Exposed as a
// constructor (rather than requiring zero-value + Open) so callers can
// wire it through the registry without a separate allocation step.
func NewExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{now: time.Now}
}

// Open sets the max retry count and backoff curve from cfg, defaulting
// unset fields to 100ms base, 60s max.
func (e *ExponentialBackoff) Open(cfg Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.maxRetries = cfg.MaxRetries
	e.base = cfg.Base
	if e.base <= 0 {
		e.base = 100 * time.Millisecond
	}
	e.max = cfg.Max
	if e.max <= 0 {
		e.max = 60 * time.Second
	}
	e.entries = make(map[sidespout.MessageID]*entry)
	if e.now == nil {
		e.now = time.Now
	}
	return nil
}

func (e *ExponentialBackoff) backoff(attempt int) time.Duration {
	d := e.base * time.Duration(uint64(1)<<uint(attempt))
	if d <= 0 || d > e.max {
		d = e.max
	}
	return d
}

// Failed increments id's attempt count and schedules its next retry.
func (e *ExponentialBackoff) Failed(id sidespout.MessageID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	en, ok := e.entries[id]
	if !ok {
		en = &entry{}
		e.entries[id] = en
	}
	en.attempts++
	en.nextRetry = e.now().Add(e.backoff(en.attempts - 1))
	en.waiting = true
}

// Acked removes all tracking for id.
func (e *ExponentialBackoff) Acked(id sidespout.MessageID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.entries, id)
}

// RetryFurther reports whether id has remaining retry budget. A
// never-before-seen id is always allowed its first attempt.
func (e *ExponentialBackoff) RetryFurther(id sidespout.MessageID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	en, ok := e.entries[id]
	if !ok {
		return true
	}
	return en.attempts < e.maxRetries
}

// NextFailedMessageToRetry returns one id whose backoff has elapsed,
// removing it from the waiting set. Iteration order over the entries map
// is unspecified — callers must not assume the oldest-due id wins.
func (e *ExponentialBackoff) NextFailedMessageToRetry() (sidespout.MessageID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	for id, en := range e.entries {
		if en.waiting && !en.nextRetry.After(now) {
			en.waiting = false
			return id, true
		}
	}
	return sidespout.MessageID{}, false
}
