package retry

import (
	"sync"
	"time"

	"github.com/sidelinestream/sidespout"
)

// FixedRetry permits up to MaxRetries attempts with a constant delay
// between them (no exponential curve) — the simplest policy beyond
// NeverRetry, for when a bounded retry count is wanted without backoff
// growth.
type FixedRetry struct {
	mu         sync.Mutex
	maxRetries int
	delay      time.Duration
	attempts   map[sidespout.MessageID]int
	due        map[sidespout.MessageID]time.Time
	now        func() time.Time
}

// NewFixedRetry constructs a ready-to-Open FixedRetry policy.
func NewFixedRetry() *FixedRetry {
	return &FixedRetry{now: time.Now}
}

// Open sets the retry count and delay from cfg.
func (f *FixedRetry) Open(cfg Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.maxRetries = cfg.MaxRetries
	f.delay = cfg.Base
	if f.delay <= 0 {
		f.delay = 100 * time.Millisecond
	}
	f.attempts = make(map[sidespout.MessageID]int)
	f.due = make(map[sidespout.MessageID]time.Time)
	if f.now == nil {
		f.now = time.Now
	}
	return nil
}

// Failed increments id's attempt count and schedules it due after delay.
func (f *FixedRetry) Failed(id sidespout.MessageID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[id]++
	f.due[id] = f.now().Add(f.delay)
}

// Acked drops all tracking for id.
func (f *FixedRetry) Acked(id sidespout.MessageID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.attempts, id)
	delete(f.due, id)
}

// RetryFurther reports whether id is still within its retry budget.
func (f *FixedRetry) RetryFurther(id sidespout.MessageID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[id] < f.maxRetries
}

// NextFailedMessageToRetry returns one id whose delay has elapsed.
func (f *FixedRetry) NextFailedMessageToRetry() (sidespout.MessageID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	for id, at := range f.due {
		if !at.After(now) {
			delete(f.due, id)
			return id, true
		}
	}
	return sidespout.MessageID{}, false
}
