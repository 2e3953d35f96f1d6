package retry

import (
	"sync"
	"time"

	"github.com/sidelinestream/sidespout"
)

// Unbounded retries a failed message forever, never exhausting the budget
// (RetryFurther always true). Every retry waits the same delay, Max; the
// delay does not grow per attempt and Base does not affect scheduling.
// Useful for sideline replays where a
// downstream dependency outage shouldn't cause permanent data loss.
type Unbounded struct {
	mu      sync.Mutex
	base    time.Duration
	max     time.Duration
	waiting map[sidespout.MessageID]time.Time
	now     func() time.Time
}

// NewUnbounded constructs a ready-to-Open Unbounded policy.
func NewUnbounded() *Unbounded {
	return &Unbounded{now: time.Now}
}

// Open sets the backoff curve from cfg.
func (u *Unbounded) Open(cfg Config) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.base = cfg.Base
	if u.base <= 0 {
		u.base = 100 * time.Millisecond
	}
	u.max = cfg.Max
	if u.max <= 0 {
		u.max = 60 * time.Second
	}
	u.waiting = make(map[sidespout.MessageID]time.Time)
	if u.now == nil {
		u.now = time.Now
	}
	return nil
}

// Failed schedules id due after Max (the steady-state backoff once a
// message has been failing long enough — Unbounded doesn't track attempt
// count since it never needs to compare it against a ceiling).
func (u *Unbounded) Failed(id sidespout.MessageID) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.waiting[id] = u.now().Add(u.max)
}

// Acked drops tracking for id.
func (u *Unbounded) Acked(id sidespout.MessageID) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.waiting, id)
}

// RetryFurther always returns true: Unbounded never exhausts its budget.
func (u *Unbounded) RetryFurther(sidespout.MessageID) bool { return true }

// NextFailedMessageToRetry returns one id whose backoff has elapsed.
func (u *Unbounded) NextFailedMessageToRetry() (sidespout.MessageID, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.now()
	for id, at := range u.waiting {
		if !at.After(now) {
			delete(u.waiting, id)
			return id, true
		}
	}
	return sidespout.MessageID{}, false
}
