// Package retry implements pluggable failed-message retry strategies for
// a virtual consumer: deciding whether a failed MessageID may be retried
// again, and when it next becomes due.
package retry

import (
	"time"

	"github.com/sidelinestream/sidespout"
)

// Config carries the tunables a Policy.Open reads. Fields a given policy
// doesn't use are simply ignored.
type Config struct {
	MaxRetries int
	Base       time.Duration
	Max        time.Duration
}

// Policy is the strategy object deciding retry admission and scheduling
// for failed messages. Implementations hold an opaque per-policy set of
// MessageIDs in failed state with attempt-count/next-retry metadata.
//
// Acked and Failed are called from whatever goroutine routes ack/fail
// callbacks; NextFailedMessageToRetry is called from the single polling
// goroutine. Implementations must be safe for that access pattern.
type Policy interface {
	// Open initializes tunables from cfg.
	Open(cfg Config) error

	// Failed records or increments the attempt count for id and computes
	// its next-retry timestamp.
	Failed(id sidespout.MessageID)

	// Acked removes any tracking for id. No-op if id isn't tracked.
	Acked(id sidespout.MessageID)

	// RetryFurther reports whether id may be retried again under this
	// policy. Called before Failed is recorded for the current attempt.
	RetryFurther(id sidespout.MessageID) bool

	// NextFailedMessageToRetry returns one id whose next-retry timestamp
	// is due, removing it from the waiting set. Returns false if none are
	// due yet.
	NextFailedMessageToRetry() (sidespout.MessageID, bool)
}
