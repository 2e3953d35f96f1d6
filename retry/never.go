package retry

import "github.com/sidelinestream/sidespout"

// NeverRetry never permits a retry: the first failure is terminal. Useful
// for firehose consumers where a poison-pill record should be committed
// and counted rather than replayed.
type NeverRetry struct{}

// Open is a no-op; NeverRetry has no tunables.
func (NeverRetry) Open(Config) error { return nil }

// Failed is a no-op; NeverRetry never tracks anything.
func (NeverRetry) Failed(sidespout.MessageID) {}

// Acked is a no-op.
func (NeverRetry) Acked(sidespout.MessageID) {}

// RetryFurther always returns false.
func (NeverRetry) RetryFurther(sidespout.MessageID) bool { return false }

// NextFailedMessageToRetry never has anything due.
func (NeverRetry) NextFailedMessageToRetry() (sidespout.MessageID, bool) {
	return sidespout.MessageID{}, false
}
