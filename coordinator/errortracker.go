package coordinator

import (
	"sync"

	"go.uber.org/zap"
)

// errorTracker halts a single member's goroutine after too many
// consecutive NextTuple errors, scoped to one VirtualConsumer's
// goroutine so a single misbehaving replay doesn't take down its
// siblings.
type errorTracker struct {
	mu                sync.Mutex
	consecutiveErrors int
	maxConsecutive    int
	totalErrors       int64
	logger            *zap.Logger
	virtualConsumerID string
}

func newErrorTracker(maxConsecutive int, logger *zap.Logger, virtualConsumerID string) *errorTracker {
	return &errorTracker{maxConsecutive: maxConsecutive, logger: logger, virtualConsumerID: virtualConsumerID}
}

// recordError records a failure and reports whether the consecutive-error
// threshold has now been reached.
func (et *errorTracker) recordError(err error) bool {
	et.mu.Lock()
	defer et.mu.Unlock()

	et.consecutiveErrors++
	et.totalErrors++
	shouldHalt := et.maxConsecutive > 0 && et.consecutiveErrors >= et.maxConsecutive

	if shouldHalt {
		et.logger.Error("consecutive error threshold exceeded, halting virtual consumer goroutine",
			zap.String("virtual_consumer_id", et.virtualConsumerID),
			zap.Int("consecutive_errors", et.consecutiveErrors),
			zap.Int("max_consecutive", et.maxConsecutive),
			zap.Int64("total_errors", et.totalErrors),
			zap.Error(err))
	} else {
		et.logger.Warn("next tuple error",
			zap.String("virtual_consumer_id", et.virtualConsumerID),
			zap.Int("consecutive_errors", et.consecutiveErrors),
			zap.Error(err))
	}
	return shouldHalt
}

// recordSuccess resets the consecutive-error counter.
func (et *errorTracker) recordSuccess() {
	et.mu.Lock()
	defer et.mu.Unlock()
	et.consecutiveErrors = 0
}
