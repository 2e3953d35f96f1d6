// Package idgen generates identifiers for virtual consumers and sideline
// requests using google/uuid.
package idgen

import "github.com/google/uuid"

// NewVirtualConsumerID returns a fresh identifier suitable for
// VirtualConsumer.ID / MessageID.VirtualConsumerID.
func NewVirtualConsumerID() string {
	return "vc-" + uuid.NewString()
}

// NewSidelineRequestID returns a fresh identifier for a sideline request.
func NewSidelineRequestID() string {
	return "sideline-" + uuid.NewString()
}
