// Package errs defines the error taxonomy shared across the sideline
// consumption engine: protocol misuse, unknown ids, and the other
// non-transient failure classes that callers need to branch on.
package errs

import "errors"

// ErrProtocolMisuse indicates a caller violated the VirtualConsumer's
// contract: an empty virtual consumer id, double Open, a bounded consumer
// missing an ending offset for a partition it consumes from.
var ErrProtocolMisuse = errors.New("sidespout: protocol misuse")

// ErrInvalidMessageID indicates an ack/fail call received a value that
// cannot be resolved to a MessageID produced by this consumer.
var ErrInvalidMessageID = errors.New("sidespout: invalid message id")

// ErrUnknownID indicates the retry policy surfaced a MessageID that is no
// longer present in the in-flight table. Not fatal: the id is discarded
// and polling continues.
var ErrUnknownID = errors.New("sidespout: unknown message id")

// IsProtocolMisuse reports whether err (or any error it wraps) is a
// protocol-misuse violation.
func IsProtocolMisuse(err error) bool {
	return errors.Is(err, ErrProtocolMisuse)
}
