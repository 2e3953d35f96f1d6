// Package persistence implements sidespout.PersistenceAdapter: storage for
// per-consumer ConsumerState and per-sideline-request partition offsets.
package persistence

import "github.com/sidelinestream/sidespout"

// Adapter is the capability interface the engine's persistence layer
// implements. It mirrors sidespout.PersistenceAdapter; implementations
// here additionally expose a Close lifecycle method for releasing the
// underlying connection.
type Adapter interface {
	sidespout.PersistenceAdapter
	Close() error
}
