// Package metrics records counters keyed by "<virtualConsumerId>.<kind>",
// mirroring sidespout.MetricsRecorder. The Prometheus implementation
// collapses the convention into a single labeled vector since the set of
// virtual consumer ids is dynamic; InMemory keeps the dotted names as-is.
package metrics

import "strings"

// Recorder mirrors sidespout.MetricsRecorder; any implementation here
// satisfies it structurally.
type Recorder interface {
	Count(name string, delta int64)
}

// NoOp discards everything. Useful as a default when no metrics backend is
// configured.
type NoOp struct{}

// Count does nothing.
func (NoOp) Count(name string, delta int64) {}

// splitName splits the "<virtualConsumerId>.<kind>" naming convention into
// its two label values. If name has no '.', the whole string is treated as
// kind with an empty consumer id.
func splitName(name string) (consumerID, kind string) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return "", name
	}
	return name[:idx], name[idx+1:]
}
