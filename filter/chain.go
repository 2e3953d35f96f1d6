// Package filter implements the ordered predicate chain applied to every
// record a virtual consumer pulls: the first step that matches drops the
// record (logical OR, short-circuit).
package filter

import (
	"sync"

	"github.com/sidelinestream/sidespout"
)

// Step is one predicate in a Chain. Implementations must be safe to call
// repeatedly and should not mutate the Message they're given.
type Step interface {
	Filter(msg *sidespout.Message) bool
}

// StepFunc adapts a plain function to the Step interface. Func types are
// not comparable with ==, so a StepFunc can't be used to identify itself
// for removal — Add's returned Handle exists for that purpose instead.
type StepFunc func(msg *sidespout.Message) bool

// Filter calls f.
func (f StepFunc) Filter(msg *sidespout.Message) bool { return f(msg) }

// Handle identifies a step previously installed with Add, for later
// removal. It carries no exported fields; its identity is the pointer
// itself, so it stays comparable regardless of the underlying Step's
// dynamic type (including func-typed Steps like StepFunc).
type Handle *entry

type entry struct {
	step Step
}

// Chain is an ordered, mutable sequence of immutable Steps. The chain
// itself may be mutated (Add/Remove) between NextTuple calls by a
// supervisor; individual Steps are expected not to change behavior once
// installed.
type Chain struct {
	mu    sync.RWMutex
	steps []*entry
}

// New builds a Chain from an initial, optional set of steps.
func New(steps ...Step) *Chain {
	c := &Chain{}
	for _, s := range steps {
		c.steps = append(c.steps, &entry{step: s})
	}
	return c
}

// Add appends a step to the end of the chain and returns a Handle that
// can later be passed to Remove.
func (c *Chain) Add(step Step) Handle {
	e := &entry{step: step}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, e)
	return e
}

// Remove removes the step identified by h from the chain, if present.
func (c *Chain) Remove(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.steps {
		if e == h {
			c.steps = append(c.steps[:i], c.steps[i+1:]...)
			return
		}
	}
}

// Filter returns true iff any step in the chain matches msg. Evaluation
// short-circuits on the first positive verdict.
func (c *Chain) Filter(msg *sidespout.Message) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.steps {
		if e.step.Filter(msg) {
			return true
		}
	}
	return false
}

// Len reports the number of steps currently installed, for metrics
// (VirtualConsumer.FiltersApplied).
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.steps)
}
