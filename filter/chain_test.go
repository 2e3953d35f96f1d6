package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sidelinestream/sidespout"
	"github.com/sidelinestream/sidespout/filter"
)

func TestChain_EmptyNeverFilters(t *testing.T) {
	c := filter.New()
	msg := &sidespout.Message{ID: sidespout.MessageID{Offset: 1}}
	assert.False(t, c.Filter(msg))
	assert.Equal(t, 0, c.Len())
}

func TestChain_ORSemantics(t *testing.T) {
	alwaysFalse := filter.StepFunc(func(msg *sidespout.Message) bool { return false })
	alwaysTrue := filter.StepFunc(func(msg *sidespout.Message) bool { return true })

	c := filter.New(alwaysFalse, alwaysTrue)
	msg := &sidespout.Message{ID: sidespout.MessageID{Offset: 1}}
	assert.True(t, c.Filter(msg), "any matching step should filter the message")
}

func TestChain_AddAndRemove(t *testing.T) {
	step := filter.StepFunc(func(msg *sidespout.Message) bool { return true })
	c := filter.New()
	assert.Equal(t, 0, c.Len())

	h := c.Add(step)
	assert.Equal(t, 1, c.Len())

	c.Remove(h)
	assert.Equal(t, 0, c.Len())
}

func TestChain_FilterByValuesPredicate(t *testing.T) {
	poisonPill := filter.StepFunc(func(msg *sidespout.Message) bool {
		return string(msg.Values) == "drop-me"
	})
	c := filter.New(poisonPill)

	dropped := &sidespout.Message{Values: []byte("drop-me")}
	kept := &sidespout.Message{Values: []byte("keep-me")}

	assert.True(t, c.Filter(dropped))
	assert.False(t, c.Filter(kept))
}
