package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidelinestream/sidespout/registry"
)

func TestRegisterAndBuild(t *testing.T) {
	registry.Register("widget", "basic", func(cfg any) (any, error) {
		return "a basic widget", nil
	})

	got, err := registry.Build("widget", "basic", nil)
	require.NoError(t, err)
	assert.Equal(t, "a basic widget", got)
}

func TestBuild_UnknownKind(t *testing.T) {
	_, err := registry.Build("nonexistent-kind", "whatever", nil)
	assert.Error(t, err)
}

func TestBuild_UnknownName(t *testing.T) {
	registry.Register("widget", "known", func(cfg any) (any, error) { return nil, nil })
	_, err := registry.Build("widget", "unknown", nil)
	assert.Error(t, err)
}
