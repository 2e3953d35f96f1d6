package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidelinestream/sidespout/config"
)

func TestBuildDependencies_DefaultsToMemoryAndFixedRetry(t *testing.T) {
	cfg := &config.Config{
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "orders",
		ConsumerID:   "vc-1",
	}
	require.NoError(t, cfg.Validate())

	deps, err := config.BuildDependencies(cfg, nil)
	require.NoError(t, err)

	assert.NotNil(t, deps.LogConsumer)
	assert.NotNil(t, deps.RetryPolicy)
	assert.NotNil(t, deps.Persistence)
	assert.NotNil(t, deps.Metrics)
}

func TestBuildDependencies_UnknownRetryPolicyErrors(t *testing.T) {
	cfg := &config.Config{
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "orders",
		ConsumerID:   "vc-1",
		RetryPolicy:  "nonexistent",
	}
	require.NoError(t, cfg.Validate())

	_, err := config.BuildDependencies(cfg, nil)
	assert.Error(t, err)
}
