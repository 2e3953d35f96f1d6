package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidelinestream/sidespout/metrics"
)

func TestInMemory_CountAccumulates(t *testing.T) {
	m := metrics.NewInMemory()
	m.Count("vc-1.filtered", 1)
	m.Count("vc-1.filtered", 2)
	m.Count("vc-1.fail", 1)

	assert.Equal(t, int64(3), m.Get("vc-1.filtered"))
	assert.Equal(t, int64(1), m.Get("vc-1.fail"))
}

func TestInMemory_Snapshot(t *testing.T) {
	m := metrics.NewInMemory()
	m.Count("vc-1.filtered", 5)

	snap := m.Snapshot()
	assert.Equal(t, int64(5), snap["vc-1.filtered"])
}

func TestNoOp_DoesNotPanic(t *testing.T) {
	var n metrics.NoOp
	assert.NotPanics(t, func() { n.Count("vc-1.filtered", 1) })
}

func TestPrometheus_CountLabelsByConsumerAndKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := metrics.NewPrometheus(reg)

	p.Count("vc-1.filtered", 1)
	p.Count("vc-1.filtered", 1)

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)

	require.Len(t, families, 1)
	series := families[0].GetMetric()
	require.Len(t, series, 1)
	labels := make(map[string]string)
	for _, lp := range series[0].GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	assert.Equal(t, "vc-1", labels["virtual_consumer_id"])
	assert.Equal(t, "filtered", labels["kind"])
	assert.Equal(t, float64(2), series[0].GetCounter().GetValue())
}
