package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus records counts into a CounterVec labeled by virtual_consumer_id
// and kind, since virtual consumer ids aren't known at registration time.
type Prometheus struct {
	counter *prometheus.CounterVec
}

// NewPrometheus constructs and registers the counter vector against reg. A
// nil reg registers against prometheus.DefaultRegisterer.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sidespout_events_total",
		Help: "Total sidespout events by virtual consumer and kind.",
	}, []string{"virtual_consumer_id", "kind"})

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(counter)

	return &Prometheus{counter: counter}
}

// Count parses name as "<virtualConsumerId>.<kind>" and adds delta to the
// matching series.
func (p *Prometheus) Count(name string, delta int64) {
	consumerID, kind := splitName(name)
	p.counter.WithLabelValues(consumerID, kind).Add(float64(delta))
}

// StartServer exposes /metrics via promhttp.Handler on port.
func StartServer(port int) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", port)
		_ = http.ListenAndServe(addr, mux)
	}()
}
