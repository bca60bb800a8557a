package metric

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/chgrid-go/pkg/grid"
)

const namespace = "chgrid"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Grid access
	AcquireTotal *prometheus.CounterVec
	WaitSeconds  *prometheus.HistogramVec
	Held         *prometheus.GaugeVec
	ReleaseTotal *prometheus.CounterVec

	// Poller
	PollPasses *prometheus.CounterVec
}

// NewRegistry creates a registry with the Go and process collectors and the
// ChGrid metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		AcquireTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grid",
			Name:      "acquire_total",
			Help:      "Grid acquisitions by partition key, mode and outcome",
		}, []string{"key", "mode", "outcome"}),
		WaitSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grid",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for a partition lock",
			Buckets:   []float64{.00001, .0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"key"}),
		Held: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "grid",
			Name:      "held",
			Help:      "Whether a partition lock is currently held",
		}, []string{"key"}),
		ReleaseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grid",
			Name:      "release_total",
			Help:      "Grid partition lock releases",
		}, []string{"key"}),
		PollPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "passes_total",
			Help:      "Poller passes by channel class and outcome",
		}, []string{"class", "outcome"}),
	}

	reg.MustRegister(r.AcquireTotal, r.WaitSeconds, r.Held, r.ReleaseTotal, r.PollPasses)
	return r
}

// Registerer exposes the underlying registry so other packages can add
// their own collectors.
func (r *Registry) Registerer() *prometheus.Registry {
	return r.registry
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Observe implements grid.Observer. Register it with grid.WithObserver; the
// grid must emit take, timeout and release events for the counters to be
// complete.
func (r *Registry) Observe(_ context.Context, a grid.Access) {
	key := strconv.Itoa(a.Key)
	switch a.Event {
	case grid.EventTake:
		r.AcquireTotal.WithLabelValues(key, a.Mode.String(), "taken").Inc()
		r.WaitSeconds.WithLabelValues(key).Observe(a.Waited.Seconds())
		r.Held.WithLabelValues(key).Set(1)
	case grid.EventTimeout:
		r.AcquireTotal.WithLabelValues(key, a.Mode.String(), "timeout").Inc()
		r.WaitSeconds.WithLabelValues(key).Observe(a.Waited.Seconds())
	case grid.EventRelease:
		r.ReleaseTotal.WithLabelValues(key).Inc()
		r.Held.WithLabelValues(key).Set(0)
	}
}

// RecordPass counts a poller pass for class.
func (r *Registry) RecordPass(class string, aborted bool) {
	outcome := "ok"
	if aborted {
		outcome = "aborted"
	}
	r.PollPasses.WithLabelValues(class, outcome).Inc()
}
