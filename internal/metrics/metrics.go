// Package metrics exposes engine activity as Prometheus metrics. A Metrics
// value implements the tree, scheduler and engine observer interfaces.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/engine"
	"github.com/vk/aether/internal/scheduler"
	"github.com/vk/aether/internal/tree"
)

const namespace = "aether"

// Metrics holds the engine's collectors.
type Metrics struct {
	reg *prometheus.Registry

	commands      *prometheus.CounterVec
	hooks         *prometheus.CounterVec
	draws         *prometheus.CounterVec
	flushes       prometheus.Counter
	flushRequests prometheus.Histogram
	flushDuration prometheus.Histogram
}

var (
	_ tree.Observer      = (*Metrics)(nil)
	_ scheduler.Observer = (*Metrics)(nil)
	_ engine.Observer    = (*Metrics)(nil)
)

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands applied to the tree, by variant and outcome.",
		}, []string{"variant", "outcome"}),
		hooks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hooks_total",
			Help:      "Node lifecycle hooks run, by node type, hook and outcome.",
		}, []string{"type", "hook", "outcome"}),
		draws: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draws_total",
			Help:      "Render requests drawn, by priority and outcome.",
		}, []string{"priority", "outcome"}),
		flushes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "Render queue flushes.",
		}),
		flushRequests: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_requests",
			Help:      "Requests drawn per flush.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		flushDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Time spent flushing the render queue.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// CommandApplied implements engine.Observer.
func (m *Metrics) CommandApplied(variant comms.Variant, err error) {
	m.commands.WithLabelValues(string(variant), outcome(err)).Inc()
}

// HookRan implements tree.Observer.
func (m *Metrics) HookRan(nodeType string, hook tree.Hook, err error) {
	m.hooks.WithLabelValues(nodeType, string(hook), outcome(err)).Inc()
}

// Drawn implements scheduler.Observer.
func (m *Metrics) Drawn(p scheduler.Priority, err error) {
	m.draws.WithLabelValues(p.String(), outcome(err)).Inc()
}

// Flushed implements scheduler.Observer.
func (m *Metrics) Flushed(requests int, elapsed time.Duration) {
	m.flushes.Inc()
	m.flushRequests.Observe(float64(requests))
	m.flushDuration.Observe(elapsed.Seconds())
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
