// Package metrics exposes engine activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/ogulcanaydogan/SafetyRing/pkg/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "safetyring"

// Metrics records engine events. It implements engine.Observer.
type Metrics struct {
	registry *prometheus.Registry

	armedTotal     prometheus.Counter
	cancelledTotal prometheus.Counter
	alertsTotal    *prometheus.CounterVec
	sendsTotal     *prometheus.CounterVec
	pendingAlerts  prometheus.Gauge
}

var _ engine.Observer = (*Metrics)(nil)

// New creates metrics on a private registry, so several instances can
// coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		armedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_armed_total",
			Help:      "Number of alert countdowns started.",
		}),
		cancelledTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_cancelled_total",
			Help:      "Number of alert countdowns cancelled by the user.",
		}),
		alertsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_dispatched_total",
			Help:      "Number of dispatches by outcome.",
		}, []string{"outcome"}),
		sendsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_total",
			Help:      "Number of composer sends by channel and result.",
		}, []string{"channel", "result"}),
		pendingAlerts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_alerts",
			Help:      "Number of alerts waiting for connectivity.",
		}),
	}
}

func (m *Metrics) AlertArmed() { m.armedTotal.Inc() }

func (m *Metrics) AlertCancelled() { m.cancelledTotal.Inc() }

func (m *Metrics) AlertDispatched(outcome engine.Outcome) {
	m.alertsTotal.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) SendAttempted(channel string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.sendsTotal.WithLabelValues(channel, result).Inc()
}

func (m *Metrics) PendingDepth(n int) { m.pendingAlerts.Set(float64(n)) }

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
