// Package telemetry exposes the daemon's Prometheus metrics and tracing.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/superclaude/superclaude/internal/models"
)

const namespace = "superclaude"

// Metrics holds the daemon's collectors on a dedicated registry. All methods
// are safe to call on a nil *Metrics.
type Metrics struct {
	Registry *prometheus.Registry

	ExecutionsStarted  prometheus.Counter
	ExecutionsFinished *prometheus.CounterVec
	ActiveExecutions   prometheus.Gauge
	EventsEmitted      *prometheus.CounterVec
	EventsDropped      prometheus.Counter
	SafetyDenials      *prometheus.CounterVec
	QualityScore       prometheus.Histogram
	StreamLinesSkipped *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		ExecutionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_started_total",
			Help:      "Total executions whose agent process was spawned.",
		}),
		ExecutionsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_finished_total",
			Help:      "Total executions that reached a terminal state, by state.",
		}, []string{"state"}),
		ActiveExecutions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_executions",
			Help:      "Number of executions with a live agent process.",
		}),
		EventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_emitted_total",
			Help:      "Total events appended to execution histories, by type.",
		}, []string{"event_type"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Total events dropped for lagging subscribers.",
		}),
		SafetyDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "safety_denials_total",
			Help:      "Total operations denied by the safety validator, by category.",
		}, []string{"category"}),
		QualityScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quality_score",
			Help:      "Final quality score of finished executions.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		StreamLinesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_lines_skipped_total",
			Help:      "Total agent output lines that could not be decoded.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.ExecutionsStarted,
		m.ExecutionsFinished,
		m.ActiveExecutions,
		m.EventsEmitted,
		m.EventsDropped,
		m.SafetyDenials,
		m.QualityScore,
		m.StreamLinesSkipped,
	)
	return m
}

// ExecutionStarted records a spawned agent process.
func (m *Metrics) ExecutionStarted() {
	if m == nil {
		return
	}
	m.ExecutionsStarted.Inc()
	m.ActiveExecutions.Inc()
}

// ExecutionFinished records a process exit and the execution's final state.
func (m *Metrics) ExecutionFinished(state models.ExecutionState, score float64) {
	if m == nil {
		return
	}
	m.ExecutionsFinished.WithLabelValues(string(state)).Inc()
	m.ActiveExecutions.Dec()
	m.QualityScore.Observe(score)
}

// EventEmitted counts one event by type.
func (m *Metrics) EventEmitted(t models.EventType) {
	if m == nil {
		return
	}
	m.EventsEmitted.WithLabelValues(string(t)).Inc()
}

// EventDropped counts one event lost to a slow subscriber.
func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.EventsDropped.Inc()
}

// SafetyDenial counts one denied operation.
func (m *Metrics) SafetyDenial(category string) {
	if m == nil {
		return
	}
	m.SafetyDenials.WithLabelValues(category).Inc()
}

// LineSkipped counts one undecodable output line.
func (m *Metrics) LineSkipped(reason string) {
	if m == nil {
		return
	}
	m.StreamLinesSkipped.WithLabelValues(reason).Inc()
}
