package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/vigil/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Cardinality note: session IDs are unique per process lifetime, so they are
// never used as label values. Per-session detail belongs in logs, not metrics.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	heartbeats     *prometheus.CounterVec
	scans          *prometheus.CounterVec
	crashes        prometheus.Counter
	lagEvents      prometheus.Counter
	lagSeconds     prometheus.Histogram
	storeOpLatency *prometheus.HistogramVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "vigil" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "vigil"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.heartbeats = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "heartbeat",
			Name:      "writes_total",
			Help:      "Total heartbeat write attempts by result.",
		}, []string{"result"})

		p.scans = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "checker",
			Name:      "ticks_total",
			Help:      "Total checker ticks by outcome (scanned, skipped_*).",
		}, []string{"outcome"})

		p.crashes = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "checker",
			Name:      "crashes_detected_total",
			Help:      "Total peer instances classified as crashed.",
		})

		p.lagEvents = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "checker",
			Name:      "time_lag_events_total",
			Help:      "Total detected interval-firing lags (sleep/wake, starvation).",
		})

		p.lagSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "checker",
			Name:      "time_lag_seconds",
			Help:      "Observed gap between checker ticks when a lag was detected.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s .. ~1h
		})

		p.storeOpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "operation_seconds",
			Help:      "Latency of heartbeat store operations in seconds by operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		}, []string{"op"})

		for _, c := range []prometheus.Collector{
			p.heartbeats, p.scans, p.crashes, p.lagEvents, p.lagSeconds, p.storeOpLatency,
		} {
			// AlreadyRegisteredError is tolerated so two collectors sharing a
			// registerer don't panic the process.
			if err := p.reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					panic(err)
				}
			}
		}
	})
}

// RecordHeartbeat records one heartbeat write attempt.
func (p *PrometheusCollector) RecordHeartbeat(_ /* sessionID */ string, success bool) {
	p.ensureRegistered()

	result := "success"
	if !success {
		result = "failure"
	}
	p.heartbeats.WithLabelValues(result).Inc()
}

// RecordScan records the outcome of one checker tick.
func (p *PrometheusCollector) RecordScan(outcome string) {
	p.ensureRegistered()
	p.scans.WithLabelValues(outcome).Inc()
}

// RecordCrashDetected records one crash classification.
func (p *PrometheusCollector) RecordCrashDetected(_ /* sessionID */ string) {
	p.ensureRegistered()
	p.crashes.Inc()
}

// RecordTimeLag records one detected interval-firing lag.
func (p *PrometheusCollector) RecordTimeLag(elapsedSeconds float64) {
	p.ensureRegistered()
	p.lagEvents.Inc()
	p.lagSeconds.Observe(elapsedSeconds)
}

// RecordStoreOperation records one store operation's latency.
func (p *PrometheusCollector) RecordStoreOperation(operation string, seconds float64) {
	p.ensureRegistered()
	p.storeOpLatency.WithLabelValues(operation).Observe(seconds)
}
