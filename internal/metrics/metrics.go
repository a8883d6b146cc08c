// Package metrics exports execution events as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/executor"
)

const (
	namespace = "actionflow"
	subsystem = "engine"

	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Collector implements executor.Observer on top of Prometheus metrics.
type Collector struct {
	executionsTotal   *prometheus.CounterVec
	executionDuration prometheus.Histogram
	inflight          prometheus.Gauge
	batchSize         prometheus.Histogram
	callsTotal        *prometheus.CounterVec
	callDuration      *prometheus.HistogramVec
	retriesTotal      *prometheus.CounterVec
	compensations     *prometheus.CounterVec
	skippedTotal      prometheus.Counter
}

// New registers the engine metrics with reg and returns the collector.
// It panics if the metrics are already registered with reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		executionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "executions_total",
				Help:      "Total number of finished executions by status",
			},
			[]string{"status"},
		),
		executionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "execution_duration_seconds",
				Help:      "Duration of executions in seconds, compensation included",
				Buckets:   prometheus.DefBuckets,
			},
		),
		inflight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "executions_in_flight",
				Help:      "Number of executions currently running",
			},
		),
		batchSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "batch_size",
				Help:      "Number of calls per batch",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
			},
		),
		callsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calls_total",
				Help:      "Total number of finished calls by action and status",
			},
			[]string{"action", "status"},
		),
		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "call_duration_seconds",
				Help:      "Duration of calls in seconds, retries included",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "retries_total",
				Help:      "Total number of scheduled retries by action",
			},
			[]string{"action"},
		),
		compensations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "compensations_total",
				Help:      "Total number of compensations by action and status",
			},
			[]string{"action", "status"},
		),
		skippedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "skipped_calls_total",
				Help:      "Total number of calls never started because an earlier batch failed",
			},
		),
	}
}

func status(err error) string {
	if err != nil {
		return StatusFailed
	}
	return StatusSucceeded
}

func (c *Collector) ExecutionStarted(string, int) {
	c.inflight.Inc()
}

func (c *Collector) BatchCompleted(_ string, _ int, size int, _ time.Duration) {
	c.batchSize.Observe(float64(size))
}

func (c *Collector) CallCompleted(_ string, o action.Outcome, elapsed time.Duration) {
	c.callsTotal.WithLabelValues(o.ActionID, status(o.Err)).Inc()
	c.callDuration.WithLabelValues(o.ActionID).Observe(elapsed.Seconds())
}

func (c *Collector) RetryScheduled(_ string, actionID string, _ int, _ time.Duration, _ error) {
	c.retriesTotal.WithLabelValues(actionID).Inc()
}

func (c *Collector) CompensationCompleted(_ string, actionID string, err error) {
	c.compensations.WithLabelValues(actionID, status(err)).Inc()
}

func (c *Collector) ExecutionCompleted(_ string, r *executor.Result, elapsed time.Duration) {
	c.inflight.Dec()
	s := StatusSucceeded
	if !r.OK() {
		s = StatusFailed
	}
	c.executionsTotal.WithLabelValues(s).Inc()
	c.executionDuration.Observe(elapsed.Seconds())
	c.skippedTotal.Add(float64(len(r.Skipped)))
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var _ executor.Observer = (*Collector)(nil)
