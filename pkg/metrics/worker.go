package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics records metadata for background workers such as the outbox
// publisher.
type WorkerMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewWorkerMetrics registers the worker metrics on the provided registerer.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		return &WorkerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_batch_duration_seconds",
		Help:    "Duration of worker batch executions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"worker"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_success",
		Help: "Successful worker batch executions.",
	}, []string{"worker"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_failure",
		Help: "Failed worker batch executions.",
	}, []string{"worker"})
	reg.MustRegister(duration, success, failure)
	return &WorkerMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named worker.
func (w *WorkerMetrics) ObserveDuration(worker string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(worker)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named worker.
func (w *WorkerMetrics) IncSuccess(worker string) {
	if w == nil || w.success == nil {
		return
	}
	w.success.WithLabelValues(normalizeLabel(worker)).Inc()
}

// IncFailure increments the failure counter for the named worker.
func (w *WorkerMetrics) IncFailure(worker string) {
	if w == nil || w.failure == nil {
		return
	}
	w.failure.WithLabelValues(normalizeLabel(worker)).Inc()
}

func normalizeLabel(worker string) string {
	if worker == "" {
		return "unknown"
	}
	return worker
}
