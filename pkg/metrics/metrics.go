// Package metrics provides Prometheus instrumentation for the analysis pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline outcome labels.
const (
	OutcomeScored  = "scored"
	OutcomeRefused = "refused"
	OutcomeFailed  = "failed"
)

// Inference stage labels.
const (
	StageClassify = "classify"
	StageScore    = "score"
)

// Metrics holds the collectors for pipeline runs and inference calls.
// A nil *Metrics is valid and records nothing, which keeps tests and
// non-instrumented callers free of guards.
type Metrics struct {
	registry       *prometheus.Registry
	pipelineRuns   *prometheus.CounterVec
	inferenceCalls *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
}

// New creates a Metrics with its own registry, pre-registering the process
// and Go runtime collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vigil",
			Subsystem: "analysis",
			Name:      "pipeline_runs_total",
			Help:      "Completed pipeline invocations by outcome.",
		}, []string{"outcome"}),
		inferenceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vigil",
			Subsystem: "analysis",
			Name:      "inference_calls_total",
			Help:      "Remote inference calls by stage and status.",
		}, []string{"stage", "status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vigil",
			Subsystem: "analysis",
			Name:      "stage_duration_seconds",
			Help:      "Wall time per inference stage.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
	}

	registry.MustRegister(m.pipelineRuns, m.inferenceCalls, m.stageDuration)
	return m
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRun increments the pipeline run counter for an outcome.
func (m *Metrics) RecordRun(outcome string) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(outcome).Inc()
}

// ObserveInference records one remote inference call with its duration.
// Status is "ok" or "error".
func (m *Metrics) ObserveInference(stage string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}

	m.inferenceCalls.WithLabelValues(stage, status).Inc()
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}
