// Package metrics exposes pipeline run metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aristath/commodities/internal/domain"
)

const namespace = "commodities"

// Collector owns a private registry so tests and multiple servers never collide
type Collector struct {
	registry *prometheus.Registry

	runs            *prometheus.CounterVec
	stepDuration    *prometheus.HistogramVec
	stepFailures    *prometheus.CounterVec
	itemsProcessed  *prometheus.CounterVec
	recommendations *prometheus.CounterVec
}

// New creates a collector with Go runtime metrics registered
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Pipeline runs by mode and outcome",
			},
			[]string{"mode", "status"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Duration of pipeline states and analysis stages",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"step"},
		),
		stepFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "step_failures_total",
				Help:      "Steps that aborted a run",
			},
			[]string{"step"},
		),
		itemsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_items_total",
				Help:      "Items completed inside fan-out stages",
			},
			[]string{"step"},
		),
		recommendations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "review_recommendations_total",
				Help:      "Position review recommendations",
			},
			[]string{"recommendation"},
		),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.runs,
		c.stepDuration,
		c.stepFailures,
		c.itemsProcessed,
		c.recommendations,
	)
	return c
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRun counts a finished run
func (c *Collector) ObserveRun(mode string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	c.runs.WithLabelValues(mode, status).Inc()
}

// ObserveReview counts the recommendations of a review run
func (c *Collector) ObserveReview(results []domain.ReviewResult) {
	for _, r := range results {
		c.recommendations.WithLabelValues(string(r.Recommendation)).Inc()
	}
}

// StepStarted implements progress.Reporter
func (c *Collector) StepStarted(string, int) {}

// StepCompleted implements progress.Reporter
func (c *Collector) StepCompleted(step string, elapsed time.Duration, _ string) {
	c.stepDuration.WithLabelValues(step).Observe(elapsed.Seconds())
}

// StepFailed implements progress.Reporter
func (c *Collector) StepFailed(step string, _ error) {
	c.stepFailures.WithLabelValues(step).Inc()
}

// ItemCompleted implements progress.Reporter
func (c *Collector) ItemCompleted(step string, _, _ int, _ string) {
	c.itemsProcessed.WithLabelValues(step).Inc()
}
