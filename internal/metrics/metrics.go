// Package metrics provides Prometheus metrics for pipeline runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"LeadScanner/internal/domain"
)

const namespace = "leadscanner"

// Recorder owns the pipeline collectors of one registry.
type Recorder struct {
	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	stageDuration  *prometheus.HistogramVec
	fallbacks      *prometheus.CounterVec
	sourceFailures *prometheus.CounterVec
	enrichment     *prometheus.CounterVec
	leads          *prometheus.CounterVec
}

// New registers the collectors on reg. Use a fresh registry per process or test.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall-clock duration of pipeline runs",
				Buckets:   []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
			},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallbacks_total",
				Help:      "Total number of heuristic fallbacks by reason",
			},
			[]string{"reason"},
		),
		sourceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_failures_total",
				Help:      "Total number of failed source fetches",
			},
			[]string{"source"},
		),
		enrichment: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrichment_articles_total",
				Help:      "Articles processed by the enricher by result",
			},
			[]string{"result"},
		),
		leads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "leads_total",
				Help:      "Leads emitted by grade and origin",
			},
			[]string{"grade", "origin"},
		),
	}
}

// ObserveStage records how long a pipeline stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRun records a finished run and its leads.
func (r *Recorder) ObserveRun(outcome string, d time.Duration, leads []domain.LeadCandidate) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(outcome).Inc()
	r.runDuration.Observe(d.Seconds())
	for _, l := range leads {
		r.leads.WithLabelValues(string(l.Grade), string(l.Origin)).Inc()
	}
}

func (r *Recorder) ObserveFallback(reason string) {
	if r == nil {
		return
	}
	r.fallbacks.WithLabelValues(reason).Inc()
}

func (r *Recorder) ObserveSourceFailure(source string) {
	if r == nil {
		return
	}
	r.sourceFailures.WithLabelValues(source).Inc()
}

// ObserveEnrichment adds one enrichment report.
func (r *Recorder) ObserveEnrichment(report domain.EnrichReport) {
	if r == nil {
		return
	}
	r.enrichment.WithLabelValues("resolved").Add(float64(report.Resolved))
	r.enrichment.WithLabelValues("fallback_link").Add(float64(report.Fallbacks))
	r.enrichment.WithLabelValues("body").Add(float64(report.Bodies))
	r.enrichment.WithLabelValues("failed").Add(float64(report.Failed))
	r.enrichment.WithLabelValues("skipped").Add(float64(report.Skipped))
}
