package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains Prometheus metrics for the decision pipeline.
type PipelineMetrics struct {
	Evaluations        *prometheus.CounterVec
	VerdictsByReason   *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	ModelReloads       prometheus.Counter
}

// NewPipelineMetrics creates and registers decision pipeline metrics.
func NewPipelineMetrics(namespace string) *PipelineMetrics {
	m := &PipelineMetrics{
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "evaluations_total",
				Help:      "Total number of pipeline evaluation cycles by outcome",
			},
			[]string{"outcome"},
		),
		VerdictsByReason: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "verdicts_total",
				Help:      "Total number of emitted verdicts by reason",
			},
			[]string{"reason"},
		),
		EvaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of a full evaluation cycle",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ModelReloads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "model_reloads_total",
				Help:      "Total number of model artifact reloads",
			},
		),
	}

	MustRegister(
		m.Evaluations,
		m.VerdictsByReason,
		m.EvaluationDuration,
		m.ModelReloads,
	)

	return m
}
