package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics contains Prometheus metrics for the ingestion service.
type IngestMetrics struct {
	ReadingsIngested  prometheus.Counter
	MalformedMessages *prometheus.CounterVec
	AppendFailures    prometheus.Counter
	ReadingsArchived  prometheus.Counter
	ArchiveFailures   prometheus.Counter
	HandleDuration    prometheus.Histogram
}

// NewIngestMetrics creates and registers ingestion service metrics.
func NewIngestMetrics(namespace string) *IngestMetrics {
	m := &IngestMetrics{
		ReadingsIngested: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "readings_ingested_total",
				Help:      "Total number of readings appended to the log",
			},
		),
		MalformedMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "malformed_messages_total",
				Help:      "Total number of messages dropped after failing both structured and fallback parsing",
			},
			[]string{"reason"},
		),
		AppendFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "append_failures_total",
				Help:      "Total number of failed log appends",
			},
		),
		ReadingsArchived: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "readings_archived_total",
				Help:      "Total number of readings mirrored to the database archive",
			},
		),
		ArchiveFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "archive_failures_total",
				Help:      "Total number of failed archive writes",
			},
		),
		HandleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "handle_duration_seconds",
				Help:      "Duration of message handling (parse, append, archive)",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	MustRegister(
		m.ReadingsIngested,
		m.MalformedMessages,
		m.AppendFailures,
		m.ReadingsArchived,
		m.ArchiveFailures,
		m.HandleDuration,
	)

	return m
}
