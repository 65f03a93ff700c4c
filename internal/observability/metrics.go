// Package observability defines the Prometheus metrics of the pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "odv"

// Metrics holds the Prometheus counters, histograms, and gauges for the pipeline.
type Metrics struct {
	RowsDecoded     prometheus.Counter
	RecordsKept     prometheus.Counter
	PointsTrimmed   prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Per-region fan-out.
	RegionsProcessed prometheus.Counter
	RegionsSkipped   *prometheus.CounterVec // labels: reason={too_few_points,zero_max_count,render_error}

	// Source download.
	CacheLookups  *prometheus.CounterVec // labels: result={hit,miss,expired}
	FetchDuration prometheus.Histogram

	// Outputs.
	ReportsWritten    prometheus.Counter
	SummariesProduced prometheus.Counter
	RunDuration       prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_decoded_total",
			Help:      "Total dataset rows decoded into records.",
		}),
		RecordsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_kept_total",
			Help:      "Total records kept after the kind, count and outcome filters.",
		}),
		PointsTrimmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_trimmed_total",
			Help:      "Total trailing points removed as reporting lag.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		RegionsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_processed_total",
			Help:      "Total regions rendered and summarised.",
		}),
		RegionsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_skipped_total",
			Help:      "Regions whose plot was skipped, by reason.",
		}, []string{"reason"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Source download cache lookups by result.",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of source dataset downloads.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ReportsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_written_total",
			Help:      "Total report files written.",
		}),
		SummariesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_produced_total",
			Help:      "Total region summaries written to the sink topic.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-transform-report run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsDecoded,
		m.RecordsKept,
		m.PointsTrimmed,
		m.PipelineRunning,
		m.RegionsProcessed,
		m.RegionsSkipped,
		m.CacheLookups,
		m.FetchDuration,
		m.ReportsWritten,
		m.SummariesProduced,
		m.RunDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
