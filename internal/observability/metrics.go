package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for an extraction run.
type Metrics struct {
	FilesListed    prometheus.Gauge
	FilesProcessed prometheus.Counter
	RowsScanned    prometheus.Counter
	RowsMatched    prometheus.Counter
	RowsWritten    *prometheus.CounterVec // labels: sink={csv,kafka}
	RunErrors      *prometheus.CounterVec // labels: stage={list,fetch,parse,transform,load}
	RunActive      prometheus.Gauge

	FetchDuration          prometheus.Histogram
	FileProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all extractor metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.FilesListed,
		m.FilesProcessed,
		m.RowsScanned,
		m.RowsMatched,
		m.RowsWritten,
		m.RunErrors,
		m.RunActive,
		m.FetchDuration,
		m.FileProcessingDuration,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesListed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_extract",
			Name:      "files_listed",
			Help:      "Daily report files found in the upstream listing.",
		}),
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_extract",
			Name:      "files_processed_total",
			Help:      "Daily report files fetched, normalized and written.",
		}),
		RowsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_extract",
			Name:      "rows_scanned_total",
			Help:      "Upstream data rows examined by the classifier.",
		}),
		RowsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_extract",
			Name:      "rows_matched_total",
			Help:      "Upstream rows belonging to a target jurisdiction.",
		}),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_extract",
			Name:      "rows_written_total",
			Help:      "Canonical rows written, by sink.",
		}, []string{"sink"}),
		RunErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_extract",
			Name:      "errors_total",
			Help:      "Fatal errors by pipeline stage.",
		}, []string{"stage"}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_extract",
			Name:      "run_active",
			Help:      "1 while an extraction run is in progress, 0 otherwise.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covid_extract",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single daily report download.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FileProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covid_extract",
			Name:      "file_processing_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-write cycle for one file.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
