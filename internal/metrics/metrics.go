// Package metrics exposes Prometheus metrics for the upload pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JonMunkholm/bulkload/internal/bulk"
)

// Metrics records pipeline events and upload outcomes. It implements
// bulk.Observer.
type Metrics struct {
	// Records read, by outcome: valid, invalid, format_error
	Records *prometheus.CounterVec

	// Validation runs by result: clean, rejected, failed
	Runs *prometheus.CounterVec

	// Sources whose Close failed after validation
	CloseFailures prometheus.Counter

	// Rows per flushed batch
	BatchSize prometheus.Histogram

	// Rows imported, and imports that failed
	ImportedRows   prometheus.Counter
	ImportFailures prometheus.Counter

	// Upload duration by target and status
	UploadLatency *prometheus.HistogramVec
}

// New registers the pipeline metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Records: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bulkload_records_total",
			Help: "Records read from uploads by validation outcome",
		}, []string{"outcome"}),

		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bulkload_validation_runs_total",
			Help: "Validation runs by result",
		}, []string{"result"}),

		CloseFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "bulkload_source_close_failures_total",
			Help: "Upload sources that failed to close",
		}),

		BatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bulkload_batch_rows",
			Help:    "Rows sent per flushed insert batch",
			Buckets: []float64{1, 10, 50, 100, 250, 500, 1000},
		}),

		ImportedRows: f.NewCounter(prometheus.CounterOpts{
			Name: "bulkload_imported_rows_total",
			Help: "Rows written by successful imports",
		}),

		ImportFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "bulkload_import_failures_total",
			Help: "Imports aborted by a database or context error",
		}),

		UploadLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bulkload_upload_duration_seconds",
			Help:    "Duration of uploads from slot acquisition to filing",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}, []string{"target", "status"}),
	}
}

// Observe implements bulk.Observer.
func (m *Metrics) Observe(e bulk.Event) {
	if m == nil {
		return
	}
	switch e.Kind {
	case bulk.EventRecordValid:
		m.Records.WithLabelValues("valid").Inc()
	case bulk.EventRecordInvalid:
		m.Records.WithLabelValues("invalid").Inc()
	case bulk.EventFormatError:
		m.Records.WithLabelValues("format_error").Inc()
	case bulk.EventRunFinished:
		switch {
		case e.Err != nil:
			m.Runs.WithLabelValues("failed").Inc()
		case e.Invalid > 0:
			m.Runs.WithLabelValues("rejected").Inc()
		default:
			m.Runs.WithLabelValues("clean").Inc()
		}
	case bulk.EventCloseFailed:
		m.CloseFailures.Inc()
	case bulk.EventBatchFlushed:
		m.BatchSize.Observe(float64(e.Size))
	case bulk.EventImportFinished:
		if e.Err != nil {
			m.ImportFailures.Inc()
			return
		}
		m.ImportedRows.Add(float64(e.Valid))
	}
}

// ObserveUpload records the duration and outcome of one upload.
func (m *Metrics) ObserveUpload(target, status string, d time.Duration) {
	if m != nil {
		m.UploadLatency.WithLabelValues(target, status).Observe(d.Seconds())
	}
}
