package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	config "github.com/tigerroll/userload/pkg/batch/core/config"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/userload/pkg/batch/core/metrics"
	logger "github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
// The loader is a one-shot process, so nothing is served over HTTP; when a textfile path is
// configured the registry is written there at the end of the run for the node exporter to pick up.
type PrometheusRecorder struct {
	registry     *prometheus.Registry
	textfilePath string

	recordsReceived  prometheus.Counter
	recordsAccepted  prometheus.Counter
	recordsRejected  *prometheus.CounterVec
	batchFlushes     prometheus.Counter
	batchRows        prometheus.Histogram
	transactions     *prometheus.CounterVec
	runDurationSecs  *prometheus.HistogramVec
	lastRunTimestamp prometheus.Gauge
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder with its own registry.
func NewPrometheusRecorder(cfg *config.Config) *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry:     registry,
		textfilePath: cfg.Userload.Metrics.TextfilePath,
		recordsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userload_records_received_total",
			Help: "Total non-header rows read from the input.",
		}),
		recordsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userload_records_accepted_total",
			Help: "Total rows routed to the destination table.",
		}),
		recordsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userload_records_rejected_total",
			Help: "Total rows routed to the quarantine file, by reason.",
		}, []string{"reason"}),
		batchFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userload_batch_flush_total",
			Help: "Total batches executed against the destination.",
		}),
		batchRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "userload_batch_rows",
			Help:    "Rows per executed batch.",
			Buckets: []float64{1, 5, 10, 20, 50, 100, 250, 500, 1000},
		}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userload_transaction_total",
			Help: "Total destination transactions by outcome.",
		}, []string{"outcome"}),
		runDurationSecs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "userload_run_duration_seconds",
			Help:    "Duration of load runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "userload_last_run_timestamp_seconds",
			Help: "Unix time at which the last run finished.",
		}),
	}

	registry.MustRegister(r.recordsReceived)
	registry.MustRegister(r.recordsAccepted)
	registry.MustRegister(r.recordsRejected)
	registry.MustRegister(r.batchFlushes)
	registry.MustRegister(r.batchRows)
	registry.MustRegister(r.transactions)
	registry.MustRegister(r.runDurationSecs)
	registry.MustRegister(r.lastRunTimestamp)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordRunStart records the start of a run.
func (r *PrometheusRecorder) RecordRunStart(ctx context.Context, stats *model.RunStatistics) {
	logger.Debugf("Metrics: run '%s' started.", stats.RunID)
}

// RecordRunEnd observes the run duration and writes the textfile, if configured.
func (r *PrometheusRecorder) RecordRunEnd(ctx context.Context, stats *model.RunStatistics) {
	duration := stats.Duration().Seconds()
	r.runDurationSecs.WithLabelValues(string(stats.Status)).Observe(duration)
	r.lastRunTimestamp.SetToCurrentTime()
	logger.Debugf("Metrics: run '%s' ended with status %s. Duration: %.3fs", stats.RunID, stats.Status, duration)

	if r.textfilePath == "" {
		return
	}
	if err := r.WriteTextfile(r.textfilePath); err != nil {
		logger.Warnf("Metrics: failed to write textfile %s: %v", r.textfilePath, err)
	}
}

// RecordAccepted counts one accepted row.
func (r *PrometheusRecorder) RecordAccepted(ctx context.Context) {
	r.recordsReceived.Inc()
	r.recordsAccepted.Inc()
}

// RecordRejected counts one rejected row.
func (r *PrometheusRecorder) RecordRejected(ctx context.Context, reason string) {
	r.recordsReceived.Inc()
	r.recordsRejected.WithLabelValues(reason).Inc()
}

// RecordBatchFlush counts one executed batch.
func (r *PrometheusRecorder) RecordBatchFlush(ctx context.Context, rows int) {
	r.batchFlushes.Inc()
	r.batchRows.Observe(float64(rows))
}

// RecordTransaction counts a transaction outcome.
func (r *PrometheusRecorder) RecordTransaction(ctx context.Context, outcome string) {
	r.transactions.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes the registry in the text exposition format.
// The file is written atomically (temporary file plus rename).
func (r *PrometheusRecorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
