package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	config "github.com/tigerroll/userload/pkg/batch/core/config"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/userload/pkg/batch/core/metrics"
	logger "github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

const meterName = "github.com/tigerroll/userload"

// OTelMetricRecorder pushes the run metrics to an OTLP collector.
type OTelMetricRecorder struct {
	provider *sdkmetric.MeterProvider

	received     metric.Int64Counter
	accepted     metric.Int64Counter
	rejected     metric.Int64Counter
	flushes      metric.Int64Counter
	flushRows    metric.Int64Histogram
	transactions metric.Int64Counter
	runDuration  metric.Float64Histogram
}

// NewOTelMetricRecorder builds a MeterProvider exporting with a periodic reader over the
// configured OTLP transport. Returns nil when metrics.exporter is "none".
func NewOTelMetricRecorder(ctx context.Context, cfg *config.Config) (*OTelMetricRecorder, error) {
	mc := cfg.Userload.Metrics
	var exporter sdkmetric.Exporter
	var err error
	switch mc.Exporter {
	case "", config.TracingExporterNone:
		return nil, nil
	case config.TracingExporterOTLPHTTP:
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if mc.Endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(mc.Endpoint))
		}
		exporter, err = otlpmetrichttp.New(ctx, opts...)
	case config.TracingExporterOTLPGRPC:
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if mc.Endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(mc.Endpoint))
		}
		exporter, err = otlpmetricgrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported metrics exporter: %s", mc.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s metric exporter: %w", mc.Exporter, err)
	}
	logger.Infof("OTLP metric exporter '%s' enabled (endpoint: %s).", mc.Exporter, mc.Endpoint)
	return NewOTelMetricRecorderWithReader(sdkmetric.NewPeriodicReader(exporter), cfg.Userload.Tracing.ServiceName)
}

// NewOTelMetricRecorderWithReader builds the recorder on top of an arbitrary reader.
func NewOTelMetricRecorderWithReader(reader sdkmetric.Reader, serviceName string) (*OTelMetricRecorder, error) {
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
	meter := provider.Meter(meterName)

	r := &OTelMetricRecorder{provider: provider}
	var err error
	if r.received, err = meter.Int64Counter("userload.records.received", metric.WithDescription("Non-header rows read from the input.")); err != nil {
		return nil, err
	}
	if r.accepted, err = meter.Int64Counter("userload.records.accepted", metric.WithDescription("Rows routed to the destination table.")); err != nil {
		return nil, err
	}
	if r.rejected, err = meter.Int64Counter("userload.records.rejected", metric.WithDescription("Rows routed to the quarantine file.")); err != nil {
		return nil, err
	}
	if r.flushes, err = meter.Int64Counter("userload.batch.flushes", metric.WithDescription("Batches executed against the destination.")); err != nil {
		return nil, err
	}
	if r.flushRows, err = meter.Int64Histogram("userload.batch.rows", metric.WithDescription("Rows per executed batch.")); err != nil {
		return nil, err
	}
	if r.transactions, err = meter.Int64Counter("userload.transactions", metric.WithDescription("Destination transactions by outcome.")); err != nil {
		return nil, err
	}
	if r.runDuration, err = meter.Float64Histogram("userload.run.duration", metric.WithUnit("s"), metric.WithDescription("Duration of load runs.")); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *OTelMetricRecorder) RecordRunStart(ctx context.Context, stats *model.RunStatistics) {}

// RecordRunEnd records the duration and forces an export so a short run is not lost.
func (r *OTelMetricRecorder) RecordRunEnd(ctx context.Context, stats *model.RunStatistics) {
	r.runDuration.Record(ctx, stats.Duration().Seconds(), metric.WithAttributes(attribute.String("status", string(stats.Status))))
	if err := r.provider.ForceFlush(ctx); err != nil {
		logger.Warnf("Metrics: failed to flush OTLP metrics: %v", err)
	}
}

func (r *OTelMetricRecorder) RecordAccepted(ctx context.Context) {
	r.received.Add(ctx, 1)
	r.accepted.Add(ctx, 1)
}

func (r *OTelMetricRecorder) RecordRejected(ctx context.Context, reason string) {
	r.received.Add(ctx, 1)
	r.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (r *OTelMetricRecorder) RecordBatchFlush(ctx context.Context, rows int) {
	r.flushes.Add(ctx, 1)
	r.flushRows.Record(ctx, int64(rows))
}

func (r *OTelMetricRecorder) RecordTransaction(ctx context.Context, outcome string) {
	r.transactions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Shutdown flushes and stops the MeterProvider.
func (r *OTelMetricRecorder) Shutdown(ctx context.Context) error {
	return r.provider.Shutdown(ctx)
}

var _ metrics.MetricRecorder = (*OTelMetricRecorder)(nil)
