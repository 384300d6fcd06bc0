package metrics

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	config "github.com/tigerroll/userload/pkg/batch/core/config"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/userload/pkg/batch/core/metrics"
	logger "github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

const tracerName = "github.com/tigerroll/userload"

// OpenTelemetryTracer is an OpenTelemetry implementation of the metrics.Tracer interface.
type OpenTelemetryTracer struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// NewOpenTelemetryTracer creates a tracer exporting spans over OTLP and registers its
// provider as the global one. Returns nil when tracing.exporter is "none".
func NewOpenTelemetryTracer(ctx context.Context, cfg *config.Config) (*OpenTelemetryTracer, error) {
	tc := cfg.Userload.Tracing
	var exporter sdktrace.SpanExporter
	var err error
	switch tc.Exporter {
	case "", config.TracingExporterNone:
		return nil, nil
	case config.TracingExporterOTLPHTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
		if tc.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(tc.Endpoint))
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	case config.TracingExporterOTLPGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
		if tc.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(tc.Endpoint))
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", tc.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s span exporter: %w", tc.Exporter, err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", tc.ServiceName))),
	)
	otel.SetTracerProvider(provider)
	logger.Infof("OTLP span exporter '%s' enabled (endpoint: %s).", tc.Exporter, tc.Endpoint)

	return &OpenTelemetryTracer{
		tracer:   provider.Tracer(tracerName),
		shutdown: provider.Shutdown,
	}, nil
}

// NewOpenTelemetryTracerWithProvider wraps an existing TracerProvider.
func NewOpenTelemetryTracerWithProvider(provider trace.TracerProvider) *OpenTelemetryTracer {
	return &OpenTelemetryTracer{
		tracer:   provider.Tracer(tracerName),
		shutdown: func(context.Context) error { return nil },
	}
}

// StartRunSpan starts the root span of a run. The returned function copies the final
// counters onto the span before ending it.
func (t *OpenTelemetryTracer) StartRunSpan(ctx context.Context, stats *model.RunStatistics) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "userload.run",
		trace.WithAttributes(attribute.String("userload.run_id", stats.RunID)))
	return ctx, func() {
		span.SetAttributes(
			attribute.Int("userload.received", stats.Received),
			attribute.Int("userload.accepted", stats.Accepted),
			attribute.Int("userload.rejected", stats.Rejected),
			attribute.Int("userload.header_echoes", stats.HeaderEchoes),
			attribute.String("userload.status", string(stats.Status)),
		)
		if stats.Status == model.RunStatusCommitted {
			span.SetStatus(codes.Ok, "")
		} else {
			span.SetStatus(codes.Error, string(stats.Status))
		}
		span.End()
	}
}

// StartFlushSpan starts a child span around one batch flush.
func (t *OpenTelemetryTracer) StartFlushSpan(ctx context.Context, rows int) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "userload.flush",
		trace.WithAttributes(attribute.Int("userload.batch_rows", rows)))
	return ctx, func() { span.End() }
}

// RecordError records an error in the current span.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("userload.module", module)))
	span.SetStatus(codes.Error, err.Error())
}

// RecordEvent records an event in the current span.
func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(toAttributes(attributes)...))
}

// Shutdown flushes pending spans and stops the provider.
func (t *OpenTelemetryTracer) Shutdown(ctx context.Context) error {
	return t.shutdown(ctx)
}

// toAttributes converts a loosely typed map into attributes, sorted by key.
func toAttributes(values map[string]interface{}) []attribute.KeyValue {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(values))
	for _, k := range keys {
		switch v := values[k].(type) {
		case string:
			attrs = append(attrs, attribute.String(k, v))
		case int:
			attrs = append(attrs, attribute.Int(k, v))
		case int64:
			attrs = append(attrs, attribute.Int64(k, v))
		case float64:
			attrs = append(attrs, attribute.Float64(k, v))
		case bool:
			attrs = append(attrs, attribute.Bool(k, v))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprint(v)))
		}
	}
	return attrs
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
