package metrics

import (
	"context"

	"go.uber.org/fx"

	config "github.com/tigerroll/userload/pkg/batch/core/config"
	metrics "github.com/tigerroll/userload/pkg/batch/core/metrics"
)

// NewMetricRecorder combines the Prometheus recorder with the OTLP one when it is enabled.
// The OTLP provider is shut down when the application stops.
func NewMetricRecorder(lc fx.Lifecycle, cfg *config.Config, prom *PrometheusRecorder) (metrics.MetricRecorder, error) {
	otelRecorder, err := NewOTelMetricRecorder(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	if otelRecorder == nil {
		return prom, nil
	}
	lc.Append(fx.Hook{OnStop: otelRecorder.Shutdown})
	return metrics.NewCompositeRecorder(prom, otelRecorder), nil
}

// NewTracer returns the OpenTelemetry tracer, or the no-op tracer when tracing is disabled.
func NewTracer(lc fx.Lifecycle, cfg *config.Config) (metrics.Tracer, error) {
	tracer, err := NewOpenTelemetryTracer(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	if tracer == nil {
		return metrics.NewNoOpTracer(), nil
	}
	lc.Append(fx.Hook{OnStop: tracer.Shutdown})
	return tracer, nil
}

// Module is an Fx module that provides the Prometheus/OTLP MetricRecorder and the Tracer.
var Module = fx.Options(
	fx.Provide(NewPrometheusRecorder),
	fx.Provide(NewMetricRecorder),
	fx.Provide(NewTracer),
)
