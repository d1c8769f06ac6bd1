package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"vip-relay/internal/common/logger"
)

// Observability records sync outcomes through an otel meter exported to Prometheus.
// A nil *Observability is valid and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	syncCounter    otelmetric.Int64Counter
	syncDuration   otelmetric.Float64Histogram
}

// New installs a meter provider backed by the Prometheus exporter and a tracer
// provider whose failed spans are written to log. On exporter failure it returns
// an Observability that records nothing, alongside the error.
func New(serviceName string, log logger.Logger) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{}, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewFailedSpanLogger(log)),
	)
	otel.SetTracerProvider(tracerProvider)

	obs := newWithProvider(provider, serviceName)
	obs.tracerProvider = tracerProvider
	return obs, nil
}

func newWithProvider(provider *metric.MeterProvider, serviceName string) *Observability {
	meter := provider.Meter(serviceName)

	syncCounter, _ := meter.Int64Counter(
		"sync.processed",
		otelmetric.WithDescription("Number of webhooks processed by the sync engine"),
	)

	syncDuration, _ := meter.Float64Histogram(
		"sync.duration",
		otelmetric.WithDescription("Webhook sync duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		syncCounter:   syncCounter,
		syncDuration:  syncDuration,
	}
}

// RecordSync records one processed webhook with its source and final status.
func (o *Observability) RecordSync(ctx context.Context, source, status string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	)
	if o.syncCounter != nil {
		o.syncCounter.Add(ctx, 1, attrs)
	}
	if o.syncDuration != nil {
		o.syncDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
