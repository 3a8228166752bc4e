// Package telemetry configures OpenTelemetry trace and metric export over
// OTLP/gRPC.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

const meterName = "github.com/donaldgifford/retail-price-tracker"

// Config selects where and how telemetry is exported.
type Config struct {
	Enabled        bool
	Endpoint       string
	Insecure       bool
	ServiceName    string
	ServiceVersion string
	SampleRatio    float64
	MetricInterval time.Duration
}

// ShutdownFunc flushes and stops the providers.
type ShutdownFunc func(context.Context) error

// Setup installs global trace and meter providers. When telemetry is
// disabled the global no-op providers stay in place and the returned
// shutdown does nothing.
func Setup(ctx context.Context, cfg Config, log *slog.Logger) (ShutdownFunc, error) {
	if !cfg.Enabled {
		log.Debug("telemetry disabled")
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("building resource: %w", err)
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	} else {
		creds := credentials.NewClientTLSFromCert(nil, "")
		traceOpts = append(traceOpts, otlptracegrpc.WithTLSCredentials(creds))
		metricOpts = append(metricOpts, otlpmetricgrpc.WithTLSCredentials(creds))
	}

	traceExp, err := otlptrace.New(ctx, otlptracegrpc.NewClient(traceOpts...))
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	metricExp, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return nil, errors.Join(
			fmt.Errorf("creating metric exporter: %w", err),
			traceExp.Shutdown(ctx),
		)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp,
			sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	log.Info("telemetry enabled",
		"endpoint", cfg.Endpoint,
		"service", cfg.ServiceName,
		"sample_ratio", cfg.SampleRatio,
	)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// StatsFunc reports the current aggregate counts.
type StatsFunc func(ctx context.Context) (*domain.Stats, error)

// RegisterStats exports aggregate counts as observable gauges on the global
// meter provider. Collection failures are logged and skipped.
func RegisterStats(stats StatsFunc, log *slog.Logger) (metric.Registration, error) {
	return registerStats(otel.GetMeterProvider().Meter(meterName), stats, log)
}

func registerStats(meter metric.Meter, stats StatsFunc, log *slog.Logger) (metric.Registration, error) {
	products, err := meter.Int64ObservableGauge("rpt.products",
		metric.WithDescription("Tracked products."))
	if err != nil {
		return nil, err
	}
	stale, err := meter.Int64ObservableGauge("rpt.products.stale",
		metric.WithDescription("Products marked stale."))
	if err != nil {
		return nil, err
	}
	alerts, err := meter.Int64ObservableGauge("rpt.alerts.active",
		metric.WithDescription("Alerts still watching for a price."))
	if err != nil {
		return nil, err
	}
	pending, err := meter.Int64ObservableGauge("rpt.notifications.pending",
		metric.WithDescription("Notification intents awaiting delivery."))
	if err != nil {
		return nil, err
	}
	degraded, err := meter.Int64ObservableGauge("rpt.stores.degraded",
		metric.WithDescription("Stores with an open circuit breaker."))
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		s, err := stats(ctx)
		if err != nil {
			log.Warn("collecting stats for telemetry", "error", err)
			return nil
		}
		o.ObserveInt64(products, int64(s.TotalProducts))
		o.ObserveInt64(stale, int64(s.StaleProducts))
		o.ObserveInt64(alerts, int64(s.ActiveAlerts))
		o.ObserveInt64(pending, int64(s.PendingIntents))
		o.ObserveInt64(degraded, int64(len(s.DegradedStores)))
		return nil
	}, products, stale, alerts, pending, degraded)
}
