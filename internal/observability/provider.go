package observability

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ca-srg/minisearch/internal/types"
)

// Init installs global tracer and meter providers built from rootCfg. When
// telemetry is disabled the providers record nothing and export nothing.
func Init(ctx context.Context, rootCfg *types.Config) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }

	cfg, err := LoadConfig(rootCfg)
	if err != nil {
		return noop, err
	}

	tp, err := newTracerProvider(ctx, cfg)
	if err != nil {
		return noop, err
	}

	mp, err := newMeterProvider(ctx, cfg)
	if err != nil {
		_ = NewShutdownFunc(tp, nil)(ctx)
		return noop, err
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return NewShutdownFunc(tp, mp), nil
}

func newTracerProvider(ctx context.Context, cfg *Config) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.NeverSample())), nil
	}

	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch cfg.ExporterProtocol {
	case protocolGRPC:
		endpoint, insecure, perr := parseGRPCEndpoint(cfg.ExporterEndpoint)
		if perr != nil {
			return nil, fmt.Errorf("observability: invalid OTLP gRPC endpoint: %w", perr)
		}
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	default:
		endpoint, perr := normalizeOTLPHTTPPath(cfg.ExporterEndpoint, "/v1/traces")
		if perr != nil {
			return nil, fmt.Errorf("observability: invalid OTLP HTTP endpoint: %w", perr)
		}
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint)}
		if strings.HasPrefix(endpoint, "http://") {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("observability: failed to create OTLP trace exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(samplerFromConfig(cfg)),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	), nil
}

func newMeterProvider(ctx context.Context, cfg *Config) (*sdkmetric.MeterProvider, error) {
	if !cfg.Enabled {
		return sdkmetric.NewMeterProvider(), nil
	}

	var (
		exporter sdkmetric.Exporter
		err      error
	)
	switch cfg.ExporterProtocol {
	case protocolGRPC:
		endpoint, insecure, perr := parseGRPCEndpoint(cfg.ExporterEndpoint)
		if perr != nil {
			return nil, fmt.Errorf("observability: invalid OTLP gRPC endpoint: %w", perr)
		}
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(endpoint)}
		if insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exporter, err = otlpmetricgrpc.New(ctx, opts...)
	default:
		endpoint, perr := normalizeOTLPHTTPPath(cfg.ExporterEndpoint, "/v1/metrics")
		if perr != nil {
			return nil, fmt.Errorf("observability: invalid OTLP HTTP endpoint: %w", perr)
		}
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(endpoint)}
		if strings.HasPrefix(endpoint, "http://") {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err = otlpmetrichttp.New(ctx, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("observability: failed to create OTLP metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricExportInterval))),
	), nil
}

func samplerFromConfig(cfg *Config) sdktrace.Sampler {
	switch cfg.TracesSampler {
	case samplerAlwaysOff:
		return sdktrace.NeverSample()
	case samplerTraceIDRatio:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.TracesSamplerArg))
	case samplerParentBased:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	default:
		return sdktrace.AlwaysSample()
	}
}

func newResource(ctx context.Context, cfg *Config) (*resource.Resource, error) {
	attrs := make([]attribute.KeyValue, 0, len(cfg.ResourceAttributes))
	for key, value := range cfg.ResourceAttributes {
		attrs = append(attrs, attribute.String(key, value))
	}

	res, err := resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: failed to build resource information: %w", err)
	}
	return res, nil
}
