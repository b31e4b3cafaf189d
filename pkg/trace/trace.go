package trace

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/trace/noop"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

const (
	// EnvEndpoint is the standard OTLP endpoint environment variable.
	EnvEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	// EnvTracesEndpoint overrides [EnvEndpoint] for traces.
	EnvTracesEndpoint = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"

	defaultServiceName = "rulehub"
)

// ShutdownFunc flushes and stops the provider.
type ShutdownFunc func(context.Context) error

// Config controls tracer provider setup.
type Config struct {
	// Processors are added to the provider, mostly for tests.
	Processors     []sdktrace.SpanProcessor
	ServiceName    string
	ServiceVersion string
	// Endpoint is the OTLP/gRPC collector address. When empty, the
	// standard OTEL_EXPORTER_OTLP_* variables are consulted.
	Endpoint string
	// SampleRate in (0, 1). Values outside that range sample everything.
	SampleRate float64
	Enabled    bool
	Insecure   bool
}

// EndpointFromEnv returns the configured OTLP traces endpoint, if any.
func EndpointFromEnv() string {
	for _, key := range []string{EnvTracesEndpoint, EnvEndpoint} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}

	return ""
}

// Init installs a global tracer provider and returns its shutdown func.
// A disabled config installs a no-op provider.
func Init(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())

		return func(context.Context) error { return nil }, nil
	}

	tp, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// NewProvider builds an SDK tracer provider for cfg without installing it.
func NewProvider(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	name := cfg.ServiceName
	if name == "" {
		name = defaultServiceName
	}

	// Schemaless, so the merge never conflicts with the SDK default schema.
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(name),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = EndpointFromEnv()
	}

	if endpoint != "" {
		exOpts := []otlptracegrpc.Option{}
		if strings.Contains(endpoint, "://") {
			exOpts = append(exOpts, otlptracegrpc.WithEndpointURL(endpoint))
		} else {
			exOpts = append(exOpts, otlptracegrpc.WithEndpoint(endpoint))
		}

		if cfg.Insecure {
			exOpts = append(exOpts, otlptracegrpc.WithInsecure())
		}

		exporter, err := otlptracegrpc.New(ctx, exOpts...)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}

		opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
	}

	for _, p := range cfg.Processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}

	return sdktrace.NewTracerProvider(opts...), nil
}

func sampler(rate float64) sdktrace.Sampler {
	if rate > 0 && rate < 1 {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}

	return sdktrace.ParentBased(sdktrace.AlwaysSample())
}
