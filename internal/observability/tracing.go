package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/atdf-observables/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// TracerName scopes spans emitted by the pipeline.
const TracerName = "github.com/signalsfoundry/atdf-observables"

// Tracer returns the pipeline tracer from the global provider.
func Tracer() trace.Tracer { return otel.Tracer(TracerName) }

// TracingConfig governs how pipeline tracing is initialised.
type TracingConfig struct {
	Enabled     bool      `yaml:"enabled"`
	ServiceName string    `yaml:"service_name"`
	Exporter    string    `yaml:"exporter"` // stdout | otlp
	Endpoint    string    `yaml:"endpoint"` // used when Exporter == otlp
	SampleRatio float64   `yaml:"sample_ratio"`
	Output      io.Writer `yaml:"-"` // stdout exporter target, defaults to stderr
}

// DefaultTracingConfig is tracing switched off with stdout export ready.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "atdf2ascii",
		Exporter:    "stdout",
		SampleRatio: 1.0,
	}
}

// TracingConfigFromEnv overlays ATDF_TRACING_* variables onto base.
func TracingConfigFromEnv(base TracingConfig) TracingConfig {
	if raw := os.Getenv("ATDF_TRACING_ENABLED"); raw != "" {
		base.Enabled = strings.EqualFold(raw, "true")
	}
	if exporter := strings.ToLower(os.Getenv("ATDF_TRACING_EXPORTER")); exporter != "" {
		base.Exporter = exporter
	}
	if service := os.Getenv("ATDF_TRACING_SERVICE_NAME"); service != "" {
		base.ServiceName = service
	}
	if endpoint := os.Getenv("ATDF_OTLP_ENDPOINT"); endpoint != "" {
		base.Endpoint = endpoint
	}
	if rawRatio := os.Getenv("ATDF_TRACING_SAMPLE_RATIO"); rawRatio != "" {
		if parsed, err := strconv.ParseFloat(rawRatio, 64); err == nil && parsed >= 0 && parsed <= 1 {
			base.SampleRatio = parsed
		}
	}
	return base
}

// InitTracing wires a tracer provider, exporter, propagators, and sampler based
// on the provided configuration. It returns a shutdown function to flush spans.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}

	if !cfg.Enabled {
		otel.SetTracerProvider(trace.NewNoopTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Info(ctx, "tracing disabled; using noop tracer provider")
		return func(context.Context) error { return nil }, nil
	}

	exp, err := exporterFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.namespace", "atdf"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", cfg.Exporter),
		logging.String("service_name", cfg.ServiceName),
		logging.String("sampler", fmt.Sprintf("parentbased_traceidratio_%0.2f", cfg.SampleRatio)),
	)

	return tp.Shutdown, nil
}

func exporterFromConfig(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case "stdout", "":
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		return stdouttrace.New(
			stdouttrace.WithWriter(out),
			stdouttrace.WithPrettyPrint(),
			stdouttrace.WithoutTimestamps(),
		)
	case "otlp", "otlpgrpc":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
		return otlptrace.New(ctx, client)
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", cfg.Exporter)
	}
}

// ShutdownWithTimeout invokes the provided shutdown function with a bounded
// timeout, swallowing errors in the shutdown path.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}
