package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/signalsfoundry/atdf-observables/internal/logging"
)

func TestInitTracingDisabledReturnsNoopShutdown(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), DefaultTracingConfig(), logging.Noop())
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Exporter = "zipkin"
	if _, err := InitTracing(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected unsupported exporter error")
	}
}

func TestStdoutExporterWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Output = &buf

	ctx := context.Background()
	shutdown, err := InitTracing(ctx, cfg, logging.Noop())
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	_, span := Tracer().Start(ctx, "decode")
	span.End()
	ShutdownWithTimeout(ctx, shutdown, nil)

	if !strings.Contains(buf.String(), `"Name": "decode"`) {
		t.Fatalf("span output missing decode span: %s", buf.String())
	}

	// Leave the global provider disabled for other tests.
	if _, err := InitTracing(ctx, DefaultTracingConfig(), nil); err != nil {
		t.Fatalf("InitTracing reset: %v", err)
	}
}

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv("ATDF_TRACING_ENABLED", "true")
	t.Setenv("ATDF_TRACING_EXPORTER", "OTLP")
	t.Setenv("ATDF_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("ATDF_TRACING_SAMPLE_RATIO", "0.25")

	cfg := TracingConfigFromEnv(DefaultTracingConfig())
	if !cfg.Enabled || cfg.Exporter != "otlp" || cfg.Endpoint != "collector:4317" || cfg.SampleRatio != 0.25 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.ServiceName != "atdf2ascii" {
		t.Fatalf("service name = %q", cfg.ServiceName)
	}
}
