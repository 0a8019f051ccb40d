package tracing

import (
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitTracer_DisabledInstallsPropagator(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), DefaultConfig("onboard-cli"))
	if err != nil {
		t.Fatalf("InitTracer(disabled) returned error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown(disabled) returned error: %v", err)
	}

	fields := otel.GetTextMapPropagator().Fields()
	found := false
	for _, f := range fields {
		if f == "traceparent" {
			found = true
		}
	}
	if !found {
		t.Errorf("propagator fields = %v, want traceparent", fields)
	}
}

func TestInitTracer_Enabled(t *testing.T) {
	for _, endpoint := range []string{"127.0.0.1:0", "http://127.0.0.1:0/v1/traces"} {
		cfg := DefaultConfig("onboard-cli")
		cfg.Enabled = true
		cfg.OTLPEndpoint = endpoint

		shutdown, err := InitTracer(context.Background(), cfg)
		if err != nil {
			t.Fatalf("InitTracer(%q) returned error: %v", endpoint, err)
		}
		if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
			t.Errorf("expected *sdktrace.TracerProvider, got %T", otel.GetTracerProvider())
		}
		if err := shutdown(context.Background()); err != nil {
			t.Logf("shutdown with unreachable collector: %v", err)
		}
	}
}

func TestSampler(t *testing.T) {
	cases := map[float64]string{
		1:    "AlwaysOnSampler",
		2:    "AlwaysOnSampler",
		0:    "AlwaysOffSampler",
		-1:   "AlwaysOffSampler",
		0.25: "TraceIDRatioBased{0.25}",
	}
	for rate, want := range cases {
		desc := Sampler(rate).Description()
		if !strings.HasPrefix(desc, "ParentBased{") || !strings.Contains(desc, want) {
			t.Errorf("Sampler(%v).Description() = %q, want parent-based %s", rate, desc, want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("onboard-cli")
	if cfg.ServiceName != "onboard-cli" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
	if cfg.Enabled {
		t.Error("default config should be disabled")
	}
	if cfg.OTLPEndpoint != "localhost:4318" {
		t.Errorf("OTLPEndpoint = %q", cfg.OTLPEndpoint)
	}
}
