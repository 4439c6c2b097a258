package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracerRecordsAttributes(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	_, span := Tracer("test").Start(context.Background(), "fetch")
	span.SetAttributes(KeyProfile.String("saints"), KeySiteCount.Int(3))
	span.End()

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	attrs := map[string]string{}
	for _, a := range spans[0].Attributes() {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	if attrs["sacredsites.profile"] != "saints" || attrs["sacredsites.site_count"] != "3" {
		t.Errorf("unexpected attributes %v", attrs)
	}
}

func TestInitTracer(t *testing.T) {
	// The gRPC exporter connects lazily, so an unreachable address still initialises.
	shutdown, err := InitTracer(context.Background(), "test", "127.0.0.1:1")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	shutdown()
}
