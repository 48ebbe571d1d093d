package observe

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracerProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exp
}

func TestStartSpan(t *testing.T) {
	tp, exp := newTestTracerProvider(t)

	origTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(origTP) })

	_, span := StartSpan(context.Background(), "render")
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "render" {
		t.Fatalf("spans = %+v", spans)
	}
}

func TestLoggerAddsTraceIDs(t *testing.T) {
	tp, _ := newTestTracerProvider(t)

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	Logger(context.Background(), base).Info("plain")
	if strings.Contains(buf.String(), "trace_id") {
		t.Fatalf("log without span has trace_id: %s", buf.String())
	}

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	buf.Reset()
	Logger(ctx, base).Info("traced")
	out := buf.String()
	if !strings.Contains(out, "trace_id="+span.SpanContext().TraceID().String()) {
		t.Fatalf("log missing trace_id: %s", out)
	}
	if !strings.Contains(out, "span_id=") {
		t.Fatalf("log missing span_id: %s", out)
	}
}
