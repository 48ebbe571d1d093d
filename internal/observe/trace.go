package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for the voicefx tracer.
const tracerName = "github.com/cwbudde/algo-voicefx"

// Tracer returns the voicefx tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a new span. The caller must call span.End().
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// Logger returns base enriched with trace_id and span_id from the span in
// ctx. A nil base means slog.Default().
func Logger(ctx context.Context, base *slog.Logger) *slog.Logger {
	l := base
	if l == nil {
		l = slog.Default()
	}
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		l = l.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}
