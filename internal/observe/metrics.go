// Package observe wires the voice engine into OpenTelemetry: engine
// counters as observable instruments, render latency histograms, tracing
// helpers and a Prometheus bridge ([InitProvider]).
//
// Tests should use [NewMetrics] with their own [metric.MeterProvider] to
// avoid cross-test pollution.
package observe

import (
	"context"

	"github.com/cwbudde/algo-voicefx/dsp/effectchain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voicefx metrics.
const meterName = "github.com/cwbudde/algo-voicefx"

// StatsSource is implemented by [effectchain.Engine].
type StatsSource interface {
	Stats() effectchain.Stats
}

// Metrics holds the metric instruments recorded by the control side of the
// application. All fields are safe for concurrent use.
type Metrics struct {
	// RenderDuration tracks offline render latency. Use with attribute:
	//   attribute.String("preset", ...)
	RenderDuration metric.Float64Histogram

	// PresetChanges counts preset selections. Use with attributes:
	//   attribute.String("preset", ...), attribute.String("status", ...)
	PresetChanges metric.Int64Counter

	// RenderErrors counts failed renders.
	RenderErrors metric.Int64Counter

	meter metric.Meter
}

// renderBuckets are histogram boundaries in seconds.
var renderBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// NewMetrics creates all instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{meter: m}

	if met.RenderDuration, err = m.Float64Histogram("voicefx.render.duration",
		metric.WithDescription("Latency of rendering a file through a preset."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(renderBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PresetChanges, err = m.Int64Counter("voicefx.preset.changes",
		metric.WithDescription("Preset selections by preset and status."),
	); err != nil {
		return nil, err
	}
	if met.RenderErrors, err = m.Int64Counter("voicefx.render.errors",
		metric.WithDescription("Failed renders by preset."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordPresetChange counts one preset selection.
func (m *Metrics) RecordPresetChange(ctx context.Context, preset, status string) {
	m.PresetChanges.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("preset", preset),
			attribute.String("status", status),
		),
	)
}

// RecordRender records one render and, when err is non-nil, a failure.
func (m *Metrics) RecordRender(ctx context.Context, preset string, seconds float64, err error) {
	attrs := metric.WithAttributes(attribute.String("preset", preset))
	m.RenderDuration.Record(ctx, seconds, attrs)
	if err != nil {
		m.RenderErrors.Add(ctx, 1, attrs)
	}
}

// ObserveEngine registers observable instruments that read src.Stats() at
// collection time. The audio path is never touched: it only updates the
// engine's atomics. engine names the engine in the "engine" attribute.
// Unregister the returned registration when the engine goes away.
func (m *Metrics) ObserveEngine(engine string, src StatsSource) (metric.Registration, error) {
	buffers, err := m.meter.Int64ObservableCounter("voicefx.engine.buffers",
		metric.WithDescription("Buffers processed by the engine."))
	if err != nil {
		return nil, err
	}
	samples, err := m.meter.Int64ObservableCounter("voicefx.engine.samples",
		metric.WithDescription("Samples processed by the engine."))
	if err != nil {
		return nil, err
	}
	sanitized, err := m.meter.Int64ObservableCounter("voicefx.engine.sanitized",
		metric.WithDescription("Non-finite output samples replaced by the engine."))
	if err != nil {
		return nil, err
	}
	swaps, err := m.meter.Int64ObservableCounter("voicefx.engine.preset_swaps",
		metric.WithDescription("Chains published by preset changes."))
	if err != nil {
		return nil, err
	}
	skipped, err := m.meter.Int64ObservableCounter("voicefx.engine.skipped_stages",
		metric.WithDescription("Preset stages skipped for an unknown effect kind."))
	if err != nil {
		return nil, err
	}
	resets, err := m.meter.Int64ObservableCounter("voicefx.engine.resets",
		metric.WithDescription("Reset requests."))
	if err != nil {
		return nil, err
	}
	active, err := m.meter.Int64ObservableGauge("voicefx.engine.effects",
		metric.WithDescription("Non-bypassed effects in the live chain."))
	if err != nil {
		return nil, err
	}
	gain, err := m.meter.Float64ObservableGauge("voicefx.engine.gain",
		metric.WithDescription("Linear master gain."))
	if err != nil {
		return nil, err
	}

	return m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		st := src.Stats()
		attrs := metric.WithAttributes(
			attribute.String("engine", engine),
			attribute.String("preset", st.Preset),
			attribute.String("state", st.State.String()),
		)
		o.ObserveInt64(buffers, int64(st.Buffers), attrs)
		o.ObserveInt64(samples, int64(st.Samples), attrs)
		o.ObserveInt64(sanitized, int64(st.Sanitized), attrs)
		o.ObserveInt64(swaps, int64(st.PresetSwaps), attrs)
		o.ObserveInt64(skipped, int64(st.SkippedStages), attrs)
		o.ObserveInt64(resets, int64(st.Resets), attrs)
		o.ObserveInt64(active, int64(st.Effects), attrs)
		o.ObserveFloat64(gain, st.Gain, attrs)
		return nil
	}, buffers, samples, sanitized, swaps, skipped, resets, active, gain)
}
