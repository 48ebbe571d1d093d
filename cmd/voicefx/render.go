package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/algo-voicefx/dsp/buffer"
	"github.com/cwbudde/algo-voicefx/dsp/core"
	"github.com/cwbudde/algo-voicefx/dsp/effectchain"
	"github.com/cwbudde/algo-voicefx/dsp/signal"
	"github.com/cwbudde/algo-voicefx/dsp/spectrum"
	"github.com/cwbudde/algo-voicefx/internal/config"
	"github.com/cwbudde/algo-voicefx/internal/observe"
	"github.com/cwbudde/algo-voicefx/internal/wavio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// renderer runs buffers through library presets.
type renderer struct {
	library     *effectchain.Library
	logger      *slog.Logger
	metrics     *observe.Metrics
	gain        float64
	blockFrames int
}

// newEngine returns an engine prepared for in's format with preset name
// selected.
func (r *renderer) newEngine(name string, sampleRate float64, channels int) (*effectchain.Engine, error) {
	engine := effectchain.NewEngine(
		effectchain.WithLogger(r.logger),
		effectchain.WithLibrary(r.library),
		effectchain.WithMaxBlock(r.blockFrames),
	)
	if err := engine.SelectPreset(name); err != nil {
		return nil, err
	}
	if err := engine.Prepare(sampleRate, channels); err != nil {
		return nil, err
	}
	engine.SetGain(r.gain)
	return engine, nil
}

// render processes a copy of in through preset name block by block, the
// way a capture callback would deliver it. The copy comes from pool, which
// must hand out buffers in in's format; the caller returns it with Put.
func (r *renderer) render(ctx context.Context, name string, in *buffer.Buffer, pool *buffer.Pool) (out *buffer.Buffer, err error) {
	ctx, span := observe.StartSpan(ctx, "voicefx.render",
		trace.WithAttributes(attribute.String("preset", name)))
	defer span.End()

	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.RecordRender(ctx, name, time.Since(start).Seconds(), err)
		}
		if err != nil {
			span.RecordError(err)
		}
	}()

	engine, err := r.newEngine(name, in.SampleRate(), in.Channels())
	if err != nil {
		return nil, err
	}

	out = pool.Get(in.Frames())
	samples := out.Samples()
	copy(samples, in.Samples())
	step := max(r.blockFrames, 1) * out.Channels()
	for offset := 0; offset < len(samples); offset += step {
		if err := ctx.Err(); err != nil {
			pool.Put(out)
			return nil, err
		}
		engine.ProcessRange(samples, offset, step)
	}

	st := engine.Stats()
	observe.Logger(ctx, r.logger).Debug("rendered",
		"preset", name, "buffers", st.Buffers, "samples", st.Samples, "sanitized", st.Sanitized)
	return out, nil
}

// renderTo renders in through preset name and writes the result to
// outPath.
func (r *renderer) renderTo(ctx context.Context, name string, in *buffer.Buffer, outPath string, pool *buffer.Pool) error {
	out, err := r.render(ctx, name, in, pool)
	if err != nil {
		return fmt.Errorf("render %q: %w", name, err)
	}
	defer pool.Put(out)
	return wavio.WriteFile(outPath, out)
}

// renderAll renders in through every library preset concurrently and
// writes <dir>/<base>-<preset>.wav. Workers share one buffer pool, so at
// most limit render buffers are live at a time.
func (r *renderer) renderAll(ctx context.Context, in *buffer.Buffer, base, dir string, limit int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %q: %w", dir, err)
	}

	names := r.library.Names()
	paths := make([]string, len(names))
	pool := buffer.NewPool(in.Channels(), in.SampleRate())

	eg, egCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i, name := range names {
		paths[i] = filepath.Join(dir, base+"-"+fileSafe(name)+".wav")
		eg.Go(func() error {
			return r.renderTo(egCtx, name, in, paths[i], pool)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// analysis summarises the first channel of a buffer. DominantDB is the
// level of the sinusoid at DominantHz alone.
type analysis struct {
	DominantHz float64
	DominantDB float64
	PeakDB     float64
	RMSDB      float64
}

func analyze(b *buffer.Buffer) (analysis, error) {
	ch := make([]float64, b.Frames())
	core.Deinterleave(ch, b.Samples(), b.Channels(), 0)

	hz, err := spectrum.DominantFrequency(ch, b.SampleRate())
	if err != nil {
		return analysis{}, err
	}
	amp, err := spectrum.ToneAmplitude(ch, hz, b.SampleRate())
	if err != nil {
		return analysis{}, err
	}

	var peak, sum float64
	for _, v := range ch {
		peak = max(peak, math.Abs(v))
		sum += v * v
	}
	rms := 0.0
	if len(ch) > 0 {
		rms = math.Sqrt(sum / float64(len(ch)))
	}

	return analysis{
		DominantHz: hz,
		DominantDB: core.LinearToDB(amp),
		PeakDB:     core.LinearToDB(peak),
		RMSDB:      core.LinearToDB(rms),
	}, nil
}

func listPresets(w io.Writer, lib *effectchain.Library) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRESET\tEFFECTS")
	for _, p := range lib.Presets() {
		kinds := make([]string, 0, p.Len())
		for _, st := range p.Stages() {
			label := st.Name
			if st.Known() {
				label = st.Kind.String()
			}
			if st.Bypass || !st.Known() {
				label = "(" + label + ")"
			}
			kinds = append(kinds, label)
		}
		fmt.Fprintf(tw, "%s\t%s\n", p.Name(), strings.Join(kinds, " > "))
	}
	return tw.Flush()
}

// loadInput reads the WAV at path or, when path is empty, generates
// seconds of shape at the configured rate and channel count. It also
// returns a base name for derived output files.
func loadInput(path, shape string, freqHz, seconds float64, cfg *config.Config) (*buffer.Buffer, string, error) {
	if path != "" {
		b, err := wavio.ReadFile(path)
		if err != nil {
			return nil, "", err
		}
		return b, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), nil
	}

	s, err := signal.ParseShape(shape)
	if err != nil {
		return nil, "", err
	}
	g, err := signal.NewGenerator(cfg.SampleRate, cfg.Channels)
	if err != nil {
		return nil, "", err
	}
	b, err := g.Generate(s, freqHz, 0.5, seconds)
	if err != nil {
		return nil, "", err
	}
	return b, s.String(), nil
}
