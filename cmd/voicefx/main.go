// Command voicefx runs audio through voice effect presets.
//
// Usage:
//
//	voicefx [flags]
//
// Settings default to the VOICEFX_* environment variables, optionally read
// from a .env file. Flags override the environment. Without -in a test
// signal is generated at $VOICEFX_SAMPLE_RATE with $VOICEFX_CHANNELS.
//
// Examples:
//
//	voicefx -list
//	voicefx -preset robot -in voice.wav -out robot.wav
//	voicefx -presets studio.yaml -preset tannoy -in voice.wav -out tannoy.wav
//	voicefx -all -in voice.wav -out renders/
//	voicefx -analyze -in voice.wav
//	voicefx -gen voice -freq 140 -preset helium -out helium.wav
//	voicefx -play -preset deep -in voice.wav -metrics-addr :9464
//	voicefx -export presets.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cwbudde/algo-voicefx/dsp/buffer"
	"github.com/cwbudde/algo-voicefx/dsp/effectchain"
	"github.com/cwbudde/algo-voicefx/internal/config"
	"github.com/cwbudde/algo-voicefx/internal/observe"
	"github.com/cwbudde/algo-voicefx/internal/playback"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
)

const version = "0.1.0"

type options struct {
	envFile     string
	preset      string
	presetFile  string
	in          string
	out         string
	gen         string
	freq        float64
	seconds     float64
	export      string
	gain        float64
	blockFrames int
	metricsAddr string
	logLevel    string
	jobs        int
	list        bool
	all         bool
	analyze     bool
	play        bool
	loop        bool
}

func main() {
	var opts options
	flag.StringVar(&opts.envFile, "env", "", "read settings from this .env file instead of ./.env")
	flag.StringVar(&opts.preset, "preset", "", "preset name (default $VOICEFX_PRESET or clean)")
	flag.StringVar(&opts.presetFile, "presets", "", "JSON or YAML preset descriptor merged over the built-ins")
	flag.StringVar(&opts.in, "in", "", "input WAV file")
	flag.StringVar(&opts.out, "out", "", "output WAV file, or directory with -all")
	flag.StringVar(&opts.gen, "gen", "voice", "test signal when -in is empty: sine, noise, sweep or voice")
	flag.Float64Var(&opts.freq, "freq", 150, "test signal frequency in Hz (sweep end frequency)")
	flag.Float64Var(&opts.seconds, "seconds", 3, "test signal duration")
	flag.StringVar(&opts.export, "export", "", "write the preset library to a .json or .yaml descriptor")
	flag.Float64Var(&opts.gain, "gain", -1, "master gain in [0, 2] (default $VOICEFX_GAIN or 1)")
	flag.IntVar(&opts.blockFrames, "block", 0, "frames per processing block (default $VOICEFX_BLOCK_FRAMES or 960)")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flag.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	flag.IntVar(&opts.jobs, "jobs", runtime.GOMAXPROCS(0), "concurrent renders with -all")
	flag.BoolVar(&opts.list, "list", false, "list available presets")
	flag.BoolVar(&opts.all, "all", false, "render the input through every preset")
	flag.BoolVar(&opts.analyze, "analyze", false, "print the dominant frequency and level of the input")
	flag.BoolVar(&opts.play, "play", false, "play the input through the preset")
	flag.BoolVar(&opts.loop, "loop", false, "loop playback until interrupted")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: voicefx [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Runs audio through real-time voice effect presets.\n")
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "voicefx: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	lib := effectchain.DefaultLibrary()
	if cfg.PresetFile != "" {
		if err := lib.LoadFile(cfg.PresetFile); err != nil {
			return err
		}
		logger.Info("loaded presets", "file", cfg.PresetFile, "total", lib.Len())
	}

	r := &renderer{
		library:     lib,
		logger:      logger,
		gain:        cfg.Gain,
		blockFrames: cfg.BlockFrames,
	}

	if cfg.MetricsAddr != "" {
		shutdown, err := startMetrics(ctx, cfg.MetricsAddr, logger)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				logger.Warn("metrics shutdown", "error", err)
			}
		}()

		m, err := observe.NewMetrics(otel.GetMeterProvider())
		if err != nil {
			return err
		}
		r.metrics = m
	}

	switch {
	case opts.list:
		return listPresets(os.Stdout, lib)
	case opts.export != "":
		return exportLibrary(opts.export, lib)
	}

	in, base, err := loadInput(opts.in, opts.gen, opts.freq, opts.seconds, cfg)
	if err != nil {
		return err
	}

	switch {
	case opts.analyze:
		a, err := analyze(in)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d ch @ %.0f Hz, %.2f s\n", base, in.Channels(), in.SampleRate(), in.Duration())
		fmt.Printf("dominant  %8.1f Hz at %.1f dBFS\npeak      %8.1f dBFS\nrms       %8.1f dBFS\n",
			a.DominantHz, a.DominantDB, a.PeakDB, a.RMSDB)
		return nil

	case opts.all:
		dir := opts.out
		if dir == "" {
			dir = "."
		}
		paths, err := r.renderAll(ctx, in, base, dir, opts.jobs)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil

	case opts.play:
		return play(ctx, r, cfg.Preset, in, opts.loop)

	default:
		if opts.out == "" {
			flag.Usage()
			return errors.New("-out is required")
		}
		pool := buffer.NewPool(in.Channels(), in.SampleRate())
		if err := r.renderTo(ctx, cfg.Preset, in, opts.out, pool); err != nil {
			return err
		}
		logger.Info("rendered", "preset", cfg.Preset, "in", base, "out", opts.out)
		return nil
	}
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(opts options) (*config.Config, error) {
	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}

	if opts.preset != "" {
		cfg.Preset = opts.preset
	}
	if opts.presetFile != "" {
		cfg.PresetFile = opts.presetFile
	}
	if opts.gain >= 0 {
		cfg.Gain = opts.gain
	}
	if opts.blockFrames > 0 {
		cfg.BlockFrames = opts.blockFrames
	}
	if opts.metricsAddr != "" {
		cfg.MetricsAddr = opts.metricsAddr
	}
	if opts.logLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(opts.logLevel)); err != nil {
			return nil, fmt.Errorf("-log-level: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// startMetrics installs the OpenTelemetry providers and serves the
// Prometheus registry on addr until ctx is done.
func startMetrics(ctx context.Context, addr string, logger *slog.Logger) (func(context.Context) error, error) {
	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	return func(ctx context.Context) error {
		return errors.Join(srv.Shutdown(ctx), shutdown(ctx))
	}, nil
}

func exportLibrary(path string, lib *effectchain.Library) error {
	format, err := effectchain.FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := effectchain.MarshalDescriptor(lib.Presets(), format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// play streams the input through a live engine to the default output
// device until it ends or ctx is cancelled.
func play(ctx context.Context, r *renderer, preset string, in *buffer.Buffer, loop bool) error {
	if in.Channels() > 2 {
		return fmt.Errorf("%w: %d", playback.ErrChannels, in.Channels())
	}

	engine, err := r.newEngine(preset, in.SampleRate(), in.Channels())
	if err != nil {
		return err
	}
	if r.metrics != nil {
		reg, err := r.metrics.ObserveEngine("playback", engine)
		if err != nil {
			return err
		}
		defer func() { _ = reg.Unregister() }()
		r.metrics.RecordPresetChange(ctx, preset, "ok")
	}

	reader, err := playback.NewStreamReader(playback.NewBufferSource(in.Samples(), loop), engine, in.Channels())
	if err != nil {
		return err
	}
	player, err := playback.NewPlayer(int(in.SampleRate()), reader)
	if err != nil {
		return err
	}
	defer func() { _ = player.Stop() }()

	r.logger.Info("playing", "preset", preset, "seconds", in.Duration(), "loop", loop)
	player.Play()

	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			if !player.IsPlaying() {
				st := engine.Stats()
				r.logger.Info("playback finished",
					"position", player.Position(), "buffers", st.Buffers, "sanitized", st.Sanitized)
				return nil
			}
		}
	}
}
