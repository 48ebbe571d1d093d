// Package config loads voicefx settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment keys.
const (
	EnvPreset      = "VOICEFX_PRESET"
	EnvPresetFile  = "VOICEFX_PRESET_FILE"
	EnvSampleRate  = "VOICEFX_SAMPLE_RATE"
	EnvChannels    = "VOICEFX_CHANNELS"
	EnvBlockFrames = "VOICEFX_BLOCK_FRAMES"
	EnvGain        = "VOICEFX_GAIN"
	EnvLogLevel    = "VOICEFX_LOG_LEVEL"
	EnvMetricsAddr = "VOICEFX_METRICS_ADDR"
)

const (
	defaultPreset      = "clean"
	defaultSampleRate  = 48000.0
	defaultChannels    = 1
	defaultBlockFrames = 960
)

// Config holds the runtime settings shared by the CLI commands.
type Config struct {
	Preset      string
	PresetFile  string
	SampleRate  float64
	Channels    int
	BlockFrames int
	Gain        float64
	LogLevel    slog.Level
	MetricsAddr string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Preset:      defaultPreset,
		SampleRate:  defaultSampleRate,
		Channels:    defaultChannels,
		BlockFrames: defaultBlockFrames,
		Gain:        1,
		LogLevel:    slog.LevelInfo,
	}
}

// Load reads settings from the process environment. Values missing from the
// environment are looked up in envFiles, or in ./.env when none are given;
// a missing ./.env is not an error.
func Load(envFiles ...string) (*Config, error) {
	var fileVals map[string]string
	if len(envFiles) == 0 {
		if vals, err := godotenv.Read(); err == nil {
			fileVals = vals
		}
	} else {
		vals, err := godotenv.Read(envFiles...)
		if err != nil {
			return nil, fmt.Errorf("config: read env file: %w", err)
		}
		fileVals = vals
	}

	return FromLookup(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	})
}

// FromLookup builds a validated Config from lookup.
func FromLookup(lookup func(key string) (string, bool)) (*Config, error) {
	cfg := Default()
	var errs []error

	if v, ok := lookup(EnvPreset); ok && strings.TrimSpace(v) != "" {
		cfg.Preset = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPresetFile); ok {
		cfg.PresetFile = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		cfg.MetricsAddr = strings.TrimSpace(v)
	}

	if v, ok := lookup(EnvSampleRate); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %q is not a number", EnvSampleRate, v))
		} else {
			cfg.SampleRate = f
		}
	}
	if v, ok := lookup(EnvChannels); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %q is not an integer", EnvChannels, v))
		} else {
			cfg.Channels = n
		}
	}
	if v, ok := lookup(EnvBlockFrames); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %q is not an integer", EnvBlockFrames, v))
		} else {
			cfg.BlockFrames = n
		}
	}
	if v, ok := lookup(EnvGain); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %q is not a number", EnvGain, v))
		} else {
			cfg.Gain = f
		}
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			errs = append(errs, fmt.Errorf("%s %q is invalid; valid values: debug, info, warn, error", EnvLogLevel, v))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the ranges of cfg and returns a joined error listing all
// failures.
func Validate(cfg *Config) error {
	var errs []error

	if math.IsNaN(cfg.SampleRate) || cfg.SampleRate < 8000 || cfg.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample rate %v is out of range [8000, 192000]", cfg.SampleRate))
	}
	if cfg.Channels < 1 || cfg.Channels > 8 {
		errs = append(errs, fmt.Errorf("channels %d is out of range [1, 8]", cfg.Channels))
	}
	if cfg.BlockFrames < 16 || cfg.BlockFrames > 65536 {
		errs = append(errs, fmt.Errorf("block frames %d is out of range [16, 65536]", cfg.BlockFrames))
	}
	if math.IsNaN(cfg.Gain) || cfg.Gain < 0 || cfg.Gain > 2 {
		errs = append(errs, fmt.Errorf("gain %v is out of range [0, 2]", cfg.Gain))
	}

	return errors.Join(errs...)
}
