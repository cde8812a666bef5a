package core

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"phasecore/internal/blob"
	"phasecore/internal/reference"
	"phasecore/pkg/phase"
	"phasecore/pkg/units"
)

// Environment variables read by LoadConfig in addition to those of the
// reference and blob packages.
const (
	EnvSamples   = "PHASECORE_SAMPLES"
	EnvTolerance = "PHASECORE_TOLERANCE_PA"
	EnvLogLevel  = "PHASECORE_LOG_LEVEL"
)

// Config is the process configuration shared by the CLI and HTTP server.
type Config struct {
	Reference reference.Config
	Blob      blob.Config
	// Samples and TolerancePa of zero fall back to the engine defaults.
	Samples     int
	TolerancePa float64
	LogLevel    slog.Level
}

// LoadConfig reads configuration through getenv (os.Getenv in production).
func LoadConfig(getenv func(string) string) (Config, error) {
	cfg := Config{
		Reference: reference.ConfigFromEnv(getenv),
		Blob:      blob.ConfigFromEnv(getenv),
		LogLevel:  slog.LevelInfo,
	}
	if v := strings.TrimSpace(getenv(EnvSamples)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 {
			return Config{}, fmt.Errorf("%s: want an integer >= 2, got %q", EnvSamples, v)
		}
		cfg.Samples = n
	}
	if v := strings.TrimSpace(getenv(EnvTolerance)); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return Config{}, fmt.Errorf("%s: want a non-negative number, got %q", EnvTolerance, v)
		}
		cfg.TolerancePa = f
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}
	return cfg, nil
}

// PhaseOptions converts the sampling settings for phase.NewDiagram.
func (c Config) PhaseOptions() *phase.Options {
	opts := phase.DefaultOptions()
	if c.Samples > 0 {
		opts.Samples = c.Samples
	}
	if c.TolerancePa > 0 {
		opts.Tolerance = units.New(c.TolerancePa, units.Pascal)
	}
	return &opts
}

// NewLogger returns a text slog logger at level writing to w.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
