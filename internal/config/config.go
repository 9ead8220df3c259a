// Package config loads process settings from the environment and the
// mission catalog from disk.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/signalsfoundry/mission-orbit-sim/internal/observability"
	"github.com/signalsfoundry/mission-orbit-sim/timectrl"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the mission server's process configuration.
type Config struct {
	GRPCAddr      string        `env:"ORBITSIM_GRPC_ADDR"      envDefault:":50051"`
	HTTPAddr      string        `env:"ORBITSIM_HTTP_ADDR"      envDefault:":8080"`
	FrameInterval time.Duration `env:"ORBITSIM_FRAME_INTERVAL" envDefault:"16ms"`
	MissionsFile  string        `env:"ORBITSIM_MISSIONS_FILE"`
	MinTimeScale  float64       `env:"ORBITSIM_MIN_TIME_SCALE" envDefault:"0.1"`
	MaxTimeScale  float64       `env:"ORBITSIM_MAX_TIME_SCALE" envDefault:"500"`

	Tracing observability.TracingConfig
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	tracing, err := observability.TracingConfigFromEnv()
	if err != nil {
		return Config{}, err
	}
	cfg.Tracing = tracing
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.FrameInterval <= 0:
		return fmt.Errorf("%w: frame interval must be positive, got %s", ErrInvalidConfig, c.FrameInterval)
	case !(c.MinTimeScale > 0):
		return fmt.Errorf("%w: min time scale must be positive, got %v", ErrInvalidConfig, c.MinTimeScale)
	case c.MaxTimeScale < c.MinTimeScale:
		return fmt.Errorf("%w: time scale bounds inverted (%v > %v)", ErrInvalidConfig, c.MinTimeScale, c.MaxTimeScale)
	}
	return nil
}

// ScaleBounds returns the configured time multiplier bounds.
func (c Config) ScaleBounds() timectrl.ScaleBounds {
	return timectrl.ScaleBounds{Min: c.MinTimeScale, Max: c.MaxTimeScale}
}
