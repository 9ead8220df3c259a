package model

import (
	"errors"
	"fmt"
	"math"
)

// MaxEccentricity is the exclusive upper bound for orbit eccentricity.
// Values at or above it degenerate towards parabolic trajectories.
const MaxEccentricity = 0.99

// ErrInvalidOrbit is returned by OrbitalState.Validate.
var ErrInvalidOrbit = errors.New("invalid orbital state")

// ErrInvalidUnitConfig is returned by UnitConversionConfig.Validate.
var ErrInvalidUnitConfig = errors.New("invalid unit conversion config")

// OrbitalState is the kinematic state of one body around a centre.
// All lengths are simulation units and all angles radians.
type OrbitalState struct {
	// Radius is the semi-major axis (the orbit radius when circular).
	Radius float64 `json:"radius"`
	// AngularSpeed is radians per simulated second; the sign sets direction.
	AngularSpeed float64 `json:"angular_speed"`
	// Angle is wrapped to [0, 2π).
	Angle        float64 `json:"angle"`
	Eccentricity float64 `json:"eccentricity"`
	// ArgPeriapsis is the angle at which periapsis occurs.
	ArgPeriapsis float64 `json:"arg_periapsis"`
	// Inclination tilts the orbital plane about the X axis.
	Inclination float64 `json:"inclination"`
}

// Validate checks the OrbitalState invariants.
func (s OrbitalState) Validate() error {
	if !(s.Radius > 0) || math.IsInf(s.Radius, 0) {
		return fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidOrbit, s.Radius)
	}
	if math.IsNaN(s.AngularSpeed) || math.IsInf(s.AngularSpeed, 0) {
		return fmt.Errorf("%w: angular speed must be finite, got %v", ErrInvalidOrbit, s.AngularSpeed)
	}
	if s.Eccentricity < 0 || s.Eccentricity >= MaxEccentricity || math.IsNaN(s.Eccentricity) {
		return fmt.Errorf("%w: eccentricity must be in [0, %v), got %v", ErrInvalidOrbit, MaxEccentricity, s.Eccentricity)
	}
	return nil
}

// UnitConversionConfig maps physical units onto simulation units and
// bounds the values a command may request. It is immutable once a session
// has been built from it.
type UnitConversionConfig struct {
	// KmPerSimUnit is how many kilometres one simulation unit spans.
	KmPerSimUnit float64 `json:"km_per_sim_unit" mapstructure:"km_per_sim_unit"`
	// BodyRadiusSim is the central body's radius in simulation units.
	BodyRadiusSim float64 `json:"body_radius_sim" mapstructure:"body_radius_sim"`

	MinAltitudeKm float64 `json:"min_altitude_km" mapstructure:"min_altitude_km"`
	MaxAltitudeKm float64 `json:"max_altitude_km" mapstructure:"max_altitude_km"`
	MinSpeedKmps  float64 `json:"min_speed_kmps" mapstructure:"min_speed_kmps"`
	MaxSpeedKmps  float64 `json:"max_speed_kmps" mapstructure:"max_speed_kmps"`
}

// Validate reports a malformed configuration.
func (c UnitConversionConfig) Validate() error {
	switch {
	case !(c.KmPerSimUnit > 0):
		return fmt.Errorf("%w: km_per_sim_unit must be positive, got %v", ErrInvalidUnitConfig, c.KmPerSimUnit)
	case !(c.BodyRadiusSim > 0):
		return fmt.Errorf("%w: body_radius_sim must be positive, got %v", ErrInvalidUnitConfig, c.BodyRadiusSim)
	case c.MinAltitudeKm < 0:
		return fmt.Errorf("%w: min_altitude_km must not be negative, got %v", ErrInvalidUnitConfig, c.MinAltitudeKm)
	case c.MinAltitudeKm > c.MaxAltitudeKm:
		return fmt.Errorf("%w: altitude bounds inverted (%v > %v)", ErrInvalidUnitConfig, c.MinAltitudeKm, c.MaxAltitudeKm)
	case c.MinSpeedKmps < 0:
		return fmt.Errorf("%w: min_speed_kmps must not be negative, got %v", ErrInvalidUnitConfig, c.MinSpeedKmps)
	case c.MinSpeedKmps > c.MaxSpeedKmps:
		return fmt.Errorf("%w: speed bounds inverted (%v > %v)", ErrInvalidUnitConfig, c.MinSpeedKmps, c.MaxSpeedKmps)
	}
	return nil
}

// TimeScale is a read-only view of the time-scale controller.
type TimeScale struct {
	Multiplier float64 `json:"multiplier"`
	Paused     bool    `json:"paused"`
}

// RunningAt returns an unpaused TimeScale with the given multiplier.
func RunningAt(multiplier float64) TimeScale {
	return TimeScale{Multiplier: multiplier}
}
