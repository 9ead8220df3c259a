package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/mission-orbit-sim/model"
)

// Field names used in OutOfRangeError and metrics labels.
const (
	FieldAltitude = "altitude_km"
	FieldSpeed    = "speed_kmps"
)

// minRadius guards divisions by the orbit radius.
const minRadius = 1e-9

// UnitConverter maps kilometres and km/s to simulation units and back.
type UnitConverter struct {
	cfg model.UnitConversionConfig
}

// NewUnitConverter validates cfg and returns a converter bound to it.
func NewUnitConverter(cfg model.UnitConversionConfig) (UnitConverter, error) {
	if err := cfg.Validate(); err != nil {
		return UnitConverter{}, err
	}
	return UnitConverter{cfg: cfg}, nil
}

// Config returns the conversion config.
func (u UnitConverter) Config() model.UnitConversionConfig { return u.cfg }

// ClampAltitude bounds altitudeKm to the configured range. The error is a
// *OutOfRangeError when clamping happened; the value is usable either way.
func (u UnitConverter) ClampAltitude(altitudeKm float64) (float64, error) {
	return clamp(FieldAltitude, altitudeKm, u.cfg.MinAltitudeKm, u.cfg.MaxAltitudeKm)
}

// ClampSpeed bounds speedKmps to the configured range, reporting clamps
// the same way as ClampAltitude.
func (u UnitConverter) ClampSpeed(speedKmps float64) (float64, error) {
	return clamp(FieldSpeed, speedKmps, u.cfg.MinSpeedKmps, u.cfg.MaxSpeedKmps)
}

// ToSimRadius converts an altitude above the body surface into an orbit
// radius in simulation units. Out-of-range altitudes are clamped first and
// reported through a *OutOfRangeError alongside the usable radius.
func (u UnitConverter) ToSimRadius(altitudeKm float64) (float64, error) {
	applied, err := u.ClampAltitude(altitudeKm)
	return u.cfg.BodyRadiusSim + applied/u.cfg.KmPerSimUnit, err
}

// ToAltitudeKm is the inverse of ToSimRadius for in-range values.
func (u UnitConverter) ToAltitudeKm(simRadius float64) float64 {
	return (simRadius - u.cfg.BodyRadiusSim) * u.cfg.KmPerSimUnit
}

// ToAngularSpeed converts a linear speed into radians per second on an
// orbit of the given radius.
func (u UnitConverter) ToAngularSpeed(speedKmps, simRadius float64) (float64, error) {
	if err := checkRadius(simRadius); err != nil {
		return 0, err
	}
	return (speedKmps / u.cfg.KmPerSimUnit) / simRadius, nil
}

// ToLinearSpeed is the inverse of ToAngularSpeed. The result is a
// magnitude; direction is carried by the angular speed's sign.
func (u UnitConverter) ToLinearSpeed(angularSpeed, simRadius float64) float64 {
	return math.Abs(angularSpeed) * simRadius * u.cfg.KmPerSimUnit
}

func checkRadius(simRadius float64) error {
	if !(simRadius > minRadius) || math.IsInf(simRadius, 0) {
		return fmt.Errorf("%w: orbit radius must be positive, got %v", ErrPreconditionViolation, simRadius)
	}
	return nil
}

func clamp(field string, v, lo, hi float64) (float64, error) {
	applied := math.Min(math.Max(v, lo), hi)
	if applied != v {
		return applied, &OutOfRangeError{Field: field, Value: v, Min: lo, Max: hi, Applied: applied}
	}
	return v, nil
}
