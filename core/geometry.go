package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/mission-orbit-sim/model"
)

// EarthRadiusKm is the mean Earth radius used by seeding and the default
// mission presets (kilometres).
const EarthRadiusKm = 6371.0

const twoPi = 2 * math.Pi

var xAxis = r3.Vec{X: 1}

// WrapAngle maps a into [0, 2π).
func WrapAngle(a float64) float64 {
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	// math.Mod can return values that round up to 2π after the shift.
	if a >= twoPi {
		a = 0
	}
	return a
}

// PolarRadius evaluates r(θ) = a(1−e²)/(1+e·cos θ), where θ is the state
// angle measured from the periapsis argument. For e = 0 it returns the
// semi-major axis.
func PolarRadius(s model.OrbitalState) float64 {
	e := s.Eccentricity
	if e == 0 {
		return s.Radius
	}
	theta := s.Angle - s.ArgPeriapsis
	return s.Radius * (1 - e*e) / (1 + e*math.Cos(theta))
}

// Position derives the Cartesian position of the body around the centre.
// The reference orbit lies in the XZ plane and is tilted by the
// inclination about the X axis.
func Position(s model.OrbitalState) model.Vec3 {
	r := PolarRadius(s)
	p := r3.Vec{X: r * math.Cos(s.Angle), Z: r * math.Sin(s.Angle)}
	if s.Inclination != 0 {
		p = r3.Rotate(p, s.Inclination, xAxis)
	}
	return model.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}
