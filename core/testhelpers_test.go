package core

import (
	"testing"

	"github.com/signalsfoundry/mission-orbit-sim/model"
)

// earthUnits is Earth at 5 simulation units, the scale the ISS scene uses.
func earthUnits() model.UnitConversionConfig {
	return model.UnitConversionConfig{
		KmPerSimUnit:  EarthRadiusKm / 5,
		BodyRadiusSim: 5,
		MinAltitudeKm: 160,
		MaxAltitudeKm: 36000,
		MinSpeedKmps:  1,
		MaxSpeedKmps:  12,
	}
}

func mustConverter(t *testing.T, cfg model.UnitConversionConfig) UnitConverter {
	t.Helper()
	u, err := NewUnitConverter(cfg)
	if err != nil {
		t.Fatalf("NewUnitConverter: %v", err)
	}
	return u
}

func lowOrbit() model.OrbitalState {
	return model.OrbitalState{Radius: 5.5, AngularSpeed: 0.001, Angle: 1}
}
