package kb

import "github.com/signalsfoundry/mission-orbit-sim/model"

// Scene scale: the central body is drawn five simulation units across.
const bodyRadiusSim = 5.0

const (
	earthRadiusKm = 6371.0
	sunRadiusKm   = 696000.0
	auKm          = 149597870.7
)

// ISS sample TLE, epoch 2021-10-02.
const (
	issTLE1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9993"
	issTLE2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257767"
)

func earthScene() model.UnitConversionConfig {
	return model.UnitConversionConfig{
		KmPerSimUnit:  earthRadiusKm / bodyRadiusSim,
		BodyRadiusSim: bodyRadiusSim,
		MinAltitudeKm: 160,
		MaxAltitudeKm: 36000,
		MinSpeedKmps:  1,
		MaxSpeedKmps:  12,
	}
}

// DefaultMissions returns the built-in ISS, Hubble and Voyager presets.
func DefaultMissions() []model.Mission {
	return []model.Mission{
		{
			ID:             "iss",
			Name:           "International Space Station",
			CentralBody:    "Earth",
			Description:    "Crewed laboratory in low Earth orbit.",
			Units:          earthScene(),
			AltitudeKm:     420,
			SpeedKmps:      7.66,
			InclinationDeg: 51.64,
			TLE1:           issTLE1,
			TLE2:           issTLE2,
		},
		{
			ID:             "hubble",
			Name:           "Hubble Space Telescope",
			CentralBody:    "Earth",
			Description:    "Optical observatory above the atmosphere.",
			Units:          earthScene(),
			AltitudeKm:     547,
			SpeedKmps:      7.59,
			InclinationDeg: 28.5,
		},
		{
			ID:          "voyager",
			Name:        "Voyager 1",
			CentralBody: "Sun",
			Description: "Interstellar probe beyond the heliopause.",
			Units: model.UnitConversionConfig{
				KmPerSimUnit:  sunRadiusKm / bodyRadiusSim,
				BodyRadiusSim: bodyRadiusSim,
				MinAltitudeKm: 0.1 * auKm,
				MaxAltitudeKm: 200 * auKm,
				MinSpeedKmps:  1,
				MaxSpeedKmps:  80,
			},
			AltitudeKm:     160 * auKm,
			SpeedKmps:      17,
			InclinationDeg: 35,
		},
	}
}
