package model

// Mission is a named scene preset. The simulation session for a mission is
// built from these values when the scene loads and again on reset.
type Mission struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	CentralBody string `json:"central_body" mapstructure:"central_body"`
	Description string `json:"description,omitempty" mapstructure:"description"`

	Units UnitConversionConfig `json:"units" mapstructure:"units"`

	AltitudeKm   float64 `json:"altitude_km" mapstructure:"altitude_km"`
	SpeedKmps    float64 `json:"speed_kmps" mapstructure:"speed_kmps"`
	Eccentricity float64 `json:"eccentricity" mapstructure:"eccentricity"`
	// InclinationDeg and ArgPeriapsisDeg are degrees in configuration
	// and converted to radians when the state is built.
	InclinationDeg  float64 `json:"inclination_deg" mapstructure:"inclination_deg"`
	ArgPeriapsisDeg float64 `json:"arg_periapsis_deg" mapstructure:"arg_periapsis_deg"`
	// Retrograde flips the direction of travel.
	Retrograde bool `json:"retrograde,omitempty" mapstructure:"retrograde"`

	// Optional two-line element set used to seed altitude and speed
	// from a real satellite.
	TLE1 string `json:"tle1,omitempty" mapstructure:"tle1"`
	TLE2 string `json:"tle2,omitempty" mapstructure:"tle2"`
}

// HasTLE reports whether both TLE lines are present.
func (m *Mission) HasTLE() bool {
	return m != nil && m.TLE1 != "" && m.TLE2 != ""
}
