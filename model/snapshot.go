package model

import "time"

// Vec3 is a position in simulation units. Y is up; the reference orbit
// lies in the XZ plane.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Snapshot is the per-frame view handed to rendering and UI consumers.
// It is a copy; mutating it has no effect on the session.
type Snapshot struct {
	MissionID string       `json:"mission_id"`
	State     OrbitalState `json:"state"`
	Position  Vec3         `json:"position"`

	AltitudeKm float64 `json:"altitude_km"`
	SpeedKmps  float64 `json:"speed_kmps"`

	TimeScale      TimeScale `json:"time_scale"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	Elapsed        string    `json:"elapsed"`

	// Frame counts Tick calls since the session was created or reset.
	Frame    uint64    `json:"frame"`
	TakenAt  time.Time `json:"taken_at"`
	LastNote string    `json:"last_note,omitempty"`
}
