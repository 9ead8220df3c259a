package core

import (
	"github.com/signalsfoundry/mission-orbit-sim/model"
)

// MotionModel advances an orbital state and derives its position.
type MotionModel interface {
	Advance(state model.OrbitalState, elapsedSeconds float64, ts model.TimeScale) model.OrbitalState
	Position(state model.OrbitalState) model.Vec3
}

// KeplerMotionModel is the closed-form angular model used by sessions.
type KeplerMotionModel struct{}

// Advance implements MotionModel.
func (KeplerMotionModel) Advance(state model.OrbitalState, elapsedSeconds float64, ts model.TimeScale) model.OrbitalState {
	return Advance(state, elapsedSeconds, ts)
}

// Position implements MotionModel.
func (KeplerMotionModel) Position(state model.OrbitalState) model.Vec3 {
	return Position(state)
}

// StaticMotionModel holds the body in place. Useful for inspecting a
// scene without the orbit moving underneath the camera.
type StaticMotionModel struct{}

// Advance for static motion returns state unchanged.
func (StaticMotionModel) Advance(state model.OrbitalState, _ float64, _ model.TimeScale) model.OrbitalState {
	return state
}

// Position implements MotionModel.
func (StaticMotionModel) Position(state model.OrbitalState) model.Vec3 {
	return Position(state)
}

// Advance moves the orbit forward by elapsedSeconds of real time scaled by
// ts. It is pure: paused time scales and zero elapsed time return state
// unchanged.
func Advance(state model.OrbitalState, elapsedSeconds float64, ts model.TimeScale) model.OrbitalState {
	if ts.Paused || elapsedSeconds == 0 {
		return state
	}
	next := state
	next.Angle = WrapAngle(state.Angle + state.AngularSpeed*elapsedSeconds*ts.Multiplier)
	return next
}
