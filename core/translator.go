package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/signalsfoundry/mission-orbit-sim/internal/logging"
	"github.com/signalsfoundry/mission-orbit-sim/model"
)

// TranslationResult is the outcome of applying one Command.
type TranslationResult struct {
	State model.OrbitalState

	// AppliedAltitudeKm and AppliedSpeedKmps always describe the resulting
	// state, including fields the command did not touch.
	AppliedAltitudeKm float64
	AppliedSpeedKmps  float64

	Reason  string
	Changed bool
	Clamps  []*OutOfRangeError
}

// CommandTranslator turns decoded commands into orbital state changes.
type CommandTranslator struct {
	units UnitConverter
	log   logging.Logger
}

// NewCommandTranslator builds a translator for one unit configuration.
func NewCommandTranslator(units UnitConverter, log logging.Logger) *CommandTranslator {
	if log == nil {
		log = logging.Noop()
	}
	return &CommandTranslator{units: units, log: log}
}

// Units exposes the translator's converter.
func (t *CommandTranslator) Units() UnitConverter { return t.units }

// Translate applies cmd to state and returns the new state. Identical
// inputs always produce identical results. Missing or invalid input is a
// no-op with a reason, out-of-range values are clamped, and only
// ErrPreconditionViolation is returned as an error.
func (t *CommandTranslator) Translate(ctx context.Context, cmd model.Command, state model.OrbitalState) (TranslationResult, error) {
	if err := checkRadius(state.Radius); err != nil {
		return TranslationResult{}, err
	}

	altitudeKm, speedKmps := model.CommandFields(cmd)
	if altitudeKm == nil && speedKmps == nil {
		reason := model.ReasonNoParameters
		if n, ok := cmd.(model.NoOp); ok && n.Reason != "" {
			reason = n.Reason
		}
		return t.result(state, reason, false, nil), nil
	}

	next := state
	var clamps []*OutOfRangeError
	var parts []string

	if altitudeKm != nil {
		radius, err := t.units.ToSimRadius(*altitudeKm)
		if rangeErr := t.noteClamp(ctx, err); rangeErr != nil {
			clamps = append(clamps, rangeErr)
		} else if err != nil {
			return TranslationResult{}, err
		}
		if err := checkRadius(radius); err != nil {
			return TranslationResult{}, err
		}
		next.Radius = radius
		parts = append(parts, "altitude "+formatKm(t.units.ToAltitudeKm(radius))+" km")
	}

	if speedKmps != nil {
		speed, err := t.units.ClampSpeed(*speedKmps)
		if rangeErr := t.noteClamp(ctx, err); rangeErr != nil {
			clamps = append(clamps, rangeErr)
		} else if err != nil {
			return TranslationResult{}, err
		}
		omega, err := t.units.ToAngularSpeed(speed, next.Radius)
		if err != nil {
			return TranslationResult{}, err
		}
		if state.AngularSpeed < 0 {
			omega = -omega
		}
		next.AngularSpeed = omega
		parts = append(parts, "speed "+formatKm(speed)+" km/s")
	}

	reason := "updated " + strings.Join(parts, " and ")
	if len(clamps) > 0 {
		reason += " (clamped to mission limits)"
	}
	return t.result(next, reason, next != state, clamps), nil
}

func (t *CommandTranslator) result(state model.OrbitalState, reason string, changed bool, clamps []*OutOfRangeError) TranslationResult {
	return TranslationResult{
		State:             state,
		AppliedAltitudeKm: t.units.ToAltitudeKm(state.Radius),
		AppliedSpeedKmps:  t.units.ToLinearSpeed(state.AngularSpeed, state.Radius),
		Reason:            reason,
		Changed:           changed,
		Clamps:            clamps,
	}
}

// noteClamp logs and returns err when it is a clamp report.
func (t *CommandTranslator) noteClamp(ctx context.Context, err error) *OutOfRangeError {
	var rangeErr *OutOfRangeError
	if !errors.As(err, &rangeErr) {
		return nil
	}
	t.log.Warn(ctx, "command value clamped",
		logging.String("field", rangeErr.Field),
		logging.Float64("requested", rangeErr.Value),
		logging.Float64("applied", rangeErr.Applied),
		logging.String("bounds", fmt.Sprintf("[%g, %g]", rangeErr.Min, rangeErr.Max)),
	)
	return rangeErr
}

func formatKm(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
