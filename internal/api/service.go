// Package api exposes mission sessions over gRPC and HTTP.
package api

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalsfoundry/mission-orbit-sim/internal/logging"
	"github.com/signalsfoundry/mission-orbit-sim/internal/sim/session"
	"github.com/signalsfoundry/mission-orbit-sim/model"
)

// IntentResult reports how one intent changed a mission.
type IntentResult struct {
	MissionID         string         `json:"mission_id"`
	Kind              string         `json:"kind"`
	Reason            string         `json:"reason"`
	Changed           bool           `json:"changed"`
	AppliedAltitudeKm float64        `json:"applied_altitude_km"`
	AppliedSpeedKmps  float64        `json:"applied_speed_kmps"`
	Clamped           []string       `json:"clamped,omitempty"`
	Snapshot          model.Snapshot `json:"snapshot"`
}

// MissionService is the transport-neutral surface shared by the gRPC and
// HTTP handlers.
type MissionService struct {
	registry *session.Registry
	log      logging.Logger
}

// NewMissionService wraps registry.
func NewMissionService(registry *session.Registry, log logging.Logger) *MissionService {
	if log == nil {
		log = logging.Noop()
	}
	return &MissionService{registry: registry, log: log}
}

// Missions lists the mission catalog.
func (s *MissionService) Missions() []model.Mission {
	return s.registry.Missions()
}

// Session returns the live session for missionID.
func (s *MissionService) Session(missionID string) (*session.Session, error) {
	missionID = strings.TrimSpace(missionID)
	if missionID == "" {
		return nil, fmt.Errorf("%w: mission_id is required", ErrInvalidRequest)
	}
	return s.registry.Get(missionID)
}

// Apply runs cmd against the mission's session.
func (s *MissionService) Apply(ctx context.Context, missionID string, cmd model.Command) (IntentResult, error) {
	if cmd == nil {
		cmd = model.NoOp{Reason: model.ReasonNoParameters}
	}
	sess, err := s.Session(missionID)
	if err != nil {
		return IntentResult{}, err
	}

	ctx, span := StartChildSpan(ctx, "session.ApplyCommand", missionID,
		attribute.String("command.kind", cmd.Kind().String()))
	defer span.End()

	res, err := sess.ApplyCommand(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return IntentResult{}, err
	}
	span.SetAttributes(attribute.Bool("command.changed", res.Changed), attribute.Int("command.clamps", len(res.Clamps)))

	out := IntentResult{
		MissionID:         missionID,
		Kind:              cmd.Kind().String(),
		Reason:            res.Reason,
		Changed:           res.Changed,
		AppliedAltitudeKm: res.AppliedAltitudeKm,
		AppliedSpeedKmps:  res.AppliedSpeedKmps,
		Snapshot:          sess.Snapshot(),
	}
	for _, c := range res.Clamps {
		out.Clamped = append(out.Clamped, c.Field)
	}
	return out, nil
}

// Snapshot returns the mission's current snapshot.
func (s *MissionService) Snapshot(missionID string) (model.Snapshot, error) {
	sess, err := s.Session(missionID)
	if err != nil {
		return model.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// SetTimeScale applies a new multiplier. Non-finite values are rejected.
func (s *MissionService) SetTimeScale(missionID string, multiplier float64) (model.TimeScale, error) {
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return model.TimeScale{}, fmt.Errorf("%w: multiplier must be finite", ErrInvalidRequest)
	}
	sess, err := s.Session(missionID)
	if err != nil {
		return model.TimeScale{}, err
	}
	return sess.SetTimeScale(multiplier), nil
}

// Pause freezes the mission clock.
func (s *MissionService) Pause(missionID string) (model.TimeScale, error) {
	sess, err := s.Session(missionID)
	if err != nil {
		return model.TimeScale{}, err
	}
	return sess.Pause(), nil
}

// Resume restarts the mission clock.
func (s *MissionService) Resume(missionID string) (model.TimeScale, error) {
	sess, err := s.Session(missionID)
	if err != nil {
		return model.TimeScale{}, err
	}
	return sess.Resume(), nil
}

// Reset restores the mission defaults.
func (s *MissionService) Reset(ctx context.Context, missionID string) (model.Snapshot, error) {
	sess, err := s.Session(missionID)
	if err != nil {
		return model.Snapshot{}, err
	}
	logging.FromContext(ctx, s.log).Info(ctx, "mission reset requested", logging.Mission(missionID))
	return sess.Reset()
}
