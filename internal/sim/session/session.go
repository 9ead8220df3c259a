// Package session owns the live orbit of one mission and serialises every
// mutation of it.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/signalsfoundry/mission-orbit-sim/core"
	"github.com/signalsfoundry/mission-orbit-sim/internal/logging"
	"github.com/signalsfoundry/mission-orbit-sim/model"
	"github.com/signalsfoundry/mission-orbit-sim/timectrl"
)

// Command outcomes reported to the metrics recorder.
const (
	OutcomeApplied   = "applied"
	OutcomeNoOp      = "noop"
	OutcomeRejected  = "rejected"
	OutcomeCancelled = "cancelled"
)

// MetricsRecorder receives per-session measurements. Implementations must
// be safe for concurrent use.
type MetricsRecorder interface {
	ObserveCommand(mission, outcome string)
	ObserveClamp(mission, field string)
	ObserveFrame(mission string, d time.Duration)
	SetOrbit(mission string, altitudeKm, speedKmps, multiplier float64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCommand(string, string)              {}
func (nopRecorder) ObserveClamp(string, string)                {}
func (nopRecorder) ObserveFrame(string, time.Duration)         {}
func (nopRecorder) SetOrbit(string, float64, float64, float64) {}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Clock is the subset of timectrl.SimClock a session needs.
type Clock interface {
	Now() time.Time
}

var _ Clock = (timectrl.SimClock)(nil)

// Session is the single mutual-exclusion boundary around one mission's
// OrbitalState and ScaleController. ApplyCommand, Tick and the time-scale
// operations all take the same lock, so command application and per-frame
// advance never interleave.
type Session struct {
	mu sync.Mutex

	mission    model.Mission
	translator *core.CommandTranslator
	scale      *timectrl.ScaleController
	state      model.OrbitalState
	frame      uint64
	lastNote   string

	motion  core.MotionModel
	clock   Clock
	bounds  timectrl.ScaleBounds
	log     logging.Logger
	metrics MetricsRecorder

	subs    map[int]func(model.Snapshot)
	nextSub int
}

// Option customises Session construction.
type Option func(*Session)

// WithMetricsRecorder attaches a metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Session) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock sets the clock used for snapshot timestamps and TLE seeding.
func WithClock(c Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithMotionModel replaces the default Kepler motion model.
func WithMotionModel(m core.MotionModel) Option {
	return func(s *Session) {
		if m != nil {
			s.motion = m
		}
	}
}

// WithScaleBounds overrides the time multiplier bounds.
func WithScaleBounds(b timectrl.ScaleBounds) Option {
	return func(s *Session) {
		s.bounds = b
	}
}

// New builds a session for mission, starting from the mission defaults.
func New(mission model.Mission, log logging.Logger, opts ...Option) (*Session, error) {
	if log == nil {
		log = logging.Noop()
	}
	s := &Session{
		motion:  core.KeplerMotionModel{},
		clock:   wallClock{},
		bounds:  timectrl.DefaultScaleBounds(),
		metrics: nopRecorder{},
		subs:    make(map[int]func(model.Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = log.With(logging.Mission(mission.ID))
	s.scale = timectrl.NewScaleController(s.bounds)

	if err := s.configure(mission); err != nil {
		return nil, err
	}
	s.log.Info(context.Background(), "session created",
		logging.Float64("altitude_km", s.translator.Units().ToAltitudeKm(s.state.Radius)),
		logging.Float64("speed_kmps", s.translator.Units().ToLinearSpeed(s.state.AngularSpeed, s.state.Radius)),
	)
	return s, nil
}

// MissionID returns the mission this session simulates.
func (s *Session) MissionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mission.ID
}

// Mission returns a copy of the mission the session was built from.
func (s *Session) Mission() model.Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mission
}

// ApplyCommand translates cmd against the current state and commits the
// result. A context that is already done leaves the state untouched.
func (s *Session) ApplyCommand(ctx context.Context, cmd model.Command) (core.TranslationResult, error) {
	if cmd == nil {
		cmd = model.NoOp{Reason: model.ReasonNoParameters}
	}

	s.mu.Lock()
	id := s.mission.ID
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		s.metrics.ObserveCommand(id, OutcomeCancelled)
		return core.TranslationResult{}, fmt.Errorf("apply %s: %w", cmd.Kind(), err)
	}

	res, err := s.translator.Translate(ctx, cmd, s.state)
	if err != nil {
		s.mu.Unlock()
		s.metrics.ObserveCommand(id, OutcomeRejected)
		s.logger(ctx, id).Error(ctx, "command rejected",
			logging.String("kind", cmd.Kind().String()), logging.Err(err))
		return core.TranslationResult{}, fmt.Errorf("apply %s: %w", cmd.Kind(), err)
	}

	s.state = res.State
	s.lastNote = res.Reason
	snap := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	outcome := OutcomeNoOp
	if cmd.Kind() != model.KindNoOp {
		outcome = OutcomeApplied
	}
	s.metrics.ObserveCommand(id, outcome)
	for _, c := range res.Clamps {
		s.metrics.ObserveClamp(id, c.Field)
	}
	s.publish(snap, subs)

	s.logger(ctx, id).Info(ctx, "command applied",
		logging.String("kind", cmd.Kind().String()),
		logging.String("reason", res.Reason),
		logging.Bool("changed", res.Changed),
	)
	return res, nil
}

// Tick advances the orbit by dt of real time under the current time scale
// and returns the resulting snapshot.
func (s *Session) Tick(dt time.Duration) model.Snapshot {
	started := time.Now()

	s.mu.Lock()
	seconds := dt.Seconds()
	ts := s.scale.Snapshot()
	s.scale.Accumulate(seconds)
	s.state = s.motion.Advance(s.state, seconds, ts)
	s.frame++
	snap := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.metrics.ObserveFrame(snap.MissionID, time.Since(started))
	s.publish(snap, subs)
	return snap
}

// SetTimeScale clamps and applies a new multiplier. While paused it
// replaces the multiplier restored by Resume.
func (s *Session) SetTimeScale(multiplier float64) model.TimeScale {
	return s.mutateScale(func(c *timectrl.ScaleController) { c.SetMultiplier(multiplier) })
}

// Pause freezes simulated time.
func (s *Session) Pause() model.TimeScale {
	return s.mutateScale((*timectrl.ScaleController).Pause)
}

// Resume restarts simulated time at the saved multiplier.
func (s *Session) Resume() model.TimeScale {
	return s.mutateScale((*timectrl.ScaleController).Resume)
}

func (s *Session) mutateScale(fn func(*timectrl.ScaleController)) model.TimeScale {
	s.mu.Lock()
	fn(s.scale)
	snap := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.publish(snap, subs)
	return snap.TimeScale
}

// Reset restores the mission defaults and the time scale.
func (s *Session) Reset() (model.Snapshot, error) {
	s.mu.Lock()
	if err := s.configureLocked(s.mission); err != nil {
		s.mu.Unlock()
		return model.Snapshot{}, err
	}
	snap := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.log.Info(context.Background(), "session reset")
	s.publish(snap, subs)
	return snap, nil
}

// Reconfigure swaps the mission definition and resets to its defaults.
// The previous state is kept when m is unusable.
func (s *Session) Reconfigure(m model.Mission) error {
	s.mu.Lock()
	err := s.configureLocked(m)
	snap := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publish(snap, subs)
	return nil
}

// Snapshot returns the current read-only view.
func (s *Session) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every mutation.
// fn runs on the mutating goroutine and must not block.
func (s *Session) Subscribe(fn func(model.Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) configure(m model.Mission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configureLocked(m)
}

func (s *Session) configureLocked(m model.Mission) error {
	units, err := core.NewUnitConverter(m.Units)
	if err != nil {
		return fmt.Errorf("mission %q: %w", m.ID, err)
	}
	translator := core.NewCommandTranslator(units, s.log)

	state, err := s.initialState(m, units)
	if err != nil {
		return fmt.Errorf("mission %q: %w", m.ID, err)
	}

	s.mission = m
	s.translator = translator
	s.state = state
	s.frame = 0
	s.lastNote = ""
	s.scale.Reset()
	return nil
}

// initialState builds the mission's starting orbit. Missions with a TLE
// start from the satellite's propagated altitude and speed when those fall
// inside the mission limits.
func (s *Session) initialState(m model.Mission, units core.UnitConverter) (model.OrbitalState, error) {
	altitude, speed := m.AltitudeKm, m.SpeedKmps
	if m.HasTLE() {
		if seed, ok := s.seed(m, units); ok {
			altitude, speed = seed.AltitudeKm, seed.SpeedKmps
		}
	}

	radius, err := units.ToSimRadius(altitude)
	if err != nil && !isClamp(err) {
		return model.OrbitalState{}, err
	}
	speed, _ = units.ClampSpeed(speed)
	omega, err := units.ToAngularSpeed(speed, radius)
	if err != nil {
		return model.OrbitalState{}, err
	}
	if m.Retrograde {
		omega = -omega
	}

	state := model.OrbitalState{
		Radius:       radius,
		AngularSpeed: omega,
		Eccentricity: m.Eccentricity,
		ArgPeriapsis: core.WrapAngle(degToRad(m.ArgPeriapsisDeg)),
		Inclination:  degToRad(m.InclinationDeg),
	}
	if err := state.Validate(); err != nil {
		return model.OrbitalState{}, err
	}
	return state, nil
}

func (s *Session) seed(m model.Mission, units core.UnitConverter) (core.OrbitSeed, bool) {
	ctx := context.Background()
	seed, err := core.SeedFromTLE(m.TLE1, m.TLE2, s.clock.Now())
	if err != nil {
		s.log.Warn(ctx, "TLE seeding failed, using mission defaults", logging.Err(err))
		return core.OrbitSeed{}, false
	}
	if _, err := units.ClampAltitude(seed.AltitudeKm); err != nil {
		s.log.Warn(ctx, "TLE seed outside mission limits, using mission defaults", logging.Err(err))
		return core.OrbitSeed{}, false
	}
	if _, err := units.ClampSpeed(seed.SpeedKmps); err != nil {
		s.log.Warn(ctx, "TLE seed outside mission limits, using mission defaults", logging.Err(err))
		return core.OrbitSeed{}, false
	}
	s.log.Debug(ctx, "seeded from TLE",
		logging.Float64("altitude_km", seed.AltitudeKm),
		logging.Float64("speed_kmps", seed.SpeedKmps),
	)
	return seed, true
}

func (s *Session) snapshotLocked() model.Snapshot {
	units := s.translator.Units()
	ts := s.scale.Snapshot()
	snap := model.Snapshot{
		MissionID:      s.mission.ID,
		State:          s.state,
		Position:       s.motion.Position(s.state),
		AltitudeKm:     units.ToAltitudeKm(s.state.Radius),
		SpeedKmps:      units.ToLinearSpeed(s.state.AngularSpeed, s.state.Radius),
		TimeScale:      ts,
		ElapsedSeconds: s.scale.Elapsed(),
		Elapsed:        s.scale.FormatElapsed(),
		Frame:          s.frame,
		TakenAt:        s.clock.Now(),
		LastNote:       s.lastNote,
	}
	return snap
}

func (s *Session) subscribersLocked() []func(model.Snapshot) {
	subs := make([]func(model.Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

// publish records the orbit gauges and hands snap to subscribers. It runs
// outside the session lock so subscribers may read the session.
func (s *Session) publish(snap model.Snapshot, subs []func(model.Snapshot)) {
	s.metrics.SetOrbit(snap.MissionID, snap.AltitudeKm, snap.SpeedKmps, snap.TimeScale.Multiplier)
	for _, fn := range subs {
		fn(snap)
	}
}

// logger prefers the request-scoped logger, tagged with the mission.
func (s *Session) logger(ctx context.Context, mission string) logging.Logger {
	if l, ok := logging.LoggerFromContext(ctx); ok {
		return l.With(logging.Mission(mission))
	}
	return s.log
}

func isClamp(err error) bool {
	var rangeErr *core.OutOfRangeError
	return errors.As(err, &rangeErr)
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
