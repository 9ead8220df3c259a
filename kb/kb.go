package kb

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/mission-orbit-sim/core"
	"github.com/signalsfoundry/mission-orbit-sim/model"
)

var (
	// ErrMissionExists indicates a mission with the same ID is already stored.
	ErrMissionExists = errors.New("mission already exists")
	// ErrMissionNotFound indicates a requested mission was not found.
	ErrMissionNotFound = errors.New("mission not found")
	// ErrMissionInvalid indicates a mission failed validation.
	ErrMissionInvalid = errors.New("invalid mission")
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventMissionAdded EventType = iota
	EventMissionReplaced
)

// Event is emitted to subscribers when the catalog changes.
type Event struct {
	Type    EventType
	Mission model.Mission
}

// KnowledgeBase is an in-memory, thread-safe mission catalog.
type KnowledgeBase struct {
	mu sync.RWMutex

	missions map[string]*model.Mission

	subs   map[int]func(Event)
	nextID int
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		missions: make(map[string]*model.Mission),
		subs:     make(map[int]func(Event)),
	}
}

// NewDefaultKnowledgeBase returns a KB seeded with DefaultMissions.
func NewDefaultKnowledgeBase() *KnowledgeBase {
	store := NewKnowledgeBase()
	for _, m := range DefaultMissions() {
		// Presets are validated by tests; a failure here is a programming error.
		if err := store.AddMission(m); err != nil {
			panic(err)
		}
	}
	return store
}

// AddMission stores a copy of m. It returns ErrMissionExists if the ID is
// taken and ErrMissionInvalid if the mission cannot build a valid orbit.
func (kb *KnowledgeBase) AddMission(m model.Mission) error {
	if err := Validate(m); err != nil {
		return err
	}
	kb.mu.Lock()
	if _, exists := kb.missions[m.ID]; exists {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrMissionExists, m.ID)
	}
	kb.missions[m.ID] = &m
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventMissionAdded, Mission: m})
	return nil
}

// PutMission adds or replaces m.
func (kb *KnowledgeBase) PutMission(m model.Mission) error {
	if err := Validate(m); err != nil {
		return err
	}
	kb.mu.Lock()
	typ := EventMissionAdded
	if _, exists := kb.missions[m.ID]; exists {
		typ = EventMissionReplaced
	}
	kb.missions[m.ID] = &m
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	notify(subs, Event{Type: typ, Mission: m})
	return nil
}

// GetMission returns a copy of the mission with the given ID.
func (kb *KnowledgeBase) GetMission(id string) (model.Mission, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	m, ok := kb.missions[id]
	if !ok {
		return model.Mission{}, fmt.Errorf("%w: %q", ErrMissionNotFound, id)
	}
	return *m, nil
}

// ListMissions returns copies of all missions sorted by ID.
func (kb *KnowledgeBase) ListMissions() []model.Mission {
	kb.mu.RLock()
	res := make([]model.Mission, 0, len(kb.missions))
	for _, m := range kb.missions {
		res = append(res, *m)
	}
	kb.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Subscribe registers a callback for KB events. It returns an unsubscribe function.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	id := kb.nextID
	kb.nextID++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

func (kb *KnowledgeBase) subscribersLocked() []func(Event) {
	subs := make([]func(Event), 0, len(kb.subs))
	for _, fn := range kb.subs {
		subs = append(subs, fn)
	}
	return subs
}

// Notify subscribers outside the lock to avoid deadlocks.
func notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}

// Validate checks that m can seed a session.
func Validate(m model.Mission) error {
	if m.ID == "" {
		return fmt.Errorf("%w: id is required", ErrMissionInvalid)
	}
	if err := m.Units.Validate(); err != nil {
		return fmt.Errorf("%w %q: %w", ErrMissionInvalid, m.ID, err)
	}
	if m.AltitudeKm < m.Units.MinAltitudeKm || m.AltitudeKm > m.Units.MaxAltitudeKm {
		return fmt.Errorf("%w %q: default altitude %g outside [%g, %g]", ErrMissionInvalid, m.ID,
			m.AltitudeKm, m.Units.MinAltitudeKm, m.Units.MaxAltitudeKm)
	}
	if m.SpeedKmps < m.Units.MinSpeedKmps || m.SpeedKmps > m.Units.MaxSpeedKmps {
		return fmt.Errorf("%w %q: default speed %g outside [%g, %g]", ErrMissionInvalid, m.ID,
			m.SpeedKmps, m.Units.MinSpeedKmps, m.Units.MaxSpeedKmps)
	}
	if m.Eccentricity < 0 || m.Eccentricity >= model.MaxEccentricity {
		return fmt.Errorf("%w %q: eccentricity %g outside [0, %g)", ErrMissionInvalid, m.ID, m.Eccentricity, model.MaxEccentricity)
	}
	if m.TLE1 != "" || m.TLE2 != "" {
		if err := core.ValidateTLE(m.TLE1, m.TLE2); err != nil {
			return fmt.Errorf("%w %q: %w", ErrMissionInvalid, m.ID, err)
		}
	}
	return nil
}
