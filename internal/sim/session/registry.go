package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/signalsfoundry/mission-orbit-sim/internal/logging"
	"github.com/signalsfoundry/mission-orbit-sim/kb"
	"github.com/signalsfoundry/mission-orbit-sim/model"
)

// Registry holds one Session per mission, created on first use from the
// mission catalog.
type Registry struct {
	mu       sync.Mutex
	catalog  *kb.KnowledgeBase
	sessions map[string]*Session
	log      logging.Logger
	opts     []Option

	unsubscribe func()
}

// NewRegistry builds a registry over catalog. opts apply to every session
// it creates. Catalog replacements reconfigure live sessions.
func NewRegistry(catalog *kb.KnowledgeBase, log logging.Logger, opts ...Option) *Registry {
	if log == nil {
		log = logging.Noop()
	}
	r := &Registry{
		catalog:  catalog,
		sessions: make(map[string]*Session),
		log:      log,
		opts:     opts,
	}
	r.unsubscribe = catalog.Subscribe(r.onCatalogEvent)
	return r
}

// Close detaches the registry from the catalog.
func (r *Registry) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

// Missions lists the catalog.
func (r *Registry) Missions() []model.Mission {
	return r.catalog.ListMissions()
}

// Get returns the session for id, creating it if needed. Unknown IDs
// return an error wrapping kb.ErrMissionNotFound.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}

	m, err := r.catalog.GetMission(id)
	if err != nil {
		return nil, err
	}
	s, err := New(m, r.log, r.opts...)
	if err != nil {
		return nil, err
	}
	r.sessions[id] = s
	return s, nil
}

// Sessions returns the live sessions sorted by mission ID.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	res := make([]*Session, 0, len(ids))
	for _, id := range ids {
		res = append(res, r.sessions[id])
	}
	r.mu.Unlock()
	return res
}

// TickAll advances every live session by dt. It is the frame listener
// the scheduler drives.
func (r *Registry) TickAll(dt time.Duration) {
	for _, s := range r.Sessions() {
		s.Tick(dt)
	}
}

func (r *Registry) onCatalogEvent(ev kb.Event) {
	if ev.Type != kb.EventMissionReplaced {
		return
	}
	r.mu.Lock()
	s, ok := r.sessions[ev.Mission.ID]
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := s.Reconfigure(ev.Mission); err != nil {
		r.log.Warn(context.Background(), "mission update not applied",
			logging.Mission(ev.Mission.ID), logging.Err(err))
	}
}
