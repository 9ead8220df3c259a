package session

import (
	"errors"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/signalsfoundry/mission-orbit-sim/internal/logging"
	"github.com/signalsfoundry/mission-orbit-sim/kb"
)

func newTestRegistry(t *testing.T) (*Registry, *kb.KnowledgeBase) {
	t.Helper()
	catalog := kb.NewKnowledgeBase()
	if err := catalog.AddMission(earthMission()); err != nil {
		t.Fatalf("AddMission: %v", err)
	}
	r := NewRegistry(catalog, logging.Noop())
	t.Cleanup(r.Close)
	return r, catalog
}

func TestRegistryGetCreatesOnce(t *testing.T) {
	r, _ := newTestRegistry(t)

	a, err := r.Get("test-leo")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, err := r.Get("test-leo")
	if err != nil {
		t.Fatalf("Get again: %v", err)
	}
	if a != b {
		t.Fatalf("Get returned a different session on second call")
	}
	if n := len(r.Sessions()); n != 1 {
		t.Fatalf("Sessions() = %d, want 1", n)
	}
}

func TestRegistryGetUnknownMission(t *testing.T) {
	r, _ := newTestRegistry(t)
	if _, err := r.Get("mars"); !errors.Is(err, kb.ErrMissionNotFound) {
		t.Fatalf("Get error = %v, want ErrMissionNotFound", err)
	}
	if n := len(r.Sessions()); n != 0 {
		t.Fatalf("failed Get created a session")
	}
}

func TestRegistryTickAll(t *testing.T) {
	r, _ := newTestRegistry(t)
	s, _ := r.Get("test-leo")

	r.TickAll(time.Second)
	r.TickAll(time.Second)

	if f := s.Snapshot().Frame; f != 2 {
		t.Fatalf("frame = %d, want 2", f)
	}
}

func TestRegistryReconfiguresOnCatalogReplace(t *testing.T) {
	r, catalog := newTestRegistry(t)
	s, _ := r.Get("test-leo")

	m := earthMission()
	m.AltitudeKm = 1000
	if err := catalog.PutMission(m); err != nil {
		t.Fatalf("PutMission: %v", err)
	}
	if alt := s.Snapshot().AltitudeKm; !scalar.EqualWithinAbs(alt, 1000, 1e-6) {
		t.Fatalf("altitude after replace = %v, want 1000", alt)
	}
}
