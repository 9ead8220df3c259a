package timectrl

import (
	"context"
	"sync"
	"time"
)

// SimClock gives components access to simulation time without depending
// on the concrete controller.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
	// After returns a channel that receives the simulation time once d of
	// simulation time has passed.
	After(d time.Duration) <-chan time.Time
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime advances according to wall-clock time.
	RealTime Mode = iota
	// Accelerated advances as quickly as the loop can run while still stepping by Tick.
	Accelerated
)

func (m Mode) String() string {
	if m == Accelerated {
		return "accelerated"
	}
	return "realtime"
}

// FrameListener is called once per frame with the frame's simulation time
// and the frame interval.
type FrameListener func(simTime time.Time, dt time.Duration)

type timer struct {
	at time.Time
	ch chan time.Time
}

// TimeController is the external frame scheduler: it drives simulation
// time in fixed frames and notifies registered listeners. Orbit sessions
// have no timer of their own.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time
	listeners   []FrameListener
	timers      []timer
}

// NewTimeController constructs a controller.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime jumps simulation time to t and fires any timers now due.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	tc.currentTime = t
	due := tc.takeDueLocked(t)
	tc.mu.Unlock()
	fire(due, t)
}

// After implements SimClock. The channel fires on the first frame at or
// after Now()+d.
func (tc *TimeController) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	tc.mu.Lock()
	at := tc.currentTime.Add(d)
	if d <= 0 {
		now := tc.currentTime
		tc.mu.Unlock()
		ch <- now
		return ch
	}
	tc.timers = append(tc.timers, timer{at: at, ch: ch})
	tc.mu.Unlock()
	return ch
}

// AddListener registers a callback invoked on every frame.
func (tc *TimeController) AddListener(fn FrameListener) {
	if fn == nil {
		return
	}
	tc.mu.Lock()
	tc.listeners = append(tc.listeners, fn)
	tc.mu.Unlock()
}

// Start runs the controller for the given duration (0 runs until ctx is
// cancelled) in a separate goroutine. The returned channel is closed when
// the controller stops.
func (tc *TimeController) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.mu.Lock()
		simTime := tc.StartTime
		tc.currentTime = simTime
		tc.mu.Unlock()

		var tickC <-chan time.Time
		if tc.Mode == RealTime {
			ticker := time.NewTicker(tc.Tick)
			defer ticker.Stop()
			tickC = ticker.C
		}

		elapsed := time.Duration(0)
		for {
			if duration > 0 && elapsed >= duration {
				return
			}

			if tickC != nil {
				select {
				case <-ctx.Done():
					return
				case <-tickC:
				}
			} else if ctx.Err() != nil {
				return
			}

			simTime = simTime.Add(tc.Tick)
			elapsed += tc.Tick

			tc.mu.Lock()
			tc.currentTime = simTime
			due := tc.takeDueLocked(simTime)
			listeners := append([]FrameListener(nil), tc.listeners...)
			tc.mu.Unlock()

			for _, fn := range listeners {
				fn(simTime, tc.Tick)
			}
			fire(due, simTime)
		}
	}()
	return done
}

func (tc *TimeController) takeDueLocked(now time.Time) []timer {
	var due []timer
	kept := tc.timers[:0]
	for _, t := range tc.timers {
		if !t.at.After(now) {
			due = append(due, t)
		} else {
			kept = append(kept, t)
		}
	}
	tc.timers = kept
	return due
}

func fire(due []timer, now time.Time) {
	for _, t := range due {
		t.ch <- now
	}
}
