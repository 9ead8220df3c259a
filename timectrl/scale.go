package timectrl

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/signalsfoundry/mission-orbit-sim/model"
)

// Default multiplier bounds.
const (
	DefaultMinMultiplier = 0.1
	DefaultMaxMultiplier = 500.0
)

// ScaleState is the state of a ScaleController.
type ScaleState int

const (
	// Running applies the current multiplier to elapsed time.
	Running ScaleState = iota
	// Paused freezes simulated time and holds the saved multiplier.
	Paused
)

func (s ScaleState) String() string {
	if s == Paused {
		return "paused"
	}
	return "running"
}

// ScaleBounds limits the multipliers a controller accepts.
type ScaleBounds struct {
	Min float64
	Max float64
}

// DefaultScaleBounds returns [0.1, 500].
func DefaultScaleBounds() ScaleBounds {
	return ScaleBounds{Min: DefaultMinMultiplier, Max: DefaultMaxMultiplier}
}

func (b ScaleBounds) clamp(x float64) float64 {
	return math.Min(math.Max(x, b.Min), b.Max)
}

// ScaleController holds the time multiplier and pause flag applied to every
// orbit integration step in a session, and accumulates simulated elapsed
// time for display.
//
// States are Running(multiplier) and Paused(savedMultiplier). Pause saves
// the multiplier, Resume restores it exactly, and SetMultiplier updates it
// in either state without changing state.
type ScaleController struct {
	mu         sync.RWMutex
	bounds     ScaleBounds
	multiplier float64
	paused     bool
	elapsed    float64
}

// NewScaleController returns a running controller at multiplier 1.
// Zero or inverted bounds fall back to the defaults.
func NewScaleController(bounds ScaleBounds) *ScaleController {
	if !(bounds.Min > 0) || bounds.Max < bounds.Min {
		bounds = DefaultScaleBounds()
	}
	return &ScaleController{bounds: bounds, multiplier: bounds.clamp(1)}
}

// Bounds returns the configured multiplier bounds.
func (c *ScaleController) Bounds() ScaleBounds {
	return c.bounds
}

// SetMultiplier clamps x to the bounds and stores it. While paused the new
// value becomes the one restored by Resume. NaN is ignored.
func (c *ScaleController) SetMultiplier(x float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if math.IsNaN(x) {
		return c.multiplier
	}
	c.multiplier = c.bounds.clamp(x)
	return c.multiplier
}

// Pause moves to Paused, saving the current multiplier. Pausing twice is a
// no-op.
func (c *ScaleController) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

// Resume moves to Running with the saved multiplier.
func (c *ScaleController) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

// Reset returns to Running at multiplier 1 and clears elapsed time.
func (c *ScaleController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.multiplier = c.bounds.clamp(1)
	c.paused = false
	c.elapsed = 0
}

// State reports Running or Paused.
func (c *ScaleController) State() ScaleState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.paused {
		return Paused
	}
	return Running
}

// Snapshot returns the read-only view used by integration.
func (c *ScaleController) Snapshot() model.TimeScale {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return model.TimeScale{Multiplier: c.multiplier, Paused: c.paused}
}

// Accumulate adds realSeconds of wall time to the simulated elapsed time
// and returns the simulated delta. Paused controllers return 0.
func (c *ScaleController) Accumulate(realSeconds float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused || realSeconds <= 0 {
		return 0
	}
	d := realSeconds * c.multiplier
	c.elapsed += d
	return d
}

// Elapsed returns simulated seconds accumulated since creation or Reset.
func (c *ScaleController) Elapsed() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.elapsed
}

// FormatElapsed renders the simulated elapsed time as mission time.
func (c *ScaleController) FormatElapsed() string {
	return FormatMissionTime(c.Elapsed())
}

// FormatMissionTime renders seconds as "T+ HH:MM:SS", prefixed with the
// day count once past a day ("T+ 2d 03:04:05").
func FormatMissionTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	d := time.Duration(math.Floor(seconds)) * time.Second
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := int(d / time.Second)
	if days > 0 {
		return fmt.Sprintf("T+ %dd %02d:%02d:%02d", days, h, m, s)
	}
	return fmt.Sprintf("T+ %02d:%02d:%02d", h, m, s)
}
