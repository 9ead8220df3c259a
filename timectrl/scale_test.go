package timectrl

import "testing"

func TestScaleControllerClampsMultiplier(t *testing.T) {
	c := NewScaleController(DefaultScaleBounds())

	cases := []struct {
		in, want float64
	}{
		{in: 20, want: 20},
		{in: 0, want: 0.1},
		{in: -5, want: 0.1},
		{in: 501, want: 500},
		{in: 500, want: 500},
	}
	for _, tc := range cases {
		if got := c.SetMultiplier(tc.in); got != tc.want {
			t.Fatalf("SetMultiplier(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestScaleControllerPauseResumeRestoresMultiplier(t *testing.T) {
	c := NewScaleController(DefaultScaleBounds())
	c.SetMultiplier(37.5)

	c.Pause()
	if c.State() != Paused {
		t.Fatalf("state = %v, want paused", c.State())
	}
	if ts := c.Snapshot(); !ts.Paused {
		t.Fatalf("snapshot not paused: %+v", ts)
	}

	c.Resume()
	ts := c.Snapshot()
	if ts.Paused || ts.Multiplier != 37.5 {
		t.Fatalf("after resume = %+v, want running at 37.5", ts)
	}
}

func TestScaleControllerSetWhilePausedAppliesOnResume(t *testing.T) {
	c := NewScaleController(DefaultScaleBounds())
	c.SetMultiplier(5)
	c.Pause()
	c.SetMultiplier(20)
	if c.State() != Paused {
		t.Fatalf("SetMultiplier must not change state")
	}
	c.Resume()

	if got := c.Snapshot().Multiplier; got != 20 {
		t.Fatalf("multiplier after resume = %v, want 20", got)
	}
}

func TestScaleControllerReset(t *testing.T) {
	c := NewScaleController(DefaultScaleBounds())
	c.SetMultiplier(100)
	c.Accumulate(2)
	c.Pause()

	c.Reset()
	ts := c.Snapshot()
	if ts.Paused || ts.Multiplier != 1 {
		t.Fatalf("after reset = %+v, want running at 1", ts)
	}
	if c.Elapsed() != 0 {
		t.Fatalf("elapsed after reset = %v, want 0", c.Elapsed())
	}
}

func TestScaleControllerAccumulate(t *testing.T) {
	c := NewScaleController(DefaultScaleBounds())
	c.SetMultiplier(60)

	if d := c.Accumulate(0.5); d != 30 {
		t.Fatalf("Accumulate delta = %v, want 30", d)
	}
	c.Pause()
	if d := c.Accumulate(10); d != 0 {
		t.Fatalf("paused Accumulate delta = %v, want 0", d)
	}
	if got := c.Elapsed(); got != 30 {
		t.Fatalf("Elapsed = %v, want 30", got)
	}
}

func TestScaleControllerInvalidBoundsFallBack(t *testing.T) {
	c := NewScaleController(ScaleBounds{Min: 10, Max: 1})
	if b := c.Bounds(); b != DefaultScaleBounds() {
		t.Fatalf("bounds = %+v, want defaults", b)
	}
}

func TestFormatMissionTime(t *testing.T) {
	cases := map[float64]string{
		0:      "T+ 00:00:00",
		59.9:   "T+ 00:00:59",
		3725:   "T+ 01:02:05",
		86400:  "T+ 1d 00:00:00",
		183845: "T+ 2d 03:04:05",
		-4:     "T+ 00:00:00",
	}
	for in, want := range cases {
		if got := FormatMissionTime(in); got != want {
			t.Fatalf("FormatMissionTime(%v) = %q, want %q", in, got, want)
		}
	}
}
