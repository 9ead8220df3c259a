package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/mission-orbit-sim/internal/intent"
	"github.com/signalsfoundry/mission-orbit-sim/internal/logging"
	"github.com/signalsfoundry/mission-orbit-sim/kb"
)

func testOptions() options {
	return options{
		Mission:     "hubble",
		Duration:    5 * time.Second,
		Tick:        time.Second,
		Scale:       60,
		Every:       1,
		Accelerated: true,
		Start:       time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC),
	}
}

// TestSimulateAppliesIntentAndAdvances runs a short accelerated simulation.
func TestSimulateAppliesIntentAndAdvances(t *testing.T) {
	opts := testOptions()
	opts.Intent = `{"distance_km": 600}`

	var out bytes.Buffer
	if err := simulate(context.Background(), opts, logging.Noop(), &out); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	text := out.String()

	if !strings.Contains(text, "Intent update_altitude: changed=true altitude=600.0 km") {
		t.Fatalf("intent line missing:\n%s", text)
	}
	if got := strings.Count(text, "] hubble alt=600.0 km"); got != 5 {
		t.Fatalf("printed %d frames at 600 km, want 5:\n%s", got, text)
	}
	if !strings.Contains(text, "Simulation complete after 5 frames, T+ 00:05:00.") {
		t.Fatalf("summary line missing:\n%s", text)
	}
}

func TestSimulatePrintsEveryNthFrame(t *testing.T) {
	opts := testOptions()
	opts.Duration = 10 * time.Second
	opts.Every = 5

	var out bytes.Buffer
	if err := simulate(context.Background(), opts, logging.Noop(), &out); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if got := strings.Count(out.String(), "] hubble alt="); got != 2 {
		t.Fatalf("printed %d frames, want 2:\n%s", got, out.String())
	}
}

func TestSimulateReportsClamps(t *testing.T) {
	opts := testOptions()
	opts.Intent = `{"distance_km": 100000}`

	var out bytes.Buffer
	if err := simulate(context.Background(), opts, logging.Noop(), &out); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if !strings.Contains(out.String(), "clamped: ") {
		t.Fatalf("clamp not reported:\n%s", out.String())
	}
}

func TestSimulateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*options)
		want   error
	}{
		{name: "unknown mission", mutate: func(o *options) { o.Mission = "mir" }, want: kb.ErrMissionNotFound},
		{name: "malformed intent", mutate: func(o *options) { o.Intent = "[1, 2]" }, want: intent.ErrMalformed},
		{name: "zero tick", mutate: func(o *options) { o.Tick = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := testOptions()
			tc.mutate(&opts)
			err := simulate(context.Background(), opts, logging.Noop(), &bytes.Buffer{})
			if err == nil {
				t.Fatalf("simulate succeeded, want error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}
