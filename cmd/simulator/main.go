package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/mission-orbit-sim/internal/config"
	"github.com/signalsfoundry/mission-orbit-sim/internal/intent"
	"github.com/signalsfoundry/mission-orbit-sim/internal/logging"
	"github.com/signalsfoundry/mission-orbit-sim/internal/sim/session"
	"github.com/signalsfoundry/mission-orbit-sim/model"
	"github.com/signalsfoundry/mission-orbit-sim/timectrl"
)

// options are the simulator's command-line settings.
type options struct {
	Mission      string
	MissionsFile string
	Intent       string
	Duration     time.Duration
	Tick         time.Duration
	Scale        float64
	Every        int
	Accelerated  bool
	Start        time.Time
}

func main() {
	opts := options{Start: time.Now().UTC()}
	flag.StringVar(&opts.Mission, "mission", "iss", "mission to simulate")
	flag.StringVar(&opts.MissionsFile, "missions", "", "optional YAML/JSON file overlaying the built-in mission catalog")
	flag.StringVar(&opts.Intent, "intent", "", `orbit intent JSON applied before the first frame, e.g. {"distance_km": 600}`)
	flag.DurationVar(&opts.Duration, "duration", 60*time.Second, "total wall-clock duration to simulate")
	flag.DurationVar(&opts.Tick, "tick", time.Second, "frame interval")
	flag.Float64Var(&opts.Scale, "scale", 1, "time multiplier")
	flag.IntVar(&opts.Every, "every", 1, "print every Nth frame")
	flag.BoolVar(&opts.Accelerated, "accelerated", true, "run in accelerated mode (vs real-time)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := simulate(ctx, opts, log, os.Stdout); err != nil {
		log.Error(ctx, "simulation failed", logging.Err(err))
		os.Exit(1)
	}
}

// simulate runs a single mission session under its own frame loop and
// writes one line per printed frame to out.
func simulate(ctx context.Context, opts options, log logging.Logger, out io.Writer) error {
	if opts.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %s", opts.Tick)
	}
	if opts.Every < 1 {
		opts.Every = 1
	}

	catalog, err := config.LoadCatalog(opts.MissionsFile)
	if err != nil {
		return err
	}
	mission, err := catalog.GetMission(opts.Mission)
	if err != nil {
		return err
	}

	mode := timectrl.RealTime
	if opts.Accelerated {
		mode = timectrl.Accelerated
	}
	tc := timectrl.NewTimeController(opts.Start, opts.Tick, mode)

	sess, err := session.New(mission, log, session.WithClock(tc))
	if err != nil {
		return err
	}

	if opts.Intent != "" {
		cmd, err := intent.Decode([]byte(opts.Intent))
		if err != nil {
			return err
		}
		res, err := sess.ApplyCommand(ctx, cmd)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Intent %s: changed=%v altitude=%.1f km speed=%.3f km/s\n",
			cmd.Kind(), res.Changed, res.AppliedAltitudeKm, res.AppliedSpeedKmps)
		if res.Reason != "" {
			fmt.Fprintf(out, "  note: %s\n", res.Reason)
		}
		for _, c := range res.Clamps {
			fmt.Fprintf(out, "  clamped: %v\n", c)
		}
	}
	ts := sess.SetTimeScale(opts.Scale)

	tc.AddListener(func(_ time.Time, dt time.Duration) {
		snap := sess.Tick(dt)
		if snap.Frame%uint64(opts.Every) == 0 {
			printFrame(out, snap)
		}
	})

	fmt.Fprintf(out, "Starting %s (%s): duration=%s, tick=%s, mode=%v, scale=x%g\n",
		mission.Name, mission.ID, opts.Duration, opts.Tick, mode, ts.Multiplier)
	<-tc.Start(ctx, opts.Duration)

	final := sess.Snapshot()
	fmt.Fprintf(out, "Simulation complete after %d frames, %s.\n", final.Frame, final.Elapsed)
	return nil
}

func printFrame(out io.Writer, snap model.Snapshot) {
	fmt.Fprintf(out, "[%s] %s alt=%.1f km speed=%.3f km/s angle=%.4f rad pos=(%.3f, %.3f, %.3f)\n",
		snap.Elapsed,
		snap.MissionID,
		snap.AltitudeKm,
		snap.SpeedKmps,
		snap.State.Angle,
		snap.Position.X, snap.Position.Y, snap.Position.Z,
	)
}
