package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionCollector exposes per-mission simulation metrics. It satisfies
// session.MetricsRecorder.
type SessionCollector struct {
	gatherer prometheus.Gatherer

	Commands       *prometheus.CounterVec
	Clamps         *prometheus.CounterVec
	FrameDurations *prometheus.HistogramVec
	AltitudeKm     *prometheus.GaugeVec
	SpeedKmps      *prometheus.GaugeVec
	TimeMultiplier *prometheus.GaugeVec
}

// NewSessionCollector registers session metrics against the provided registerer.
func NewSessionCollector(reg prometheus.Registerer) (*SessionCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitsim_commands_total",
		Help: "Orbit commands handled per mission, labeled by outcome (applied, noop, rejected, cancelled).",
	}, []string{"mission", "outcome"})
	commands, err := registerCounterVec(reg, commands, "orbitsim_commands_total")
	if err != nil {
		return nil, err
	}

	clamps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitsim_clamps_total",
		Help: "Command values clamped into mission limits, labeled by field.",
	}, []string{"mission", "field"})
	clamps, err = registerCounterVec(reg, clamps, "orbitsim_clamps_total")
	if err != nil {
		return nil, err
	}

	frames := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orbitsim_frame_duration_seconds",
		Help:    "Time spent advancing one session by one frame.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	}, []string{"mission"})
	frames, err = registerHistogramVec(reg, frames, "orbitsim_frame_duration_seconds")
	if err != nil {
		return nil, err
	}

	altitude, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "orbitsim_altitude_km",
		Help: "Current orbit altitude above the central body in kilometres.",
	}, []string{"mission"}), "orbitsim_altitude_km")
	if err != nil {
		return nil, err
	}
	speed, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "orbitsim_speed_kmps",
		Help: "Current orbital speed in kilometres per second.",
	}, []string{"mission"}), "orbitsim_speed_kmps")
	if err != nil {
		return nil, err
	}
	multiplier, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "orbitsim_time_multiplier",
		Help: "Current time-scale multiplier.",
	}, []string{"mission"}), "orbitsim_time_multiplier")
	if err != nil {
		return nil, err
	}

	return &SessionCollector{
		gatherer:       gathererFor(reg),
		Commands:       commands,
		Clamps:         clamps,
		FrameDurations: frames,
		AltitudeKm:     altitude,
		SpeedKmps:      speed,
		TimeMultiplier: multiplier,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SessionCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveCommand counts one handled command.
func (c *SessionCollector) ObserveCommand(mission, outcome string) {
	if c == nil || c.Commands == nil {
		return
	}
	c.Commands.WithLabelValues(mission, outcome).Inc()
}

// ObserveClamp counts one clamped field.
func (c *SessionCollector) ObserveClamp(mission, field string) {
	if c == nil || c.Clamps == nil {
		return
	}
	c.Clamps.WithLabelValues(mission, field).Inc()
}

// ObserveFrame records a frame duration measurement.
func (c *SessionCollector) ObserveFrame(mission string, d time.Duration) {
	if c == nil || c.FrameDurations == nil {
		return
	}
	c.FrameDurations.WithLabelValues(mission).Observe(d.Seconds())
}

// SetOrbit updates the orbit gauges.
func (c *SessionCollector) SetOrbit(mission string, altitudeKm, speedKmps, multiplier float64) {
	if c == nil {
		return
	}
	if c.AltitudeKm != nil {
		c.AltitudeKm.WithLabelValues(mission).Set(altitudeKm)
	}
	if c.SpeedKmps != nil {
		c.SpeedKmps.WithLabelValues(mission).Set(speedKmps)
	}
	if c.TimeMultiplier != nil {
		c.TimeMultiplier.WithLabelValues(mission).Set(multiplier)
	}
}
