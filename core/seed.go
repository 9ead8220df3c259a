package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidTLE is returned when a two-line element set cannot be used.
var ErrInvalidTLE = errors.New("invalid TLE")

const tleLineLen = 69

// OrbitSeed is the physical state of a real satellite at one instant.
type OrbitSeed struct {
	At         time.Time
	AltitudeKm float64
	SpeedKmps  float64
}

// SeedFromTLE propagates a TLE with SGP4 to at and reports the satellite's
// altitude above the mean Earth radius and its inertial speed.
// go-satellite works in kilometres and km/s.
func SeedFromTLE(line1, line2 string, at time.Time) (OrbitSeed, error) {
	line1, line2 = strings.TrimSpace(line1), strings.TrimSpace(line2)
	if err := ValidateTLE(line1, line2); err != nil {
		return OrbitSeed{}, err
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)

	at = at.UTC()
	year, month, day := at.Date()
	hour, min, sec := at.Clock()
	pos, vel := satellite.Propagate(sat, year, int(month), day, hour, min, sec)

	r := r3.Norm(r3.Vec{X: pos.X, Y: pos.Y, Z: pos.Z})
	v := r3.Norm(r3.Vec{X: vel.X, Y: vel.Y, Z: vel.Z})
	if math.IsNaN(r) || math.IsNaN(v) || r <= EarthRadiusKm {
		return OrbitSeed{}, fmt.Errorf("%w: propagation produced no usable orbit at %s", ErrInvalidTLE, at.Format(time.RFC3339))
	}

	return OrbitSeed{
		At:         at,
		AltitudeKm: r - EarthRadiusKm,
		SpeedKmps:  v,
	}, nil
}

// tleField is one fixed-column numeric field. text extracts it from the
// line exactly as the SGP4 parser does.
type tleField struct {
	name  string
	text  func(line string) string
	isInt bool
}

func cols(lo, hi int) func(string) string {
	return func(l string) string { return l[lo:hi] }
}

func colsNoSpace(lo, hi int) func(string) string {
	return func(l string) string { return strings.Replace(l[lo:hi], " ", "", 2) }
}

// exponent reads the TLE's implied-decimal "±NNNNN±N" notation.
func exponent(sign, mantissa, exp int) func(string) string {
	return func(l string) string {
		s := l[sign:sign+1] + "." + l[sign+1:mantissa] + "e" + l[mantissa:exp]
		return strings.Replace(s, " ", "", 2)
	}
}

var (
	tleLine1Fields = []tleField{
		{name: "satellite number", text: func(l string) string { return strings.TrimSpace(l[2:7]) }, isInt: true},
		{name: "epoch year", text: cols(18, 20), isInt: true},
		{name: "epoch day", text: cols(20, 32)},
		{name: "ndot", text: colsNoSpace(33, 43)},
		{name: "nddot", text: exponent(44, 50, 52)},
		{name: "bstar", text: exponent(53, 59, 61)},
	}
	tleLine2Fields = []tleField{
		{name: "inclination", text: colsNoSpace(8, 16)},
		{name: "RAAN", text: colsNoSpace(17, 25)},
		{name: "eccentricity", text: func(l string) string { return "." + l[26:33] }},
		{name: "argument of perigee", text: colsNoSpace(34, 42)},
		{name: "mean anomaly", text: colsNoSpace(43, 51)},
		{name: "mean motion", text: colsNoSpace(52, 63)},
	}
)

// ValidateTLE checks both element lines before they reach the SGP4
// parser, which exits the process on malformed numbers. It checks the
// line layout, the mod-10 checksums and every numeric column SGP4 reads.
func ValidateTLE(line1, line2 string) error {
	line1, line2 = strings.TrimSpace(line1), strings.TrimSpace(line2)
	if len(line1) != tleLineLen || len(line2) != tleLineLen || line1[0] != '1' || line2[0] != '2' {
		return fmt.Errorf("%w: expected two %d-column element lines", ErrInvalidTLE, tleLineLen)
	}
	for i, line := range []string{line1, line2} {
		if err := checkTLEChecksum(line); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidTLE, i+1, err)
		}
	}
	if err := parseTLEFields(line1, tleLine1Fields); err != nil {
		return fmt.Errorf("%w: line 1: %v", ErrInvalidTLE, err)
	}
	if err := parseTLEFields(line2, tleLine2Fields); err != nil {
		return fmt.Errorf("%w: line 2: %v", ErrInvalidTLE, err)
	}
	if line1[2:7] != line2[2:7] {
		return fmt.Errorf("%w: satellite numbers differ (%q, %q)", ErrInvalidTLE, line1[2:7], line2[2:7])
	}
	return nil
}

// checkTLEChecksum sums the digits of the first 68 columns, counting '-'
// as 1, and compares the result mod 10 with column 69.
func checkTLEChecksum(line string) error {
	want := line[tleLineLen-1]
	if want < '0' || want > '9' {
		return fmt.Errorf("checksum column %q is not a digit", want)
	}
	sum := 0
	for _, c := range line[:tleLineLen-1] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	if got := sum % 10; got != int(want-'0') {
		return fmt.Errorf("checksum %d, line says %c", got, want)
	}
	return nil
}

func parseTLEFields(line string, fields []tleField) error {
	for _, f := range fields {
		text := f.text(line)
		var err error
		if f.isInt {
			_, err = strconv.ParseInt(text, 10, 0)
		} else {
			_, err = strconv.ParseFloat(text, 64)
		}
		if err != nil {
			return fmt.Errorf("%s %q is not a number", f.name, text)
		}
	}
	return nil
}
