// Package reference cross-checks the low-precision ephemeris against the
// higher-precision theories in Jean Meeus' Astronomical Algorithms: the
// solar theory of chapter 25 and the ELP-2000/82 lunar series of chapter 47.
package reference

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"

	"github.com/litescript/ls-orrery/internal/astro"
)

var (
	// ErrOutOfTolerance is returned when a deviation exceeds its tolerance.
	ErrOutOfTolerance = errors.New("ephemeris outside reference tolerance")

	// ErrBadRange is returned by Sweep for an empty range or step.
	ErrBadRange = errors.New("invalid sweep range")
)

// Deviation is the absolute difference between the model and the reference
// at one instant. Angles are degrees.
type Deviation struct {
	At         time.Time `json:"at"`
	SunLonDeg  float64   `json:"sun_lon_deg"`
	SunDistAU  float64   `json:"sun_dist_au"`
	MoonLonDeg float64   `json:"moon_lon_deg"`
	MoonLatDeg float64   `json:"moon_lat_deg"`
	MoonDistKm float64   `json:"moon_dist_km"`
}

// Tolerance bounds each component of a Deviation.
type Tolerance struct {
	SunLonDeg  float64
	SunDistAU  float64
	MoonLonDeg float64
	MoonLatDeg float64
	MoonDistKm float64
}

// DefaultTolerance reflects the accuracy of the truncated lunar series. The
// Sun is good to a few arcseconds; the Moon to a few degrees.
func DefaultTolerance() Tolerance {
	return Tolerance{
		SunLonDeg:  0.01,
		SunDistAU:  1e-4,
		MoonLonDeg: 3.5,
		MoonLatDeg: 0.5,
		MoonDistKm: 12000,
	}
}

// Compare evaluates the model and the reference at t. Terrestrial time is
// taken equal to UT; the ~70 s difference is far below the tolerances.
func Compare(t time.Time) Deviation {
	t = t.UTC()
	st := astro.Ephemeris(t)

	jde := julian.TimeToJD(t)
	T := base.J2000Century(jde)
	sunLon, _ := solar.True(T)
	sunDist := solar.Radius(T)
	moonLon, moonLat, moonDistKm := moonposition.Position(jde)

	modelSunLon := unit.Angle(st.Earth.EclipticLon + math.Pi)
	return Deviation{
		At:         t,
		SunLonDeg:  angleDiff(modelSunLon, sunLon),
		SunDistAU:  math.Abs(st.Earth.Position.Norm() - sunDist),
		MoonLonDeg: angleDiff(unit.Angle(st.Moon.EclipticLon), moonLon),
		MoonLatDeg: math.Abs(unit.Angle(st.Moon.EclipticLat).Deg() - moonLat.Deg()),
		MoonDistKm: math.Abs(astro.AUToKm(st.Moon.Position.Norm()) - moonDistKm),
	}
}

// angleDiff returns |a - b| wrapped to [0, 180] degrees.
func angleDiff(a, b unit.Angle) float64 {
	d := (a - b).Mod1().Deg()
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Check returns an ErrOutOfTolerance error naming every exceeded component.
func (d Deviation) Check(tol Tolerance) error {
	var bad []string
	if d.SunLonDeg > tol.SunLonDeg {
		bad = append(bad, fmt.Sprintf("sun longitude %.4f° > %.4f°", d.SunLonDeg, tol.SunLonDeg))
	}
	if d.SunDistAU > tol.SunDistAU {
		bad = append(bad, fmt.Sprintf("sun distance %.2e AU > %.2e AU", d.SunDistAU, tol.SunDistAU))
	}
	if d.MoonLonDeg > tol.MoonLonDeg {
		bad = append(bad, fmt.Sprintf("moon longitude %.3f° > %.3f°", d.MoonLonDeg, tol.MoonLonDeg))
	}
	if d.MoonLatDeg > tol.MoonLatDeg {
		bad = append(bad, fmt.Sprintf("moon latitude %.3f° > %.3f°", d.MoonLatDeg, tol.MoonLatDeg))
	}
	if d.MoonDistKm > tol.MoonDistKm {
		bad = append(bad, fmt.Sprintf("moon distance %.0f km > %.0f km", d.MoonDistKm, tol.MoonDistKm))
	}
	if len(bad) == 0 {
		return nil
	}
	return fmt.Errorf("%w at %s: %v", ErrOutOfTolerance, d.At.Format(time.RFC3339), bad)
}

// Report summarizes a sweep. Max holds the component-wise maxima; its At is
// the instant of the worst Moon longitude.
type Report struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Step     string    `json:"step"`
	Samples  int       `json:"samples"`
	Failures int       `json:"failures"`
	Max      Deviation `json:"max"`
}

// maxSweepSamples bounds a single sweep.
const maxSweepSamples = 1_000_000

// Sweep compares the model against the reference from start to end
// inclusive, every step, counting samples that fail tol.
func Sweep(start, end time.Time, step time.Duration, tol Tolerance) (Report, error) {
	if step <= 0 || end.Before(start) {
		return Report{}, fmt.Errorf("%w: %s to %s every %s", ErrBadRange, start, end, step)
	}
	if n := end.Sub(start) / step; n > maxSweepSamples {
		return Report{}, fmt.Errorf("%w: %d samples exceeds %d", ErrBadRange, n, maxSweepSamples)
	}

	r := Report{Start: start.UTC(), End: end.UTC(), Step: step.String()}
	for t := start; !t.After(end); t = t.Add(step) {
		d := Compare(t)
		r.Samples++
		if d.Check(tol) != nil {
			r.Failures++
		}
		if d.MoonLonDeg >= r.Max.MoonLonDeg {
			r.Max.At = d.At
		}
		r.Max.SunLonDeg = math.Max(r.Max.SunLonDeg, d.SunLonDeg)
		r.Max.SunDistAU = math.Max(r.Max.SunDistAU, d.SunDistAU)
		r.Max.MoonLonDeg = math.Max(r.Max.MoonLonDeg, d.MoonLonDeg)
		r.Max.MoonLatDeg = math.Max(r.Max.MoonLatDeg, d.MoonLatDeg)
		r.Max.MoonDistKm = math.Max(r.Max.MoonDistKm, d.MoonDistKm)
	}
	return r, nil
}
