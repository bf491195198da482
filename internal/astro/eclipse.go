package astro

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// partialGammaLimit is the |gamma| below which the penumbra still touches
// the Earth at mean lunar distance.
const partialGammaLimit = 1.55

// ErrBadSearchRange is returned for an empty search window or a non-positive step.
var ErrBadSearchRange = errors.New("invalid search range")

// Eclipse is a solar eclipse found by SearchEclipses, at greatest eclipse.
type Eclipse struct {
	At      time.Time
	Gamma   float64
	Central bool    // The shadow axis touches the Earth
	LonDeg  float64 // Axis ground point when Central, else the sub-lunar point
	LatDeg  float64
}

// Kind names the eclipse for display.
func (e Eclipse) Kind() string {
	if e.Central {
		return "central"
	}
	return "partial"
}

// SearchEclipses scans [start, end] every step for minima of |gamma| and
// refines each one to the second. Steps longer than a few hours can skip
// short alignments.
func SearchEclipses(start, end time.Time, step time.Duration) ([]Eclipse, error) {
	if step <= 0 || end.Before(start) {
		return nil, fmt.Errorf("%w: %s..%s step %s", ErrBadSearchRange, start.Format(time.RFC3339), end.Format(time.RFC3339), step)
	}

	absGamma := func(t time.Time) float64 {
		return math.Abs(ShadowGroundPoint(Ephemeris(t)).Gamma)
	}

	var found []Eclipse
	prev2, prev := math.Inf(1), math.Inf(1)
	for t := start; !t.After(end.Add(step)); t = t.Add(step) {
		g := absGamma(t)
		// prev is a local minimum of the sampled series.
		if prev < partialGammaLimit && prev <= prev2 && prev < g {
			at := goldenMin(absGamma, t.Add(-2*step), t, time.Second)
			if !at.Before(start) && !at.After(end) {
				found = append(found, eclipseAt(at))
			}
		}
		prev2, prev = prev, g
	}
	return found, nil
}

// NextEclipse returns the first eclipse after from within horizon.
func NextEclipse(from time.Time, horizon time.Duration) (Eclipse, bool) {
	found, err := SearchEclipses(from.Add(time.Minute), from.Add(horizon), time.Hour)
	if err != nil || len(found) == 0 {
		return Eclipse{}, false
	}
	return found[0], true
}

func eclipseAt(t time.Time) Eclipse {
	st := Ephemeris(t)
	sh := ShadowGroundPoint(st)
	ec := Eclipse{At: st.At, Gamma: sh.Gamma, Central: sh.Hit}
	if sh.Hit {
		ec.LonDeg, ec.LatDeg = sh.LonDeg, sh.LatDeg
	} else {
		ec.LonDeg, ec.LatDeg = SubLunarPoint(st)
	}
	return ec
}

// goldenMin finds the minimum of a unimodal f on [a, b] to within tol.
func goldenMin(f func(time.Time) float64, a, b time.Time, tol time.Duration) time.Time {
	const invPhi = 0.6180339887498949
	span := func(lo, hi time.Time, frac float64) time.Time {
		return lo.Add(time.Duration(float64(hi.Sub(lo)) * frac))
	}
	c := span(a, b, 1-invPhi)
	d := span(a, b, invPhi)
	fc, fd := f(c), f(d)
	for b.Sub(a) > tol {
		if fc < fd {
			b, d, fd = d, c, fc
			c = span(a, b, 1-invPhi)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = span(a, b, invPhi)
			fd = f(d)
		}
	}
	return span(a, b, 0.5).Round(time.Second)
}
