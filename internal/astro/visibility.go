package astro

import (
	"errors"
	"math"
	"time"
)

// Target selects the body for rise/set calculations.
type Target int

const (
	TargetSun Target = iota
	TargetMoon
)

func (t Target) String() string {
	switch t {
	case TargetSun:
		return "Sun"
	case TargetMoon:
		return "Moon"
	default:
		return "unknown"
	}
}

// horizon returns the elevation at which the target's upper limb touches
// the horizon, including standard refraction.
func (t Target) horizon() float64 {
	if t == TargetSun {
		return -0.8333
	}
	return 0.125
}

func (t Target) elevation(obs Observer, s State) float64 {
	if t == TargetSun {
		return SunHorizontal(obs, s).ElDeg
	}
	return MoonHorizontal(obs, s).ElDeg
}

// VisibilityWindow represents a rise-transit-set cycle for a body.
type VisibilityWindow struct {
	Rise          time.Time `json:"rise"`           // Zero if the body does not rise in the window
	Transit       time.Time `json:"transit"`        // Highest point
	Set           time.Time `json:"set"`            // Zero if the body does not set in the window
	MaxElevation  float64   `json:"max_elevation"`  // Peak elevation in degrees
	AlwaysVisible bool      `json:"always_visible"` // Never sets (midnight sun)
	NeverVisible  bool      `json:"never_visible"`  // Never rises (polar night)
}

// ErrBadWindow is returned when the sampling window cannot hold a crossing.
var ErrBadWindow = errors.New("visibility window must span at least three samples")

// riseSetStep is the elevation sampling interval.
const riseSetStep = 10 * time.Minute

// RiseSet computes rise, transit and set of the Sun or Moon for an observer
// over [from, from+span], typically one day. Crossings are found by linear
// interpolation between samples and the transit by parabolic refinement.
func RiseSet(obs Observer, target Target, from time.Time, span time.Duration) (VisibilityWindow, error) {
	n := int(span/riseSetStep) + 1
	if n < 3 {
		return VisibilityWindow{}, ErrBadWindow
	}

	type elSample struct {
		t     time.Time
		elDeg float64
	}
	samples := make([]elSample, n)
	minEl, maxEl := 90.0, -90.0
	maxIdx := 0
	for i := range samples {
		t := from.Add(time.Duration(i) * riseSetStep)
		el := target.elevation(obs, Ephemeris(t))
		samples[i] = elSample{t: t, elDeg: el}
		minEl = math.Min(minEl, el)
		if el > maxEl {
			maxEl, maxIdx = el, i
		}
	}

	threshold := target.horizon()
	if minEl > threshold {
		return VisibilityWindow{Transit: samples[maxIdx].t, MaxElevation: maxEl, AlwaysVisible: true}, nil
	}
	if maxEl < threshold {
		return VisibilityWindow{NeverVisible: true}, nil
	}

	w := VisibilityWindow{Transit: samples[maxIdx].t, MaxElevation: maxEl}
	for i := 1; i < n; i++ {
		prev, curr := samples[i-1], samples[i]
		switch {
		case w.Rise.IsZero() && prev.elDeg <= threshold && curr.elDeg > threshold:
			w.Rise = interpolateCrossing(prev.t, curr.t, prev.elDeg, curr.elDeg, threshold)
		case w.Set.IsZero() && prev.elDeg > threshold && curr.elDeg <= threshold:
			w.Set = interpolateCrossing(prev.t, curr.t, prev.elDeg, curr.elDeg, threshold)
		}
	}

	// Parabolic refinement of the transit: y = at^2 + bt + c through the
	// samples at t = -1, 0, +1.
	if maxIdx > 0 && maxIdx < n-1 {
		y0, y1, y2 := samples[maxIdx-1].elDeg, samples[maxIdx].elDeg, samples[maxIdx+1].elDeg
		a := (y0+y2)/2 - y1
		b := (y2 - y0) / 2
		if a < 0 {
			tMax := math.Max(-1, math.Min(1, -b/(2*a)))
			w.Transit = samples[maxIdx].t.Add(time.Duration(float64(riseSetStep) * tMax))
			w.MaxElevation = a*tMax*tMax + b*tMax + y1
		}
	}

	return w, nil
}

// interpolateCrossing finds the time when elevation crosses a threshold.
func interpolateCrossing(t1, t2 time.Time, el1, el2, threshold float64) time.Time {
	if math.Abs(el2-el1) < 0.0001 {
		return t1
	}

	fraction := (threshold - el1) / (el2 - el1)
	fraction = math.Max(0, math.Min(1, fraction))

	return t1.Add(time.Duration(float64(t2.Sub(t1)) * fraction))
}

// ElevationTier categorizes elevation for UI display.
type ElevationTier int

const (
	ElevationNone   ElevationTier = iota // Below horizon
	ElevationLow                         // 0-15 degrees
	ElevationMedium                      // 15-45 degrees
	ElevationHigh                        // 45+ degrees
)

// GetElevationTier returns the tier for a given elevation.
func GetElevationTier(elDeg float64) ElevationTier {
	switch {
	case elDeg <= 0:
		return ElevationNone
	case elDeg < 15:
		return ElevationLow
	case elDeg < 45:
		return ElevationMedium
	default:
		return ElevationHigh
	}
}
