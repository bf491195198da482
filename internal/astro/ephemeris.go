package astro

import (
	"math"
	"time"
)

// State is the Earth-Moon system at one instant.
type State struct {
	At          time.Time
	DayCount    float64
	Earth       BodyState // Heliocentric
	Moon        BodyState // Geocentric
	KeplerSteps int       // Newton steps the Moon's solver took
}

// Ephemeris computes Earth and Moon from a single day count.
// It is a pure function of t: repeated calls return identical values.
func Ephemeris(t time.Time) State {
	t = t.UTC()
	d := DayCount(t)
	moon, steps := moonState(d)
	return State{
		At:          t,
		DayCount:    d,
		Earth:       earthState(d, DayFraction(t)),
		Moon:        moon,
		KeplerSteps: steps,
	}
}

// MoonAbsolute returns the Moon's heliocentric position, Earth + geocentric Moon.
func (s State) MoonAbsolute() Vec3 {
	return s.Earth.Position.Add(s.Moon.Position)
}

// SunDirection returns the unit vector from the Earth toward the Sun.
func (s State) SunDirection() Vec3 {
	return s.Earth.Position.Scale(-1).Normalized()
}

// Elongation returns the Moon's ecliptic longitude minus the Sun's, in
// degrees [0, 360). It is 0 at new moon and 180 at full moon.
func (s State) Elongation() float64 {
	sunLon := s.Earth.EclipticLon + math.Pi
	return normalizeAngle360(radToDeg(s.Moon.EclipticLon - sunLon))
}

// Illumination returns the illuminated fraction of the Moon's disk as seen
// from the Earth, from the Sun-Moon elongation.
func (s State) Illumination() float64 {
	return (1 - math.Cos(degToRad(s.Elongation()))) / 2
}
