// Package scene composes ephemeris output into renderer-ready frames: body
// placements in scene units around a chosen focus, orbit rings and the
// derived sky geometry.
package scene

import (
	"fmt"
	"strings"

	"github.com/litescript/ls-orrery/internal/astro"
)

// BodyID identifies a body in a frame.
type BodyID string

const (
	Sun   BodyID = "sun"
	Earth BodyID = "earth"
	Moon  BodyID = "moon"
)

// BodyIDs lists the bodies in focus-cycling order.
var BodyIDs = []BodyID{Sun, Earth, Moon}

// ParseBodyID parses a body name, case-insensitively.
func ParseBodyID(s string) (BodyID, error) {
	id := BodyID(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range BodyIDs {
		if id == known {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown body %q (want sun, earth or moon)", s)
}

// Next returns the following body in focus-cycling order.
func (id BodyID) Next() BodyID {
	for i, known := range BodyIDs {
		if known == id {
			return BodyIDs[(i+1)%len(BodyIDs)]
		}
	}
	return Sun
}

// Title returns the display name.
func (id BodyID) Title() string {
	switch id {
	case Sun:
		return "Sun"
	case Earth:
		return "Earth"
	case Moon:
		return "Moon"
	default:
		return string(id)
	}
}

// BodyKind categorizes bodies for rendering.
type BodyKind int

const (
	KindStar BodyKind = iota
	KindPlanet
	KindSatellite
)

// String returns the body kind name.
func (k BodyKind) String() string {
	switch k {
	case KindStar:
		return "star"
	case KindPlanet:
		return "planet"
	case KindSatellite:
		return "satellite"
	default:
		return "unknown"
	}
}

// Body is one placed body in a frame.
type Body struct {
	ID       BodyID
	Kind     BodyKind
	Pos      astro.Vec3 // Scene units, relative to the frame's focus
	Rotation float64    // Spin angle, radians
	Tilt     float64    // Axial tilt, radians
	Radius   float64    // Physical radius in scene units
	Helio    astro.Vec3 // Unscaled heliocentric position, AU
}

// DistanceAU returns the heliocentric distance in AU.
func (b Body) DistanceAU() float64 {
	return b.Helio.Norm()
}

// EclipticLonDeg returns the heliocentric ecliptic longitude in degrees.
func (b Body) EclipticLonDeg() float64 {
	return astro.EclipticLongitude(b.Helio)
}

// EclipticLatDeg returns the heliocentric ecliptic latitude in degrees.
func (b Body) EclipticLatDeg() float64 {
	return astro.EclipticLatitude(b.Helio)
}

// LightTimeSec returns the one-way light time from the Sun in seconds.
func (b Body) LightTimeSec() float64 {
	return astro.LightTimeFromAU(b.DistanceAU())
}
