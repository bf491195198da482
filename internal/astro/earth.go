package astro

import (
	"math"
	"time"
)

// OrbitalElements are mean Keplerian elements at a given day count.
// Angles are in degrees, distances in AU.
type OrbitalElements struct {
	Node          float64 // Longitude of the ascending node N
	Inclination   float64 // i
	Periapsis     float64 // Argument of periapsis w
	SemiMajorAxis float64 // a
	Eccentricity  float64 // e
	MeanAnomaly   float64 // M
}

// BodyState is the position and orientation of a body at one instant.
// Position is in AU in the scene frame. Earth's is heliocentric; the Moon's
// is geocentric.
type BodyState struct {
	Position      Vec3
	Rotation      float64 // Spin angle about the body's polar axis, radians
	Obliquity     float64 // Axial tilt, radians (zero for the Moon)
	OrbitalRadius float64 // Unperturbed distance from the orbit's focus, AU
	EclipticLon   float64 // Ecliptic longitude in the body's own frame, radians
	EclipticLat   float64 // Ecliptic latitude in the body's own frame, radians
}

// EarthElements returns the Sun's geocentric mean elements for day count d.
// The Sun's orbit around the Earth mirrors the Earth's around the Sun, so the
// same elements place both.
func EarthElements(d float64) OrbitalElements {
	return OrbitalElements{
		Node:          0,
		Inclination:   0,
		Periapsis:     math.Mod(282.9404+4.70935e-5*d, 360),
		SemiMajorAxis: 1,
		Eccentricity:  0.016709 - 1.151e-9*d,
		MeanAnomaly:   math.Mod(356.0470+0.9856002585*d, 360),
	}
}

// EarthState returns Earth's heliocentric state at t.
func EarthState(t time.Time) BodyState {
	return earthState(DayCount(t), DayFraction(t))
}

func earthState(d, dayFrac float64) BodyState {
	el := EarthElements(d)
	e := el.Eccentricity
	m := degToRad(el.MeanAnomaly)

	// First-order closed form; the Sun's eccentricity is small enough that
	// no iteration is needed.
	eccDeg := el.MeanAnomaly + e*(180/math.Pi)*math.Sin(m)*(1+e*math.Cos(m))
	ecc := degToRad(eccDeg)

	xv := math.Cos(ecc) - e
	yv := math.Sqrt(1-e*e) * math.Sin(ecc)
	v := radToDeg(math.Atan2(yv, xv))
	r := math.Hypot(xv, yv)

	// v+w is the Sun's true geocentric longitude.
	sunLon := v + el.Periapsis
	xh := r * math.Cos(degToRad(sunLon))
	yh := r * math.Sin(degToRad(sunLon))

	return BodyState{
		// Earth sits opposite the Sun: ecliptic (-xh, -yh, 0).
		Position:      EclipticToScene(Vec3{X: -xh, Y: -yh}),
		Rotation:      (dayFrac + sunLon/360 - 0.5) * 2 * math.Pi,
		Obliquity:     degToRad(23.4393 - 3.563e-7*d),
		OrbitalRadius: r,
		EclipticLon:   degToRad(normalizeAngle360(sunLon + 180)),
		EclipticLat:   0,
	}
}

// Normal returns the unit normal of the orbital plane in the scene frame,
// on the side from which the orbit runs counterclockwise.
func (el OrbitalElements) Normal() Vec3 {
	n, i := degToRad(el.Node), degToRad(el.Inclination)
	return EclipticToScene(Vec3{
		X: math.Sin(i) * math.Sin(n),
		Y: -math.Sin(i) * math.Cos(n),
		Z: math.Cos(i),
	})
}
