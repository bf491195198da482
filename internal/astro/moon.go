package astro

import (
	"math"
	"time"
)

// MoonElements returns the Moon's geocentric mean elements for day count d.
func MoonElements(d float64) OrbitalElements {
	return OrbitalElements{
		Node:          math.Mod(125.1228-0.0529538083*d, 360),
		Inclination:   5.1454,
		Periapsis:     math.Mod(318.0634+0.1643573223*d, 360),
		SemiMajorAxis: 0.002569562, // 60.2666 Earth radii
		Eccentricity:  0.0549,
		MeanAnomaly:   math.Mod(115.3654+13.0649929509*d, 360),
	}
}

// MoonState returns the Moon's geocentric state at t.
func MoonState(t time.Time) BodyState {
	st, _ := moonState(DayCount(t))
	return st
}

// moonState also reports the Kepler solver's step count.
func moonState(d float64) (BodyState, int) {
	el := MoonElements(d)
	a, e := el.SemiMajorAxis, el.Eccentricity
	node := degToRad(el.Node)
	incl := degToRad(el.Inclination)
	mm := degToRad(el.MeanAnomaly)

	ecc, steps := SolveKeplerIter(mm, e)

	xv := a * (math.Cos(ecc) - e)
	yv := a * math.Sqrt(1-e*e) * math.Sin(ecc)
	v := math.Atan2(yv, xv)
	r := math.Hypot(xv, yv)

	// Orbital plane -> ecliptic.
	vw := v + degToRad(el.Periapsis)
	xh := r * (math.Cos(node)*math.Cos(vw) - math.Sin(node)*math.Sin(vw)*math.Cos(incl))
	yh := r * (math.Sin(node)*math.Cos(vw) + math.Cos(node)*math.Sin(vw)*math.Cos(incl))
	zh := r * math.Sin(vw) * math.Sin(incl)

	lon := radToDeg(math.Atan2(yh, xh))
	lat := radToDeg(math.Atan2(zh, math.Hypot(xh, yh)))
	rad := math.Sqrt(xh*xh + yh*yh + zh*zh)

	dLon, dLat, dRad := moonPerturbations(d, el, mm)
	lon += dLon
	lat += dLat
	rad += dRad

	lonR, latR := degToRad(lon), degToRad(lat)
	ecl := Vec3{
		X: rad * math.Cos(lonR) * math.Cos(latR),
		Y: rad * math.Sin(lonR) * math.Cos(latR),
		Z: rad * math.Sin(latR),
	}

	return BodyState{
		Position: EclipticToScene(ecl),
		// Tidally locked: the same face always points at the Earth.
		Rotation:      lonR + math.Pi,
		OrbitalRadius: r,
		EclipticLon:   lonR,
		EclipticLat:   latR,
	}, steps
}

// moonPerturbations returns the largest periodic corrections to the Moon's
// longitude and latitude (degrees) and distance (AU).
//
// The Moon's mean anomaly enters the arguments as the solver's radian value
// while every other angle is in degrees. Changing that shifts the computed
// track by up to ~3° in longitude.
func moonPerturbations(d float64, el OrbitalElements, mm float64) (dLon, dLat, dRad float64) {
	sun := EarthElements(d)
	ms := sun.MeanAnomaly
	ls := sun.Periapsis + ms          // Sun's mean longitude
	lm := el.Node + el.Periapsis + mm // Moon's mean longitude
	dd := lm - ls                     // Mean elongation
	f := lm - el.Node                 // Argument of latitude

	sin := func(deg float64) float64 { return math.Sin(degToRad(deg)) }
	cos := func(deg float64) float64 { return math.Cos(degToRad(deg)) }

	dLon = -1.274*sin(mm-2*dd) + // Evection
		0.658*sin(2*dd) - // Variation
		0.186*sin(ms) - // Yearly equation
		0.059*sin(2*mm-2*dd) -
		0.057*sin(mm-2*dd+ms) +
		0.053*sin(mm+2*dd) +
		0.046*sin(2*dd-ms) +
		0.041*sin(mm-ms) -
		0.035*sin(dd) - // Parallactic equation
		0.031*sin(mm+ms) -
		0.015*sin(2*f-2*dd) +
		0.011*sin(mm-4*dd)

	dLat = -0.173*sin(f-2*dd) -
		0.055*sin(mm-f-2*dd) -
		0.046*sin(mm+f-2*dd) +
		0.033*sin(f+2*dd) +
		0.017*sin(2*mm+f)

	dRad = (-0.58*cos(mm-2*dd) - 0.46*cos(2*dd)) * EarthRadiusKm / AU

	return dLon, dLat, dRad
}
