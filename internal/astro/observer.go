package astro

import (
	"math"
)

// Observer represents a ground-based observer location.
type Observer struct {
	LatDeg float64 // Latitude in degrees (north positive)
	LonDeg float64 // Longitude in degrees (east positive)
	Name   string  // Optional name for the site
}

// Horizontal is a direction in an observer's local sky.
//   - Azimuth: 0° = North, 90° = East, 180° = South, 270° = West
//   - Elevation: 0° = horizon, 90° = zenith
type Horizontal struct {
	AzDeg float64
	ElDeg float64
}

// localFrame is an observer's position with zenith, north and east unit
// vectors, all in the scene frame.
type localFrame struct {
	pos, up, north, east Vec3
}

func observerFrame(obs Observer, earth BodyState) localFrame {
	pos := SurfacePoint(obs.LonDeg, obs.LatDeg, earth)
	up := pos.Sub(earth.Position).Normalized()
	east := EarthAxis(earth).Cross(up)
	if east.Norm() < 1e-9 {
		// At a pole "east" is taken along the observer's meridian + 90°.
		east = bodyToScene(geoUnit(obs.LonDeg+90, 0), earth)
	}
	east = east.Normalized()
	return localFrame{pos: pos, up: up, north: up.Cross(east), east: east}
}

func (f localFrame) horizontal(dir Vec3) Horizontal {
	dir = dir.Normalized()
	el := math.Asin(math.Max(-1, math.Min(1, dir.Dot(f.up))))
	az := math.Atan2(dir.Dot(f.east), dir.Dot(f.north))
	return Horizontal{AzDeg: normalizeAngle360(radToDeg(az)), ElDeg: radToDeg(el)}
}

// SunHorizontal returns the Sun's position in the observer's sky.
func SunHorizontal(obs Observer, s State) Horizontal {
	f := observerFrame(obs, s.Earth)
	// The Sun sits at the scene origin.
	return f.horizontal(f.pos.Scale(-1))
}

// MoonHorizontal returns the Moon's topocentric position in the observer's sky.
func MoonHorizontal(obs Observer, s State) Horizontal {
	f := observerFrame(obs, s.Earth)
	return f.horizontal(s.MoonAbsolute().Sub(f.pos))
}

// StarHorizontal returns a catalog star's position in the observer's sky.
// Stars are treated as infinitely distant.
func StarHorizontal(obs Observer, star Star, s State) Horizontal {
	f := observerFrame(obs, s.Earth)
	return f.horizontal(star.Direction())
}

// AngularSeparation calculates the angular separation between two points on
// a sphere given as (longitude-like, latitude-like) pairs in degrees, such as
// RA/Dec or Az/El. Returns separation in degrees.
func AngularSeparation(lon1, lat1, lon2, lat2 float64) float64 {
	lat1Rad := degToRad(lat1)
	lat2Rad := degToRad(lat2)
	dLon := degToRad(lon2 - lon1)
	dLat := lat2Rad - lat1Rad

	// Haversine formula
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)

	// Clamp to avoid numerical errors with asin
	if a > 1 {
		a = 1
	}

	return radToDeg(2 * math.Asin(math.Sqrt(a)))
}

// SunMoonSeparation returns the topocentric angle between the Sun and Moon
// centres for the observer, in degrees. Below about half a degree the
// observer sees an eclipse.
func SunMoonSeparation(obs Observer, s State) float64 {
	sun := SunHorizontal(obs, s)
	moon := MoonHorizontal(obs, s)
	return AngularSeparation(sun.AzDeg, sun.ElDeg, moon.AzDeg, moon.ElDeg)
}
