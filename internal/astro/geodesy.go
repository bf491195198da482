package astro

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	axisX = r3.Vec{X: 1}
	axisY = r3.Vec{Y: 1}
)

// earthRadiusAU is Earth's mean radius in AU.
var earthRadiusAU = EarthRadiusKm / AU

// SurfacePoint returns the absolute scene position of the point on Earth's
// surface at the given longitude (east positive) and latitude, in degrees.
//
// The body-fixed vector is spun about the scene Y axis by the Earth's
// rotation and then tilted about X by the obliquity, the same order in
// which the Earth model is oriented.
func SurfacePoint(lonDeg, latDeg float64, earth BodyState) Vec3 {
	return earth.Position.Add(bodyToScene(geoUnit(lonDeg, latDeg), earth).Scale(earthRadiusAU))
}

// Geographic returns the longitude (east positive, (-180, 180]) and latitude
// in degrees of the surface point in direction dir from Earth's centre.
func Geographic(dir Vec3, earth BodyState) (lonDeg, latDeg float64) {
	u := sceneToBody(dir.Normalized(), earth)
	lat := math.Asin(math.Max(-1, math.Min(1, u.Y)))
	lon := math.Atan2(-u.Z, u.X)
	return normalizeAngle180(radToDeg(lon)), radToDeg(lat)
}

// EarthAxis returns Earth's north rotation axis in the scene frame.
func EarthAxis(earth BodyState) Vec3 {
	return bodyToScene(Vec3{Y: 1}, earth)
}

// SubSolarPoint returns where the Sun is at the zenith.
func SubSolarPoint(s State) (lonDeg, latDeg float64) {
	return Geographic(s.SunDirection(), s.Earth)
}

// SubLunarPoint returns where the Moon is at the zenith.
func SubLunarPoint(s State) (lonDeg, latDeg float64) {
	return Geographic(s.Moon.Position, s.Earth)
}

// Shadow describes where the Moon's shadow axis, the line from the Sun's
// centre through the Moon's centre, meets the Earth.
type Shadow struct {
	Hit    bool    // The axis intersects the Earth's sphere
	LonDeg float64 // Ground point, valid when Hit
	LatDeg float64
	// Gamma is the axis' closest approach to Earth's centre in Earth radii,
	// positive north of the ecliptic. It is +Inf when the Moon is not
	// between the Sun and the Earth.
	Gamma float64
}

// ShadowGroundPoint intersects the Moon's shadow axis with the Earth.
func ShadowGroundPoint(s State) Shadow {
	earth := s.Earth.Position
	moon := s.MoonAbsolute()
	dist := moon.Norm()
	axis := moon.Scale(1 / dist)

	// Along-axis distance of Earth's centre from the Sun.
	along := axis.Dot(earth)
	if along <= dist {
		return Shadow{Gamma: math.Inf(1)}
	}

	closest := axis.Scale(along).Sub(earth)
	gamma := closest.Norm() / earthRadiusAU
	if closest.Y < 0 {
		gamma = -gamma
	}

	disc := along*along - (earth.Dot(earth) - earthRadiusAU*earthRadiusAU)
	if disc < 0 {
		return Shadow{Gamma: gamma}
	}

	// Nearer of the two intersections: the sunward face.
	ground := axis.Scale(along - math.Sqrt(disc)).Sub(earth)
	lon, lat := Geographic(ground, s.Earth)
	return Shadow{Hit: true, LonDeg: lon, LatDeg: lat, Gamma: gamma}
}

func geoUnit(lonDeg, latDeg float64) Vec3 {
	lon, lat := degToRad(lonDeg), degToRad(latDeg)
	return Vec3{
		X: math.Cos(lat) * math.Cos(lon),
		Y: math.Sin(lat),
		Z: -math.Cos(lat) * math.Sin(lon),
	}
}

func bodyToScene(v Vec3, earth BodyState) Vec3 {
	p := r3.Rotate(v.r3(), earth.Rotation, axisY)
	return fromR3(r3.Rotate(p, -earth.Obliquity, axisX))
}

func sceneToBody(v Vec3, earth BodyState) Vec3 {
	p := r3.Rotate(v.r3(), earth.Obliquity, axisX)
	return fromR3(r3.Rotate(p, -earth.Rotation, axisY))
}
