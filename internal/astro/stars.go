package astro

import "math"

// j2000Obliquity is the mean obliquity of the ecliptic at J2000, radians.
const j2000Obliquity = 23.439291 * math.Pi / 180

// Star is a catalog star used as a fixed background for the sky and orrery views.
type Star struct {
	Name   string
	RAdeg  float64 // J2000
	DecDeg float64 // J2000
	Mag    float64 // Apparent visual magnitude (lower = brighter)
}

// Direction returns the star's unit direction in the scene frame.
func (s Star) Direction() Vec3 {
	ra, dec := degToRad(s.RAdeg), degToRad(s.DecDeg)
	eq := Vec3{
		X: math.Cos(dec) * math.Cos(ra),
		Y: math.Cos(dec) * math.Sin(ra),
		Z: math.Sin(dec),
	}
	return EclipticToScene(equatorialToEcliptic(eq))
}

// equatorialToEcliptic rotates equatorial XYZ about X by the obliquity.
func equatorialToEcliptic(eq Vec3) Vec3 {
	cosE, sinE := math.Cos(j2000Obliquity), math.Sin(j2000Obliquity)
	return Vec3{
		X: eq.X,
		Y: eq.Y*cosE + eq.Z*sinE,
		Z: -eq.Y*sinE + eq.Z*cosE,
	}
}

// BrightStars returns the catalog sorted by magnitude, brightest first.
// Coordinates are from the Yale Bright Star Catalog.
func BrightStars() []Star {
	out := make([]Star, len(brightStars))
	copy(out, brightStars)
	return out
}

var brightStars = []Star{
	{Name: "Sirius", RAdeg: 101.287, DecDeg: -16.716, Mag: -1.46},
	{Name: "Canopus", RAdeg: 95.988, DecDeg: -52.696, Mag: -0.74},
	{Name: "Arcturus", RAdeg: 213.915, DecDeg: 19.182, Mag: -0.05},
	{Name: "Vega", RAdeg: 279.235, DecDeg: 38.784, Mag: 0.03},
	{Name: "Capella", RAdeg: 79.172, DecDeg: 45.998, Mag: 0.08},
	{Name: "Rigel", RAdeg: 78.634, DecDeg: -8.202, Mag: 0.13},
	{Name: "Procyon", RAdeg: 114.826, DecDeg: 5.225, Mag: 0.34},
	{Name: "Achernar", RAdeg: 24.429, DecDeg: -57.237, Mag: 0.46},
	{Name: "Betelgeuse", RAdeg: 88.793, DecDeg: 7.407, Mag: 0.50},
	{Name: "Hadar", RAdeg: 210.956, DecDeg: -60.373, Mag: 0.61},
	{Name: "Altair", RAdeg: 297.696, DecDeg: 8.868, Mag: 0.76},
	{Name: "Acrux", RAdeg: 186.650, DecDeg: -63.099, Mag: 0.76},
	{Name: "Aldebaran", RAdeg: 68.980, DecDeg: 16.509, Mag: 0.85},
	{Name: "Antares", RAdeg: 247.352, DecDeg: -26.432, Mag: 0.96},
	{Name: "Spica", RAdeg: 201.298, DecDeg: -11.161, Mag: 0.97},
	{Name: "Pollux", RAdeg: 116.329, DecDeg: 28.026, Mag: 1.14},
	{Name: "Fomalhaut", RAdeg: 344.413, DecDeg: -29.622, Mag: 1.16},
	{Name: "Deneb", RAdeg: 310.358, DecDeg: 45.280, Mag: 1.25},
	{Name: "Mimosa", RAdeg: 191.930, DecDeg: -59.689, Mag: 1.25},
	{Name: "Regulus", RAdeg: 152.093, DecDeg: 11.967, Mag: 1.35},
	{Name: "Adhara", RAdeg: 104.656, DecDeg: -28.972, Mag: 1.50},
	{Name: "Castor", RAdeg: 113.650, DecDeg: 31.889, Mag: 1.58},
	{Name: "Gacrux", RAdeg: 187.791, DecDeg: -57.113, Mag: 1.63},
	{Name: "Shaula", RAdeg: 263.402, DecDeg: -37.104, Mag: 1.63},
	{Name: "Bellatrix", RAdeg: 81.283, DecDeg: 6.350, Mag: 1.64},
	{Name: "Elnath", RAdeg: 81.573, DecDeg: 28.608, Mag: 1.65},
	{Name: "Miaplacidus", RAdeg: 138.300, DecDeg: -69.717, Mag: 1.68},
	{Name: "Alnilam", RAdeg: 84.053, DecDeg: -1.202, Mag: 1.69},
	{Name: "Alnair", RAdeg: 332.058, DecDeg: -46.961, Mag: 1.74},
	{Name: "Alnitak", RAdeg: 85.190, DecDeg: -1.943, Mag: 1.77},
	{Name: "Polaris", RAdeg: 37.954, DecDeg: 89.264, Mag: 1.98},
}
