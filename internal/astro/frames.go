// Package astro computes low-precision positions and orientations of the Earth
// and Moon for an arbitrary instant, plus the geometry built on top of them.
//
// Two reference frames appear throughout. The ecliptic frame has X toward the
// vernal equinox, Y 90° east along the ecliptic and Z toward the north
// ecliptic pole. The scene frame is the renderer-facing frame: Y is "up"
// (ecliptic north) and the ecliptic plane is X/Z, so an ecliptic vector
// (x, y, z) becomes (x, z, -y). Every BodyState position is in the scene frame.
package astro

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"
)

// Physical constants in kilometers.
const (
	AU            = 149597870.7
	EarthRadiusKm = 6371.0
	SunRadiusKm   = 695700.0
	MoonRadiusKm  = 1737.1
)

// Vec3 represents a 3D vector in any reference frame.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the magnitude of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized returns a unit vector in the same direction.
func (v Vec3) Normalized() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return v.Scale(1 / n)
}

// Scale returns the vector scaled by a factor.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Add returns the sum of two vectors.
func (v Vec3) Add(u Vec3) Vec3 {
	return Vec3{X: v.X + u.X, Y: v.Y + u.Y, Z: v.Z + u.Z}
}

// Sub returns the difference of two vectors.
func (v Vec3) Sub(u Vec3) Vec3 {
	return Vec3{X: v.X - u.X, Y: v.Y - u.Y, Z: v.Z - u.Z}
}

// Dot returns the scalar product.
func (v Vec3) Dot(u Vec3) float64 {
	return v.X*u.X + v.Y*u.Y + v.Z*u.Z
}

// Cross returns the vector product v × u.
func (v Vec3) Cross(u Vec3) Vec3 {
	return fromR3(r3.Cross(v.r3(), u.r3()))
}

func (v Vec3) r3() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

func fromR3(p r3.Vec) Vec3 { return Vec3{X: p.X, Y: p.Y, Z: p.Z} }

// EclipticToScene maps an ecliptic-frame vector into the scene frame.
func EclipticToScene(v Vec3) Vec3 {
	return Vec3{X: v.X, Y: v.Z, Z: -v.Y}
}

// SceneToEcliptic is the inverse of EclipticToScene.
func SceneToEcliptic(v Vec3) Vec3 {
	return Vec3{X: v.X, Y: -v.Z, Z: v.Y}
}

// EclipticLatitude returns the ecliptic latitude in degrees of a scene vector.
func EclipticLatitude(v Vec3) float64 {
	r := v.Norm()
	if r == 0 {
		return 0
	}
	return radToDeg(math.Asin(v.Y / r))
}

// EclipticLongitude returns the ecliptic longitude in degrees [0, 360) of a scene vector.
func EclipticLongitude(v Vec3) float64 {
	return normalizeAngle360(radToDeg(math.Atan2(-v.Z, v.X)))
}

// ProjectedPoint represents a 2D projected position with metadata.
type ProjectedPoint struct {
	X     float64 // Screen X coordinate (normalized, -1 to 1 at Extent)
	Y     float64 // Screen Y coordinate (normalized, up positive)
	R     float64 // Original 3D distance
	Depth float64 // Distance along the viewing axis, toward the viewer positive
}

// ScaleMode defines how radial distances are mapped to screen space.
type ScaleMode int

const (
	// ScaleLinear maps distance linearly; Extent lands on the screen edge.
	ScaleLinear ScaleMode = iota

	// ScaleLog compresses distance logarithmically so a nearby moon and a
	// distant sun fit on the same screen: log10(1 + r/Extent*9).
	ScaleLog
)

func (m ScaleMode) String() string {
	switch m {
	case ScaleLinear:
		return "linear"
	case ScaleLog:
		return "log"
	default:
		return "unknown"
	}
}

// ProjectionConfig configures the projections.
type ProjectionConfig struct {
	Extent float64   // Distance mapped to the screen edge, in input units
	Mode   ScaleMode // Scaling mode
}

// DefaultProjectionConfig frames Earth's orbit with linear scaling.
func DefaultProjectionConfig() ProjectionConfig {
	return ProjectionConfig{
		Extent: 1.2,
		Mode:   ScaleLinear,
	}
}

// ProjectTopDown projects a scene vector looking down from ecliptic north.
// Screen X is scene X (toward the vernal equinox), screen Y is ecliptic +Y,
// which is scene -Z.
func ProjectTopDown(v Vec3, cfg ProjectionConfig) ProjectedPoint {
	return project(v.X, -v.Z, v.Y, v.Norm(), cfg)
}

// ProjectEdgeOn projects a scene vector looking along the ecliptic plane from
// ecliptic -Y, so the ecliptic is a horizontal line and north is up.
func ProjectEdgeOn(v Vec3, cfg ProjectionConfig) ProjectedPoint {
	return project(v.X, v.Y, v.Z, v.Norm(), cfg)
}

func project(sx, sy, depth, r float64, cfg ProjectionConfig) ProjectedPoint {
	planar := math.Hypot(sx, sy)
	if planar == 0 || cfg.Extent <= 0 {
		return ProjectedPoint{R: r, Depth: depth}
	}
	scaled := scaleRadius(planar, cfg)
	return ProjectedPoint{
		X:     sx / planar * scaled,
		Y:     sy / planar * scaled,
		R:     r,
		Depth: depth,
	}
}

// scaleRadius maps a planar distance to a normalized screen radius.
func scaleRadius(r float64, cfg ProjectionConfig) float64 {
	switch cfg.Mode {
	case ScaleLog:
		return math.Log10(1 + r/cfg.Extent*9)
	default:
		return r / cfg.Extent
	}
}

// KmToAU converts kilometers to Astronomical Units.
func KmToAU(km float64) float64 {
	return km / AU
}

// AUToKm converts Astronomical Units to kilometers.
func AUToKm(au float64) float64 {
	return au * AU
}

// LightTimeFromAU returns the one-way light time in seconds for a distance in AU.
func LightTimeFromAU(au float64) float64 {
	// Light travels 1 AU in ~499.005 seconds
	return au * 499.005
}

// FormatLightTime formats light time in seconds as 1.3s, 8m19s or 1h02m.
func FormatLightTime(seconds float64) string {
	switch {
	case seconds < 60:
		return strconv.FormatFloat(seconds, 'f', 1, 64) + "s"
	case seconds < 3600:
		return fmt.Sprintf("%dm%02ds", int(seconds/60), int(seconds)%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(seconds/3600), (int(seconds)%3600)/60)
	}
}

// normalizeAngle360 normalizes an angle to 0-360 degrees.
func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// normalizeAngle180 normalizes an angle to (-180, 180] degrees.
func normalizeAngle180(a float64) float64 {
	a = normalizeAngle360(a)
	if a > 180 {
		a -= 360
	}
	return a
}

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// radToDeg converts radians to degrees.
func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
