package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
)

// FrameExport is the JSON-serializable representation of a frame.
type FrameExport struct {
	Timestamp time.Time      `json:"timestamp"`
	DayCount  float64        `json:"day_count"`
	Focus     string         `json:"focus"`
	Scale     float64        `json:"scale"`
	Bodies    []BodyExport   `json:"bodies"`
	Orbits    []OrbitExport  `json:"orbits"`
	Phase     PhaseExport    `json:"phase"`
	SubSolar  GeoPoint       `json:"sub_solar"`
	SubLunar  GeoPoint       `json:"sub_lunar"`
	Shadow    *ShadowExport  `json:"shadow,omitempty"`
	Ephemeris EphemerisState `json:"ephemeris"`
}

// Vec3Export is a JSON-friendly vector.
type Vec3Export struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func vec(v astro.Vec3) Vec3Export { return Vec3Export{X: v.X, Y: v.Y, Z: v.Z} }

// BodyExport is a JSON-friendly placed body.
type BodyExport struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	Position    Vec3Export `json:"position"`
	Rotation    float64    `json:"rotation"`
	Tilt        float64    `json:"tilt"`
	Radius      float64    `json:"radius"`
	DistanceAU  float64    `json:"distance_au"`
	EclipticLon float64    `json:"ecliptic_lon_deg"`
	EclipticLat float64    `json:"ecliptic_lat_deg"`
}

// OrbitExport is a JSON-friendly orbit ring.
type OrbitExport struct {
	Center   string     `json:"center"`
	Around   string     `json:"around"`
	Position Vec3Export `json:"position"`
	Radius   float64    `json:"radius"`
	Normal   Vec3Export `json:"normal"`
}

// PhaseExport carries the lunar phase and the solar animation phase.
type PhaseExport struct {
	Fraction     float64 `json:"fraction"`
	Name         string  `json:"name"`
	Illumination float64 `json:"illumination"`
	SunCycle     float64 `json:"sun_cycle"`
}

// ShadowExport is present while the Moon is between the Sun and the Earth.
type ShadowExport struct {
	Hit    bool      `json:"hit"`
	Gamma  float64   `json:"gamma"`
	Ground *GeoPoint `json:"ground,omitempty"`
}

// EphemerisState is the raw engine output in AU and radians.
type EphemerisState struct {
	Earth BodyStateExport `json:"earth"`
	Moon  BodyStateExport `json:"moon"`
}

// BodyStateExport mirrors astro.BodyState.
type BodyStateExport struct {
	Position      Vec3Export `json:"position"`
	Rotation      float64    `json:"rotation"`
	Obliquity     float64    `json:"obliquity"`
	OrbitalRadius float64    `json:"orbital_radius"`
	EclipticLon   float64    `json:"ecliptic_lon"`
	EclipticLat   float64    `json:"ecliptic_lat"`
}

// ExportBodyState converts an engine body state.
func ExportBodyState(b astro.BodyState) BodyStateExport {
	return BodyStateExport{
		Position:      vec(b.Position),
		Rotation:      b.Rotation,
		Obliquity:     b.Obliquity,
		OrbitalRadius: b.OrbitalRadius,
		EclipticLon:   b.EclipticLon,
		EclipticLat:   b.EclipticLat,
	}
}

// ExportShadow converts a shadow; nil when the Moon is not sunward of the Earth.
func ExportShadow(sh astro.Shadow) *ShadowExport {
	if math.IsInf(sh.Gamma, 0) {
		return nil
	}
	out := &ShadowExport{Hit: sh.Hit, Gamma: sh.Gamma}
	if sh.Hit {
		out.Ground = &GeoPoint{LonDeg: sh.LonDeg, LatDeg: sh.LatDeg}
	}
	return out
}

// ExportFrame converts a frame to an exportable format.
func ExportFrame(f Frame) *FrameExport {
	export := &FrameExport{
		Timestamp: f.At,
		DayCount:  f.DayCount,
		Focus:     string(f.Focus),
		Scale:     f.Scale,
		Phase: PhaseExport{
			Fraction:     f.LunarPhase,
			Name:         f.PhaseName,
			Illumination: f.Illumination,
			SunCycle:     f.SunCycle,
		},
		SubSolar: f.SubSolar,
		SubLunar: f.SubLunar,
		Shadow:   ExportShadow(f.Shadow),
		Ephemeris: EphemerisState{
			Earth: ExportBodyState(f.Ephemeris.Earth),
			Moon:  ExportBodyState(f.Ephemeris.Moon),
		},
	}

	for _, b := range f.Bodies {
		export.Bodies = append(export.Bodies, BodyExport{
			ID:          string(b.ID),
			Name:        b.ID.Title(),
			Kind:        b.Kind.String(),
			Position:    vec(b.Pos),
			Rotation:    b.Rotation,
			Tilt:        b.Tilt,
			Radius:      b.Radius,
			DistanceAU:  b.DistanceAU(),
			EclipticLon: b.EclipticLonDeg(),
			EclipticLat: b.EclipticLatDeg(),
		})
	}
	for _, o := range f.Orbits {
		export.Orbits = append(export.Orbits, OrbitExport{
			Center:   string(o.Center),
			Around:   string(o.Around),
			Position: vec(o.CenterPos),
			Radius:   o.Radius,
			Normal:   vec(o.Normal),
		})
	}
	return export
}

// WriteJSON writes the frame as JSON to the given writer.
func (e *FrameExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// WriteSummaryTable writes a text table of one frame.
func WriteSummaryTable(w io.Writer, f Frame) {
	fmt.Fprintf(w, "Orrery @ %s (day %.4f)\n", f.At.Format(time.RFC3339), f.DayCount)
	fmt.Fprintln(w, strings.Repeat("─", 72))

	fmt.Fprintf(w, "%-6s %-10s %10s %9s %14s %10s\n",
		"Body", "Kind", "Lon", "Lat", "Distance", "Light")
	fmt.Fprintln(w, strings.Repeat("─", 72))

	earth := f.Ephemeris.Earth
	moon := f.Ephemeris.Moon
	fmt.Fprintf(w, "%-6s %-10s %9.3f° %8.3f° %11.6f AU %10s\n",
		"Sun", "geocentric",
		normalize360(radToDeg(earth.EclipticLon)+180), 0.0,
		earth.Position.Norm(),
		astro.FormatLightTime(astro.LightTimeFromAU(earth.Position.Norm())))
	fmt.Fprintf(w, "%-6s %-10s %9.3f° %8.3f° %11.0f km %10s\n",
		"Moon", "geocentric",
		normalize360(radToDeg(moon.EclipticLon)), radToDeg(moon.EclipticLat),
		astro.AUToKm(moon.Position.Norm()),
		astro.FormatLightTime(astro.LightTimeFromAU(moon.Position.Norm())))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Phase:      %s (%.1f%% lit, cycle %.3f)\n", f.PhaseName, f.Illumination*100, f.LunarPhase)
	fmt.Fprintf(w, "Sub-solar:  %s\n", formatGeo(f.SubSolar))
	fmt.Fprintf(w, "Sub-lunar:  %s\n", formatGeo(f.SubLunar))
	fmt.Fprintf(w, "Earth spin: %.2f°  tilt %.4f°\n", normalize360(radToDeg(earth.Rotation)), radToDeg(earth.Obliquity))

	switch sh := f.Shadow; {
	case sh.Hit:
		fmt.Fprintf(w, "Shadow:     on Earth at %s (gamma %+.3f)\n", formatGeo(GeoPoint{sh.LonDeg, sh.LatDeg}), sh.Gamma)
	case !math.IsInf(sh.Gamma, 0):
		fmt.Fprintf(w, "Shadow:     misses Earth (gamma %+.3f)\n", sh.Gamma)
	}
}

// WriteSweepTable writes one row per frame for a time sweep.
func WriteSweepTable(w io.Writer, frames []Frame) {
	fmt.Fprintf(w, "%-20s %10s %9s %10s %8s %10s %-16s\n",
		"Time (UTC)", "Sun lon", "R (AU)", "Moon lon", "Lat", "Dist (km)", "Phase")
	fmt.Fprintln(w, strings.Repeat("─", 90))
	for _, f := range frames {
		earth, moon := f.Ephemeris.Earth, f.Ephemeris.Moon
		fmt.Fprintf(w, "%-20s %9.3f° %9.6f %9.3f° %7.3f° %10.0f %-16s\n",
			f.At.Format("2006-01-02 15:04:05"),
			normalize360(radToDeg(earth.EclipticLon)+180),
			earth.OrbitalRadius,
			normalize360(radToDeg(moon.EclipticLon)),
			radToDeg(moon.EclipticLat),
			astro.AUToKm(moon.Position.Norm()),
			f.PhaseName)
	}
	fmt.Fprintf(w, "\nTotal: %d samples\n", len(frames))
}

func formatGeo(p GeoPoint) string {
	ns, ew := "N", "E"
	if p.LatDeg < 0 {
		ns = "S"
	}
	if p.LonDeg < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.2f°%s %.2f°%s", math.Abs(p.LatDeg), ns, math.Abs(p.LonDeg), ew)
}

func radToDeg(r float64) float64 { return r * 180 / math.Pi }

func normalize360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
