package scene

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/simclock"
)

// DefaultScale is the number of scene units per AU.
const DefaultScale = 1000

// Config controls how a frame is placed.
type Config struct {
	Scale            float64 // Scene units per AU
	Focus            BodyID  // Body placed at the scene origin
	MoonExaggeration float64 // Multiplier on the Earth-Moon distance
}

// DefaultConfig centres the Sun at true scale.
func DefaultConfig() Config {
	return Config{
		Scale:            DefaultScale,
		Focus:            Sun,
		MoonExaggeration: 1,
	}
}

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid scene config")

// Validate checks the config's ranges.
func (c Config) Validate() error {
	if !(c.Scale > 0) || math.IsInf(c.Scale, 0) {
		return fmt.Errorf("%w: scale %v must be positive", ErrInvalidConfig, c.Scale)
	}
	if !(c.MoonExaggeration >= 1) || math.IsInf(c.MoonExaggeration, 0) {
		return fmt.Errorf("%w: moon exaggeration %v must be at least 1", ErrInvalidConfig, c.MoonExaggeration)
	}
	if _, err := ParseBodyID(string(c.Focus)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// OrbitRing is a circle centred on one body passing through another,
// the way orbits are drawn in the scene.
type OrbitRing struct {
	Center    BodyID
	Around    BodyID     // The body the ring passes through
	CenterPos astro.Vec3 // Scene units, focus-relative
	Radius    float64    // Scene units
	Normal    astro.Vec3 // Unit normal of the ring's plane
}

// GeoPoint is a longitude/latitude pair in degrees.
type GeoPoint struct {
	LonDeg float64 `json:"lon_deg"`
	LatDeg float64 `json:"lat_deg"`
}

// Frame is one composed, immutable picture of the Earth-Moon system.
type Frame struct {
	At           time.Time
	DayCount     float64
	Focus        BodyID
	Scale        float64
	Bodies       []Body
	Orbits       []OrbitRing
	LunarPhase   float64 // Mean phase, 0 new, 0.5 full
	PhaseName    string
	Illumination float64 // Illuminated fraction of the Moon from the model
	SunCycle     float64
	SubSolar     GeoPoint
	SubLunar     GeoPoint
	Shadow       astro.Shadow
	Ephemeris    astro.State
}

// Compose places the bodies of st according to cfg. An invalid cfg is
// replaced field by field with defaults.
func Compose(st astro.State, cfg Config) Frame {
	cfg = sanitize(cfg)
	scale := cfg.Scale

	earthHelio := st.Earth.Position
	moonGeo := st.Moon.Position.Scale(cfg.MoonExaggeration)
	moonHelio := earthHelio.Add(moonGeo)

	bodies := []Body{
		{
			ID:     Sun,
			Kind:   KindStar,
			Radius: astro.KmToAU(astro.SunRadiusKm) * scale,
		},
		{
			ID:       Earth,
			Kind:     KindPlanet,
			Pos:      earthHelio.Scale(scale),
			Rotation: st.Earth.Rotation,
			Tilt:     st.Earth.Obliquity,
			Radius:   astro.KmToAU(astro.EarthRadiusKm) * scale,
			Helio:    earthHelio,
		},
		{
			ID:       Moon,
			Kind:     KindSatellite,
			Pos:      moonHelio.Scale(scale),
			Rotation: st.Moon.Rotation,
			Radius:   astro.KmToAU(astro.MoonRadiusKm) * scale,
			Helio:    st.MoonAbsolute(),
		},
	}

	origin := bodyPos(bodies, cfg.Focus)
	for i := range bodies {
		bodies[i].Pos = bodies[i].Pos.Sub(origin)
	}

	orbits := []OrbitRing{
		ring(bodies, Sun, Earth, astro.Vec3{Y: 1}),
		ring(bodies, Earth, Moon, astro.MoonElements(st.DayCount).Normal()),
	}

	subSolar, subLunar := GeoPoint{}, GeoPoint{}
	subSolar.LonDeg, subSolar.LatDeg = astro.SubSolarPoint(st)
	subLunar.LonDeg, subLunar.LatDeg = astro.SubLunarPoint(st)
	phase := simclock.LunarMonthFraction(st.At)

	return Frame{
		At:           st.At,
		DayCount:     st.DayCount,
		Focus:        cfg.Focus,
		Scale:        scale,
		Bodies:       bodies,
		Orbits:       orbits,
		LunarPhase:   phase,
		PhaseName:    simclock.PhaseName(phase),
		Illumination: st.Illumination(),
		SunCycle:     simclock.SunCycle(st.At),
		SubSolar:     subSolar,
		SubLunar:     subLunar,
		Shadow:       astro.ShadowGroundPoint(st),
		Ephemeris:    st,
	}
}

// Body returns the body with the given id, or nil if absent.
func (f Frame) Body(id BodyID) *Body {
	for i := range f.Bodies {
		if f.Bodies[i].ID == id {
			return &f.Bodies[i]
		}
	}
	return nil
}

func bodyPos(bodies []Body, id BodyID) astro.Vec3 {
	for _, b := range bodies {
		if b.ID == id {
			return b.Pos
		}
	}
	return astro.Vec3{}
}

func ring(bodies []Body, center, around BodyID, normal astro.Vec3) OrbitRing {
	c := bodyPos(bodies, center)
	return OrbitRing{
		Center:    center,
		Around:    around,
		CenterPos: c,
		Radius:    bodyPos(bodies, around).Sub(c).Norm(),
		Normal:    normal,
	}
}

func sanitize(cfg Config) Config {
	def := DefaultConfig()
	if !(cfg.Scale > 0) || math.IsInf(cfg.Scale, 0) {
		cfg.Scale = def.Scale
	}
	if !(cfg.MoonExaggeration >= 1) || math.IsInf(cfg.MoonExaggeration, 0) {
		cfg.MoonExaggeration = def.MoonExaggeration
	}
	if _, err := ParseBodyID(string(cfg.Focus)); err != nil {
		cfg.Focus = def.Focus
	}
	return cfg
}
