package scene

import (
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/litescript/ls-orrery/internal/astro"
)

var testTime = time.Date(2024, 4, 8, 18, 17, 0, 0, time.UTC)

func TestComposeSunFocus(t *testing.T) {
	st := astro.Ephemeris(testTime)
	f := Compose(st, DefaultConfig())

	if sun := f.Body(Sun); sun == nil || sun.Pos != (astro.Vec3{}) {
		t.Fatalf("Sun = %+v, want at origin", sun)
	}
	earth := f.Body(Earth)
	if want := st.Earth.Position.Scale(DefaultScale); earth.Pos != want {
		t.Errorf("Earth.Pos = %+v, want %+v", earth.Pos, want)
	}
	moon := f.Body(Moon)
	if want := st.MoonAbsolute().Scale(DefaultScale); moon.Pos.Sub(want).Norm() > 1e-12 {
		t.Errorf("Moon.Pos = %+v, want %+v", moon.Pos, want)
	}
	if !scalar.EqualWithinAbs(earth.Radius, 6371/astro.AU*DefaultScale, 1e-15) {
		t.Errorf("Earth.Radius = %g", earth.Radius)
	}
	if earth.Tilt != st.Earth.Obliquity || moon.Rotation != st.Moon.Rotation {
		t.Error("orientation not carried into bodies")
	}
}

func TestComposeFocusRecentres(t *testing.T) {
	st := astro.Ephemeris(testTime)
	sunFrame := Compose(st, DefaultConfig())

	for _, focus := range BodyIDs {
		cfg := DefaultConfig()
		cfg.Focus = focus
		f := Compose(st, cfg)
		if p := f.Body(focus).Pos; p.Norm() != 0 {
			t.Errorf("focus %s at %+v, want origin", focus, p)
		}
		// Relative geometry is unchanged by the focus.
		a := f.Body(Moon).Pos.Sub(f.Body(Earth).Pos)
		b := sunFrame.Body(Moon).Pos.Sub(sunFrame.Body(Earth).Pos)
		if a.Sub(b).Norm() > 1e-12 {
			t.Errorf("focus %s changed Earth-Moon offset: %+v vs %+v", focus, a, b)
		}
	}
}

func TestOrbitRingsPassThroughBodies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Focus = Earth
	cfg.MoonExaggeration = 20
	f := Compose(astro.Ephemeris(testTime), cfg)

	if len(f.Orbits) != 2 {
		t.Fatalf("len(Orbits) = %d, want 2", len(f.Orbits))
	}
	for _, o := range f.Orbits {
		center := f.Body(o.Center).Pos
		through := f.Body(o.Around).Pos
		if o.CenterPos != center {
			t.Errorf("%s ring centre %+v, want %+v", o.Around, o.CenterPos, center)
		}
		if d := through.Sub(center).Norm(); !scalar.EqualWithinAbs(d, o.Radius, 1e-9) {
			t.Errorf("%s ring radius %f, body at %f", o.Around, o.Radius, d)
		}
		if !scalar.EqualWithinAbs(o.Normal.Norm(), 1, 1e-12) {
			t.Errorf("%s ring normal not unit: %+v", o.Around, o.Normal)
		}
	}
	// The Moon's ring is tilted ~5.1° from the ecliptic.
	tilt := math.Acos(f.Orbits[1].Normal.Y) * 180 / math.Pi
	if !scalar.EqualWithinAbs(tilt, 5.1454, 1e-6) {
		t.Errorf("Moon ring tilt = %.4f°, want 5.1454°", tilt)
	}
}

func TestMoonExaggeration(t *testing.T) {
	st := astro.Ephemeris(testTime)
	cfg := DefaultConfig()
	cfg.MoonExaggeration = 50
	f := Compose(st, cfg)

	offset := f.Body(Moon).Pos.Sub(f.Body(Earth).Pos)
	want := st.Moon.Position.Scale(50 * DefaultScale)
	if offset.Sub(want).Norm() > 1e-9 {
		t.Errorf("Earth-Moon offset = %+v, want %+v", offset, want)
	}
	// True distance is still reported.
	if d := f.Body(Moon).Helio.Sub(st.Earth.Position).Norm(); !scalar.EqualWithinAbs(d, st.Moon.Position.Norm(), 1e-15) {
		t.Errorf("Moon Helio distance from Earth = %g, want %g", d, st.Moon.Position.Norm())
	}
}

func TestComposeSanitizesConfig(t *testing.T) {
	f := Compose(astro.Ephemeris(testTime), Config{Scale: -3, Focus: "pluto", MoonExaggeration: math.NaN()})
	if f.Scale != DefaultScale || f.Focus != Sun {
		t.Errorf("Compose with bad config: scale %v focus %v", f.Scale, f.Focus)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"zero scale", Config{Scale: 0, Focus: Sun, MoonExaggeration: 1}, true},
		{"infinite scale", Config{Scale: math.Inf(1), Focus: Sun, MoonExaggeration: 1}, true},
		{"shrunk moon", Config{Scale: 1, Focus: Earth, MoonExaggeration: 0.5}, true},
		{"unknown focus", Config{Scale: 1, Focus: "mars", MoonExaggeration: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestBodyIDCycle(t *testing.T) {
	if Sun.Next() != Earth || Earth.Next() != Moon || Moon.Next() != Sun {
		t.Error("focus cycle is not sun -> earth -> moon -> sun")
	}
	if id, err := ParseBodyID(" Moon "); err != nil || id != Moon {
		t.Errorf("ParseBodyID(\" Moon \") = %q, %v", id, err)
	}
	if _, err := ParseBodyID("phobos"); err == nil {
		t.Error("ParseBodyID(phobos) succeeded")
	}
}

func TestComposePhase(t *testing.T) {
	f := Compose(astro.Ephemeris(time.Date(2024, 4, 23, 23, 49, 0, 0, time.UTC)), DefaultConfig())
	if f.PhaseName != "Full Moon" {
		t.Errorf("PhaseName = %q, want Full Moon", f.PhaseName)
	}
	if f.Illumination < 0.98 {
		t.Errorf("Illumination = %.3f, want > 0.98", f.Illumination)
	}
}
