package astro

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestEarthOrbitalRadiusBounds(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	minR, maxR := math.Inf(1), math.Inf(-1)
	for h := 0; h < 366*24; h += 6 {
		st := EarthState(start.Add(time.Duration(h) * time.Hour))
		r := st.Position.Norm()
		minR, maxR = math.Min(minR, r), math.Max(maxR, r)
		if !scalar.EqualWithinAbs(r, st.OrbitalRadius, 1e-12) {
			t.Fatalf("|Position| = %f, OrbitalRadius = %f", r, st.OrbitalRadius)
		}
	}
	if minR < 0.983 || maxR > 1.017 {
		t.Errorf("Earth radius range = [%.5f, %.5f] AU, want within [0.983, 1.017]", minR, maxR)
	}
	// Perihelion early January, aphelion early July.
	if jan, jul := EarthState(start.AddDate(0, 0, 3)).OrbitalRadius, EarthState(start.AddDate(0, 6, 4)).OrbitalRadius; jan >= jul {
		t.Errorf("perihelion radius %.5f >= aphelion radius %.5f", jan, jul)
	}
}

func TestEarthStaysInEclipticPlane(t *testing.T) {
	st := EarthState(time.Date(2030, 8, 9, 10, 11, 12, 0, time.UTC))
	if st.Position.Y != 0 {
		t.Errorf("Earth scene Y = %g, want 0", st.Position.Y)
	}
}

func TestEarthTropicalYearPeriodicity(t *testing.T) {
	year := time.Duration(365.2422 * 24 * float64(time.Hour))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 3*365; day += 7 {
		t0 := start.AddDate(0, 0, day)
		a := EarthState(t0).Position
		b := EarthState(t0.Add(year)).Position
		if diff := b.Sub(a).Norm(); diff > 2e-5 {
			t.Fatalf("position after one tropical year from %s differs by %g AU", t0.Format("2006-01-02"), diff)
		}
	}
}

func TestEarthObliquity(t *testing.T) {
	st := EarthState(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	want := degToRad(23.4393 - 3.563e-7)
	if !scalar.EqualWithinAbs(st.Obliquity, want, 1e-12) {
		t.Errorf("Obliquity = %.9f, want %.9f", st.Obliquity, want)
	}
}

func TestEarthLongitudeMatchesPosition(t *testing.T) {
	st := EarthState(time.Date(2025, 5, 17, 6, 0, 0, 0, time.UTC))
	got := EclipticLongitude(st.Position)
	want := radToDeg(st.EclipticLon)
	if !scalar.EqualWithinAbs(got, want, 1e-9) {
		t.Errorf("EclipticLongitude(Position) = %.6f°, EclipticLon = %.6f°", got, want)
	}
}

func TestEarthSpinsOncePerDay(t *testing.T) {
	t0 := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	a := EarthState(t0).Rotation
	b := EarthState(t0.Add(24 * time.Hour)).Rotation
	// One sidereal turn plus the Sun's daily motion, less the 2π from the day wrap.
	turn := b - a + 2*math.Pi
	if turn < 2*math.Pi || turn > 2*math.Pi+degToRad(1.1) {
		t.Errorf("rotation over 24h = %.4f rad, want 2π + ~1°", turn)
	}
}
