package astro

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

const synodicMonth = 29.530588853 * 24 * float64(time.Hour)

func TestMoonDistanceBounds(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	minR, maxR := math.Inf(1), math.Inf(-1)
	for h := 0; h < 30*24; h++ {
		r := MoonState(start.Add(time.Duration(h) * time.Hour)).Position.Norm()
		minR, maxR = math.Min(minR, r), math.Max(maxR, r)
	}
	if minR < 0.0024 || maxR > 0.00275 {
		t.Errorf("Moon distance range = [%.6f, %.6f] AU, want within [0.0024, 0.00275]", minR, maxR)
	}
}

func TestMoonTidalLocking(t *testing.T) {
	for _, at := range []time.Time{
		time.Date(1990, 4, 19, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 4, 20, 4, 16, 44, 0, time.UTC),
		time.Date(2042, 11, 3, 21, 5, 0, 0, time.UTC),
	} {
		st := MoonState(at)
		if st.Rotation != st.EclipticLon+math.Pi {
			t.Errorf("%s: Rotation = %f, want EclipticLon+π = %f", at.Format(time.RFC3339), st.Rotation, st.EclipticLon+math.Pi)
		}
	}
}

func TestMoonPositionMatchesLonLat(t *testing.T) {
	st := MoonState(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	gotLon := EclipticLongitude(st.Position)
	wantLon := normalizeAngle360(radToDeg(st.EclipticLon))
	if !scalar.EqualWithinAbs(normalizeAngle180(gotLon-wantLon), 0, 1e-9) {
		t.Errorf("longitude of Position = %.6f°, EclipticLon = %.6f°", gotLon, wantLon)
	}
	if gotLat, wantLat := EclipticLatitude(st.Position), radToDeg(st.EclipticLat); !scalar.EqualWithinAbs(gotLat, wantLat, 1e-9) {
		t.Errorf("latitude of Position = %.6f°, EclipticLat = %.6f°", gotLat, wantLat)
	}
}

func TestMoonLatitudeWithinInclination(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 60*24; h += 3 {
		st := MoonState(start.Add(time.Duration(h) * time.Hour))
		if lat := math.Abs(radToDeg(st.EclipticLat)); lat > 5.1454+0.35 {
			t.Fatalf("|latitude| = %.3f°, exceeds inclination plus perturbation", lat)
		}
	}
}

// The geocentric position does not repeat after a synodic month (the
// Earth-Sun line itself moves ~29° in that time), but the Moon's phase does.
func TestMoonPhaseRepeatsAfterSynodicMonth(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 3*365; day += 3 {
		t0 := start.AddDate(0, 0, day)
		a := Ephemeris(t0).Elongation()
		b := Ephemeris(t0.Add(time.Duration(synodicMonth))).Elongation()
		if diff := math.Abs(normalizeAngle180(b - a)); diff > 8 {
			t.Fatalf("elongation after one synodic month from %s moved %.2f°, want <= 8°", t0.Format("2006-01-02"), diff)
		}
	}
}

func TestMoonElementsAtEpoch(t *testing.T) {
	el := MoonElements(0)
	if el.Node != 125.1228 || el.Periapsis != 318.0634 || el.MeanAnomaly != 115.3654 {
		t.Errorf("MoonElements(0) = %+v", el)
	}
}
