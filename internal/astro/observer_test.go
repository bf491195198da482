package astro

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

var testObservers = map[string]Observer{
	"greenwich": {LatDeg: 51.4779, LonDeg: 0, Name: "Greenwich"},
	"quito":     {LatDeg: -0.18, LonDeg: -78.47, Name: "Quito"},
	"tromso":    {LatDeg: 69.65, LonDeg: 18.96, Name: "Tromsø"},
	"exmouth":   {LatDeg: -21.93, LonDeg: 114.13, Name: "Exmouth"},
}

func TestSunAtZenithOverSubSolarPoint(t *testing.T) {
	st := Ephemeris(time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC))
	lon, lat := SubSolarPoint(st)
	h := SunHorizontal(Observer{LatDeg: lat, LonDeg: lon}, st)
	if h.ElDeg < 89.9 {
		t.Errorf("Sun elevation at sub-solar point = %.3f°, want ~90°", h.ElDeg)
	}
}

func TestSunHorizontal(t *testing.T) {
	tests := []struct {
		name     string
		observer string
		time     time.Time
		wantMin  float64
		wantMax  float64
	}{
		{"Greenwich June noon", "greenwich", time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC), 61, 62.5},
		{"Greenwich December noon", "greenwich", time.Date(2024, 12, 21, 12, 0, 0, 0, time.UTC), 14.5, 15.5},
		{"Greenwich midnight", "greenwich", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), -90, -30},
		{"Tromsø midnight sun", "tromso", time.Date(2024, 6, 21, 22, 44, 0, 0, time.UTC), 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := SunHorizontal(testObservers[tt.observer], Ephemeris(tt.time))
			if h.ElDeg < tt.wantMin || h.ElDeg > tt.wantMax {
				t.Errorf("SunHorizontal() El = %.2f°, want between %.2f° and %.2f°", h.ElDeg, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestSunAzimuthAtNoon(t *testing.T) {
	h := SunHorizontal(testObservers["greenwich"], Ephemeris(time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)))
	if math.Abs(h.AzDeg-180) > 2 {
		t.Errorf("noon azimuth at Greenwich = %.2f°, want ~180° (south)", h.AzDeg)
	}
	h = SunHorizontal(testObservers["greenwich"], Ephemeris(time.Date(2024, 4, 15, 7, 0, 0, 0, time.UTC)))
	if h.AzDeg < 60 || h.AzDeg > 120 {
		t.Errorf("morning azimuth at Greenwich = %.2f°, want east", h.AzDeg)
	}
}

func TestPolarisElevationEqualsLatitude(t *testing.T) {
	polaris := Star{Name: "Polaris", RAdeg: 37.954, DecDeg: 89.264}
	st := Ephemeris(time.Date(2024, 10, 10, 20, 0, 0, 0, time.UTC))
	for name, obs := range testObservers {
		if obs.LatDeg < 10 {
			continue
		}
		h := StarHorizontal(obs, polaris, st)
		if !scalar.EqualWithinAbs(h.ElDeg, obs.LatDeg, 1) {
			t.Errorf("%s: Polaris elevation = %.2f°, want latitude %.2f° ± 1°", name, h.ElDeg, obs.LatDeg)
		}
	}
}

func TestSunMoonSeparationDuringEclipse(t *testing.T) {
	// Exmouth sat on the centre line of the 2023 hybrid eclipse.
	at := time.Date(2023, 4, 20, 3, 16, 44, 0, time.UTC)
	sep := SunMoonSeparation(testObservers["exmouth"], Ephemeris(at))
	if sep > 3 {
		t.Errorf("Sun-Moon separation from Exmouth = %.2f°, want < 3°", sep)
	}
	sep = SunMoonSeparation(testObservers["greenwich"], Ephemeris(at.AddDate(0, 0, 14)))
	if sep < 150 {
		t.Errorf("Sun-Moon separation two weeks later = %.2f°, want near opposition", sep)
	}
}

func TestAngularSeparation(t *testing.T) {
	tests := []struct {
		name string
		a, b [2]float64
		want float64
	}{
		{"same point", [2]float64{10, 20}, [2]float64{10, 20}, 0},
		{"pole to equator", [2]float64{0, 90}, [2]float64{123, 0}, 90},
		{"opposite on equator", [2]float64{0, 0}, [2]float64{180, 0}, 180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AngularSeparation(tt.a[0], tt.a[1], tt.b[0], tt.b[1])
			if !scalar.EqualWithinAbs(got, tt.want, 1e-6) {
				t.Errorf("AngularSeparation() = %.6f°, want %.6f°", got, tt.want)
			}
		})
	}
}
