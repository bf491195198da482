package astro

import (
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestBrightStarsSortedAndCopied(t *testing.T) {
	stars := BrightStars()
	if len(stars) < 20 {
		t.Fatalf("BrightStars() returned %d stars, want at least 20", len(stars))
	}
	for i := 1; i < len(stars); i++ {
		if stars[i].Mag < stars[i-1].Mag {
			t.Errorf("%s (%.2f) listed after fainter %s (%.2f)", stars[i].Name, stars[i].Mag, stars[i-1].Name, stars[i-1].Mag)
		}
	}
	stars[0].Name = "changed"
	if BrightStars()[0].Name == "changed" {
		t.Error("BrightStars() exposes the package catalog")
	}
}

func TestStarDirection(t *testing.T) {
	for _, s := range BrightStars() {
		if n := s.Direction().Norm(); !scalar.EqualWithinAbs(n, 1, 1e-12) {
			t.Errorf("%s direction norm = %f, want 1", s.Name, n)
		}
	}
	// Regulus lies almost on the ecliptic.
	regulus := Star{Name: "Regulus", RAdeg: 152.093, DecDeg: 11.967}
	if lat := EclipticLatitude(regulus.Direction()); lat < 0 || lat > 1 {
		t.Errorf("Regulus ecliptic latitude = %.2f°, want ~0.46°", lat)
	}
}
