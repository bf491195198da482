package state

import (
	"fmt"
	"math"

	"github.com/litescript/ls-orrery/internal/scene"
)

func formatShadow(f scene.Frame) string {
	sh := f.Shadow
	ns, ew := "N", "E"
	if sh.LatDeg < 0 {
		ns = "S"
	}
	if sh.LonDeg < 0 {
		ew = "W"
	}
	return fmt.Sprintf("shadow at %.1f°%s %.1f°%s, gamma %+.3f",
		math.Abs(sh.LatDeg), ns, math.Abs(sh.LonDeg), ew, sh.Gamma)
}
