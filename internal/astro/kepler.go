package astro

import (
	"errors"
	"fmt"
	"math"
)

const (
	keplerEpsilon = 1e-6
	// keplerMaxIter bounds the Newton iteration. Bound orbits (e < 1)
	// converge in a handful of steps from E0 = M.
	keplerMaxIter = 50
)

// ErrKeplerNoConvergence is the panic value (wrapped) raised when Kepler's
// equation fails to converge. It signals corrupt orbital elements.
var ErrKeplerNoConvergence = errors.New("kepler: no convergence")

// SolveKepler solves Kepler's equation E - e·sin(E) = M for the eccentric
// anomaly E (radians) by Newton's method starting at E0 = M.
//
// Iteration stops once the residual E - e·sin(E) - M is below 1e-6. It
// panics if that takes more than 50 Newton steps.
func SolveKepler(m, e float64) float64 {
	ecc, _ := SolveKeplerIter(m, e)
	return ecc
}

// SolveKeplerIter is SolveKepler that also reports the number of Newton steps.
func SolveKeplerIter(m, e float64) (float64, int) {
	ecc := m
	for steps := 0; ; steps++ {
		residual := ecc - e*math.Sin(ecc) - m
		if math.Abs(residual) < keplerEpsilon {
			return ecc, steps
		}
		if steps == keplerMaxIter {
			panic(fmt.Errorf("%w: M=%g e=%g after %d iterations", ErrKeplerNoConvergence, m, e, steps))
		}
		ecc -= residual / (1 - e*math.Cos(ecc))
	}
}
