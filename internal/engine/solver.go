package engine

import (
	"context"
	"math"

	"github.com/quantserve/valuation-engine/pkg/utils/errors"
)

// bracketSolver is the bounded bracket-narrowing root finder shared by the
// implied-volatility and bond-yield inversions. It walks the states
// searching -> converged | no-sign-change | exhausted; the two failure states
// surface as a NoConvergence outcome, never a panic.
type bracketSolver struct {
	lo, hi  float64
	maxIter int
	tol     float64
}

func newBracketSolver(lo, hi float64, maxIter int, tol float64) *bracketSolver {
	return &bracketSolver{lo: lo, hi: hi, maxIter: maxIter, tol: tol}
}

// Solve finds x in [lo, hi] with f(x) = 0 by bisection. The bracket must
// contain a sign change; without one the solve fails immediately rather than
// returning an arbitrary endpoint.
func (s *bracketSolver) Solve(ctx context.Context, f func(float64) float64) (float64, error) {
	lo, hi := s.lo, s.hi
	flo, fhi := f(lo), f(hi)

	if flo == 0 {
		return lo, nil
	}
	if fhi == 0 {
		return hi, nil
	}
	if flo*fhi > 0 {
		return 0, errors.NoConvergence("no sign change in bracket")
	}

	for i := 0; i < s.maxIter; i++ {
		if err := ctx.Err(); err != nil {
			return 0, errors.Timeout("root search canceled: " + err.Error())
		}

		mid := 0.5 * (lo + hi)
		fmid := f(mid)

		if fmid == 0 || math.Abs(hi-lo) < s.tol {
			return mid, nil
		}
		if flo*fmid < 0 {
			hi = mid
		} else {
			lo, flo = mid, fmid
		}
	}
	return 0, errors.NoConvergence("bracket search exhausted iterations")
}
