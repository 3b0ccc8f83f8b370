package engine

import (
	"math"

	"github.com/quantserve/valuation-engine/pkg/models"
	"github.com/quantserve/valuation-engine/pkg/utils/errors"
)

// PriceBinomialTree prices an option on a Cox-Ross-Rubinstein lattice.
// Backward induction runs over a pair of per-level value buffers swapped each
// step instead of a full (steps+1)^2 matrix; node underlying prices are
// recomputed as S*u^(i-j)*d^j so results match the dense-tree form exactly.
func (e *Engine) PriceBinomialTree(req *models.BinomialTreeRequest) (*models.PricingResult, error) {
	if err := validateOption(req.Spot, req.Strike, req.Maturity, req.Volatility); err != nil {
		return nil, err
	}
	if req.Steps <= 0 {
		return nil, errors.InvalidParameterf("steps must be a positive integer, got %d", req.Steps)
	}
	side, err := ParseSide(req.Side)
	if err != nil {
		return nil, err
	}

	// Degenerate sigma or maturity collapses the tree to a single node; the
	// intrinsic boundary runs before any of the CRR ratios can divide by zero.
	if req.Maturity <= 0 || req.Volatility <= 0 {
		return &models.PricingResult{
			Price: intrinsic(side, req.Spot, req.Strike),
			Model: "binomial-tree",
		}, nil
	}

	s, k, steps := req.Spot, req.Strike, req.Steps
	dt := req.Maturity / float64(steps)
	u := math.Exp(req.Volatility * math.Sqrt(dt))
	d := 1 / u
	p := (math.Exp(req.Rate*dt) - d) / (u - d)
	discount := math.Exp(-req.Rate * dt)

	// j counts down-moves at a level.
	values := make([]float64, steps+1)
	swap := make([]float64, steps+1)
	for j := 0; j <= steps; j++ {
		terminal := s * math.Pow(u, float64(steps-j)) * math.Pow(d, float64(j))
		values[j] = intrinsic(side, terminal, k)
	}

	for i := steps - 1; i >= 0; i-- {
		for j := 0; j <= i; j++ {
			continuation := discount * (p*values[j] + (1-p)*values[j+1])
			if req.American {
				node := s * math.Pow(u, float64(i-j)) * math.Pow(d, float64(j))
				if exercise := intrinsic(side, node, k); exercise > continuation {
					continuation = exercise
				}
			}
			swap[j] = continuation
		}
		values, swap = swap, values
	}

	return &models.PricingResult{Price: values[0], Model: "binomial-tree"}, nil
}
