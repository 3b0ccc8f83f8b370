package engine

import (
	"context"
	"math"

	"github.com/quantserve/valuation-engine/pkg/models"
	"github.com/quantserve/valuation-engine/pkg/utils/errors"
)

// Implied-volatility search bracket. Quotes outside the no-arbitrage band of
// this bracket resolve to a not-found outcome.
const (
	ivBracketLo  = 0.001
	ivBracketHi  = 5.0
	ivMaxIter    = 100
	ivTolerance  = 1e-6
	daysPerYear  = 365.0
	ytmBracketLo = 0.001
	ytmBracketHi = 1.0
)

func d1(s, k, t, r, sigma float64) float64 {
	return (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
}

// europeanPrice is the Black-Scholes closed form. The T<=0 boundary returns
// intrinsic value and the sigma=0 boundary returns the discounted forward
// payoff; both are intercepted before the general formula so d1 never divides
// by zero. The result is floored at zero.
func europeanPrice(side OptionSide, s, k, t, r, sigma float64) float64 {
	if t <= 0 {
		return intrinsic(side, s, k)
	}
	if sigma <= 0 {
		return intrinsic(side, s, k*math.Exp(-r*t))
	}

	dOne := d1(s, k, t, r, sigma)
	dTwo := dOne - sigma*math.Sqrt(t)

	var price float64
	if side == Call {
		price = s*normalCDF(dOne) - k*math.Exp(-r*t)*normalCDF(dTwo)
	} else {
		price = k*math.Exp(-r*t)*normalCDF(-dTwo) - s*normalCDF(-dOne)
	}
	return math.Max(price, 0)
}

// greeks computes the analytic sensitivities. Theta is reported per calendar
// day, vega per 1% volatility move; at the T<=0 or sigma<=0 boundary all
// Greeks are zero.
func greeks(side OptionSide, s, k, t, r, sigma float64) models.Greeks {
	if t <= 0 || sigma <= 0 {
		return models.Greeks{}
	}

	dOne := d1(s, k, t, r, sigma)
	dTwo := dOne - sigma*math.Sqrt(t)
	pdfD1 := normalPDF(dOne)
	discount := math.Exp(-r * t)

	g := models.Greeks{
		Gamma: pdfD1 / (s * sigma * math.Sqrt(t)),
		Vega:  s * pdfD1 * math.Sqrt(t) / 100,
	}
	if side == Call {
		g.Delta = normalCDF(dOne)
		g.Rho = k * t * discount * normalCDF(dTwo)
		g.Theta = (-s*pdfD1*sigma/(2*math.Sqrt(t)) - r*k*discount*normalCDF(dTwo)) / daysPerYear
	} else {
		g.Delta = normalCDF(dOne) - 1
		g.Rho = -k * t * discount * normalCDF(-dTwo)
		g.Theta = (-s*pdfD1*sigma/(2*math.Sqrt(t)) + r*k*discount*normalCDF(-dTwo)) / daysPerYear
	}
	return g
}

// PriceBlackScholes prices a European option and its Greeks in closed form
func (e *Engine) PriceBlackScholes(req *models.OptionRequest) (*models.PricingResult, error) {
	if err := validateOption(req.Spot, req.Strike, req.Maturity, req.Volatility); err != nil {
		return nil, err
	}
	side, err := ParseSide(req.Side)
	if err != nil {
		return nil, err
	}

	g := greeks(side, req.Spot, req.Strike, req.Maturity, req.Rate, req.Volatility)
	return &models.PricingResult{
		Price:  europeanPrice(side, req.Spot, req.Strike, req.Maturity, req.Rate, req.Volatility),
		Greeks: &g,
		Model:  "black-scholes",
	}, nil
}

// ImpliedVolatility inverts the Black-Scholes price for sigma over the
// bracket [0.001, 5.0]. A quote outside the no-arbitrage band of the bracket
// yields Found=false rather than an error; only invalid parameters fail.
func (e *Engine) ImpliedVolatility(ctx context.Context, req *models.ImpliedVolRequest) (*models.ImpliedVolResult, error) {
	if err := validateOption(req.Spot, req.Strike, req.Maturity, 0); err != nil {
		return nil, err
	}
	if req.MarketPrice <= 0 {
		return nil, errors.InvalidParameterf("market price must be positive, got %g", req.MarketPrice)
	}
	side, err := ParseSide(req.Side)
	if err != nil {
		return nil, err
	}

	solver := newBracketSolver(ivBracketLo, ivBracketHi, ivMaxIter, ivTolerance)
	vol, err := solver.Solve(ctx, func(sigma float64) float64 {
		return europeanPrice(side, req.Spot, req.Strike, req.Maturity, req.Rate, sigma) - req.MarketPrice
	})
	if err != nil {
		if errors.Is(err, errors.ErrNoConvergence) {
			e.log.Warnf("implied volatility not found for S=%g K=%g T=%g target=%g",
				req.Spot, req.Strike, req.Maturity, req.MarketPrice)
			return &models.ImpliedVolResult{Found: false}, nil
		}
		return nil, err
	}

	return &models.ImpliedVolResult{
		ImpliedVol: vol,
		Found:      true,
		ModelPrice: europeanPrice(side, req.Spot, req.Strike, req.Maturity, req.Rate, vol),
	}, nil
}
