package engine

import (
	"math"

	"github.com/quantserve/valuation-engine/pkg/models"
	"github.com/quantserve/valuation-engine/pkg/utils/errors"
)

const (
	defaultChainStep   = 5.0
	defaultStrikeRange = 0.2
	defaultBaseVol     = 0.2
	defaultMaxMaturity = 2.0
	surfaceStrikes     = 10
	surfaceMaturities  = 8
	surfaceMinMaturity = 0.1
)

// OptionChain prices both sides across a strike ladder. Strikes default to
// the 80%..120% moneyness band in steps of 5.0.
func (e *Engine) OptionChain(req *models.OptionChainRequest) ([]models.ChainEntry, error) {
	if err := validateOption(req.Spot, 1, req.Maturity, req.Volatility); err != nil {
		return nil, err
	}
	if req.Volatility == 0 {
		return nil, errors.InvalidParameter("volatility must be positive")
	}

	kMin := req.StrikeMin
	if kMin <= 0 {
		kMin = 0.8 * req.Spot
	}
	kMax := req.StrikeMax
	if kMax <= 0 {
		kMax = 1.2 * req.Spot
	}
	step := req.StrikeStep
	if step <= 0 {
		step = defaultChainStep
	}
	if kMax < kMin {
		return nil, errors.InvalidParameterf("strike range is empty: [%g, %g]", kMin, kMax)
	}

	var chain []models.ChainEntry
	for k := kMin; k <= kMax+1e-9; k += step {
		callG := greeks(Call, req.Spot, k, req.Maturity, req.Rate, req.Volatility)
		putG := greeks(Put, req.Spot, k, req.Maturity, req.Rate, req.Volatility)
		chain = append(chain, models.ChainEntry{
			Strike:    k,
			CallPrice: europeanPrice(Call, req.Spot, k, req.Maturity, req.Rate, req.Volatility),
			PutPrice:  europeanPrice(Put, req.Spot, k, req.Maturity, req.Rate, req.Volatility),
			CallDelta: callG.Delta,
			PutDelta:  putG.Delta,
			Gamma:     callG.Gamma,
			Theta:     callG.Theta,
			Vega:      callG.Vega,
		})
	}
	return chain, nil
}

// smileVol bends the base volatility with a symmetric log-moneyness smile and
// a mild term-structure lift
func smileVol(base, spot, strike, t float64) float64 {
	m := math.Log(strike / spot)
	return base * (1 + 0.1*m*m + 0.05*math.Sqrt(t))
}

// VolatilitySurface generates a smile-adjusted price grid over a fixed
// 10-strike by 8-maturity lattice
func (e *Engine) VolatilitySurface(req *models.VolSurfaceRequest) ([]models.SurfacePoint, error) {
	if req.Spot <= 0 {
		return nil, errors.InvalidParameterf("spot must be positive, got %g", req.Spot)
	}
	baseVol := req.BaseVol
	if baseVol <= 0 {
		baseVol = defaultBaseVol
	}
	strikeRange := req.StrikeRange
	if strikeRange <= 0 {
		strikeRange = defaultStrikeRange
	}
	tMax := req.MaxMaturity
	if tMax <= 0 {
		tMax = defaultMaxMaturity
	}
	if tMax < surfaceMinMaturity {
		return nil, errors.InvalidParameterf("max maturity must be at least %g, got %g", surfaceMinMaturity, tMax)
	}

	kLo := req.Spot * (1 - strikeRange)
	kHi := req.Spot * (1 + strikeRange)

	points := make([]models.SurfacePoint, 0, surfaceStrikes*surfaceMaturities)
	for i := 0; i < surfaceStrikes; i++ {
		k := kLo + (kHi-kLo)*float64(i)/float64(surfaceStrikes-1)
		for j := 0; j < surfaceMaturities; j++ {
			t := surfaceMinMaturity + (tMax-surfaceMinMaturity)*float64(j)/float64(surfaceMaturities-1)
			vol := smileVol(baseVol, req.Spot, k, t)
			points = append(points, models.SurfacePoint{
				Strike:       k,
				TimeToExpiry: t,
				Volatility:   vol,
				CallPrice:    europeanPrice(Call, req.Spot, k, t, req.Rate, vol),
				PutPrice:     europeanPrice(Put, req.Spot, k, t, req.Rate, vol),
				Moneyness:    k / req.Spot,
			})
		}
	}
	return points, nil
}
