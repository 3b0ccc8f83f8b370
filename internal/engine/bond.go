package engine

import (
	"context"
	"math"

	"github.com/quantserve/valuation-engine/pkg/models"
	"github.com/quantserve/valuation-engine/pkg/utils/errors"
)

const (
	ytmMaxIter   = 100
	ytmTolerance = 1e-6
)

// bondPrice discounts a level-coupon schedule at the given annual yield. A
// zero per-period yield degenerates to the undiscounted sum of cash flows.
func bondPrice(face, couponRate float64, periods, freq int, yield float64) float64 {
	coupon := face * couponRate / float64(freq)
	periodYield := yield / float64(freq)

	if periodYield == 0 {
		return coupon*float64(periods) + face
	}

	var price float64
	for i := 1; i <= periods; i++ {
		price += coupon / math.Pow(1+periodYield, float64(i))
	}
	return price + face/math.Pow(1+periodYield, float64(periods))
}

// durations returns the Macaulay and modified durations in years
func durations(face, couponRate float64, periods, freq int, yield, price float64) (macaulay, modified float64) {
	coupon := face * couponRate / float64(freq)
	periodYield := yield / float64(freq)

	var weighted float64
	for i := 1; i <= periods; i++ {
		cf := coupon
		if i == periods {
			cf += face
		}
		t := float64(i) / float64(freq)
		weighted += t * cf / math.Pow(1+periodYield, float64(i))
	}
	macaulay = weighted / price
	modified = macaulay / (1 + periodYield)
	return macaulay, modified
}

func validateBond(req *models.BondRequest) (periods, freq int, err error) {
	if req.FaceValue <= 0 {
		return 0, 0, errors.InvalidParameterf("face value must be positive, got %g", req.FaceValue)
	}
	if req.CouponRate < 0 {
		return 0, 0, errors.InvalidParameterf("coupon rate must be non-negative, got %g", req.CouponRate)
	}
	if req.YearsToMaturity <= 0 {
		return 0, 0, errors.InvalidParameterf("years to maturity must be positive, got %g", req.YearsToMaturity)
	}
	freq = req.PaymentFrequency
	if freq == 0 {
		freq = 2
	}
	if freq < 0 {
		return 0, 0, errors.InvalidParameterf("payment frequency must be positive, got %d", freq)
	}
	periods = int(req.YearsToMaturity * float64(freq))
	if periods < 1 {
		return 0, 0, errors.InvalidParameter("maturity shorter than one coupon period")
	}
	return periods, freq, nil
}

// PriceBond resolves the missing one of {yield, price}. Given a yield it
// discounts the coupon schedule; given a price it inverts for the yield over
// the bracket [0.001, 1.0]. Durations are reported alongside either way.
func (e *Engine) PriceBond(ctx context.Context, req *models.BondRequest) (*models.BondResult, error) {
	periods, freq, err := validateBond(req)
	if err != nil {
		return nil, err
	}

	switch {
	case req.Yield != nil && req.Price != nil:
		return nil, errors.InvalidParameter("supply exactly one of yield and price, got both")
	case req.Yield == nil && req.Price == nil:
		return nil, errors.InvalidParameter("supply exactly one of yield and price, got neither")
	}

	var yield, price float64
	if req.Yield != nil {
		if *req.Yield < 0 {
			return nil, errors.InvalidParameterf("yield must be non-negative, got %g", *req.Yield)
		}
		yield = *req.Yield
		price = bondPrice(req.FaceValue, req.CouponRate, periods, freq, yield)
	} else {
		if *req.Price <= 0 {
			return nil, errors.InvalidParameterf("price must be positive, got %g", *req.Price)
		}
		price = *req.Price

		solver := newBracketSolver(ytmBracketLo, ytmBracketHi, ytmMaxIter, ytmTolerance)
		yield, err = solver.Solve(ctx, func(y float64) float64 {
			return bondPrice(req.FaceValue, req.CouponRate, periods, freq, y) - price
		})
		if err != nil {
			if errors.Is(err, errors.ErrNoConvergence) {
				return nil, errors.Wrapf(err, "yield not bracketed for price %g", price)
			}
			return nil, err
		}
	}

	mac, mod := durations(req.FaceValue, req.CouponRate, periods, freq, yield, price)
	return &models.BondResult{
		Price:            price,
		Yield:            yield,
		MacaulayDuration: &mac,
		ModifiedDuration: &mod,
	}, nil
}

// NetPresentValue discounts a cash-flow schedule at a flat annual rate. Flows
// are assumed to land at the end of years 1..n.
func (e *Engine) NetPresentValue(req *models.NPVRequest) (float64, error) {
	if len(req.CashFlows) == 0 {
		return 0, errors.InvalidParameter("cash flow schedule is empty")
	}
	if req.DiscountRate <= -1 {
		return 0, errors.InvalidParameterf("discount rate must exceed -1, got %g", req.DiscountRate)
	}

	var npv float64
	for i, cf := range req.CashFlows {
		npv += cf / math.Pow(1+req.DiscountRate, float64(i+1))
	}
	return npv, nil
}
