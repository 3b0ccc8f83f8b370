package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantserve/valuation-engine/pkg/models"
	"github.com/quantserve/valuation-engine/pkg/utils/errors"
)

func testEngine() *Engine {
	return New(Config{Workers: 4, DefaultNumPaths: 5000, DefaultSteps: 50})
}

func TestBlackScholesReferencePrices(t *testing.T) {
	e := testEngine()

	call, err := e.PriceBlackScholes(&models.OptionRequest{
		Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2, Side: "call",
	})
	require.NoError(t, err)
	assert.InDelta(t, 10.450584, call.Price, 1e-4)
	assert.Equal(t, "black-scholes", call.Model)

	put, err := e.PriceBlackScholes(&models.OptionRequest{
		Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2, Side: "put",
	})
	require.NoError(t, err)
	assert.InDelta(t, 5.573526, put.Price, 1e-4)
}

func TestPutCallParity(t *testing.T) {
	e := testEngine()

	cases := []struct{ s, k, tm, r, sigma float64 }{
		{100, 100, 1, 0.05, 0.2},
		{100, 120, 0.5, 0.01, 0.45},
		{50, 40, 2, 0.1, 0.8},
		{100, 80, 0.25, 0, 0.15},
	}
	for _, tc := range cases {
		call, err := e.PriceBlackScholes(&models.OptionRequest{
			Spot: tc.s, Strike: tc.k, Maturity: tc.tm, Rate: tc.r, Volatility: tc.sigma, Side: "call",
		})
		require.NoError(t, err)
		put, err := e.PriceBlackScholes(&models.OptionRequest{
			Spot: tc.s, Strike: tc.k, Maturity: tc.tm, Rate: tc.r, Volatility: tc.sigma, Side: "put",
		})
		require.NoError(t, err)

		forward := tc.s - tc.k*math.Exp(-tc.r*tc.tm)
		assert.InDelta(t, forward, call.Price-put.Price, 1e-9,
			"parity violated for S=%g K=%g", tc.s, tc.k)
	}
}

func TestGreeksReferenceValues(t *testing.T) {
	e := testEngine()

	call, err := e.PriceBlackScholes(&models.OptionRequest{
		Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2, Side: "call",
	})
	require.NoError(t, err)
	require.NotNil(t, call.Greeks)

	assert.InDelta(t, 0.636831, call.Greeks.Delta, 1e-4)
	assert.InDelta(t, 0.018762, call.Greeks.Gamma, 1e-4)
	assert.InDelta(t, 0.375240, call.Greeks.Vega, 1e-4)
	assert.InDelta(t, 53.232482, call.Greeks.Rho, 1e-3)
	assert.Less(t, call.Greeks.Theta, 0.0)

	put, err := e.PriceBlackScholes(&models.OptionRequest{
		Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2, Side: "put",
	})
	require.NoError(t, err)

	// Delta parity and shared gamma/vega.
	assert.InDelta(t, call.Greeks.Delta-1, put.Greeks.Delta, 1e-9)
	assert.InDelta(t, call.Greeks.Gamma, put.Greeks.Gamma, 1e-9)
	assert.InDelta(t, call.Greeks.Vega, put.Greeks.Vega, 1e-9)
	assert.Less(t, put.Greeks.Rho, 0.0)
}

func TestExpiredOptionIsIntrinsic(t *testing.T) {
	e := testEngine()

	res, err := e.PriceBlackScholes(&models.OptionRequest{
		Spot: 110, Strike: 100, Maturity: 0, Rate: 0.05, Volatility: 0.2, Side: "call",
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Price)
	assert.Equal(t, models.Greeks{}, *res.Greeks)

	res, err = e.PriceBlackScholes(&models.OptionRequest{
		Spot: 110, Strike: 100, Maturity: 0, Side: "put",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Price)
}

func TestZeroVolIsDiscountedForwardIntrinsic(t *testing.T) {
	e := testEngine()

	res, err := e.PriceBlackScholes(&models.OptionRequest{
		Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0, Side: "call",
	})
	require.NoError(t, err)
	assert.InDelta(t, 100-100*math.Exp(-0.05), res.Price, 1e-9)
}

func TestOptionValidation(t *testing.T) {
	e := testEngine()

	cases := []models.OptionRequest{
		{Spot: 0, Strike: 100, Maturity: 1, Volatility: 0.2},
		{Spot: 100, Strike: -1, Maturity: 1, Volatility: 0.2},
		{Spot: 100, Strike: 100, Maturity: -1, Volatility: 0.2},
		{Spot: 100, Strike: 100, Maturity: 1, Volatility: -0.2},
		{Spot: 100, Strike: 100, Maturity: 1, Volatility: 0.2, Side: "straddle"},
	}
	for _, req := range cases {
		_, err := e.PriceBlackScholes(&req)
		require.Error(t, err)
		assert.Equal(t, errors.KindInvalidParameter, errors.KindOf(err))
	}
}

func TestImpliedVolRoundTrip(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	for _, sigma := range []float64{0.05, 0.2, 0.5, 1.0, 1.8} {
		price := europeanPrice(Call, 100, 105, 0.75, 0.03, sigma)
		res, err := e.ImpliedVolatility(ctx, &models.ImpliedVolRequest{
			MarketPrice: price, Spot: 100, Strike: 105, Maturity: 0.75, Rate: 0.03, Side: "call",
		})
		require.NoError(t, err)
		require.True(t, res.Found, "sigma=%g", sigma)
		assert.InDelta(t, sigma, res.ImpliedVol, 1e-4, "sigma=%g", sigma)
		assert.InDelta(t, price, res.ModelPrice, 1e-4)
	}
}

func TestImpliedVolNotFound(t *testing.T) {
	e := testEngine()

	// A call can never be worth more than the spot; no volatility in the
	// bracket reproduces this quote.
	res, err := e.ImpliedVolatility(context.Background(), &models.ImpliedVolRequest{
		MarketPrice: 150, Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Side: "call",
	})
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Zero(t, res.ImpliedVol)
}

func TestImpliedVolRejectsBadQuote(t *testing.T) {
	e := testEngine()

	_, err := e.ImpliedVolatility(context.Background(), &models.ImpliedVolRequest{
		MarketPrice: -1, Spot: 100, Strike: 100, Maturity: 1,
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidParameter, errors.KindOf(err))
}
