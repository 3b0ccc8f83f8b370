package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantserve/valuation-engine/pkg/models"
	"github.com/quantserve/valuation-engine/pkg/utils/errors"
)

func floatPtr(v float64) *float64 { return &v }

func TestParBondPricesAtFace(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	// A bond paying its own yield as coupon trades at par.
	for _, freq := range []int{1, 2, 4} {
		res, err := e.PriceBond(ctx, &models.BondRequest{
			FaceValue:        1000,
			CouponRate:       0.06,
			YearsToMaturity:  10,
			PaymentFrequency: freq,
			Yield:            floatPtr(0.06),
		})
		require.NoError(t, err)
		assert.InDelta(t, 1000, res.Price, 1e-6, "frequency %d", freq)
	}
}

func TestZeroYieldBondIsUndiscountedSum(t *testing.T) {
	e := testEngine()

	res, err := e.PriceBond(context.Background(), &models.BondRequest{
		FaceValue:        1000,
		CouponRate:       0.05,
		YearsToMaturity:  5,
		PaymentFrequency: 2,
		Yield:            floatPtr(0),
	})
	require.NoError(t, err)
	// 10 coupons of 25 plus face.
	assert.InDelta(t, 1250, res.Price, 1e-9)
}

func TestBondYieldRoundTrip(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	priced, err := e.PriceBond(ctx, &models.BondRequest{
		FaceValue:        1000,
		CouponRate:       0.05,
		YearsToMaturity:  7,
		PaymentFrequency: 2,
		Yield:            floatPtr(0.065),
	})
	require.NoError(t, err)
	assert.Less(t, priced.Price, 1000.0)

	solved, err := e.PriceBond(ctx, &models.BondRequest{
		FaceValue:        1000,
		CouponRate:       0.05,
		YearsToMaturity:  7,
		PaymentFrequency: 2,
		Price:            floatPtr(priced.Price),
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.065, solved.Yield, 1e-4)
}

func TestBondYieldNotBracketed(t *testing.T) {
	e := testEngine()

	// No yield in the bracket can push the price this far above the sum of
	// the cash flows.
	_, err := e.PriceBond(context.Background(), &models.BondRequest{
		FaceValue:        1000,
		CouponRate:       0.05,
		YearsToMaturity:  5,
		PaymentFrequency: 2,
		Price:            floatPtr(5000),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoConvergence))
}

func TestZeroCouponDurationEqualsMaturity(t *testing.T) {
	e := testEngine()

	res, err := e.PriceBond(context.Background(), &models.BondRequest{
		FaceValue:        1000,
		CouponRate:       0,
		YearsToMaturity:  10,
		PaymentFrequency: 2,
		Yield:            floatPtr(0.04),
	})
	require.NoError(t, err)
	require.NotNil(t, res.MacaulayDuration)
	require.NotNil(t, res.ModifiedDuration)

	assert.InDelta(t, 10, *res.MacaulayDuration, 1e-9)
	assert.InDelta(t, 10/(1+0.04/2), *res.ModifiedDuration, 1e-9)
}

func TestCouponBondDurationBelowMaturity(t *testing.T) {
	e := testEngine()

	res, err := e.PriceBond(context.Background(), &models.BondRequest{
		FaceValue:        1000,
		CouponRate:       0.08,
		YearsToMaturity:  10,
		PaymentFrequency: 2,
		Yield:            floatPtr(0.06),
	})
	require.NoError(t, err)

	assert.Less(t, *res.MacaulayDuration, 10.0)
	assert.Greater(t, *res.MacaulayDuration, 0.0)
	assert.Less(t, *res.ModifiedDuration, *res.MacaulayDuration)
}

func TestBondRequiresExactlyOneOfYieldAndPrice(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	base := models.BondRequest{
		FaceValue:        1000,
		CouponRate:       0.05,
		YearsToMaturity:  5,
		PaymentFrequency: 2,
	}

	_, err := e.PriceBond(ctx, &base)
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidParameter, errors.KindOf(err))

	both := base
	both.Yield = floatPtr(0.05)
	both.Price = floatPtr(1000)
	_, err = e.PriceBond(ctx, &both)
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidParameter, errors.KindOf(err))
}

func TestBondValidation(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	cases := []models.BondRequest{
		{FaceValue: 0, CouponRate: 0.05, YearsToMaturity: 5, Yield: floatPtr(0.05)},
		{FaceValue: 1000, CouponRate: -0.01, YearsToMaturity: 5, Yield: floatPtr(0.05)},
		{FaceValue: 1000, CouponRate: 0.05, YearsToMaturity: 0, Yield: floatPtr(0.05)},
		{FaceValue: 1000, CouponRate: 0.05, YearsToMaturity: 0.25, PaymentFrequency: 2, Yield: floatPtr(0.05)},
	}
	for _, req := range cases {
		_, err := e.PriceBond(ctx, &req)
		require.Error(t, err)
		assert.Equal(t, errors.KindInvalidParameter, errors.KindOf(err))
	}
}

func TestNetPresentValue(t *testing.T) {
	e := testEngine()

	npv, err := e.NetPresentValue(&models.NPVRequest{
		CashFlows:    []float64{100, 100, 100},
		DiscountRate: 0,
	})
	require.NoError(t, err)
	assert.InDelta(t, 300, npv, 1e-9)

	npv, err = e.NetPresentValue(&models.NPVRequest{
		CashFlows:    []float64{100, 100, 100},
		DiscountRate: 0.1,
	})
	require.NoError(t, err)
	assert.InDelta(t, 248.6852, npv, 1e-3)

	_, err = e.NetPresentValue(&models.NPVRequest{CashFlows: nil, DiscountRate: 0.1})
	require.Error(t, err)

	_, err = e.NetPresentValue(&models.NPVRequest{CashFlows: []float64{100}, DiscountRate: -1})
	require.Error(t, err)
}
