package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantserve/valuation-engine/pkg/models"
	"github.com/quantserve/valuation-engine/pkg/utils/errors"
)

func TestBinomialTreeConvergesToClosedForm(t *testing.T) {
	e := testEngine()

	res, err := e.PriceBinomialTree(&models.BinomialTreeRequest{
		OptionRequest: models.OptionRequest{
			Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2, Side: "call",
		},
		Steps: 2000,
	})
	require.NoError(t, err)
	assert.InDelta(t, 10.450584, res.Price, 1e-2)
	assert.Equal(t, "binomial-tree", res.Model)
}

func TestAmericanPutCarriesEarlyExercisePremium(t *testing.T) {
	e := testEngine()

	req := models.BinomialTreeRequest{
		OptionRequest: models.OptionRequest{
			Spot: 100, Strike: 110, Maturity: 1, Rate: 0.08, Volatility: 0.3, Side: "put",
		},
		Steps: 500,
	}

	european, err := e.PriceBinomialTree(&req)
	require.NoError(t, err)

	req.American = true
	american, err := e.PriceBinomialTree(&req)
	require.NoError(t, err)

	assert.Greater(t, american.Price, european.Price)
	// Early exercise can never be worth less than immediate exercise.
	assert.GreaterOrEqual(t, american.Price, 10.0)
}

func TestAmericanCallMatchesEuropeanWithoutDividends(t *testing.T) {
	e := testEngine()

	req := models.BinomialTreeRequest{
		OptionRequest: models.OptionRequest{
			Spot: 100, Strike: 95, Maturity: 1, Rate: 0.05, Volatility: 0.25, Side: "call",
		},
		Steps: 400,
	}

	european, err := e.PriceBinomialTree(&req)
	require.NoError(t, err)

	req.American = true
	american, err := e.PriceBinomialTree(&req)
	require.NoError(t, err)

	assert.InDelta(t, european.Price, american.Price, 1e-9)
}

func TestBinomialTreeDegenerateInputs(t *testing.T) {
	e := testEngine()

	// Zero maturity collapses to intrinsic value.
	res, err := e.PriceBinomialTree(&models.BinomialTreeRequest{
		OptionRequest: models.OptionRequest{
			Spot: 120, Strike: 100, Maturity: 0, Rate: 0.05, Volatility: 0.2, Side: "call",
		},
		Steps: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, 20.0, res.Price)

	// Zero volatility does the same.
	res, err = e.PriceBinomialTree(&models.BinomialTreeRequest{
		OptionRequest: models.OptionRequest{
			Spot: 90, Strike: 100, Maturity: 1, Rate: 0.05, Side: "put",
		},
		Steps: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Price)
}

func TestBinomialTreeRejectsBadSteps(t *testing.T) {
	e := testEngine()

	for _, steps := range []int{0, -5} {
		_, err := e.PriceBinomialTree(&models.BinomialTreeRequest{
			OptionRequest: models.OptionRequest{
				Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2,
			},
			Steps: steps,
		})
		require.Error(t, err)
		assert.Equal(t, errors.KindInvalidParameter, errors.KindOf(err))
	}
}
