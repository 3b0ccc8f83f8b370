package engine

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/quantserve/valuation-engine/pkg/models"
	"github.com/quantserve/valuation-engine/pkg/utils/errors"
)

const (
	defaultInitialValue   = 1_000_000.0
	defaultTimeHorizon    = 1.0
	defaultNumSimulations = 10_000
)

// cholesky returns the lower-triangular factor L with L*Lᵀ = cov. A
// non-positive pivot zeroes the remaining column, so positive-semidefinite
// matrices (a riskless asset, perfectly correlated assets) factor without
// error instead of producing NaNs.
func cholesky(cov [][]float64) [][]float64 {
	n := len(cov)
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := cov[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				if sum <= 0 {
					l[i][j] = 0
					continue
				}
				l[i][j] = math.Sqrt(sum)
			} else {
				if l[j][j] == 0 {
					l[i][j] = 0
					continue
				}
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l
}

func validatePortfolio(req *models.PortfolioRequest) error {
	n := len(req.Weights)
	if n == 0 {
		return errors.InvalidParameter("weights must not be empty")
	}
	if len(req.ExpectedReturns) != n {
		return errors.InvalidParameterf("expected returns length %d does not match %d weights",
			len(req.ExpectedReturns), n)
	}
	if len(req.CovMatrix) != n {
		return errors.InvalidParameterf("covariance matrix has %d rows for %d assets",
			len(req.CovMatrix), n)
	}
	for i, row := range req.CovMatrix {
		if len(row) != n {
			return errors.InvalidParameterf("covariance matrix row %d has %d columns for %d assets",
				i, len(row), n)
		}
	}
	if req.InitialValue < 0 {
		return errors.InvalidParameterf("initial value must be non-negative, got %g", req.InitialValue)
	}
	if req.TimeHorizon < 0 {
		return errors.InvalidParameterf("time horizon must be non-negative, got %g", req.TimeHorizon)
	}
	return nil
}

// SimulatePortfolio runs a correlated Monte Carlo over the asset return
// distribution and reports the analytic moments, the simulated terminal-value
// distribution and its tail-risk measures. Each simulation draws one joint
// return vector from MVN(mu, cov) and the portfolio return scales linearly
// with the horizon, mean and noise alike. Simulations use per-index random
// substreams, so results are reproducible for a given seed at any worker
// count.
func (e *Engine) SimulatePortfolio(ctx context.Context, req *models.PortfolioRequest) (*models.PortfolioResult, error) {
	if err := validatePortfolio(req); err != nil {
		return nil, err
	}

	n := len(req.Weights)
	initial := req.InitialValue
	if initial == 0 {
		initial = defaultInitialValue
	}
	horizon := req.TimeHorizon
	if horizon == 0 {
		horizon = defaultTimeHorizon
	}
	numSims := req.NumSimulations
	if numSims <= 0 {
		numSims = defaultNumSimulations
	}
	seed := seedOrDefault(req.Seed)

	// Analytic moments: w·mu and sqrt(wᵀ cov w).
	var expReturn, variance float64
	for i := 0; i < n; i++ {
		expReturn += req.Weights[i] * req.ExpectedReturns[i]
		for j := 0; j < n; j++ {
			variance += req.Weights[i] * req.CovMatrix[i][j] * req.Weights[j]
		}
	}
	volatility := math.Sqrt(math.Max(variance, 0))
	sharpe := 0.0
	if volatility > 0 {
		sharpe = expReturn / volatility
	}

	chol := cholesky(req.CovMatrix)

	terminal := make([]float64, numSims)

	workers := e.cfg.Workers
	if workers > numSims {
		workers = numSims
	}
	chunk := (numSims + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > numSims {
			hi = numSims
		}
		g.Go(func() error {
			z := make([]float64, n)
			for s := lo; s < hi; s++ {
				if s%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return errors.Timeout("portfolio simulation canceled: " + err.Error())
					}
				}
				rng := pathSource(seed, s)
				for i := range z {
					z[i] = rng.NormFloat64()
				}
				var portReturn float64
				for i := 0; i < n; i++ {
					shock := 0.0
					for k := 0; k <= i; k++ {
						shock += chol[i][k] * z[k]
					}
					portReturn += req.Weights[i] * (req.ExpectedReturns[i] + shock)
				}
				terminal[s] = initial * (1 + portReturn*horizon)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := summarize(terminal, map[string]float64{
		"1st": 1, "5th": 5, "25th": 25, "50th": 50, "75th": 75, "95th": 95, "99th": 99,
	})

	sorted := make([]float64, numSims)
	copy(sorted, terminal)
	sort.Float64s(sorted)

	var95 := percentile(sorted, 5)
	var99 := percentile(sorted, 1)

	return &models.PortfolioResult{
		Stats: models.PortfolioStats{
			ExpectedReturn: expReturn,
			Volatility:     volatility,
			SharpeRatio:    sharpe,
		},
		Simulation: stats,
		Risk: models.RiskMetrics{
			VaR95:       var95,
			VaR99:       var99,
			CVaR95:      tailMean(sorted, var95),
			CVaR99:      tailMean(sorted, var99),
			MaxDrawdown: initial - sorted[0],
		},
		Simulations: numSims,
	}, nil
}

// tailMean averages the values at or below the cutoff. The slice must be
// sorted ascending; an empty tail falls back to the cutoff itself.
func tailMean(sorted []float64, cutoff float64) float64 {
	var sum float64
	var count int
	for _, v := range sorted {
		if v > cutoff {
			break
		}
		sum += v
		count++
	}
	if count == 0 {
		return cutoff
	}
	return sum / float64(count)
}
