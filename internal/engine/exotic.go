package engine

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/quantserve/valuation-engine/pkg/models"
)

const confidenceZ = 1.96 // 95% two-sided

// pathPayoff applies the resolved exotic payoff rule to a single path
func pathPayoff(spec ExoticSpec, side OptionSide, strike float64, path []float64) float64 {
	final := path[len(path)-1]

	switch {
	case spec.Asian != nil:
		var avg float64
		if spec.Asian.Average == Arithmetic {
			var sum float64
			for _, p := range path {
				sum += p
			}
			avg = sum / float64(len(path))
		} else {
			var logSum float64
			for _, p := range path {
				logSum += math.Log(p)
			}
			avg = math.Exp(logSum / float64(len(path)))
		}
		return intrinsic(side, avg, strike)

	case spec.Barrier != nil:
		level := spec.Barrier.Level
		down := spec.Barrier.Kind == DownOut || spec.Barrier.Kind == DownIn
		hit := false
		for _, p := range path {
			if (down && p <= level) || (!down && p >= level) {
				hit = true
				break
			}
		}
		knockOut := spec.Barrier.Kind == DownOut || spec.Barrier.Kind == UpOut
		if hit == knockOut {
			return 0
		}
		return intrinsic(side, final, strike)

	default: // lookback
		low, high := path[0], path[0]
		for _, p := range path[1:] {
			if p < low {
				low = p
			}
			if p > high {
				high = p
			}
		}
		if spec.Lookback.Kind == Floating {
			if side == Call {
				return math.Max(final-low, 0)
			}
			return math.Max(high-final, 0)
		}
		if side == Call {
			return math.Max(high-strike, 0)
		}
		return math.Max(strike-low, 0)
	}
}

// evaluatePayoffs maps the payoff rule over every path of the ensemble. The
// scan is data-parallel across paths; only the caller's reduction touches the
// results, so no synchronization is needed beyond the group wait.
func (e *Engine) evaluatePayoffs(ctx context.Context, ensemble *PathEnsemble, spec ExoticSpec, side OptionSide, strike float64, payoffs []float64) error {
	workers := e.cfg.Workers
	if workers > ensemble.NumPaths {
		workers = ensemble.NumPaths
	}
	chunk := (ensemble.NumPaths + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > ensemble.NumPaths {
			hi = ensemble.NumPaths
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if i%4096 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				payoffs[i] = pathPayoff(spec, side, strike, ensemble.Paths[i])
			}
			return nil
		})
	}
	return g.Wait()
}

// discountedEstimate reduces payoffs to a price, its standard error and the
// 95% confidence interval
func discountedEstimate(payoffs []float64, r, t float64) (price, stdErr float64, ci [2]float64) {
	discount := math.Exp(-r * t)
	mean, std := meanStd(payoffs)
	price = discount * mean
	stdErr = discount * std / math.Sqrt(float64(len(payoffs)))
	ci = [2]float64{price - confidenceZ*stdErr, price + confidenceZ*stdErr}
	return price, stdErr, ci
}

// EvaluateExotic prices a resolved exotic spec against an existing ensemble.
// Exposed separately from PriceExotic so related payoffs (e.g. the knock-in
// and knock-out legs of one barrier) can share identical paths.
func (e *Engine) EvaluateExotic(ctx context.Context, ensemble *PathEnsemble, spec ExoticSpec, side OptionSide, strike, t, r float64) (*models.SimulationResult, error) {
	payoffs := e.scratch.Get(ensemble.NumPaths)
	defer e.scratch.Put(payoffs)

	if err := e.evaluatePayoffs(ctx, ensemble, spec, side, strike, payoffs); err != nil {
		return nil, err
	}

	price, stdErr, ci := discountedEstimate(payoffs, r, t)
	return &models.SimulationResult{
		Price:              price,
		StdError:           stdErr,
		ConfidenceInterval: ci,
		NumPaths:           ensemble.NumPaths,
	}, nil
}

// PriceExotic prices an Asian, barrier or lookback option by Monte Carlo
func (e *Engine) PriceExotic(ctx context.Context, req *models.ExoticRequest) (*models.SimulationResult, error) {
	if err := validateOption(req.Spot, req.Strike, req.Maturity, req.Volatility); err != nil {
		return nil, err
	}
	side, err := ParseSide(req.Side)
	if err != nil {
		return nil, err
	}
	spec, err := ParseExoticSpec(req)
	if err != nil {
		return nil, err
	}

	numPaths := req.NumPaths
	if numPaths <= 0 {
		numPaths = e.cfg.DefaultNumPaths
	}
	steps := req.Steps
	if steps <= 0 {
		steps = e.cfg.DefaultSteps
	}

	ensemble, err := e.GeneratePaths(ctx, req.Spot, req.Maturity, req.Rate, req.Volatility, steps, numPaths, seedOrDefault(req.Seed))
	if err != nil {
		return nil, err
	}

	result, err := e.EvaluateExotic(ctx, ensemble, spec, side, req.Strike, req.Maturity, req.Rate)
	if err != nil {
		return nil, err
	}
	result.Model = "monte-carlo-" + req.Kind
	return result, nil
}

// PriceVanillaMonteCarlo prices a vanilla European option by path averaging
// over daily steps, reporting the terminal-price distribution alongside the
// price estimate.
func (e *Engine) PriceVanillaMonteCarlo(ctx context.Context, req *models.MonteCarloRequest) (*models.SimulationResult, error) {
	if err := validateOption(req.Spot, req.Strike, req.Maturity, req.Volatility); err != nil {
		return nil, err
	}
	side, err := ParseSide(req.Side)
	if err != nil {
		return nil, err
	}

	numPaths := req.NumPaths
	if numPaths <= 0 {
		numPaths = e.cfg.DefaultNumPaths
	}

	ensemble, err := e.GeneratePaths(ctx, req.Spot, req.Maturity, req.Rate, req.Volatility, e.cfg.DefaultSteps, numPaths, seedOrDefault(req.Seed))
	if err != nil {
		return nil, err
	}

	payoffs := e.scratch.Get(numPaths)
	defer e.scratch.Put(payoffs)
	finals := e.scratch.Get(numPaths)
	defer e.scratch.Put(finals)

	for i := 0; i < numPaths; i++ {
		finals[i] = ensemble.Final(i)
		payoffs[i] = intrinsic(side, finals[i], req.Strike)
	}

	price, stdErr, ci := discountedEstimate(payoffs, req.Rate, req.Maturity)
	stats := summarize(finals, map[string]float64{
		"5th": 5, "25th": 25, "50th": 50, "75th": 75, "95th": 95,
	})

	return &models.SimulationResult{
		Price:              price,
		StdError:           stdErr,
		ConfidenceInterval: ci,
		FinalPriceStats:    &stats,
		NumPaths:           numPaths,
		Model:              "monte-carlo-vanilla",
	}, nil
}
