package engine

import (
	"context"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/quantserve/valuation-engine/pkg/utils/errors"
)

// PathEnsemble holds simulated geometric-Brownian-motion price paths, shape
// (NumPaths, Steps+1) with column 0 equal to the initial spot. It is built
// once per call and never mutated afterwards.
type PathEnsemble struct {
	Paths    [][]float64
	NumPaths int
	Steps    int
}

// Final returns the terminal price of path i
func (pe *PathEnsemble) Final(i int) float64 {
	return pe.Paths[i][pe.Steps]
}

// goldenGamma is the splitmix64 stream increment
const goldenGamma = 0x9E3779B97F4A7C15

func splitmix64(x uint64) uint64 {
	x += goldenGamma
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

// pathSource derives an independent random source for one path index.
// Partitioning the stream per path keeps draws bit-for-bit reproducible for a
// given seed no matter how many workers generate paths. The seed is hashed
// before the index offset is applied, so nearby seeds land in unrelated
// regions of the stream instead of sharing shifted substreams.
func pathSource(seed int64, path int) *rand.Rand {
	stream := splitmix64(splitmix64(uint64(seed)) + uint64(path)*goldenGamma)
	return rand.New(rand.NewSource(int64(stream)))
}

// GeneratePaths simulates numPaths risk-neutral GBM paths of steps increments
// over horizon t, using the log-Euler scheme. sigma=0 short-circuits to
// deterministic drift-only paths without consuming the random stream. Path
// generation fans out across the engine worker pool; a cooperative context
// check lets an external scheduler abort long runs.
func (e *Engine) GeneratePaths(ctx context.Context, s0, t, r, sigma float64, steps, numPaths int, seed int64) (*PathEnsemble, error) {
	if s0 <= 0 {
		return nil, errors.InvalidParameterf("spot must be positive, got %g", s0)
	}
	if sigma < 0 {
		return nil, errors.InvalidParameterf("volatility must be non-negative, got %g", sigma)
	}
	if t < 0 {
		return nil, errors.InvalidParameterf("horizon must be non-negative, got %g", t)
	}
	if steps <= 0 || numPaths <= 0 {
		return nil, errors.InvalidParameterf("steps and numPaths must be positive, got %d and %d", steps, numPaths)
	}

	dt := t / float64(steps)
	drift := (r - 0.5*sigma*sigma) * dt
	diffusion := sigma * math.Sqrt(dt)

	ensemble := &PathEnsemble{
		Paths:    make([][]float64, numPaths),
		NumPaths: numPaths,
		Steps:    steps,
	}

	// One contiguous block keeps the ensemble cache-friendly for the
	// per-path payoff scans that follow.
	block := make([]float64, numPaths*(steps+1))
	for i := 0; i < numPaths; i++ {
		ensemble.Paths[i] = block[i*(steps+1) : (i+1)*(steps+1)]
	}

	if sigma == 0 {
		// Degenerate volatility: every path is the deterministic drift path.
		step := math.Exp(drift)
		for i := 0; i < numPaths; i++ {
			path := ensemble.Paths[i]
			path[0] = s0
			for j := 1; j <= steps; j++ {
				path[j] = path[j-1] * step
			}
		}
		return ensemble, nil
	}

	workers := e.cfg.Workers
	if workers > numPaths {
		workers = numPaths
	}
	chunk := (numPaths + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > numPaths {
			hi = numPaths
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if i%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return errors.Timeout("path generation canceled: " + err.Error())
					}
				}
				rng := pathSource(seed, i)
				path := ensemble.Paths[i]
				path[0] = s0
				logPrice := math.Log(s0)
				for j := 1; j <= steps; j++ {
					logPrice += drift + diffusion*rng.NormFloat64()
					path[j] = math.Exp(logPrice)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ensemble, nil
}
