package engine

import (
	"runtime"
	"strings"

	"github.com/quantserve/valuation-engine/pkg/models"
	"github.com/quantserve/valuation-engine/pkg/utils/errors"
	"github.com/quantserve/valuation-engine/pkg/utils/logger"
	"github.com/quantserve/valuation-engine/pkg/utils/pools"
)

// OptionSide distinguishes calls from puts
type OptionSide int

const (
	Call OptionSide = iota
	Put
)

// String returns the wire name of the side
func (s OptionSide) String() string {
	if s == Put {
		return "put"
	}
	return "call"
}

// AverageKind selects the averaging rule of an Asian option
type AverageKind int

const (
	Arithmetic AverageKind = iota
	Geometric
)

// BarrierKind selects the knock direction and activation rule
type BarrierKind int

const (
	DownOut BarrierKind = iota
	UpOut
	DownIn
	UpIn
)

// LookbackKind selects floating or fixed strike
type LookbackKind int

const (
	Floating LookbackKind = iota
	Fixed
)

// ExoticSpec is a closed tagged variant describing a path-dependent payoff.
// Exactly one of Asian, Barrier, Lookback is non-nil; it is resolved from the
// wire request once, so invalid discriminants cannot reach the payoff loop.
type ExoticSpec struct {
	Asian    *AsianSpec
	Barrier  *BarrierSpec
	Lookback *LookbackSpec
}

// AsianSpec describes an average-price option
type AsianSpec struct {
	Average AverageKind
}

// BarrierSpec describes a knock-in/knock-out option
type BarrierSpec struct {
	Level float64
	Kind  BarrierKind
}

// LookbackSpec describes a path-extremum option
type LookbackSpec struct {
	Kind LookbackKind
}

// DefaultSeed is reused whenever a request does not carry a seed, so repeated
// calls with identical parameters stay cache-identical. This mirrors the
// fixed-seed behavior the simulation contract was built around.
const DefaultSeed int64 = 42

// Config holds engine-wide defaults
type Config struct {
	Workers         int
	DefaultNumPaths int
	DefaultSteps    int
}

// Engine evaluates the pure valuation call contracts. It holds no cross-call
// state beyond configuration and scratch-buffer pools, so any number of calls
// may run concurrently.
type Engine struct {
	cfg     Config
	scratch *pools.Float64SlicePool
	log     *logger.Logger
}

// New creates a valuation engine
func New(cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.DefaultNumPaths <= 0 {
		cfg.DefaultNumPaths = 10000
	}
	if cfg.DefaultSteps <= 0 {
		cfg.DefaultSteps = 252
	}
	return &Engine{
		cfg:     cfg,
		scratch: pools.NewFloat64SlicePool(cfg.DefaultNumPaths),
		log:     logger.GetLogger("engine"),
	}
}

// ParseSide resolves a wire side discriminant. An empty side defaults to call,
// matching the upstream request contract.
func ParseSide(side string) (OptionSide, error) {
	switch strings.ToLower(side) {
	case "", "call":
		return Call, nil
	case "put":
		return Put, nil
	default:
		return Call, errors.InvalidParameterf("unknown option side %q", side)
	}
}

// ParseExoticSpec resolves the wire exotic discriminants into a closed variant
func ParseExoticSpec(req *models.ExoticRequest) (ExoticSpec, error) {
	switch strings.ToLower(req.Kind) {
	case "asian":
		avg := Arithmetic
		switch strings.ToLower(req.AverageType) {
		case "", "arithmetic":
		case "geometric":
			avg = Geometric
		default:
			return ExoticSpec{}, errors.InvalidParameterf("unknown average type %q", req.AverageType)
		}
		return ExoticSpec{Asian: &AsianSpec{Average: avg}}, nil

	case "barrier":
		if req.Barrier <= 0 {
			return ExoticSpec{}, errors.InvalidParameter("barrier level must be positive")
		}
		var kind BarrierKind
		switch strings.ToLower(req.BarrierType) {
		case "", "down_and_out":
			kind = DownOut
		case "up_and_out":
			kind = UpOut
		case "down_and_in":
			kind = DownIn
		case "up_and_in":
			kind = UpIn
		default:
			return ExoticSpec{}, errors.InvalidParameterf("unknown barrier type %q", req.BarrierType)
		}
		return ExoticSpec{Barrier: &BarrierSpec{Level: req.Barrier, Kind: kind}}, nil

	case "lookback":
		kind := Floating
		switch strings.ToLower(req.LookbackType) {
		case "", "floating":
		case "fixed":
			kind = Fixed
		default:
			return ExoticSpec{}, errors.InvalidParameterf("unknown lookback type %q", req.LookbackType)
		}
		return ExoticSpec{Lookback: &LookbackSpec{Kind: kind}}, nil

	default:
		return ExoticSpec{}, errors.InvalidParameterf("unknown exotic option class %q", req.Kind)
	}
}

// validateOption rejects parameters the pricing domain forbids
func validateOption(s, k, t, sigma float64) error {
	if s <= 0 {
		return errors.InvalidParameterf("spot must be positive, got %g", s)
	}
	if k <= 0 {
		return errors.InvalidParameterf("strike must be positive, got %g", k)
	}
	if t < 0 {
		return errors.InvalidParameterf("maturity must be non-negative, got %g", t)
	}
	if sigma < 0 {
		return errors.InvalidParameterf("volatility must be non-negative, got %g", sigma)
	}
	return nil
}

// intrinsic is the immediate exercise payoff, floored at zero
func intrinsic(side OptionSide, price, strike float64) float64 {
	if side == Call {
		if price > strike {
			return price - strike
		}
		return 0
	}
	if strike > price {
		return strike - price
	}
	return 0
}

func seedOrDefault(seed int64) int64 {
	if seed == 0 {
		return DefaultSeed
	}
	return seed
}
