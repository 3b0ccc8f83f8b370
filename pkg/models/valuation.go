package models

// Request and response records for the valuation engine. These are the
// language-agnostic call contracts consumed by the HTTP transport, the Kafka
// task layer and the result cache; string discriminants (side, exotic kind,
// barrier type) are resolved into closed enums once at the engine boundary.

// OptionRequest holds the parameters of a vanilla European option
type OptionRequest struct {
	Spot       float64 `json:"S" binding:"required"`
	Strike     float64 `json:"K" binding:"required"`
	Maturity   float64 `json:"T"`
	Rate       float64 `json:"r"`
	Volatility float64 `json:"sigma"`
	Side       string  `json:"side"`
}

// BinomialTreeRequest prices an option on a CRR lattice
type BinomialTreeRequest struct {
	OptionRequest
	Steps    int  `json:"steps"`
	American bool `json:"american"`
}

// MonteCarloRequest prices a vanilla option by path averaging
type MonteCarloRequest struct {
	OptionRequest
	NumPaths int   `json:"numPaths"`
	Seed     int64 `json:"seed"`
}

// ExoticRequest prices a path-dependent option by Monte Carlo
type ExoticRequest struct {
	OptionRequest
	Kind         string  `json:"kind"`
	Barrier      float64 `json:"barrier,omitempty"`
	BarrierType  string  `json:"barrierType,omitempty"`
	AverageType  string  `json:"averageType,omitempty"`
	LookbackType string  `json:"lookbackType,omitempty"`
	NumPaths     int     `json:"numPaths"`
	Steps        int     `json:"steps"`
	Seed         int64   `json:"seed"`
}

// ImpliedVolRequest inverts the Black-Scholes price for volatility
type ImpliedVolRequest struct {
	MarketPrice float64 `json:"marketPrice" binding:"required"`
	Spot        float64 `json:"S" binding:"required"`
	Strike      float64 `json:"K" binding:"required"`
	Maturity    float64 `json:"T"`
	Rate        float64 `json:"r"`
	Side        string  `json:"side"`
}

// BondRequest resolves the missing one of {yield, price} and reports durations.
// Exactly one of Yield and Price must be supplied.
type BondRequest struct {
	FaceValue        float64  `json:"faceValue" binding:"required"`
	CouponRate       float64  `json:"couponRate"`
	YearsToMaturity  float64  `json:"yearsToMaturity" binding:"required"`
	PaymentFrequency int      `json:"frequency"`
	Yield            *float64 `json:"yield,omitempty"`
	Price            *float64 `json:"price,omitempty"`
}

// PortfolioRequest simulates correlated portfolio returns
type PortfolioRequest struct {
	Weights         []float64   `json:"weights" binding:"required"`
	ExpectedReturns []float64   `json:"expectedReturns" binding:"required"`
	CovMatrix       [][]float64 `json:"covMatrix" binding:"required"`
	InitialValue    float64     `json:"initialValue"`
	TimeHorizon     float64     `json:"timeHorizon"`
	NumSimulations  int         `json:"numSimulations"`
	Seed            int64       `json:"seed"`
}

// NPVRequest discounts a cash-flow schedule
type NPVRequest struct {
	CashFlows    []float64 `json:"cashFlows" binding:"required"`
	DiscountRate float64   `json:"discountRate"`
}

// OptionChainRequest generates prices and Greeks across strikes
type OptionChainRequest struct {
	Spot       float64 `form:"S" binding:"required"`
	Maturity   float64 `form:"T" binding:"required"`
	Rate       float64 `form:"r"`
	Volatility float64 `form:"sigma" binding:"required"`
	StrikeMin  float64 `form:"kMin"`
	StrikeMax  float64 `form:"kMax"`
	StrikeStep float64 `form:"kStep"`
}

// VolSurfaceRequest generates a smile-adjusted price surface
type VolSurfaceRequest struct {
	Spot        float64 `form:"S" binding:"required"`
	Rate        float64 `form:"r"`
	BaseVol     float64 `form:"baseVol"`
	StrikeRange float64 `form:"kRange"`
	MaxMaturity float64 `form:"tMax"`
}

// Greeks holds option price sensitivities
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// PricingResult is the output of a closed-form or lattice valuation
type PricingResult struct {
	Price  float64 `json:"price"`
	Greeks *Greeks `json:"greeks,omitempty"`
	Model  string  `json:"model"`
}

// DistributionStats summarizes a simulated distribution
type DistributionStats struct {
	Mean        float64            `json:"mean"`
	Std         float64            `json:"std"`
	Min         float64            `json:"min"`
	Max         float64            `json:"max"`
	Percentiles map[string]float64 `json:"percentiles"`
}

// SimulationResult is the output of a Monte Carlo valuation
type SimulationResult struct {
	Price              float64            `json:"price"`
	StdError           float64            `json:"stdError"`
	ConfidenceInterval [2]float64         `json:"confidenceInterval"`
	FinalPriceStats    *DistributionStats `json:"finalPriceStats,omitempty"`
	NumPaths           int                `json:"numPaths"`
	Model              string             `json:"model"`
}

// ImpliedVolResult reports the implied-volatility solve outcome. Found is
// false when the no-arbitrage bracket contains no sign change.
type ImpliedVolResult struct {
	ImpliedVol float64 `json:"impliedVol"`
	Found      bool    `json:"found"`
	ModelPrice float64 `json:"modelPrice"`
}

// BondResult reports price, yield and (when the yield is known) durations
type BondResult struct {
	Price            float64  `json:"price"`
	Yield            float64  `json:"yield"`
	MacaulayDuration *float64 `json:"macaulayDuration,omitempty"`
	ModifiedDuration *float64 `json:"modifiedDuration,omitempty"`
}

// PortfolioStats holds the analytic moments of the portfolio
type PortfolioStats struct {
	ExpectedReturn float64 `json:"expectedReturn"`
	Volatility     float64 `json:"volatility"`
	SharpeRatio    float64 `json:"sharpeRatio"`
}

// RiskMetrics holds the loss-distribution measures of a simulation
type RiskMetrics struct {
	VaR95       float64 `json:"var95"`
	VaR99       float64 `json:"var99"`
	CVaR95      float64 `json:"cvar95"`
	CVaR99      float64 `json:"cvar99"`
	MaxDrawdown float64 `json:"maxDrawdown"`
}

// PortfolioResult is the output of a portfolio risk simulation
type PortfolioResult struct {
	Stats       PortfolioStats    `json:"portfolioStats"`
	Simulation  DistributionStats `json:"simulationResults"`
	Risk        RiskMetrics       `json:"riskMetrics"`
	Simulations int               `json:"numSimulations"`
}

// ChainEntry is one strike row of an option chain
type ChainEntry struct {
	Strike    float64 `json:"strike"`
	CallPrice float64 `json:"callPrice"`
	PutPrice  float64 `json:"putPrice"`
	CallDelta float64 `json:"callDelta"`
	PutDelta  float64 `json:"putDelta"`
	Gamma     float64 `json:"gamma"`
	Theta     float64 `json:"theta"`
	Vega      float64 `json:"vega"`
}

// SurfacePoint is one (strike, maturity) node of a volatility surface
type SurfacePoint struct {
	Strike       float64 `json:"strike"`
	TimeToExpiry float64 `json:"timeToExpiry"`
	Volatility   float64 `json:"volatility"`
	CallPrice    float64 `json:"callPrice"`
	PutPrice     float64 `json:"putPrice"`
	Moneyness    float64 `json:"moneyness"`
}
