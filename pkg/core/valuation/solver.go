package valuation

import (
	"math"

	"github.com/shopspring/decimal"
)

// SolveStatus describes how a solve ended.
type SolveStatus string

const (
	StatusConverged  SolveStatus = "converged"
	StatusExhausted  SolveStatus = "exhausted"
	StatusDegenerate SolveStatus = "degenerate"
)

// SolverConfig controls the bisection search. Growth bounds are percentages.
type SolverConfig struct {
	LowPct        float64 `yaml:"low_pct" json:"low_pct"`
	HighPct       float64 `yaml:"high_pct" json:"high_pct"`
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
	RelTolerance  float64 `yaml:"rel_tolerance" json:"rel_tolerance"`
}

// DefaultSolverConfig is the [-90%, 200%] bracket with 500 iterations and a
// tolerance of 1e-5 of the target. The bracket covers the market-cap/profit
// ratios seen on listed Indian equities; roots outside it are reported with
// AtBracketEdge.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		LowPct:        -90,
		HighPct:       200,
		MaxIterations: 500,
		RelTolerance:  1e-5,
	}
}

// normalized fills zero fields from the defaults and orders the bracket.
func (c SolverConfig) normalized() SolverConfig {
	def := DefaultSolverConfig()
	if c.LowPct == 0 && c.HighPct == 0 {
		c.LowPct, c.HighPct = def.LowPct, def.HighPct
	}
	if c.LowPct > c.HighPct {
		c.LowPct, c.HighPct = c.HighPct, c.LowPct
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = def.MaxIterations
	}
	if c.RelTolerance <= 0 {
		c.RelTolerance = def.RelTolerance
	}
	return c
}

// GrowthQuery holds the inputs of an implied-growth solve.
type GrowthQuery struct {
	CurrentProfit       float64 `json:"current_profit"`
	TargetEquityValue   float64 `json:"target_value"`
	DiscountRatePercent float64 `json:"discount_rate_pct"`
	ForecastYears       int     `json:"forecast_years"`
	ExitMultiple        float64 `json:"exit_multiple"`
}

// Degenerate reports whether the query has no defined implied growth.
func (q GrowthQuery) Degenerate() bool {
	return q.CurrentProfit <= 0 || q.TargetEquityValue <= 0 || q.ExitMultiple <= 0
}

// SolveResult is the full outcome of a solve. GrowthPct is rounded to 2
// decimal places and is meaningless when Status is StatusDegenerate.
type SolveResult struct {
	GrowthPct     float64     `json:"growth_pct"`
	Converged     bool        `json:"converged"`
	Iterations    int         `json:"iterations"`
	Status        SolveStatus `json:"status"`
	AtBracketEdge bool        `json:"at_bracket_edge"`
}

// Defined reports whether the result carries a growth rate.
func (r SolveResult) Defined() bool {
	return r.Status != StatusDegenerate
}

// Ptr returns the growth rate, or nil when degenerate.
func (r SolveResult) Ptr() *float64 {
	if !r.Defined() {
		return nil
	}
	g := r.GrowthPct
	return &g
}

// bracketEdgeBand is how close (in percentage points) a result may sit to a
// bracket bound before it is flagged as a probable out-of-bracket root.
const bracketEdgeBand = 0.01

// SolveImpliedGrowth inverts ImpliedEquityValue by bisection on growth.
// Value is strictly increasing in growth, so a value below target moves the
// lower bound up. When the budget runs out the midpoint of the final bracket
// is returned with Converged=false.
func SolveImpliedGrowth(q GrowthQuery, cfg SolverConfig) SolveResult {
	if q.Degenerate() {
		return SolveResult{Status: StatusDegenerate}
	}
	cfg = cfg.normalized()

	low, high := cfg.LowPct, cfg.HighPct
	target := q.TargetEquityValue
	tolerance := target * cfg.RelTolerance

	result := SolveResult{Status: StatusExhausted}
	for i := 1; i <= cfg.MaxIterations; i++ {
		mid := (low + high) / 2
		value := ImpliedEquityValue(q.CurrentProfit, mid, q.DiscountRatePercent, q.ForecastYears, q.ExitMultiple)

		if math.Abs(value-target) <= tolerance {
			result.GrowthPct = round2(mid)
			result.Converged = true
			result.Iterations = i
			result.Status = StatusConverged
			result.AtBracketEdge = nearBound(mid, cfg)
			return result
		}

		if value < target {
			low = mid
		} else {
			high = mid
		}
		result.Iterations = i
	}

	mid := (low + high) / 2
	result.GrowthPct = round2(mid)
	result.AtBracketEdge = nearBound(mid, cfg)
	return result
}

// SolveImpliedGrowthRate is the compatibility form of SolveImpliedGrowth with
// the default bracket. ok is false for degenerate input.
func SolveImpliedGrowthRate(currentProfit, targetEquityValue, discountRatePercent float64, forecastYears int, exitMultiple float64) (float64, bool) {
	res := SolveImpliedGrowth(GrowthQuery{
		CurrentProfit:       currentProfit,
		TargetEquityValue:   targetEquityValue,
		DiscountRatePercent: discountRatePercent,
		ForecastYears:       forecastYears,
		ExitMultiple:        exitMultiple,
	}, DefaultSolverConfig())
	if !res.Defined() {
		return 0, false
	}
	return res.GrowthPct, true
}

func nearBound(x float64, cfg SolverConfig) bool {
	return x-cfg.LowPct <= bracketEdgeBand || cfg.HighPct-x <= bracketEdgeBand
}

// round2 rounds half away from zero at 2 decimal places.
func round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
