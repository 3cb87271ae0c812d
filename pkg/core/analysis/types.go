package analysis

import (
	"time"

	"reverse_dcf/pkg/core/assumption"
	"reverse_dcf/pkg/core/signal"
	"reverse_dcf/pkg/core/valuation"
)

// Outcome is the explicit tri-state of an analysis.
type Outcome string

const (
	// OutcomeOK: the solver converged inside its bracket.
	OutcomeOK Outcome = "ok"
	// OutcomeDegenerate: non-positive profit, market cap, multiple or horizon.
	OutcomeDegenerate Outcome = "degenerate"
	// OutcomeNotConverged: iteration budget exhausted, or the answer sits on
	// a bracket bound (root probably outside the bracket).
	OutcomeNotConverged Outcome = "not_converged"
)

// Discount rate provenance.
const (
	DiscountDefault  = "default"
	DiscountOverride = "override"
	DiscountCAPM     = "capm"
)

// Report is the complete reverse-DCF profile of one security.
type Report struct {
	Ticker     string    `json:"ticker"`
	Name       string    `json:"name,omitempty"`
	Sector     string    `json:"sector,omitempty"`
	AnalyzedAt time.Time `json:"analyzed_at"`

	// 1. Inputs
	Profit    float64 `json:"profit"`
	MarketCap float64 `json:"market_cap"`
	PE        float64 `json:"pe"`

	// 2. Effective assumptions (defaults with overrides applied)
	Assumptions    assumption.AssumptionSet `json:"assumptions"`
	DiscountSource string                   `json:"discount_source"`

	// 3. Market-implied growth
	Implied          valuation.SolveResult `json:"implied"`
	ImpliedGrowthPct *float64              `json:"implied_growth_pct"` // nil when degenerate

	// 4. Value if the expected growth plays out
	ValueAtExpected valuation.Breakdown `json:"value_at_expected"`
	UpsidePct       float64             `json:"upside_pct"`

	// 5. Signal
	Gap      float64       `json:"gap"`
	GapKnown bool          `json:"gap_known"`
	Signal   signal.Signal `json:"signal"`
	Outcome  Outcome       `json:"outcome"`
}
