package analysis

import (
	"fmt"
	"strings"
	"time"

	"reverse_dcf/pkg/core/assumption"
	"reverse_dcf/pkg/core/signal"
	"reverse_dcf/pkg/core/valuation"
	"reverse_dcf/pkg/models"
)

// Engine runs the reverse-DCF analysis for securities.
type Engine struct {
	policy assumption.Policy
	solver valuation.SolverConfig
	now    func() time.Time
}

// NewEngine creates an engine over the given policy and solver settings.
func NewEngine(policy assumption.Policy, solver valuation.SolverConfig) *Engine {
	return &Engine{
		policy: policy,
		solver: solver,
		now:    time.Now,
	}
}

// NewDefaultEngine uses the built-in policy and solver bracket.
func NewDefaultEngine() *Engine {
	return NewEngine(assumption.DefaultPolicy(), valuation.DefaultSolverConfig())
}

// Policy returns the engine's assumption policy.
func (e *Engine) Policy() assumption.Policy {
	return e.policy
}

// Solver returns the engine's solver settings.
func (e *Engine) Solver() valuation.SolverConfig {
	return e.solver
}

// Assumptions resolves the effective assumptions for a security: policy
// defaults by market cap and sector, then overrides.
func (e *Engine) Assumptions(sec models.Security, ov models.Overrides) (assumption.AssumptionSet, string) {
	set := e.policy.Defaults(sec.MarketCap(), sec.Sector)
	source := DiscountDefault

	switch {
	case ov.DiscountRatePct != nil:
		set.DiscountRatePercent = *ov.DiscountRatePct
		source = DiscountOverride
	case ov.Beta != nil:
		set.DiscountRatePercent = valuation.CostOfEquity(valuation.DefaultCAPMInput(*ov.Beta)).CostOfEquityPct
		source = DiscountCAPM
	}
	if ov.ForecastYears != nil {
		set.ForecastYears = *ov.ForecastYears
	}
	if ov.ExitMultiple != nil {
		set.ExitMultiple = *ov.ExitMultiple
	}
	if ov.ExpectedGrowthPct != nil {
		set.ExpectedGrowthPercent = *ov.ExpectedGrowthPct
	}
	return set, source
}

// Analyze computes the implied growth, value at expected growth, gap and
// signal for one security. It never fails; degenerate and non-converged
// cases are reported through Outcome.
func (e *Engine) Analyze(sec models.Security, ov models.Overrides) Report {
	marketCap := sec.MarketCap()
	set, source := e.Assumptions(sec, ov)

	report := Report{
		Ticker:         strings.ToUpper(sec.Ticker),
		Name:           sec.Name,
		Sector:         sec.Sector,
		AnalyzedAt:     e.now(),
		Profit:         sec.Profit,
		MarketCap:      marketCap,
		Assumptions:    set,
		DiscountSource: source,
	}
	if sec.Profit > 0 {
		report.PE = marketCap / sec.Profit
	}

	// 1. Market-implied growth
	report.Implied = valuation.SolveImpliedGrowth(valuation.GrowthQuery{
		CurrentProfit:       sec.Profit,
		TargetEquityValue:   marketCap,
		DiscountRatePercent: set.DiscountRatePercent,
		ForecastYears:       set.ForecastYears,
		ExitMultiple:        set.ExitMultiple,
	}, e.solver)

	// 2. Value at expected growth
	report.ValueAtExpected = valuation.ValueComponents(valuation.ValuationInput{
		CurrentProfit:       sec.Profit,
		GrowthRatePercent:   set.ExpectedGrowthPercent,
		DiscountRatePercent: set.DiscountRatePercent,
		ForecastYears:       set.ForecastYears,
		ExitMultiple:        set.ExitMultiple,
	})
	if marketCap > 0 && report.ValueAtExpected.Total > 0 {
		report.UpsidePct = (report.ValueAtExpected.Total - marketCap) / marketCap * 100
	}

	// 3. Outcome
	switch {
	case !report.Implied.Defined() || set.ForecastYears <= 0:
		report.Outcome = OutcomeDegenerate
	case !report.Implied.Converged || report.Implied.AtBracketEdge:
		report.Outcome = OutcomeNotConverged
		fmt.Printf("[ANALYSIS] %s: implied growth %.2f%% not reliable (status=%s, iterations=%d, edge=%v)\n",
			report.Ticker, report.Implied.GrowthPct, report.Implied.Status, report.Implied.Iterations, report.Implied.AtBracketEdge)
	default:
		report.Outcome = OutcomeOK
	}

	// 4. Gap and signal. An undefined implied growth counts as 0 in the
	// gap; GapKnown and Outcome carry the distinction.
	if report.Outcome != OutcomeDegenerate {
		report.ImpliedGrowthPct = report.Implied.Ptr()
	}
	gap := signal.ExpectationGap(set.ExpectedGrowthPercent, report.ImpliedGrowthPct)
	report.Gap = gap.Value
	report.GapKnown = gap.Known
	report.Signal = signal.ClassifyValue(gap.Value)

	return report
}

// Sensitivity solves implied growth on a grid of discount rates and exit
// multiples centred on the security's effective assumptions.
func (e *Engine) Sensitivity(sec models.Security, ov models.Overrides, discountStep, multipleStep float64, k int) valuation.SensitivityTable {
	set, _ := e.Assumptions(sec, ov)
	return valuation.SensitivityGrid(
		sec.Profit,
		sec.MarketCap(),
		set.ForecastYears,
		valuation.Steps(set.DiscountRatePercent, discountStep, k),
		valuation.Steps(set.ExitMultiple, multipleStep, k),
		e.solver,
	)
}
