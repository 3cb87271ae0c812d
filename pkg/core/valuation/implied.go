package valuation

import "math"

// nearEqualRates is the |r - g| threshold (in decimal form) below which the
// growing-annuity closed form is replaced by termwise summation.
const nearEqualRates = 1e-4

// ValuationInput holds the inputs of the two-stage exit-multiple model.
// Rates are percentages (15 means 15%).
type ValuationInput struct {
	CurrentProfit       float64 `json:"current_profit"`
	GrowthRatePercent   float64 `json:"growth_rate_pct"`
	DiscountRatePercent float64 `json:"discount_rate_pct"`
	ForecastYears       int     `json:"forecast_years"`
	ExitMultiple        float64 `json:"exit_multiple"`
}

// Degenerate reports whether the input has no defined value
// (non-positive profit, exit multiple or horizon).
func (in ValuationInput) Degenerate() bool {
	return in.CurrentProfit <= 0 || in.ExitMultiple <= 0 || in.ForecastYears <= 0
}

// Breakdown splits an implied equity value into its present-value components.
type Breakdown struct {
	PVEarnings float64 `json:"pv_earnings"` // forecast-period profit stream
	PVTerminal float64 `json:"pv_terminal"` // exit multiple applied to final-year profit
	Total      float64 `json:"total"`
}

// ValueComponents computes both present-value components for the input.
// Degenerate inputs yield a zero Breakdown.
func ValueComponents(in ValuationInput) Breakdown {
	if in.Degenerate() {
		return Breakdown{}
	}

	pat := in.CurrentProfit
	g := in.GrowthRatePercent / 100
	r := in.DiscountRatePercent / 100
	n := in.ForecastYears

	growthFactor := math.Pow(1+g, float64(n))
	discountFactor := math.Pow(1+r, float64(n))

	// 1. Forecast period: PV of a growing annuity
	var pvEarnings float64
	if math.Abs(r-g) >= nearEqualRates {
		pvEarnings = pat * (1 + g) * (1 - growthFactor/discountFactor) / (r - g)
	} else {
		// Closed form divides by ~0 here; sum the stream directly
		ratio := (1 + g) / (1 + r)
		term := 1.0
		for t := 1; t <= n; t++ {
			term *= ratio
			pvEarnings += pat * term
		}
	}

	// 2. Terminal value: exit multiple on final-year profit, discounted n periods
	pvTerminal := pat * growthFactor * in.ExitMultiple / discountFactor

	return Breakdown{
		PVEarnings: pvEarnings,
		PVTerminal: pvTerminal,
		Total:      pvEarnings + pvTerminal,
	}
}

// ImpliedEquityValue maps a growth assumption to the equity value it implies.
// It returns 0 when profit, exit multiple or horizon is non-positive.
// No rounding is applied.
func ImpliedEquityValue(currentProfit, growthRatePercent, discountRatePercent float64, forecastYears int, exitMultiple float64) float64 {
	return ValueComponents(ValuationInput{
		CurrentProfit:       currentProfit,
		GrowthRatePercent:   growthRatePercent,
		DiscountRatePercent: discountRatePercent,
		ForecastYears:       forecastYears,
		ExitMultiple:        exitMultiple,
	}).Total
}
