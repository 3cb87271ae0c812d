package valuation

// SensitivityCell is one (discount rate, exit multiple) point of the grid.
type SensitivityCell struct {
	DiscountRatePct float64     `json:"discount_rate_pct"`
	ExitMultiple    float64     `json:"exit_multiple"`
	Result          SolveResult `json:"result"`
}

// SensitivityTable is the implied growth across discount rates (rows) and
// exit multiples (columns).
type SensitivityTable struct {
	DiscountRates []float64           `json:"discount_rates"`
	ExitMultiples []float64           `json:"exit_multiples"`
	Cells         [][]SensitivityCell `json:"cells"`
}

// SensitivityGrid solves the implied growth for every combination of the
// given discount rates and exit multiples, holding profit, target and
// horizon fixed.
func SensitivityGrid(currentProfit, targetValue float64, forecastYears int, discountRates, exitMultiples []float64, cfg SolverConfig) SensitivityTable {
	table := SensitivityTable{
		DiscountRates: discountRates,
		ExitMultiples: exitMultiples,
		Cells:         make([][]SensitivityCell, len(discountRates)),
	}

	for i, r := range discountRates {
		row := make([]SensitivityCell, len(exitMultiples))
		for j, m := range exitMultiples {
			row[j] = SensitivityCell{
				DiscountRatePct: r,
				ExitMultiple:    m,
				Result: SolveImpliedGrowth(GrowthQuery{
					CurrentProfit:       currentProfit,
					TargetEquityValue:   targetValue,
					DiscountRatePercent: r,
					ForecastYears:       forecastYears,
					ExitMultiple:        m,
				}, cfg),
			}
		}
		table.Cells[i] = row
	}
	return table
}

// Steps builds a symmetric range around center: center-k*step ... center+k*step.
func Steps(center, step float64, k int) []float64 {
	if k < 0 {
		k = 0
	}
	out := make([]float64, 0, 2*k+1)
	for i := -k; i <= k; i++ {
		out = append(out, center+float64(i)*step)
	}
	return out
}
