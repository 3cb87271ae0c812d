package valuation

// CAPMInput parameters for deriving a discount rate. Rates are percentages.
type CAPMInput struct {
	RiskFreePct          float64 `json:"risk_free_pct"`
	Beta                 float64 `json:"beta"` // unlevered
	EquityRiskPremiumPct float64 `json:"equity_risk_premium_pct"`
	DebtToEquity         float64 `json:"debt_to_equity"`
	TaxRatePct           float64 `json:"tax_rate_pct"`
}

// CAPMResult holds the relevered beta and the resulting cost of equity.
type CAPMResult struct {
	LeveredBeta     float64 `json:"levered_beta"`
	CostOfEquityPct float64 `json:"cost_of_equity_pct"`
}

// DefaultCAPMInput uses Indian market defaults: 7% risk-free (10Y G-Sec),
// 7.5% equity risk premium, 25% tax.
func DefaultCAPMInput(beta float64) CAPMInput {
	return CAPMInput{
		RiskFreePct:          7.0,
		Beta:                 beta,
		EquityRiskPremiumPct: 7.5,
		TaxRatePct:           25.0,
	}
}

// CostOfEquity computes the equity discount rate using CAPM with a Hamada
// relevered beta. The model discounts equity earnings, so cost of equity
// (not WACC) is the matching rate.
func CostOfEquity(in CAPMInput) CAPMResult {
	// BetaL = BetaU * (1 + (1-t)*(D/E))
	tax := in.TaxRatePct / 100
	leveredBeta := in.Beta * (1 + (1-tax)*in.DebtToEquity)

	// Ke = Rf + BetaL * ERP
	ke := in.RiskFreePct + leveredBeta*in.EquityRiskPremiumPct

	return CAPMResult{
		LeveredBeta:     leveredBeta,
		CostOfEquityPct: ke,
	}
}
