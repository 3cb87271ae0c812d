package models

import (
	"time"
)

// Security is the flat market-data record the engine consumes. Price is per
// share; SharesOutstanding, Profit and MarketCap share one currency scale
// (crores on the NSE feed) so MarketCap = Price * SharesOutstanding.
type Security struct {
	Ticker            string    `json:"ticker"`
	Name              string    `json:"name"`
	Sector            string    `json:"sector"`
	Price             float64   `json:"price"`
	SharesOutstanding float64   `json:"shares_outstanding"` // crore shares
	Profit            float64   `json:"profit"`             // trailing PAT
	UpdatedAt         time.Time `json:"updated_at"`
}

// MarketCap returns price * shares outstanding.
func (s Security) MarketCap() float64 {
	return s.Price * s.SharesOutstanding
}

// Overrides replace individual default assumptions. Nil fields keep the
// default.
type Overrides struct {
	DiscountRatePct   *float64 `json:"discount_rate_pct,omitempty"`
	ForecastYears     *int     `json:"forecast_years,omitempty"`
	ExitMultiple      *float64 `json:"exit_multiple,omitempty"`
	ExpectedGrowthPct *float64 `json:"expected_growth_pct,omitempty"`
	// Beta derives the discount rate via CAPM when DiscountRatePct is nil.
	Beta *float64 `json:"beta,omitempty"`
}

func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
