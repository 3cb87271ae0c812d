// Package signal turns the gap between expected and market-implied growth
// into an ordered buy/sell signal.
package signal

// Signal is one of six ordered bands.
type Signal string

const (
	StrongBuy    Signal = "Strong Buy"
	Buy          Signal = "Buy"
	Hold         Signal = "Hold"
	Caution      Signal = "Caution"
	Sell         Signal = "Sell"
	NotAvailable Signal = "N/A"
)

// Band thresholds in percentage points of growth.
const (
	StrongBuyAbove = 5.0
	BuyAbove       = 2.0
	SellBelow      = -5.0
	CautionBelow   = -2.0
)

// Gap is an expectation gap with an explicit known flag.
type Gap struct {
	Value float64 `json:"value"`
	// Known is false when the implied growth was undefined and Value
	// was computed against 0.
	Known bool `json:"known"`
}

// ExpectationGap returns expected - implied. A nil implied growth counts
// as 0, so the gap equals the expected growth.
func ExpectationGap(expectedGrowthPct float64, impliedGrowthPct *float64) Gap {
	if impliedGrowthPct == nil {
		return Gap{Value: expectedGrowthPct}
	}
	return Gap{Value: expectedGrowthPct - *impliedGrowthPct, Known: true}
}

// Classify maps a gap to a signal. Bands are checked in priority order with
// strict comparisons: a gap of exactly 5 is Buy, exactly -2 is Hold.
func Classify(gap *float64) Signal {
	if gap == nil {
		return NotAvailable
	}
	g := *gap
	switch {
	case g > StrongBuyAbove:
		return StrongBuy
	case g > BuyAbove:
		return Buy
	case g < SellBelow:
		return Sell
	case g < CautionBelow:
		return Caution
	default:
		return Hold
	}
}

// ClassifyValue is Classify for a known gap.
func ClassifyValue(gap float64) Signal {
	return Classify(&gap)
}
