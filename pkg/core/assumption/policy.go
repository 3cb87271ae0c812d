// Package assumption supplies default valuation assumptions for a security
// from its market-cap bucket and sector label.
package assumption

import "strings"

// DefaultExitMultiple applies when no sector entry matches.
const DefaultExitMultiple = 20.0

// AssumptionSet is the full set of defaults for one (market cap, sector).
type AssumptionSet struct {
	ForecastYears         int     `json:"forecast_years"`
	DiscountRatePercent   float64 `json:"discount_rate_pct"`
	TerminalGrowthPercent float64 `json:"terminal_growth_pct"`
	ExitMultiple          float64 `json:"exit_multiple"`
	ExpectedGrowthPercent float64 `json:"expected_growth_pct"`
	Category              string  `json:"category"`
}

// CapBucket maps market caps below UpperBound to fixed assumptions. The last
// bucket of a table uses UpperBound <= 0 to mean unbounded.
type CapBucket struct {
	UpperBound            float64
	Category              string
	ForecastYears         int
	DiscountRatePercent   float64
	TerminalGrowthPercent float64
	ExpectedGrowthPercent float64
}

// SectorMultiple maps a lowercase sector keyword to an exit multiple.
type SectorMultiple struct {
	Keyword  string
	Multiple float64
}

// Policy is an ordered lookup table. Buckets are scanned by ascending
// UpperBound and sector keywords in slice order; first match wins.
type Policy struct {
	Buckets      []CapBucket
	Sectors      []SectorMultiple
	FallbackExit float64
}

// Market-cap bucket boundaries, in the caller's unit (crores on the NSE feed).
var defaultBuckets = []CapBucket{
	{UpperBound: 500, Category: "Micro Cap", ForecastYears: 5, DiscountRatePercent: 20, TerminalGrowthPercent: 4, ExpectedGrowthPercent: 20},
	{UpperBound: 5000, Category: "Small Cap", ForecastYears: 7, DiscountRatePercent: 18, TerminalGrowthPercent: 5, ExpectedGrowthPercent: 18},
	{UpperBound: 20000, Category: "Mid Cap", ForecastYears: 10, DiscountRatePercent: 16, TerminalGrowthPercent: 5, ExpectedGrowthPercent: 15},
	{UpperBound: 50000, Category: "Upper Mid Cap", ForecastYears: 10, DiscountRatePercent: 15, TerminalGrowthPercent: 5, ExpectedGrowthPercent: 14},
	{UpperBound: 200000, Category: "Large Cap", ForecastYears: 10, DiscountRatePercent: 15, TerminalGrowthPercent: 5, ExpectedGrowthPercent: 13},
	{UpperBound: 0, Category: "Mega Cap", ForecastYears: 10, DiscountRatePercent: 13, TerminalGrowthPercent: 5, ExpectedGrowthPercent: 11},
}

// Keywords containing "it" (utilities, capital goods, hospitality) must come
// before the bare "it" entry.
var defaultSectors = []SectorMultiple{
	{Keyword: "information technology", Multiple: 28},
	{Keyword: "software", Multiple: 30},
	{Keyword: "utilities", Multiple: 14},
	{Keyword: "capital goods", Multiple: 35},
	{Keyword: "hospitality", Multiple: 30},
	{Keyword: "fmcg", Multiple: 50},
	{Keyword: "consumer", Multiple: 45},
	{Keyword: "paint", Multiple: 55},
	{Keyword: "chemical", Multiple: 35},
	{Keyword: "pharma", Multiple: 30},
	{Keyword: "healthcare", Multiple: 35},
	{Keyword: "bank", Multiple: 15},
	{Keyword: "financ", Multiple: 20},
	{Keyword: "insurance", Multiple: 40},
	{Keyword: "auto", Multiple: 25},
	{Keyword: "cement", Multiple: 30},
	{Keyword: "metal", Multiple: 10},
	{Keyword: "steel", Multiple: 10},
	{Keyword: "mining", Multiple: 10},
	{Keyword: "oil", Multiple: 12},
	{Keyword: "gas", Multiple: 12},
	{Keyword: "power", Multiple: 15},
	{Keyword: "telecom", Multiple: 25},
	{Keyword: "real estate", Multiple: 25},
	{Keyword: "realty", Multiple: 25},
	{Keyword: "retail", Multiple: 60},
	{Keyword: "it", Multiple: 28},
}

// DefaultPolicy returns a copy of the built-in tables.
func DefaultPolicy() Policy {
	return Policy{
		Buckets:      append([]CapBucket(nil), defaultBuckets...),
		Sectors:      append([]SectorMultiple(nil), defaultSectors...),
		FallbackExit: DefaultExitMultiple,
	}
}

// Bucket returns the bucket for marketCap. Boundaries are half-open: a cap
// equal to a bucket's UpperBound falls in the next bucket.
func (p Policy) Bucket(marketCap float64) CapBucket {
	for _, b := range p.Buckets {
		if b.UpperBound <= 0 || marketCap < b.UpperBound {
			return b
		}
	}
	if len(p.Buckets) == 0 {
		return CapBucket{}
	}
	return p.Buckets[len(p.Buckets)-1]
}

// ExitMultiple matches sectorLabel case-insensitively by substring against
// the sector table.
func (p Policy) ExitMultiple(sectorLabel string) float64 {
	fallback := p.FallbackExit
	if fallback <= 0 {
		fallback = DefaultExitMultiple
	}

	label := strings.ToLower(strings.TrimSpace(sectorLabel))
	if label == "" {
		return fallback
	}
	for _, s := range p.Sectors {
		if s.Keyword != "" && strings.Contains(label, strings.ToLower(s.Keyword)) {
			return s.Multiple
		}
	}
	return fallback
}

// Defaults builds the AssumptionSet for a market cap and sector label.
func (p Policy) Defaults(marketCap float64, sectorLabel string) AssumptionSet {
	b := p.Bucket(marketCap)
	return AssumptionSet{
		ForecastYears:         b.ForecastYears,
		DiscountRatePercent:   b.DiscountRatePercent,
		TerminalGrowthPercent: b.TerminalGrowthPercent,
		ExitMultiple:          p.ExitMultiple(sectorLabel),
		ExpectedGrowthPercent: b.ExpectedGrowthPercent,
		Category:              b.Category,
	}
}

// DefaultAssumptions uses the built-in policy.
func DefaultAssumptions(marketCap float64, sectorLabel string) AssumptionSet {
	return defaultPolicy.Defaults(marketCap, sectorLabel)
}

var defaultPolicy = DefaultPolicy()
