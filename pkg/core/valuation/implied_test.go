package valuation

import (
	"math"
	"testing"
)

func TestImpliedEquityValue_DegenerateInputs(t *testing.T) {
	cases := []struct {
		name                 string
		profit, growth, disc float64
		years                int
		multiple             float64
	}{
		{"zero profit", 0, 10, 15, 10, 20},
		{"negative profit", -50, 10, 15, 10, 20},
		{"zero multiple", 100, 10, 15, 10, 0},
		{"negative multiple", 100, 10, 15, 10, -5},
		{"zero horizon", 100, 10, 15, 0, 20},
		{"negative horizon", 100, 10, 15, -3, 20},
	}
	for _, c := range cases {
		got := ImpliedEquityValue(c.profit, c.growth, c.disc, c.years, c.multiple)
		if got != 0 {
			t.Errorf("%s: expected 0, got %f", c.name, got)
		}
	}
}

func TestImpliedEquityValue_HandComputed(t *testing.T) {
	// g = 0, r = 10%, n = 5, multiple = 20
	// Earnings: 100 * (1 - 1.1^-5) / 0.1 = 379.0787
	// Terminal: 100 * 20 / 1.1^5         = 1241.8426
	b := ValueComponents(ValuationInput{
		CurrentProfit:       100,
		GrowthRatePercent:   0,
		DiscountRatePercent: 10,
		ForecastYears:       5,
		ExitMultiple:        20,
	})

	if math.Abs(b.PVEarnings-379.0787) > 0.0001 {
		t.Errorf("expected PV earnings 379.0787, got %f", b.PVEarnings)
	}
	if math.Abs(b.PVTerminal-1241.8426) > 0.0001 {
		t.Errorf("expected PV terminal 1241.8426, got %f", b.PVTerminal)
	}
	if b.Total != b.PVEarnings+b.PVTerminal {
		t.Errorf("total %f is not the sum of its components", b.Total)
	}
	if got := ImpliedEquityValue(100, 0, 10, 5, 20); got != b.Total {
		t.Errorf("ImpliedEquityValue %f differs from breakdown total %f", got, b.Total)
	}
}

func TestImpliedEquityValue_EqualRatesUsesSummation(t *testing.T) {
	// With g == r every discounted profit term equals PAT, and terminal value
	// is PAT * multiple.
	got := ImpliedEquityValue(1737, 15, 15, 10, 45)
	expected := 1737.0*10 + 1737.0*45

	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("expected finite value, got %f", got)
	}
	if math.Abs(got-expected) > 0.0001 {
		t.Errorf("expected %f, got %f", expected, got)
	}
}

func TestImpliedEquityValue_ContinuousAcrossSingularity(t *testing.T) {
	// |r-g| < 1e-4 (decimal) is 0.01 percentage points. Sample both branches
	// on either side of r = 15%.
	growths := []float64{14.98, 14.989, 14.991, 14.999, 15.0, 15.001, 15.009, 15.011, 15.02}

	prev := math.Inf(-1)
	prevG := 0.0
	for i, g := range growths {
		v := ImpliedEquityValue(1737, g, 15, 10, 45)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("g=%.3f: expected finite value, got %f", g, v)
		}
		if i > 0 {
			if v <= prev {
				t.Errorf("g=%.3f: value %f not above previous %f", g, v, prev)
			}
			// Local slope is ~7,700 per percentage point; allow 2x headroom.
			if jump := v - prev; jump > 2*7700*(g-prevG) {
				t.Errorf("g=%.3f: discontinuity of %f over %.3f points", g, jump, g-prevG)
			}
		}
		prev, prevG = v, g
	}
}

func TestImpliedEquityValue_MonotonicInGrowth(t *testing.T) {
	scenarios := []struct {
		disc     float64
		years    int
		multiple float64
	}{
		{15, 10, 45},
		{10, 5, 20},
		{20, 30, 8},
		{12, 1, 15},
	}
	for _, s := range scenarios {
		prev := math.Inf(-1)
		for g := -90.0; g <= 200.0; g += 0.5 {
			v := ImpliedEquityValue(100, g, s.disc, s.years, s.multiple)
			if !(v > prev) {
				t.Fatalf("r=%.1f n=%d m=%.1f: value not increasing at g=%.1f (%g <= %g)", s.disc, s.years, s.multiple, g, v, prev)
			}
			prev = v
		}
	}
}

func TestImpliedEquityValue_Deterministic(t *testing.T) {
	a := ImpliedEquityValue(1737, 13.37, 15, 10, 45)
	b := ImpliedEquityValue(1737, 13.37, 15, 10, 45)
	if math.Float64bits(a) != math.Float64bits(b) {
		t.Errorf("expected bit-identical results, got %v and %v", a, b)
	}
}

func TestImpliedEquityValue_ReferenceScenario(t *testing.T) {
	// PAT 1737 Cr, 13% expected growth, 15% discount, 10 years, 45x exit.
	got := ImpliedEquityValue(1737, 13, 15, 10, 45)
	if math.Abs(got-82500)/82500 > 0.02 {
		t.Errorf("expected about 82,500 Cr, got %.0f", got)
	}
}

func TestCostOfEquity(t *testing.T) {
	res := CostOfEquity(DefaultCAPMInput(1.0))
	if math.Abs(res.CostOfEquityPct-14.5) > 0.0001 {
		t.Errorf("expected 14.5%%, got %f", res.CostOfEquityPct)
	}

	// D/E 0.5, tax 25% -> BetaL = 1 * (1 + 0.75*0.5) = 1.375
	in := DefaultCAPMInput(1.0)
	in.DebtToEquity = 0.5
	res = CostOfEquity(in)
	if math.Abs(res.LeveredBeta-1.375) > 0.0001 {
		t.Errorf("expected levered beta 1.375, got %f", res.LeveredBeta)
	}
	if math.Abs(res.CostOfEquityPct-17.3125) > 0.0001 {
		t.Errorf("expected 17.3125%%, got %f", res.CostOfEquityPct)
	}
}
