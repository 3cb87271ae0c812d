package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"reverse_dcf/pkg/core/assumption"
	"reverse_dcf/pkg/core/report"
	"reverse_dcf/pkg/core/signal"
	"reverse_dcf/pkg/core/valuation"
)

type valueCmd struct {
	out      io.Writer
	profit   float64
	growth   float64
	discount float64
	years    int
	multiple float64
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "equity value implied by a growth assumption" }
func (*valueCmd) Usage() string {
	return `rdcf value -profit <crores> -growth <pct> [-discount <pct>] [-years <n>] [-multiple <x>]

  Values a company as the present value of its growing profits over the
  forecast horizon plus an exit multiple on the final year's profit.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.profit, "profit", 0, "Current annual profit.")
	f.Float64Var(&c.growth, "growth", 0, "Annual profit growth in percent.")
	f.Float64Var(&c.discount, "discount", 15, "Discount rate in percent.")
	f.IntVar(&c.years, "years", 10, "Forecast horizon in years.")
	f.Float64Var(&c.multiple, "multiple", 20, "Exit P/E multiple.")
}

func (c *valueCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b := valuation.ValueComponents(valuation.ValuationInput{
		CurrentProfit:       c.profit,
		GrowthRatePercent:   c.growth,
		DiscountRatePercent: c.discount,
		ForecastYears:       c.years,
		ExitMultiple:        c.multiple,
	})
	fmt.Fprintf(c.out, "Equity value:      %s\n", report.FormatCrores(b.Total))
	fmt.Fprintf(c.out, "  PV of earnings:  %s\n", report.FormatCrores(b.PVEarnings))
	fmt.Fprintf(c.out, "  PV of exit:      %s\n", report.FormatCrores(b.PVTerminal))
	return subcommands.ExitSuccess
}

type solveCmd struct {
	out      io.Writer
	profit   float64
	target   float64
	discount float64
	years    int
	multiple float64
	low      float64
	high     float64
}

func (*solveCmd) Name() string     { return "solve" }
func (*solveCmd) Synopsis() string { return "growth rate implied by a target equity value" }
func (*solveCmd) Usage() string {
	return `rdcf solve -profit <crores> -target <crores> [-discount <pct>] [-years <n>] [-multiple <x>] [-low <pct>] [-high <pct>]

  Finds by bisection the annual growth rate at which the valuation equals
  the target (usually the market cap).
`
}

func (c *solveCmd) SetFlags(f *flag.FlagSet) {
	def := valuation.DefaultSolverConfig()
	f.Float64Var(&c.profit, "profit", 0, "Current annual profit.")
	f.Float64Var(&c.target, "target", 0, "Target equity value, usually the market cap.")
	f.Float64Var(&c.discount, "discount", 15, "Discount rate in percent.")
	f.IntVar(&c.years, "years", 10, "Forecast horizon in years.")
	f.Float64Var(&c.multiple, "multiple", 20, "Exit P/E multiple.")
	f.Float64Var(&c.low, "low", def.LowPct, "Lower bound of the growth search, in percent.")
	f.Float64Var(&c.high, "high", def.HighPct, "Upper bound of the growth search, in percent.")
}

func (c *solveCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := valuation.DefaultSolverConfig()
	cfg.LowPct, cfg.HighPct = c.low, c.high

	res := valuation.SolveImpliedGrowth(valuation.GrowthQuery{
		CurrentProfit:       c.profit,
		TargetEquityValue:   c.target,
		DiscountRatePercent: c.discount,
		ForecastYears:       c.years,
		ExitMultiple:        c.multiple,
	}, cfg)

	if !res.Defined() {
		fmt.Fprintln(c.out, "Implied growth: N/A (profit, target and multiple must be positive)")
		return subcommands.ExitFailure
	}
	fmt.Fprintf(c.out, "Implied growth: %.2f%%\n", res.GrowthPct)
	fmt.Fprintf(c.out, "Status:         %s after %d iterations\n", res.Status, res.Iterations)
	if res.AtBracketEdge {
		fmt.Fprintf(c.out, "Warning: result is at the edge of [%.0f%%, %.0f%%]; the true rate is probably outside it\n", cfg.LowPct, cfg.HighPct)
	}
	return subcommands.ExitSuccess
}

type assumptionsCmd struct {
	out    io.Writer
	mcap   float64
	sector string
}

func (*assumptionsCmd) Name() string     { return "assumptions" }
func (*assumptionsCmd) Synopsis() string { return "default assumptions for a market cap and sector" }
func (*assumptionsCmd) Usage() string {
	return `rdcf assumptions -mcap <crores> [-sector <label>]
`
}

func (c *assumptionsCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.mcap, "mcap", 0, "Market cap in crores.")
	f.StringVar(&c.sector, "sector", "", "Sector label.")
}

func (c *assumptionsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a := assumption.DefaultAssumptions(c.mcap, c.sector)
	fmt.Fprintf(c.out, "Category:         %s\n", a.Category)
	fmt.Fprintf(c.out, "Forecast years:   %d\n", a.ForecastYears)
	fmt.Fprintf(c.out, "Discount rate:    %.2f%%\n", a.DiscountRatePercent)
	fmt.Fprintf(c.out, "Terminal growth:  %.2f%%\n", a.TerminalGrowthPercent)
	fmt.Fprintf(c.out, "Exit multiple:    %.1fx\n", a.ExitMultiple)
	fmt.Fprintf(c.out, "Expected growth:  %.2f%%\n", a.ExpectedGrowthPercent)
	return subcommands.ExitSuccess
}

type signalCmd struct {
	out      io.Writer
	expected float64
	implied  optFloat
}

func (*signalCmd) Name() string     { return "signal" }
func (*signalCmd) Synopsis() string { return "classify the gap between expected and implied growth" }
func (*signalCmd) Usage() string {
	return `rdcf signal -expected <pct> [-implied <pct>]

  Without -implied the implied growth is treated as unknown and counts as 0.
`
}

func (c *signalCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.expected, "expected", 0, "Expected growth in percent.")
	f.Var(&c.implied, "implied", "Market-implied growth in percent.")
}

func (c *signalCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	gap := signal.ExpectationGap(c.expected, c.implied.v)
	if !gap.Known {
		fmt.Fprintln(os.Stderr, "implied growth unknown, counted as 0")
	}
	fmt.Fprintf(c.out, "Gap:    %+.2f pp\n", gap.Value)
	fmt.Fprintf(c.out, "Signal: %s\n", signal.ClassifyValue(gap.Value))
	return subcommands.ExitSuccess
}
