// Package report renders analysis results for people.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"reverse_dcf/pkg/core/analysis"
	"reverse_dcf/pkg/core/valuation"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// FormatCrores formats an amount in crores as rupees, e.g. "₹93,798.00 Cr".
func FormatCrores(v float64) string {
	cur := money.GetCurrency(money.INR)
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := decimal.NewFromFloat(v).Mul(factor).Round(0).IntPart()
	return money.New(minor, money.INR).Display() + " Cr"
}

func pct(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *p)
}

// Markdown renders one analysis as a markdown document.
func Markdown(r analysis.Report) string {
	var sb strings.Builder
	a := r.Assumptions

	title := r.Ticker
	if r.Name != "" {
		title = fmt.Sprintf("%s (%s)", r.Name, r.Ticker)
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	fmt.Fprintf(&sb, "**Signal: %s**", r.Signal)
	switch r.Outcome {
	case analysis.OutcomeDegenerate:
		sb.WriteString(" (implied growth undefined: profit, market cap or multiple is not positive)")
	case analysis.OutcomeNotConverged:
		sb.WriteString(" (implied growth at the edge of the search range, treat as a bound)")
	}
	sb.WriteString("\n\n")

	sb.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Sector | %s |\n", orDash(r.Sector))
	fmt.Fprintf(&sb, "| Category | %s |\n", a.Category)
	fmt.Fprintf(&sb, "| Market cap | %s |\n", FormatCrores(r.MarketCap))
	fmt.Fprintf(&sb, "| Net profit | %s |\n", FormatCrores(r.Profit))
	if r.PE > 0 {
		fmt.Fprintf(&sb, "| P/E | %.1f |\n", r.PE)
	}
	fmt.Fprintf(&sb, "| Implied growth | %s |\n", pct(r.ImpliedGrowthPct))
	fmt.Fprintf(&sb, "| Expected growth | %.2f%% |\n", a.ExpectedGrowthPercent)
	fmt.Fprintf(&sb, "| Gap | %+.2f pp |\n", r.Gap)
	fmt.Fprintf(&sb, "| Value at expected growth | %s |\n", FormatCrores(r.ValueAtExpected.Total))
	fmt.Fprintf(&sb, "| Upside | %+.1f%% |\n", r.UpsidePct)
	sb.WriteString("\n")

	sb.WriteString("## Assumptions\n\n")
	fmt.Fprintf(&sb, "- Discount rate: %.2f%% (%s)\n", a.DiscountRatePercent, r.DiscountSource)
	fmt.Fprintf(&sb, "- Forecast horizon: %d years\n", a.ForecastYears)
	fmt.Fprintf(&sb, "- Exit multiple: %.1fx\n", a.ExitMultiple)
	fmt.Fprintf(&sb, "- Terminal growth: %.1f%%\n", a.TerminalGrowthPercent)

	if r.ValueAtExpected.Total > 0 {
		share := r.ValueAtExpected.PVTerminal / r.ValueAtExpected.Total * 100
		fmt.Fprintf(&sb, "\nTerminal value is %.0f%% of the value at expected growth.\n", share)
	}
	return sb.String()
}

// SensitivityMarkdown renders a sensitivity grid with discount rates as rows
// and exit multiples as columns.
func SensitivityMarkdown(t valuation.SensitivityTable) string {
	var sb strings.Builder
	sb.WriteString("| Discount \\ Multiple |")
	for _, m := range t.ExitMultiples {
		fmt.Fprintf(&sb, " %.1fx |", m)
	}
	sb.WriteString("\n|---|")
	for range t.ExitMultiples {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")

	for i, d := range t.DiscountRates {
		fmt.Fprintf(&sb, "| %.2f%% |", d)
		for _, c := range t.Cells[i] {
			switch {
			case !c.Result.Defined():
				sb.WriteString(" N/A |")
			case c.Result.AtBracketEdge:
				fmt.Fprintf(&sb, " %.2f%%* |", c.Result.GrowthPct)
			default:
				fmt.Fprintf(&sb, " %.2f%% |", c.Result.GrowthPct)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderHTML converts markdown to HTML.
func RenderHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
