package report

import (
	"strings"
	"testing"

	"reverse_dcf/pkg/core/analysis"
	"reverse_dcf/pkg/models"
)

func referenceReport() analysis.Report {
	return analysis.NewDefaultEngine().Analyze(models.Security{
		Ticker:            "PIDILITIND",
		Name:              "Pidilite Industries",
		Sector:            "Consumer Durables",
		Price:             2700,
		SharesOutstanding: 34.74,
		Profit:            1737,
	}, models.Overrides{})
}

func TestFormatCrores(t *testing.T) {
	got := FormatCrores(93798)
	if !strings.HasPrefix(got, "₹") || !strings.Contains(got, "93,798.00") || !strings.HasSuffix(got, " Cr") {
		t.Errorf("unexpected format '%s'", got)
	}
	if got := FormatCrores(1737.456); !strings.Contains(got, "1,737.46") {
		t.Errorf("expected rounding to paise, got '%s'", got)
	}
}

func TestMarkdown(t *testing.T) {
	out := Markdown(referenceReport())

	for _, want := range []string{
		"# Pidilite Industries (PIDILITIND)",
		"**Signal: Hold**",
		"| Implied growth | 14.",
		"| Expected growth | 13.00% |",
		"- Discount rate: 15.00% (default)",
		"- Exit multiple: 45.0x",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdown_Degenerate(t *testing.T) {
	r := analysis.NewDefaultEngine().Analyze(models.Security{Ticker: "LOSS", Price: 10, SharesOutstanding: 10, Profit: -5}, models.Overrides{})
	out := Markdown(r)
	if !strings.Contains(out, "| Implied growth | N/A |") {
		t.Errorf("expected N/A implied growth:\n%s", out)
	}
	if !strings.Contains(out, "implied growth undefined") {
		t.Errorf("expected degenerate note:\n%s", out)
	}
}

func TestSensitivityMarkdown(t *testing.T) {
	e := analysis.NewDefaultEngine()
	sec := models.Security{Ticker: "PIDILITIND", Sector: "Consumer Durables", Price: 2700, SharesOutstanding: 34.74, Profit: 1737}
	out := SensitivityMarkdown(e.Sensitivity(sec, models.Overrides{}, 1, 5, 1))

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header, divider and 3 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "45.0x") {
		t.Errorf("expected centre multiple in header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[3], "| 15.00% |") || !strings.Contains(lines[3], "14.77%") {
		t.Errorf("expected centre row with 14.77%%: %s", lines[3])
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(Markdown(referenceReport()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"<h1>", "<table>", "<strong>Signal: Hold</strong>", "<li>"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}
