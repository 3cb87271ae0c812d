// Package insight asks an LLM for growth expectations and commentary.
package insight

import (
	"context"
	"fmt"
	"math"
	"strings"

	"reverse_dcf/pkg/core/analysis"
	"reverse_dcf/pkg/core/report"
	"reverse_dcf/pkg/core/utils"
	"reverse_dcf/pkg/models"
)

// Agent types used for provider overrides.
const (
	AgentGrowth     = "growth"
	AgentCommentary = "commentary"
)

// Accepted range for an LLM growth estimate, in percent.
const (
	MinGrowthPct = -50.0
	MaxGrowthPct = 100.0
)

// PromptRunner is satisfied by agent.Manager.
type PromptRunner interface {
	ExecutePrompt(ctx context.Context, agentType string, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}

type Estimate struct {
	ExpectedGrowthPct float64 `json:"expected_growth_pct"`
	Rationale         string  `json:"rationale"`
}

type Commentary struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
	Summary  string `json:"summary"`
}

type Advisor struct {
	runner PromptRunner
}

func NewAdvisor(runner PromptRunner) *Advisor {
	return &Advisor{runner: runner}
}

const growthSystemPrompt = `You are an equity analyst covering Indian listed companies.
Estimate the annual net profit growth, in percent, that the company can sustain over the next ten years.
Reply with a single JSON object: {"expected_growth_pct": <number>, "rationale": "<one or two sentences>"}.`

// EstimateGrowth asks for an expected growth figure for sec.
func (a *Advisor) EstimateGrowth(ctx context.Context, sec models.Security) (Estimate, error) {
	prompt := fmt.Sprintf("Company: %s (%s)\nSector: %s\nMarket cap: %s\nNet profit (TTM): %s\n",
		sec.Name, sec.Ticker, sec.Sector, report.FormatCrores(sec.MarketCap()), report.FormatCrores(sec.Profit))

	raw, err := a.runner.ExecutePrompt(ctx, AgentGrowth, prompt, growthSystemPrompt, map[string]interface{}{
		"response_format": map[string]interface{}{"type": "json_object"},
	})
	if err != nil {
		return Estimate{}, fmt.Errorf("growth estimate for %s failed: %w", sec.Ticker, err)
	}
	return parseEstimate(raw)
}

func parseEstimate(raw string) (Estimate, error) {
	var est Estimate
	if err := utils.DecodeLenient(raw, &est); err != nil {
		return Estimate{}, fmt.Errorf("failed to parse growth estimate: %w", err)
	}
	g := est.ExpectedGrowthPct
	if math.IsNaN(g) || math.IsInf(g, 0) || g < MinGrowthPct || g > MaxGrowthPct {
		return Estimate{}, fmt.Errorf("growth estimate %.2f outside [%.0f, %.0f]", g, MinGrowthPct, MaxGrowthPct)
	}
	est.Rationale = strings.TrimSpace(est.Rationale)
	return est, nil
}

const commentarySystemPrompt = `You are an equity analyst. Explain a reverse DCF result to an investor in plain language.
Use short markdown: one opening paragraph with the conclusion, then at most four bullet points. Do not invent numbers.`

// Commentary explains an analysis in prose.
func (a *Advisor) Commentary(ctx context.Context, r analysis.Report) (Commentary, error) {
	raw, err := a.runner.ExecutePrompt(ctx, AgentCommentary, report.Markdown(r), commentarySystemPrompt, nil)
	if err != nil {
		return Commentary{}, fmt.Errorf("commentary for %s failed: %w", r.Ticker, err)
	}

	md := utils.CleanMarkdown(raw)
	if md == "" {
		return Commentary{}, fmt.Errorf("commentary for %s was empty", r.Ticker)
	}
	html, err := report.RenderHTML(md)
	if err != nil {
		return Commentary{}, err
	}
	return Commentary{
		Markdown: md,
		HTML:     html,
		Summary:  utils.FirstParagraph(md),
	}, nil
}
