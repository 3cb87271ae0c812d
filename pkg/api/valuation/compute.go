package valuation

import (
	"fmt"
	"net/http"
	"strconv"

	"reverse_dcf/pkg/core/signal"
	coreValuation "reverse_dcf/pkg/core/valuation"
	"reverse_dcf/pkg/models"
)

type ValueRequest struct {
	Profit       float64 `json:"profit"`
	GrowthPct    float64 `json:"growth_pct"`
	DiscountPct  float64 `json:"discount_pct"`
	Years        int     `json:"years"`
	ExitMultiple float64 `json:"exit_multiple"`
}

type ValueResponse struct {
	Value      float64 `json:"value"`
	PVEarnings float64 `json:"pv_earnings"`
	PVTerminal float64 `json:"pv_terminal"`
}

// HandleValue: POST /api/valuation/value
func (h *Handler) HandleValue(w http.ResponseWriter, r *http.Request) {
	if !cors(w, r, "POST") || !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req ValueRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	for name, v := range map[string]float64{"profit": req.Profit, "growth_pct": req.GrowthPct, "discount_pct": req.DiscountPct, "exit_multiple": req.ExitMultiple} {
		if err := checkFinite(name, v); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if err := checkYears(req.Years); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	for name, v := range map[string]float64{"growth_pct": req.GrowthPct, "discount_pct": req.DiscountPct} {
		if err := checkRate(name, v); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	b := coreValuation.ValueComponents(coreValuation.ValuationInput{
		CurrentProfit:       req.Profit,
		GrowthRatePercent:   req.GrowthPct,
		DiscountRatePercent: req.DiscountPct,
		ForecastYears:       req.Years,
		ExitMultiple:        req.ExitMultiple,
	})
	if err := checkResult(map[string]float64{"value": b.Total, "pv_earnings": b.PVEarnings, "pv_terminal": b.PVTerminal}); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, ValueResponse{Value: b.Total, PVEarnings: b.PVEarnings, PVTerminal: b.PVTerminal})
}

type ImpliedGrowthRequest struct {
	Profit       float64 `json:"profit"`
	TargetValue  float64 `json:"target_value"`
	DiscountPct  float64 `json:"discount_pct"`
	Years        int     `json:"years"`
	ExitMultiple float64 `json:"exit_multiple"`
}

type ImpliedGrowthResponse struct {
	ImpliedGrowthPct *float64                  `json:"implied_growth_pct"`
	Converged        bool                      `json:"converged"`
	Iterations       int                       `json:"iterations"`
	Status           coreValuation.SolveStatus `json:"status"`
	AtBracketEdge    bool                      `json:"at_bracket_edge"`
}

// HandleImpliedGrowth: POST /api/valuation/implied-growth
func (h *Handler) HandleImpliedGrowth(w http.ResponseWriter, r *http.Request) {
	if !cors(w, r, "POST") || !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req ImpliedGrowthRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	for name, v := range map[string]float64{"profit": req.Profit, "target_value": req.TargetValue, "discount_pct": req.DiscountPct, "exit_multiple": req.ExitMultiple} {
		if err := checkFinite(name, v); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if err := checkYears(req.Years); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := checkRate("discount_pct", req.DiscountPct); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res := coreValuation.SolveImpliedGrowth(coreValuation.GrowthQuery{
		CurrentProfit:       req.Profit,
		TargetEquityValue:   req.TargetValue,
		DiscountRatePercent: req.DiscountPct,
		ForecastYears:       req.Years,
		ExitMultiple:        req.ExitMultiple,
	}, h.Engine.Solver())

	writeJSON(w, http.StatusOK, ImpliedGrowthResponse{
		ImpliedGrowthPct: res.Ptr(),
		Converged:        res.Converged,
		Iterations:       res.Iterations,
		Status:           res.Status,
		AtBracketEdge:    res.AtBracketEdge,
	})
}

// HandleAssumptions: GET /api/assumptions?market_cap=&sector=
func (h *Handler) HandleAssumptions(w http.ResponseWriter, r *http.Request) {
	if !cors(w, r, "GET") || !allowMethods(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	marketCap, err := strconv.ParseFloat(q.Get("market_cap"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("market_cap must be a number"))
		return
	}
	if err := checkFinite("market_cap", marketCap); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Engine.Policy().Defaults(marketCap, q.Get("sector")))
}

type SignalRequest struct {
	ExpectedGrowthPct float64  `json:"expected_growth_pct"`
	ImpliedGrowthPct  *float64 `json:"implied_growth_pct"`
}

type SignalResponse struct {
	Gap      float64       `json:"gap"`
	GapKnown bool          `json:"gap_known"`
	Signal   signal.Signal `json:"signal"`
}

// HandleSignal: POST /api/signal. A null implied growth counts as 0 in the
// gap and gap_known is false.
func (h *Handler) HandleSignal(w http.ResponseWriter, r *http.Request) {
	if !cors(w, r, "POST") || !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req SignalRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := checkFinite("expected_growth_pct", req.ExpectedGrowthPct); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ImpliedGrowthPct != nil {
		if err := checkFinite("implied_growth_pct", *req.ImpliedGrowthPct); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	gap := signal.ExpectationGap(req.ExpectedGrowthPct, req.ImpliedGrowthPct)
	writeJSON(w, http.StatusOK, SignalResponse{
		Gap:      gap.Value,
		GapKnown: gap.Known,
		Signal:   signal.ClassifyValue(gap.Value),
	})
}

type AnalysisRequest struct {
	Security  models.Security  `json:"security"`
	Overrides models.Overrides `json:"overrides"`
}

// HandleAnalysis: POST /api/analysis with an ad-hoc security.
func (h *Handler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	if !cors(w, r, "POST") || !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req AnalysisRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validateSecurity(req.Security); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validateOverrides(req.Overrides); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	report := h.Engine.Analyze(req.Security, req.Overrides)
	if err := checkReport(report); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type SensitivityRequest struct {
	Security     models.Security  `json:"security"`
	Overrides    models.Overrides `json:"overrides"`
	DiscountStep float64          `json:"discount_step"`
	MultipleStep float64          `json:"multiple_step"`
	Steps        int              `json:"steps"`
}

// HandleSensitivity: POST /api/sensitivity
func (h *Handler) HandleSensitivity(w http.ResponseWriter, r *http.Request) {
	if !cors(w, r, "POST") || !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req SensitivityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validateSecurity(req.Security); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validateOverrides(req.Overrides); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.DiscountStep <= 0 {
		req.DiscountStep = 1
	}
	if req.MultipleStep <= 0 {
		req.MultipleStep = 5
	}
	if req.Steps <= 0 || req.Steps > 5 {
		req.Steps = 2
	}
	writeJSON(w, http.StatusOK, h.Engine.Sensitivity(req.Security, req.Overrides, req.DiscountStep, req.MultipleStep, req.Steps))
}
