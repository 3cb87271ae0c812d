package valuation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"reverse_dcf/pkg/core/analysis"
	"reverse_dcf/pkg/core/ingest"
	"reverse_dcf/pkg/core/insight"
	"reverse_dcf/pkg/core/scan"
	"reverse_dcf/pkg/core/store"
	"reverse_dcf/pkg/models"
)

// Horizon limits accepted from clients.
const (
	MinYears = 1
	MaxYears = 50
)

// Handler serves the reverse-DCF endpoints. Advisor and Fetcher are
// optional; their endpoints answer 503 when nil.
type Handler struct {
	Engine  *analysis.Engine
	Store   store.Store
	Scanner *scan.Scanner
	Advisor *insight.Advisor
	Fetcher ingest.Fetcher
}

func NewHandler(engine *analysis.Engine, st store.Store, scanner *scan.Scanner) *Handler {
	return &Handler{
		Engine:  engine,
		Store:   st,
		Scanner: scanner,
	}
}

// Register mounts every endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/valuation/value", h.HandleValue)
	mux.HandleFunc("/api/valuation/implied-growth", h.HandleImpliedGrowth)
	mux.HandleFunc("/api/assumptions", h.HandleAssumptions)
	mux.HandleFunc("/api/signal", h.HandleSignal)
	mux.HandleFunc("/api/analysis", h.HandleAnalysis)
	mux.HandleFunc("/api/sensitivity", h.HandleSensitivity)

	mux.HandleFunc("/api/securities", h.HandleSecurities)
	mux.HandleFunc("/api/securities/{ticker}/analysis", h.HandleSecurityAnalysis)
	mux.HandleFunc("/api/securities/{ticker}/refresh", h.HandleRefresh)
	mux.HandleFunc("/api/securities/{ticker}/estimate", h.HandleEstimate)
	mux.HandleFunc("/api/securities/{ticker}/commentary", h.HandleCommentary)

	mux.HandleFunc("/api/scenarios", h.HandleScenarios)
	mux.HandleFunc("/api/scenarios/{id}", h.HandleScenario)

	mux.HandleFunc("/api/scan", h.HandleScan)
}

// cors sets the local-dev CORS headers and answers preflight requests.
// It returns false when the request has been fully handled.
func cors(w http.ResponseWriter, r *http.Request, methods string) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return false
	}
	return true
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	http.Error(w, fmt.Sprintf("method %s not allowed", r.Method), http.StatusMethodNotAllowed)
	return false
}

// writeJSON encodes v before writing the status line. Encoding failures
// answer 500.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		fmt.Printf("[API] failed to encode response: %v\n", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "{\"error\":%q}\n", "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeStoreError maps store.ErrNotFound to 404 and everything else to 500.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	fmt.Printf("[API] store error: %v\n", err)
	writeError(w, http.StatusInternalServerError, err)
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func checkFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a finite number", name)
	}
	return nil
}

// checkResult rejects non-finite outputs. Finite but extreme inputs can
// overflow inside the valuation.
func checkResult(values map[string]float64) error {
	for name, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s is not a finite number for these inputs", name)
		}
	}
	return nil
}

// checkReport applies checkResult to the numeric fields of an analysis.
func checkReport(r analysis.Report) error {
	values := map[string]float64{
		"pe":                            r.PE,
		"value_at_expected.total":       r.ValueAtExpected.Total,
		"value_at_expected.pv_earnings": r.ValueAtExpected.PVEarnings,
		"value_at_expected.pv_terminal": r.ValueAtExpected.PVTerminal,
		"upside_pct":                    r.UpsidePct,
		"gap":                           r.Gap,
		"implied.growth_pct":            r.Implied.GrowthPct,
	}
	return checkResult(values)
}

// checkRate rejects percentages at or below -100, where 1+r is not positive.
func checkRate(name string, pct float64) error {
	if err := checkFinite(name, pct); err != nil {
		return err
	}
	if pct <= -100 {
		return fmt.Errorf("%s must be greater than -100", name)
	}
	return nil
}

func checkYears(years int) error {
	if years < MinYears || years > MaxYears {
		return fmt.Errorf("years must be between %d and %d, got %d", MinYears, MaxYears, years)
	}
	return nil
}

func validateOverrides(ov models.Overrides) error {
	for name, p := range map[string]*float64{
		"discount_rate_pct":   ov.DiscountRatePct,
		"exit_multiple":       ov.ExitMultiple,
		"expected_growth_pct": ov.ExpectedGrowthPct,
		"beta":                ov.Beta,
	} {
		if p == nil {
			continue
		}
		if err := checkFinite(name, *p); err != nil {
			return err
		}
	}
	if ov.DiscountRatePct != nil {
		if err := checkRate("discount_rate_pct", *ov.DiscountRatePct); err != nil {
			return err
		}
	}
	if ov.ForecastYears != nil {
		return checkYears(*ov.ForecastYears)
	}
	return nil
}

func validateSecurity(sec models.Security) error {
	if sec.Ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	for name, v := range map[string]float64{
		"price":              sec.Price,
		"shares_outstanding": sec.SharesOutstanding,
		"profit":             sec.Profit,
	} {
		if err := checkFinite(name, v); err != nil {
			return err
		}
	}
	return nil
}
