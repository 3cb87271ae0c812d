package valuation

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"reverse_dcf/pkg/models"
)

// HandleSecurities: GET lists stored securities, POST upserts one.
func (h *Handler) HandleSecurities(w http.ResponseWriter, r *http.Request) {
	if !cors(w, r, "GET, POST") || !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodPost {
		var sec models.Security
		if err := decode(r, &sec); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := validateSecurity(sec); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := h.Store.UpsertSecurity(r.Context(), sec); err != nil {
			writeStoreError(w, err)
			return
		}
		saved, err := h.Store.GetSecurity(r.Context(), sec.Ticker)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
		return
	}

	list, err := h.Store.ListSecurities(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleSecurityAnalysis: GET /api/securities/{ticker}/analysis. Query
// parameters discount_rate_pct, forecast_years, exit_multiple,
// expected_growth_pct and beta override the defaults.
func (h *Handler) HandleSecurityAnalysis(w http.ResponseWriter, r *http.Request) {
	if !cors(w, r, "GET") || !allowMethods(w, r, http.MethodGet) {
		return
	}

	ov, err := parseOverrides(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sec, err := h.Store.GetSecurity(r.Context(), r.PathValue("ticker"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	report := h.Engine.Analyze(sec, ov)
	if err := checkReport(report); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleRefresh: POST /api/securities/{ticker}/refresh re-fetches one
// security from the quote site.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if !cors(w, r, "POST") || !allowMethods(w, r, http.MethodPost) {
		return
	}
	if h.Fetcher == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("ingest is not configured"))
		return
	}

	sec, err := h.Fetcher.Fetch(r.Context(), r.PathValue("ticker"))
	if err != nil {
		fmt.Printf("[API] refresh %s failed: %v\n", r.PathValue("ticker"), err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	if err := h.Store.UpsertSecurity(r.Context(), *sec); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sec)
}

// HandleEstimate: POST /api/securities/{ticker}/estimate asks the LLM for
// an expected growth rate.
func (h *Handler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	if !cors(w, r, "POST") || !allowMethods(w, r, http.MethodPost) {
		return
	}
	if h.Advisor == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("llm advisor is not configured"))
		return
	}

	sec, err := h.Store.GetSecurity(r.Context(), r.PathValue("ticker"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	est, err := h.Advisor.EstimateGrowth(r.Context(), sec)
	if err != nil {
		fmt.Printf("[API] estimate %s failed: %v\n", sec.Ticker, err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// HandleCommentary: POST (or GET) /api/securities/{ticker}/commentary
// explains the analysis in prose. Query overrides apply as for analysis.
func (h *Handler) HandleCommentary(w http.ResponseWriter, r *http.Request) {
	if !cors(w, r, "GET, POST") || !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	if h.Advisor == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("llm advisor is not configured"))
		return
	}

	ov, err := parseOverrides(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sec, err := h.Store.GetSecurity(r.Context(), r.PathValue("ticker"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	report := h.Engine.Analyze(sec, ov)
	if err := checkReport(report); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	c, err := h.Advisor.Commentary(r.Context(), report)
	if err != nil {
		fmt.Printf("[API] commentary %s failed: %v\n", sec.Ticker, err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func parseOverrides(q url.Values) (models.Overrides, error) {
	var ov models.Overrides

	floatParam := func(name string) (*float64, error) {
		raw := q.Get(name)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", name)
		}
		return &v, nil
	}

	var err error
	if ov.DiscountRatePct, err = floatParam("discount_rate_pct"); err != nil {
		return ov, err
	}
	if ov.ExitMultiple, err = floatParam("exit_multiple"); err != nil {
		return ov, err
	}
	if ov.ExpectedGrowthPct, err = floatParam("expected_growth_pct"); err != nil {
		return ov, err
	}
	if ov.Beta, err = floatParam("beta"); err != nil {
		return ov, err
	}
	if raw := q.Get("forecast_years"); raw != "" {
		years, err := strconv.Atoi(raw)
		if err != nil {
			return ov, fmt.Errorf("forecast_years must be an integer")
		}
		ov.ForecastYears = &years
	}
	return ov, validateOverrides(ov)
}
