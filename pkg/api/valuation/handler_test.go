package valuation

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"reverse_dcf/pkg/core/agent"
	"reverse_dcf/pkg/core/analysis"
	"reverse_dcf/pkg/core/assumption"
	"reverse_dcf/pkg/core/ingest"
	"reverse_dcf/pkg/core/insight"
	"reverse_dcf/pkg/core/scan"
	"reverse_dcf/pkg/core/signal"
	"reverse_dcf/pkg/core/store"
	"reverse_dcf/pkg/models"
)

func reference() models.Security {
	return models.Security{
		Ticker:            "PIDILITIND",
		Name:              "Pidilite Industries",
		Sector:            "Consumer Durables",
		Price:             2700,
		SharesOutstanding: 34.74,
		Profit:            1737,
	}
}

func newTestServer(t *testing.T, opts ...func(*Handler)) (*httptest.Server, *Handler) {
	t.Helper()
	engine := analysis.NewDefaultEngine()
	st := store.NewMemoryStore()
	if err := st.UpsertSecurity(context.Background(), reference()); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	h := NewHandler(engine, st, scan.NewScanner(engine, 2))
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, h
}

func do(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHandleValue(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/valuation/value", ValueRequest{
		Profit: 100, GrowthPct: 0, DiscountPct: 10, Years: 5, ExitMultiple: 20,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out ValueResponse
	decodeInto(t, resp, &out)
	if math.Abs(out.PVTerminal-1241.8426) > 0.001 {
		t.Errorf("expected PV terminal 1241.8426, got %.4f", out.PVTerminal)
	}
	if math.Abs(out.PVEarnings+out.PVTerminal-out.Value) > 1e-9 {
		t.Errorf("components do not sum to value: %+v", out)
	}
}

func TestHandleValue_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := map[string]interface{}{
		"zero years":     ValueRequest{Profit: 100, GrowthPct: 10, DiscountPct: 12, Years: 0, ExitMultiple: 20},
		"too many years": ValueRequest{Profit: 100, GrowthPct: 10, DiscountPct: 12, Years: 51, ExitMultiple: 20},
		"discount -100":  ValueRequest{Profit: 100, GrowthPct: 10, DiscountPct: -100, Years: 5, ExitMultiple: 20},
		"bad json":       `{"profit": "lots"}`,
		"unknown field":  `{"profit": 100, "years": 5, "pe": 20}`,
	}
	for name, body := range cases {
		resp := do(t, http.MethodPost, srv.URL+"/api/valuation/value", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, resp.StatusCode)
		}
	}

	resp := do(t, http.MethodGet, srv.URL+"/api/valuation/value", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodOptions, srv.URL+"/api/valuation/value", nil)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected CORS preflight, got %d", resp.StatusCode)
	}
}

func TestHandleImpliedGrowth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/valuation/implied-growth", ImpliedGrowthRequest{
		Profit: 1737, TargetValue: 93798, DiscountPct: 15, Years: 10, ExitMultiple: 45,
	})
	var out ImpliedGrowthResponse
	decodeInto(t, resp, &out)
	if out.ImpliedGrowthPct == nil || *out.ImpliedGrowthPct != 14.77 {
		t.Errorf("expected 14.77, got %v", out.ImpliedGrowthPct)
	}
	if !out.Converged || out.Status != "converged" || out.AtBracketEdge {
		t.Errorf("unexpected solver state %+v", out)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/valuation/implied-growth", ImpliedGrowthRequest{
		Profit: -5, TargetValue: 93798, DiscountPct: 15, Years: 10, ExitMultiple: 45,
	})
	var raw map[string]interface{}
	decodeInto(t, resp, &raw)
	if v, ok := raw["implied_growth_pct"]; !ok || v != nil {
		t.Errorf("expected null implied growth for loss maker, got %v", raw["implied_growth_pct"])
	}
	if raw["status"] != "degenerate" {
		t.Errorf("expected degenerate status, got %v", raw["status"])
	}
}

func TestHandleAssumptions(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/assumptions?market_cap=93798&sector=Consumer%20Durables", nil)
	var set assumption.AssumptionSet
	decodeInto(t, resp, &set)
	if set.Category != "Large Cap" || set.ExitMultiple != 45 || set.DiscountRatePercent != 15 {
		t.Errorf("unexpected assumptions %+v", set)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/assumptions?market_cap=abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad market cap, got %d", resp.StatusCode)
	}
}

func TestHandleSignal(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/signal", `{"expected_growth_pct": 20, "implied_growth_pct": 12}`)
	var out SignalResponse
	decodeInto(t, resp, &out)
	if out.Gap != 8 || !out.GapKnown || out.Signal != signal.StrongBuy {
		t.Errorf("unexpected signal %+v", out)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/signal", `{"expected_growth_pct": 1.5, "implied_growth_pct": null}`)
	out = SignalResponse{}
	decodeInto(t, resp, &out)
	if out.Gap != 1.5 || out.GapKnown || out.Signal != signal.Hold {
		t.Errorf("unexpected signal for null implied %+v", out)
	}
}

func TestHandleAnalysis(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/analysis", AnalysisRequest{
		Security:  reference(),
		Overrides: models.Overrides{ExpectedGrowthPct: models.Float(22)},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var r analysis.Report
	decodeInto(t, resp, &r)
	if r.Outcome != analysis.OutcomeOK || r.Signal != signal.StrongBuy {
		t.Errorf("expected ok / Strong Buy, got %s / %s", r.Outcome, r.Signal)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/analysis", AnalysisRequest{
		Security:  reference(),
		Overrides: models.Overrides{ForecastYears: models.Int(60)},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for 60-year horizon, got %d", resp.StatusCode)
	}
}

func TestHandleSecurityAnalysis(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/securities/pidilitind/analysis?discount_rate_pct=12", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var r analysis.Report
	decodeInto(t, resp, &r)
	if r.Assumptions.DiscountRatePercent != 12 || r.DiscountSource != analysis.DiscountOverride {
		t.Errorf("query override not applied: %+v", r.Assumptions)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/securities/NOPE/analysis", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, srv.URL+"/api/securities/PIDILITIND/analysis?forecast_years=ten", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandleSecurities(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/securities", models.Security{Ticker: "tcs", Price: 3900, SharesOutstanding: 361.8, Profit: 46000})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/securities", nil)
	var list []models.Security
	decodeInto(t, resp, &list)
	if len(list) != 2 || list[0].Ticker != "PIDILITIND" || list[1].Ticker != "TCS" {
		t.Errorf("unexpected securities %+v", list)
	}
}

func TestHandleScenarios(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/scenarios", ScenarioRequest{
		Ticker:    "pidilitind",
		Name:      "bear",
		Overrides: models.Overrides{DiscountRatePct: models.Float(17)},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var sc store.Scenario
	decodeInto(t, resp, &sc)
	if sc.ID == "" || sc.Ticker != "PIDILITIND" {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	var saved analysis.Report
	if err := json.Unmarshal(sc.Report, &saved); err != nil {
		t.Fatalf("scenario report is not a report: %v", err)
	}
	if saved.Assumptions.DiscountRatePercent != 17 {
		t.Errorf("scenario report ignored overrides: %+v", saved.Assumptions)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/scenarios?ticker=PIDILITIND", nil)
	var list []store.Scenario
	decodeInto(t, resp, &list)
	if len(list) != 1 {
		t.Errorf("expected 1 scenario, got %d", len(list))
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/scenarios/"+sc.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodDelete, srv.URL+"/api/scenarios/"+sc.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, srv.URL+"/api/scenarios/"+sc.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/scenarios", ScenarioRequest{Ticker: "NOPE"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown ticker, got %d", resp.StatusCode)
	}
}

func TestHandleScan(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/scan", ScanRequest{
		Securities: []models.Security{
			reference(),
			{Ticker: "CHEAP", Sector: "Consumer", Price: 100, SharesOutstanding: 100, Profit: 1000},
			{Ticker: "LOSS", Price: 100, SharesOutstanding: 100, Profit: -10},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out ScanResponse
	decodeInto(t, resp, &out)
	if out.Count != 3 {
		t.Fatalf("expected 3 reports, got %d", out.Count)
	}
	if out.Reports[0].Ticker != "CHEAP" || out.Reports[2].Ticker != "LOSS" {
		t.Errorf("unexpected ranking %s, %s, %s", out.Reports[0].Ticker, out.Reports[1].Ticker, out.Reports[2].Ticker)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/scan", ScanRequest{Tickers: []string{"PIDILITIND", "MISSING"}})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown ticker, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/scan", ScanRequest{})
	out = ScanResponse{}
	decodeInto(t, resp, &out)
	if out.Count != 1 {
		t.Errorf("expected every stored security, got %d", out.Count)
	}
}

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, ticker string) (*models.Security, error) {
	if ticker != "TCS" {
		return nil, ingest.ErrParse
	}
	return &models.Security{Ticker: "TCS", Price: 3900, SharesOutstanding: 361.8, Profit: 46000}, nil
}

func TestHandleOptionalServices_Unconfigured(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/securities/TCS/refresh", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without fetcher, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodPost, srv.URL+"/api/securities/PIDILITIND/estimate", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without advisor, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, srv.URL+"/api/securities/PIDILITIND/commentary", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without advisor, got %d", resp.StatusCode)
	}
}

func TestHandleRefresh(t *testing.T) {
	srv, h := newTestServer(t, func(h *Handler) { h.Fetcher = stubFetcher{} })

	resp := do(t, http.MethodPost, srv.URL+"/api/securities/TCS/refresh", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if _, err := h.Store.GetSecurity(context.Background(), "TCS"); err != nil {
		t.Errorf("refreshed security not stored: %v", err)
	}
	resp = do(t, http.MethodPost, srv.URL+"/api/securities/WIPRO/refresh", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502 for fetch failure, got %d", resp.StatusCode)
	}
}

type scriptedRunner struct {
	replies map[string]string
}

func (s scriptedRunner) ExecutePrompt(_ context.Context, agentType string, _ string, _ string, _ map[string]interface{}) (string, error) {
	return s.replies[agentType], nil
}

func TestHandleEstimateAndCommentary(t *testing.T) {
	runner := scriptedRunner{replies: map[string]string{
		insight.AgentGrowth:     `{"expected_growth_pct": 16, "rationale": "pricing power"}`,
		insight.AgentCommentary: "The market prices in **14.8%** growth.",
	}}
	srv, _ := newTestServer(t, func(h *Handler) { h.Advisor = insight.NewAdvisor(runner) })

	resp := do(t, http.MethodPost, srv.URL+"/api/securities/PIDILITIND/estimate", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var est insight.Estimate
	decodeInto(t, resp, &est)
	if est.ExpectedGrowthPct != 16 || est.Rationale != "pricing power" {
		t.Errorf("unexpected estimate %+v", est)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/securities/PIDILITIND/commentary", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var c insight.Commentary
	decodeInto(t, resp, &c)
	if c.Summary != "The market prices in 14.8% growth." {
		t.Errorf("unexpected summary '%s'", c.Summary)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/securities/NOPE/estimate", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandleInsight_ProviderWithoutKey(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	mgr := agent.NewManager(agent.Config{ActiveProvider: "deepseek"})
	srv, _ := newTestServer(t, func(h *Handler) { h.Advisor = insight.NewAdvisor(mgr) })

	resp := do(t, http.MethodPost, srv.URL+"/api/securities/PIDILITIND/estimate", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502 for a provider without a key, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodPost, srv.URL+"/api/securities/PIDILITIND/commentary", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502 for a provider without a key, got %d", resp.StatusCode)
	}
}

func TestHandleValue_NonFiniteResult(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := map[string]string{
		"inf over inf":       `{"profit":100,"growth_pct":1e10,"discount_pct":1e10,"years":50,"exit_multiple":20}`,
		"discount near -100": `{"profit":100,"growth_pct":10,"discount_pct":-99.9999999,"years":50,"exit_multiple":20}`,
	}
	for name, body := range cases {
		resp := do(t, http.MethodPost, srv.URL+"/api/valuation/value", body)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("%s: expected 422, got %d", name, resp.StatusCode)
			continue
		}
		var out errorResponse
		decodeInto(t, resp, &out)
		if out.Error == "" {
			t.Errorf("%s: expected an error message", name)
		}
	}
}

func TestHandleAnalysis_NonFiniteResult(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/securities/PIDILITIND/analysis?discount_rate_pct=-99.9999999&forecast_years=50", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for stored security, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/analysis", map[string]interface{}{
		"security":  reference(),
		"overrides": map[string]interface{}{"discount_rate_pct": -99.9999999, "forecast_years": 50},
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for ad-hoc security, got %d", resp.StatusCode)
	}
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, ValueResponse{Value: math.NaN()})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	var out errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out.Error == "" {
		t.Errorf("expected a JSON error body, got %q", rec.Body.String())
	}
}
