package valuation

import (
	"encoding/json"
	"fmt"
	"net/http"

	"reverse_dcf/pkg/core/store"
	"reverse_dcf/pkg/models"
)

type ScenarioRequest struct {
	Ticker    string           `json:"ticker"`
	Name      string           `json:"name"`
	Overrides models.Overrides `json:"overrides"`
}

// HandleScenarios: POST runs the analysis for a stored security with the
// given overrides and saves it; GET lists scenarios, optionally by ticker.
func (h *Handler) HandleScenarios(w http.ResponseWriter, r *http.Request) {
	if !cors(w, r, "GET, POST") || !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodGet {
		list, err := h.Store.ListScenarios(r.Context(), r.URL.Query().Get("ticker"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
		return
	}

	var req ScenarioRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Ticker == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("ticker is required"))
		return
	}
	if err := validateOverrides(req.Overrides); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sec, err := h.Store.GetSecurity(r.Context(), req.Ticker)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	report := h.Engine.Analyze(sec, req.Overrides)
	if err := checkReport(report); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to encode report: %w", err))
		return
	}

	saved, err := h.Store.SaveScenario(r.Context(), store.Scenario{
		Ticker:    sec.Ticker,
		Name:      req.Name,
		Overrides: req.Overrides,
		Report:    reportJSON,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	fmt.Printf("[API] saved scenario %s for %s\n", saved.ID, saved.Ticker)
	writeJSON(w, http.StatusCreated, saved)
}

// HandleScenario: GET or DELETE /api/scenarios/{id}
func (h *Handler) HandleScenario(w http.ResponseWriter, r *http.Request) {
	if !cors(w, r, "GET, DELETE") || !allowMethods(w, r, http.MethodGet, http.MethodDelete) {
		return
	}

	id := r.PathValue("id")
	if r.Method == http.MethodDelete {
		if err := h.Store.DeleteScenario(r.Context(), id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	sc, err := h.Store.GetScenario(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}
