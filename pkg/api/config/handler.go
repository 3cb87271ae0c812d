package config

import (
	"encoding/json"
	"net/http"

	"reverse_dcf/pkg/core/agent"
	"reverse_dcf/pkg/core/valuation"
)

type Response struct {
	ActiveProvider string                 `json:"active_provider"`
	Available      []string               `json:"available"`
	Solver         valuation.SolverConfig `json:"solver"`
}

type SwitchRequest struct {
	Provider string `json:"provider"`
}

type SwitchResponse struct {
	ActiveProvider string `json:"active_provider"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	AgentMgr *agent.Manager
	Solver   valuation.SolverConfig
}

// NewHandler creates a new config handler
func NewHandler(agentMgr *agent.Manager, solver valuation.SolverConfig) *Handler {
	return &Handler{
		AgentMgr: agentMgr,
		Solver:   solver,
	}
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	// CORS headers for local dev
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	resp := Response{
		ActiveProvider: h.AgentMgr.GetActiveProvider(),
		Available:      h.AgentMgr.Available(),
		Solver:         h.Solver,
	}
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.AgentMgr.SetGlobalProvider(req.Provider); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SwitchResponse{ActiveProvider: h.AgentMgr.GetActiveProvider()})
}
