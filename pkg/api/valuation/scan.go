package valuation

import (
	"errors"
	"fmt"
	"net/http"

	"reverse_dcf/pkg/core/analysis"
	"reverse_dcf/pkg/core/scan"
	"reverse_dcf/pkg/core/store"
	"reverse_dcf/pkg/models"
)

// ScanRequest selects stored tickers, inline securities, or (when both are
// empty) every stored security.
type ScanRequest struct {
	Tickers    []string          `json:"tickers"`
	Securities []models.Security `json:"securities"`
	Overrides  models.Overrides  `json:"overrides"`
}

type ScanResponse struct {
	Count   int               `json:"count"`
	Reports []analysis.Report `json:"reports"`
}

// HandleScan: POST /api/scan returns reports ranked by expectation gap.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	if !cors(w, r, "POST") || !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req ScanRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validateOverrides(req.Overrides); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	for _, sec := range req.Securities {
		if err := validateSecurity(sec); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	var (
		reports []analysis.Report
		err     error
	)
	if len(req.Securities) > 0 {
		reports, err = h.Scanner.Run(r.Context(), req.Securities, req.Overrides)
	} else {
		reports, err = h.Scanner.RunTickers(r.Context(), h.Store, req.Tickers, req.Overrides)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		fmt.Printf("[API] scan failed: %v\n", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	ranked := scan.Rank(reports)
	writeJSON(w, http.StatusOK, ScanResponse{Count: len(ranked), Reports: ranked})
}
