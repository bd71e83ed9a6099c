package http

import (
	"encoding/json"
	"net/http"
	"time"

	"bollette/internal/billing"
	"bollette/internal/core"
)

type generateRequest struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	// Amount is a decimal string ("1200.00"); amount_cents takes
	// precedence when both are present.
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
}

// amountCents resolves the requested amount, parsing the decimal form
// when no explicit cent value is given.
func (req generateRequest) amountCents() (int64, error) {
	if req.AmountCents != 0 || req.Amount == "" {
		return req.AmountCents, nil
	}
	return core.ParseDecimalToCents(req.Amount)
}

type generateResponse struct {
	Created []billDTO `json:"created"`
	Count   int       `json:"count"`
}

func (s *Server) handleGenerateBills(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cents, err := req.amountCents()
	if err != nil {
		writeError(w, r, err)
		return
	}

	bills, err := s.generator.Generate(r.Context(), billing.GenerateRequest{
		Title:       req.Title,
		Type:        core.BillType(req.Type),
		Amount:      core.Money{Cents: cents},
		Description: req.Description,
	}, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	// New bills land in every resident's summary at once.
	s.summaryCache.Purge()

	writeJSON(w, http.StatusCreated, generateResponse{
		Created: toBillDTOs(bills),
		Count:   len(bills),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.bills.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(stats))
}
