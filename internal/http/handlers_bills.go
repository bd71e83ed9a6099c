package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"
)

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	spec := parseQuerySpec(r.URL.Query())
	asOf := parseAsOf(r.URL.Query(), time.Now())

	result, err := s.bills.Query(r.Context(), principal, spec, asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQueryResultDTO(result))
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	bill, err := s.bills.GetBill(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillDTO(bill))
}

type payRequest struct {
	Method string `json:"method"`
}

func (s *Server) handlePayBill(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	bill, err := s.bills.PayBill(r.Context(), principal, r.PathValue("id"), req.Method, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	// The paid bill changes its owner's summary and the admin rollup.
	s.summaryCache.Delete(bill.OwnerID)
	s.summaryCache.Delete("")

	writeJSON(w, http.StatusOK, toBillDTO(bill))
}

func (s *Server) handleRecentBills(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	bills, err := s.bills.Recent(r.Context(), principal, parseRecentN(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillDTOs(bills))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())
	scope := principal.OwnerScope()

	if summary, ok := s.summaryCache.Get(scope); ok {
		writeJSON(w, http.StatusOK, toSummaryDTO(summary))
		return
	}

	summary, err := s.bills.Summary(r.Context(), principal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.summaryCache.Set(scope, summary)

	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}
