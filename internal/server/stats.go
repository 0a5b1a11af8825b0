package server

import (
	"net/http"

	"receipt-processor/internal/entity"
	"receipt-processor/internal/stats"
)

func (s *Server) handleStatsSummary(w http.ResponseWriter, r *http.Request) {
	amounts, err := s.receipts.Amounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats.Summarize(amounts))
}

func (s *Server) handleVendorSpend(w http.ResponseWriter, r *http.Request) {
	spend, err := s.receipts.VendorSpend(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not compute vendor spend")
		return
	}
	if spend == nil {
		spend = []entity.VendorSpend{}
	}
	writeJSON(w, http.StatusOK, spend)
}

func (s *Server) handleMonthlySpend(w http.ResponseWriter, r *http.Request) {
	spend, err := s.receipts.MonthlySpend(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not compute monthly spend")
		return
	}
	if spend == nil {
		spend = []entity.MonthlySpend{}
	}
	writeJSON(w, http.StatusOK, spend)
}
