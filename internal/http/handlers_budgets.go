package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"zenbudget/internal/core"
	"zenbudget/internal/ledger"
)

type budgetRequest struct {
	Category string `json:"category"`
	Period   string `json:"period"` // daily, monthly or yearly
	Value    string `json:"value"`  // decimal string
}

type budgetStatusResponse struct {
	Category       string  `json:"category"`
	MonthlyLimit   float64 `json:"monthlyLimit"`
	Adjustment     float64 `json:"adjustment"`
	EffectiveLimit float64 `json:"effectiveLimit"`
	Spent          float64 `json:"spent"`
	Remaining      float64 `json:"remaining"`
	Percent        float64 `json:"percent"`
}

func toBudgetStatusResponse(st ledger.BudgetStatus) budgetStatusResponse {
	return budgetStatusResponse{
		Category:       st.Category,
		MonthlyLimit:   moneyJSON(st.MonthlyLimit),
		Adjustment:     moneyJSON(st.Adjustment),
		EffectiveLimit: moneyJSON(st.EffectiveLimit),
		Spent:          moneyJSON(st.Spent),
		Remaining:      moneyJSON(st.Remaining),
		Percent:        st.Percent,
	}
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listBudgetStatuses(w, r)
	case http.MethodPut:
		s.setBudget(w, r)
	default:
		methodNotAllowed(w, "GET", "PUT")
	}
}

func (s *Server) listBudgetStatuses(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonthQuery(r, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	statuses, err := s.ledger.BudgetStatuses(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to evaluate budgets", "error", err, "year", year, "month", int(month))
		writeError(w, http.StatusInternalServerError, "failed to evaluate budgets")
		return
	}

	resp := make([]budgetStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		resp = append(resp, toBudgetStatusResponse(st))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) setBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.Value)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid value")
		return
	}

	err = s.ledger.SetBudget(r.Context(), sanitizeInput(req.Category), core.BudgetPeriod(req.Period), core.Money{Cents: cents})
	if err != nil {
		if errors.Is(err, core.ErrEmptyCategory) || errors.Is(err, core.ErrInvalidPeriod) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed to set budget", "error", err, "category", req.Category)
		writeError(w, http.StatusInternalServerError, "failed to set budget")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetByCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "DELETE")
		return
	}
	category := strings.TrimPrefix(r.URL.Path, "/api/budgets/")
	if category == "" {
		writeError(w, http.StatusBadRequest, "missing budget category")
		return
	}

	if err := s.ledger.DeleteBudget(r.Context(), category); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete budget", "error", err, "category", category)
		writeError(w, http.StatusInternalServerError, "failed to delete budget")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
