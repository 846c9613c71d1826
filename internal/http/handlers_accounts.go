package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"zenbudget/internal/core"
	"zenbudget/internal/services"
)

type accountRequest struct {
	ID              string  `json:"id,omitempty"`
	Name            string  `json:"name"`
	Kind            string  `json:"kind"`
	InitialBalance  float64 `json:"initialBalance"`
	Color           string  `json:"color,omitempty"`
	Note            string  `json:"note,omitempty"`
	DebtAmount      float64 `json:"debtAmount,omitempty"`
	RepaymentMonths int     `json:"repaymentMonths,omitempty"`
	SavingsGoal     float64 `json:"savingsGoal,omitempty"`
	SavingsMonths   int     `json:"savingsMonths,omitempty"`
}

type accountResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Kind            string  `json:"kind"`
	Balance         float64 `json:"balance"`
	InitialBalance  float64 `json:"initialBalance"`
	Progress        float64 `json:"progress"`
	Color           string  `json:"color,omitempty"`
	Note            string  `json:"note,omitempty"`
	DebtAmount      float64 `json:"debtAmount,omitempty"`
	RepaymentMonths int     `json:"repaymentMonths,omitempty"`
	SavingsGoal     float64 `json:"savingsGoal,omitempty"`
	SavingsMonths   int     `json:"savingsMonths,omitempty"`
}

func toAccountResponse(v services.AccountView) accountResponse {
	return accountResponse{
		ID:              v.Account.ID,
		Name:            v.Account.Name,
		Kind:            string(v.Account.Kind),
		Balance:         moneyJSON(v.Balance),
		InitialBalance:  moneyJSON(v.Account.InitialBalance),
		Progress:        v.Progress,
		Color:           v.Account.Color,
		Note:            v.Account.Note,
		DebtAmount:      moneyJSON(v.Account.DebtAmount),
		RepaymentMonths: v.Account.RepaymentMonths,
		SavingsGoal:     moneyJSON(v.Account.SavingsGoal),
		SavingsMonths:   v.Account.SavingsMonths,
	}
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listAccounts(w, r)
	case http.MethodPost:
		s.saveAccount(w, r)
	default:
		methodNotAllowed(w, "GET", "POST")
	}
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	cutoff, err := dateQuery(r, "at", time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	views, err := s.ledger.AccountViews(r.Context(), cutoff)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to resolve account views", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load accounts")
		return
	}

	resp := make([]accountResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, toAccountResponse(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) saveAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	acc := core.Account{
		ID:              strings.TrimSpace(req.ID),
		Name:            sanitizeInput(req.Name),
		Kind:            core.AccountKind(req.Kind),
		InitialBalance:  core.FromFloat(req.InitialBalance),
		Color:           sanitizeInput(req.Color),
		Note:            sanitizeInput(req.Note),
		DebtAmount:      core.FromFloat(req.DebtAmount),
		RepaymentMonths: req.RepaymentMonths,
		SavingsGoal:     core.FromFloat(req.SavingsGoal),
		SavingsMonths:   req.SavingsMonths,
	}

	id, err := s.ledger.SaveAccount(r.Context(), acc)
	if err != nil {
		if errors.Is(err, core.ErrEmptyName) || errors.Is(err, core.ErrInvalidKind) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed to save account", "error", err, "name", acc.Name)
		writeError(w, http.StatusInternalServerError, "failed to save account")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// handleAccountByID serves /api/accounts/{id} and /api/accounts/{id}/trend.
func (s *Server) handleAccountByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/accounts/")
	if id, ok := strings.CutSuffix(rest, "/trend"); ok {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "GET")
			return
		}
		s.accountTrend(w, r, id)
		return
	}

	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "DELETE")
		return
	}
	if rest == "" {
		writeError(w, http.StatusBadRequest, "missing account id")
		return
	}
	if err := s.ledger.DeleteAccount(r.Context(), rest); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete account", "error", err, "account_id", rest)
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) accountTrend(w http.ResponseWriter, r *http.Request, id string) {
	start, end, err := s.windowFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := s.ledger.AccountTrend(r.Context(), id, start, end)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to compute account trend", "error", err, "account_id", id)
		writeError(w, http.StatusInternalServerError, "failed to compute trend")
		return
	}
	writeJSON(w, http.StatusOK, toTrendResponse(series))
}

// windowFromQuery reads the optional start/end query, defaulting start to
// the configured trend window back from end.
func (s *Server) windowFromQuery(r *http.Request) (time.Time, time.Time, error) {
	end, err := dateQuery(r, "end", time.Now())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := dateQuery(r, "start", end.Add(-s.trendWindow))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
