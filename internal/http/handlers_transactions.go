package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"zenbudget/internal/core"
	"zenbudget/internal/storage"
)

type transactionRequest struct {
	Amount    string `json:"amount"` // decimal string, dot or comma separator
	Type      string `json:"type"`
	Category  string `json:"category"`
	AccountID string `json:"accountId,omitempty"`
	Date      string `json:"date"`
	Note      string `json:"note,omitempty"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req transactionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date")
		return
	}

	tx := core.Transaction{
		Amount:    core.Money{Cents: cents},
		Type:      core.TxType(req.Type),
		AccountID: strings.TrimSpace(req.AccountID),
		Category:  sanitizeInput(req.Category),
		Date:      date,
		Note:      sanitizeInput(req.Note),
	}

	id, err := s.ledger.AddTransaction(r.Context(), tx)
	if err != nil {
		if errors.Is(err, core.ErrInvalidType) || errors.Is(err, core.ErrEmptyCategory) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed to add transaction",
			"error", err, "category", tx.Category, "amount_cents", tx.Amount.Cents)
		writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "DELETE")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction id")
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete transaction", "error", err, "transaction_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
