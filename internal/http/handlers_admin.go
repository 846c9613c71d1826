package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"zenbudget/internal/core"
)

type categoryRequest struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req categoryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cat := core.Category{
		ID:    strings.TrimSpace(req.ID),
		Name:  sanitizeInput(req.Name),
		Icon:  sanitizeInput(req.Icon),
		Color: sanitizeInput(req.Color),
	}
	id, err := s.ledger.SaveCategory(r.Context(), cat)
	if err != nil {
		if errors.Is(err, core.ErrEmptyName) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed to save category", "error", err, "name", cat.Name)
		writeError(w, http.StatusInternalServerError, "failed to save category")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

type renameRequest struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

// handleRenameCategory cascades the rename into transactions and budgets so
// name-keyed matching never observes a half-applied rename.
func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req renameRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	oldName := sanitizeInput(req.OldName)
	newName := sanitizeInput(req.NewName)
	if err := s.ledger.RenameCategory(r.Context(), oldName, newName); err != nil {
		if errors.Is(err, core.ErrEmptyName) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed to rename category", "error", err, "old", oldName, "new", newName)
		writeError(w, http.StatusInternalServerError, "failed to rename category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "DELETE")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/categories/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing category id")
		return
	}

	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete category", "error", err, "category_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type settingsPayload struct {
	EnableAccountLinking bool `json:"enableAccountLinking"`
	AccumulateSurplus    bool `json:"accumulateSurplus"`
	DeductExcess         bool `json:"deductExcess"`
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		snap, err := s.ledger.Snapshot(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to load settings", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load settings")
			return
		}
		writeJSON(w, http.StatusOK, settingsPayload{
			EnableAccountLinking: snap.Settings.LinkAccounts,
			AccumulateSurplus:    snap.Settings.AccumulateSurplus,
			DeductExcess:         snap.Settings.DeductExcess,
		})
	case http.MethodPut:
		var req settingsPayload
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		st := core.Settings{
			LinkAccounts:      req.EnableAccountLinking,
			AccumulateSurplus: req.AccumulateSurplus,
			DeductExcess:      req.DeductExcess,
		}
		if err := s.ledger.SaveSettings(r.Context(), st); err != nil {
			slog.ErrorContext(r.Context(), "Failed to save settings", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, "GET", "PUT")
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	data, err := s.ledger.Export(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to export ledger", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ZenBudget_Backup.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "backup document too large")
		return
	}

	if err := s.ledger.Import(r.Context(), body); err != nil {
		slog.ErrorContext(r.Context(), "Failed to import ledger", "error", err)
		writeError(w, http.StatusUnprocessableEntity, "invalid backup document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
