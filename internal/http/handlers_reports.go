package http

import (
	"log/slog"
	"net/http"
	"time"

	"zenbudget/internal/ledger"
)

type trendPointResponse struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type trendResponse struct {
	Points  []trendPointResponse `json:"points"`
	Peak    float64              `json:"peak"`
	Trough  float64              `json:"trough"`
	Average float64              `json:"average"`
}

func toTrendResponse(s ledger.TrendSeries) trendResponse {
	resp := trendResponse{
		Points:  make([]trendPointResponse, 0, len(s.Points)),
		Peak:    moneyJSON(s.Peak),
		Trough:  moneyJSON(s.Trough),
		Average: moneyJSON(s.Average),
	}
	for _, p := range s.Points {
		resp.Points = append(resp.Points, trendPointResponse{
			Date:  p.Date.Format("2006-01-02"),
			Value: moneyJSON(p.Value),
		})
	}
	return resp
}

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	start, end, err := s.windowFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := s.ledger.NetWorth(r.Context(), start, end)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to compute net worth", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute net worth")
		return
	}
	writeJSON(w, http.StatusOK, toTrendResponse(series))
}

type categoryShareResponse struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

type dayBucketResponse struct {
	Date       string             `json:"date"`
	Income     float64            `json:"income"`
	Expense    float64            `json:"expense"`
	ByCategory map[string]float64 `json:"byCategory"`
}

type summaryResponse struct {
	Income     float64                 `json:"income"`
	Expense    float64                 `json:"expense"`
	ByCategory []categoryShareResponse `json:"byCategory"`
	Days       []dayBucketResponse     `json:"days"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	now := time.Now()
	end, err := dateQuery(r, "end", now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defaultStart := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())
	start, err := dateQuery(r, "start", defaultStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.ledger.Summary(r.Context(), start, end)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to compute period summary", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}

	resp := summaryResponse{
		Income:     moneyJSON(summary.Income),
		Expense:    moneyJSON(summary.Expense),
		ByCategory: make([]categoryShareResponse, 0, len(summary.ByCategory)),
		Days:       make([]dayBucketResponse, 0, len(summary.ByBucket)),
	}
	for _, share := range summary.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryShareResponse{
			Name:    share.Name,
			Value:   moneyJSON(share.Value),
			Percent: share.Percent,
		})
	}
	for _, b := range summary.ByBucket {
		day := dayBucketResponse{
			Date:       b.Date.Format("2006-01-02"),
			Income:     moneyJSON(b.Income),
			Expense:    moneyJSON(b.Expense),
			ByCategory: make(map[string]float64, len(b.ByCategory)),
		}
		for name, v := range b.ByCategory {
			day.ByCategory[name] = moneyJSON(v)
		}
		resp.Days = append(resp.Days, day)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if s.insights == nil {
		writeError(w, http.StatusServiceUnavailable, "insights not configured")
		return
	}

	snap, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load snapshot for insights", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load ledger")
		return
	}

	ins, err := s.insights.Generate(r.Context(), snap, time.Now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to generate insights", "error", err)
		writeError(w, http.StatusBadGateway, "failed to generate insights")
		return
	}
	writeJSON(w, http.StatusOK, ins)
}
