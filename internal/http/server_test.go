package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"zenbudget/internal/core"
	"zenbudget/internal/insights"
	"zenbudget/internal/ledger"
	"zenbudget/internal/services"
	"zenbudget/internal/storage"
)

type stubLedger struct {
	snap      core.Snapshot
	views     []services.AccountView
	series    ledger.TrendSeries
	summary   ledger.Summary
	statuses  []ledger.BudgetStatus
	addedTx   []core.Transaction
	deleted   []string
	settings  *core.Settings
	imported  []byte
	deleteErr error

	trendStart time.Time
	trendEnd   time.Time
}

func (s *stubLedger) Snapshot(ctx context.Context) (core.Snapshot, error) { return s.snap, nil }

func (s *stubLedger) AccountViews(ctx context.Context, cutoff time.Time) ([]services.AccountView, error) {
	return s.views, nil
}

func (s *stubLedger) NetWorth(ctx context.Context, start, end time.Time) (ledger.TrendSeries, error) {
	s.trendStart, s.trendEnd = start, end
	return s.series, nil
}

func (s *stubLedger) AccountTrend(ctx context.Context, id string, start, end time.Time) (ledger.TrendSeries, error) {
	if id == "missing" {
		return ledger.TrendSeries{}, services.ErrAccountNotFound
	}
	return s.series, nil
}

func (s *stubLedger) Summary(ctx context.Context, start, end time.Time) (ledger.Summary, error) {
	return s.summary, nil
}

func (s *stubLedger) BudgetStatuses(ctx context.Context, year int, month time.Month) ([]ledger.BudgetStatus, error) {
	return s.statuses, nil
}

func (s *stubLedger) AddTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if tx.ID == "" {
		tx.ID = "generated"
	}
	if tx.AccountID == "" {
		tx.AccountID = core.UnlinkedAccount
	}
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.addedTx = append(s.addedTx, tx)
	return tx.ID, nil
}

func (s *stubLedger) DeleteTransaction(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubLedger) SaveAccount(ctx context.Context, a core.Account) (string, error) {
	if a.ID == "" {
		a.ID = "acc-1"
	}
	if err := a.Validate(); err != nil {
		return "", err
	}
	return a.ID, nil
}

func (s *stubLedger) DeleteAccount(ctx context.Context, id string) error { return nil }

func (s *stubLedger) SetBudget(ctx context.Context, category string, period core.BudgetPeriod, value core.Money) error {
	if category == "" {
		return core.ErrEmptyCategory
	}
	if !period.Valid() {
		return core.ErrInvalidPeriod
	}
	return nil
}

func (s *stubLedger) DeleteBudget(ctx context.Context, category string) error { return nil }

func (s *stubLedger) SaveCategory(ctx context.Context, c core.Category) (string, error) {
	if c.ID == "" {
		c.ID = "cat-1"
	}
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c.ID, nil
}

func (s *stubLedger) DeleteCategory(ctx context.Context, id string) error { return nil }

func (s *stubLedger) RenameCategory(ctx context.Context, oldName, newName string) error {
	if oldName == "" || newName == "" {
		return core.ErrEmptyName
	}
	return nil
}

func (s *stubLedger) SaveSettings(ctx context.Context, st core.Settings) error {
	s.settings = &st
	return nil
}

func (s *stubLedger) Import(ctx context.Context, data []byte) error {
	if !strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		return core.ErrInvalidAmount
	}
	s.imported = data
	return nil
}

func (s *stubLedger) Export(ctx context.Context) ([]byte, error) {
	return []byte(`{"transactions":[]}`), nil
}

type stubInsights struct {
	ins insights.Insight
}

func (s *stubInsights) Generate(ctx context.Context, snap core.Snapshot, now time.Time) (insights.Insight, error) {
	return s.ins, nil
}

func newTestServer(t *testing.T, stub *stubLedger, ins InsightGenerator) *Server {
	t.Helper()
	srv := NewServer(":0", stub, ins, 0)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubLedger{}, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s returned %d", path, rec.Code)
		}
	}
}

func TestListAccounts(t *testing.T) {
	stub := &stubLedger{
		views: []services.AccountView{
			{
				Account: core.Account{ID: "a1", Name: "Checking", Kind: core.Asset, InitialBalance: core.Money{Cents: 10000}},
				Balance: core.Money{Cents: 12550},
			},
		},
	}
	srv := newTestServer(t, stub, nil)

	rec := doRequest(srv, http.MethodGet, "/api/accounts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp []accountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if len(resp) != 1 || resp[0].Balance != 125.50 {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestListAccountsRejectsBadDate(t *testing.T) {
	srv := newTestServer(t, &stubLedger{}, nil)
	rec := doRequest(srv, http.MethodGet, "/api/accounts?at=notadate", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", rec.Code)
	}
}

func TestSaveAccountValidation(t *testing.T) {
	srv := newTestServer(t, &stubLedger{}, nil)

	rec := doRequest(srv, http.MethodPost, "/api/accounts", `{"name": "", "kind": "asset"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Empty name: status = %d, want 422", rec.Code)
	}

	rec = doRequest(srv, http.MethodPost, "/api/accounts", `{"name": "Loan", "kind": "mortgage"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Bad kind: status = %d, want 422", rec.Code)
	}

	rec = doRequest(srv, http.MethodPost, "/api/accounts", `{"name": "Checking", "kind": "asset", "initialBalance": 100.50}`)
	if rec.Code != http.StatusOK {
		t.Errorf("Valid account: status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestCreateTransaction(t *testing.T) {
	stub := &stubLedger{}
	srv := newTestServer(t, stub, nil)

	body := `{"amount": "12,50", "type": "expense", "category": "Groceries", "date": "2025-03-10"}`
	rec := doRequest(srv, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, body = %s", rec.Code, rec.Body)
	}
	if len(stub.addedTx) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(stub.addedTx))
	}
	if stub.addedTx[0].Amount.Cents != 1250 {
		t.Errorf("Amount = %d cents, want 1250", stub.addedTx[0].Amount.Cents)
	}
	if stub.addedTx[0].AccountID != core.UnlinkedAccount {
		t.Errorf("AccountID = %q, want unlinked default", stub.addedTx[0].AccountID)
	}
}

func TestCreateTransactionRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, &stubLedger{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"negative amount", `{"amount": "-5", "type": "expense", "category": "X", "date": "2025-03-10"}`},
		{"zero amount", `{"amount": "0", "type": "expense", "category": "X", "date": "2025-03-10"}`},
		{"bad type", `{"amount": "5", "type": "transfer", "category": "X", "date": "2025-03-10"}`},
		{"bad date", `{"amount": "5", "type": "expense", "category": "X", "date": "March 10th"}`},
		{"missing category", `{"amount": "5", "type": "expense", "category": "", "date": "2025-03-10"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(srv, http.MethodPost, "/api/transactions", tt.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("Status = %d, want 422 (body: %s)", rec.Code, rec.Body)
			}
		})
	}
}

func TestDeleteTransactionNotFound(t *testing.T) {
	stub := &stubLedger{deleteErr: storage.ErrNotFound}
	srv := newTestServer(t, stub, nil)

	rec := doRequest(srv, http.MethodDelete, "/api/transactions/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", rec.Code)
	}
}

func TestDeleteTransaction(t *testing.T) {
	stub := &stubLedger{}
	srv := newTestServer(t, stub, nil)

	rec := doRequest(srv, http.MethodDelete, "/api/transactions/t1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Status = %d, want 204", rec.Code)
	}
	if len(stub.deleted) != 1 || stub.deleted[0] != "t1" {
		t.Errorf("Deleted = %v, want [t1]", stub.deleted)
	}
}

func TestAccountTrendNotFound(t *testing.T) {
	srv := newTestServer(t, &stubLedger{}, nil)
	rec := doRequest(srv, http.MethodGet, "/api/accounts/missing/trend", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", rec.Code)
	}
}

func TestNetWorthSeries(t *testing.T) {
	stub := &stubLedger{
		series: ledger.TrendSeries{
			Points: []ledger.TrendPoint{
				{Date: time.Date(2025, time.March, 1, 23, 59, 59, 0, time.UTC), Value: core.Money{Cents: 50000}},
			},
			Peak:    core.Money{Cents: 50000},
			Trough:  core.Money{Cents: 50000},
			Average: core.Money{Cents: 50000},
		},
	}
	srv := newTestServer(t, stub, nil)

	rec := doRequest(srv, http.MethodGet, "/api/networth?start=2025-03-01&end=2025-03-31", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp trendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(resp.Points) != 1 || resp.Points[0].Value != 500 {
		t.Errorf("Unexpected trend response: %+v", resp)
	}
	if resp.Points[0].Date != "2025-03-01" {
		t.Errorf("Point date = %q, want 2025-03-01", resp.Points[0].Date)
	}
}

func TestNetWorthDefaultWindowFromConfig(t *testing.T) {
	stub := &stubLedger{}
	srv := NewServer(":0", stub, nil, 7*24*time.Hour)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	rec := doRequest(srv, http.MethodGet, "/api/networth", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := stub.trendEnd.Sub(stub.trendStart); got != 7*24*time.Hour {
		t.Errorf("Default window = %v, want 168h", got)
	}
}

func TestBudgetStatuses(t *testing.T) {
	stub := &stubLedger{
		statuses: []ledger.BudgetStatus{
			{
				Category:       "Groceries",
				MonthlyLimit:   core.Money{Cents: 30000},
				Adjustment:     core.Money{Cents: 5000},
				EffectiveLimit: core.Money{Cents: 35000},
				Spent:          core.Money{Cents: 20000},
				Remaining:      core.Money{Cents: 15000},
				Percent:        57.14,
			},
		},
	}
	srv := newTestServer(t, stub, nil)

	rec := doRequest(srv, http.MethodGet, "/api/budgets?year=2025&month=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp []budgetStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(resp) != 1 || resp[0].EffectiveLimit != 350 {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestBudgetMonthOutOfRange(t *testing.T) {
	srv := newTestServer(t, &stubLedger{}, nil)
	rec := doRequest(srv, http.MethodGet, "/api/budgets?year=2025&month=13", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", rec.Code)
	}
}

func TestSetBudget(t *testing.T) {
	srv := newTestServer(t, &stubLedger{}, nil)

	rec := doRequest(srv, http.MethodPut, "/api/budgets", `{"category": "Groceries", "period": "monthly", "value": "300"}`)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = doRequest(srv, http.MethodPut, "/api/budgets", `{"category": "Groceries", "period": "weekly", "value": "300"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Bad period: status = %d, want 422", rec.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	stub := &stubLedger{snap: core.Snapshot{Settings: core.Settings{LinkAccounts: true}}}
	srv := newTestServer(t, stub, nil)

	rec := doRequest(srv, http.MethodGet, "/api/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	var got settingsPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if !got.EnableAccountLinking {
		t.Error("Expected enableAccountLinking true")
	}

	rec = doRequest(srv, http.MethodPut, "/api/settings", `{"enableAccountLinking": false, "accumulateSurplus": true, "deductExcess": true}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("PUT status = %d", rec.Code)
	}
	if stub.settings == nil || !stub.settings.AccumulateSurplus || !stub.settings.DeductExcess {
		t.Errorf("Settings not saved: %+v", stub.settings)
	}
}

func TestImportExport(t *testing.T) {
	stub := &stubLedger{}
	srv := newTestServer(t, stub, nil)

	rec := doRequest(srv, http.MethodPost, "/api/import", `{"transactions": []}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Import status = %d, body = %s", rec.Code, rec.Body)
	}
	if stub.imported == nil {
		t.Error("Import did not reach the service")
	}

	rec = doRequest(srv, http.MethodPost, "/api/import", `not json`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Bad import status = %d, want 422", rec.Code)
	}

	rec = doRequest(srv, http.MethodGet, "/api/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Export status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "ZenBudget_Backup.json") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestInsightsUnavailableWithoutGenerator(t *testing.T) {
	srv := newTestServer(t, &stubLedger{}, nil)
	rec := doRequest(srv, http.MethodGet, "/api/insights", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", rec.Code)
	}
}

func TestInsights(t *testing.T) {
	gen := &stubInsights{ins: insights.Insight{Tip: "spend less", Analysis: "a", Recommendation: "b"}}
	srv := newTestServer(t, &stubLedger{}, gen)

	rec := doRequest(srv, http.MethodGet, "/api/insights", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, body = %s", rec.Code, rec.Body)
	}
	var ins insights.Insight
	if err := json.Unmarshal(rec.Body.Bytes(), &ins); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if ins.Tip != "spend less" {
		t.Errorf("Tip = %q", ins.Tip)
	}
}

func TestRenameCategory(t *testing.T) {
	srv := newTestServer(t, &stubLedger{}, nil)

	rec := doRequest(srv, http.MethodPost, "/api/categories/rename", `{"oldName": "Food", "newName": "Groceries"}`)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = doRequest(srv, http.MethodPost, "/api/categories/rename", `{"oldName": "", "newName": "X"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Empty old name: status = %d, want 422", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubLedger{}, nil)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/api/networth"},
		{http.MethodPut, "/api/transactions"},
		{http.MethodGet, "/api/import"},
		{http.MethodPost, "/api/export"},
	}
	for _, tt := range tests {
		rec := doRequest(srv, tt.method, tt.path, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: status = %d, want 405", tt.method, tt.path, rec.Code)
		}
	}
}
