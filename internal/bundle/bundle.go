// Package bundle reads and writes the JSON backup document the host
// exchanges with the outside world. Decoding is lenient: a malformed entry
// is dropped rather than failing the whole import, and missing collections
// simply come back empty. The wire shape stays compatible with backups
// produced by the original web app, including its legacy liability/savings
// boolean flags.
package bundle

import (
	"encoding/json"
	"fmt"
	"time"

	"zenbudget/internal/core"
)

type document struct {
	Transactions []json.RawMessage `json:"transactions"`
	Budgets      []json.RawMessage `json:"budgets"`
	Accounts     []json.RawMessage `json:"accounts"`
	Categories   []json.RawMessage `json:"categories"`
	Settings     *settingsDTO      `json:"settings,omitempty"`
	ExportDate   string            `json:"exportDate,omitempty"`
}

type transactionDTO struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount"`
	Category  string  `json:"category"`
	AccountID string  `json:"accountId"`
	Note      string  `json:"note"`
	Date      string  `json:"date"`
	Type      string  `json:"type"`
}

type accountDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	InitialBalance  float64 `json:"initialBalance"`
	Color           string  `json:"color,omitempty"`
	Note            string  `json:"note,omitempty"`
	IsLiability     bool    `json:"isLiability,omitempty"`
	DebtAmount      float64 `json:"debtAmount,omitempty"`
	RepaymentMonths int     `json:"repaymentMonths,omitempty"`
	IsSavings       bool    `json:"isSavings,omitempty"`
	SavingsGoal     float64 `json:"savingsGoal,omitempty"`
	SavingsMonths   int     `json:"savingsMonths,omitempty"`
}

type budgetDTO struct {
	Category    string  `json:"category"`
	Limit       float64 `json:"limit"` // monthly, legacy field name
	DailyLimit  float64 `json:"dailyLimit,omitempty"`
	YearlyLimit float64 `json:"yearlyLimit,omitempty"`
}

type categoryDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

type settingsDTO struct {
	EnableAccountLinking     bool `json:"enableAccountLinking"`
	EnableBudgetAccumulation bool `json:"enableBudgetAccumulation"`
	EnableExcessDeduction    bool `json:"enableExcessDeduction"`
}

// Decode parses a backup document into a snapshot. Only a document that is
// not a JSON object at the top level is a hard failure; inside it, every
// entry that does not decode or validate is silently dropped.
func Decode(data []byte) (core.Snapshot, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode bundle: %w", err)
	}

	var snap core.Snapshot
	for _, raw := range doc.Transactions {
		var dto transactionDTO
		if err := json.Unmarshal(raw, &dto); err != nil {
			continue
		}
		tx, ok := dto.toTransaction()
		if !ok {
			continue
		}
		snap.Transactions = append(snap.Transactions, tx)
	}
	for _, raw := range doc.Accounts {
		var dto accountDTO
		if err := json.Unmarshal(raw, &dto); err != nil {
			continue
		}
		acc := dto.toAccount()
		if acc.Validate() != nil {
			continue
		}
		snap.Accounts = append(snap.Accounts, acc)
	}
	for _, raw := range doc.Budgets {
		var dto budgetDTO
		if err := json.Unmarshal(raw, &dto); err != nil || dto.Category == "" {
			continue
		}
		var b core.Budget
		b.Category = dto.Category
		b.SetMonthly(core.FromFloat(dto.Limit))
		snap.Budgets = append(snap.Budgets, b)
	}
	for _, raw := range doc.Categories {
		var dto categoryDTO
		if err := json.Unmarshal(raw, &dto); err != nil {
			continue
		}
		cat := core.Category{ID: dto.ID, Name: dto.Name, Icon: dto.Icon, Color: dto.Color}
		if cat.Validate() != nil {
			continue
		}
		snap.Categories = append(snap.Categories, cat)
	}
	if doc.Settings != nil {
		snap.Settings = core.Settings{
			LinkAccounts:      doc.Settings.EnableAccountLinking,
			AccumulateSurplus: doc.Settings.EnableBudgetAccumulation,
			DeductExcess:      doc.Settings.EnableExcessDeduction,
		}
	}
	return snap, nil
}

// Encode renders a snapshot as a backup document, stamped with the export
// instant.
func Encode(snap core.Snapshot, exportedAt time.Time) ([]byte, error) {
	doc := struct {
		Transactions []transactionDTO `json:"transactions"`
		Budgets      []budgetDTO      `json:"budgets"`
		Accounts     []accountDTO     `json:"accounts"`
		Categories   []categoryDTO    `json:"categories"`
		Settings     settingsDTO      `json:"settings"`
		ExportDate   string           `json:"exportDate"`
	}{
		Transactions: make([]transactionDTO, 0, len(snap.Transactions)),
		Budgets:      make([]budgetDTO, 0, len(snap.Budgets)),
		Accounts:     make([]accountDTO, 0, len(snap.Accounts)),
		Categories:   make([]categoryDTO, 0, len(snap.Categories)),
		Settings: settingsDTO{
			EnableAccountLinking:     snap.Settings.LinkAccounts,
			EnableBudgetAccumulation: snap.Settings.AccumulateSurplus,
			EnableExcessDeduction:    snap.Settings.DeductExcess,
		},
		ExportDate: exportedAt.UTC().Format(time.RFC3339),
	}
	for _, tx := range snap.Transactions {
		doc.Transactions = append(doc.Transactions, transactionDTO{
			ID:        tx.ID,
			Amount:    tx.Amount.Float64(),
			Category:  tx.Category,
			AccountID: tx.AccountID,
			Note:      tx.Note,
			Date:      tx.Date.UTC().Format(time.RFC3339),
			Type:      string(tx.Type),
		})
	}
	for _, b := range snap.Budgets {
		doc.Budgets = append(doc.Budgets, budgetDTO{
			Category:    b.Category,
			Limit:       b.MonthlyLimit.Float64(),
			DailyLimit:  b.DailyLimit.Float64(),
			YearlyLimit: b.YearlyLimit.Float64(),
		})
	}
	for _, a := range snap.Accounts {
		doc.Accounts = append(doc.Accounts, accountDTO{
			ID:              a.ID,
			Name:            a.Name,
			InitialBalance:  a.InitialBalance.Float64(),
			Color:           a.Color,
			Note:            a.Note,
			IsLiability:     a.Kind == core.Liability,
			DebtAmount:      a.DebtAmount.Float64(),
			RepaymentMonths: a.RepaymentMonths,
			IsSavings:       a.Kind == core.SavingsGoal,
			SavingsGoal:     a.SavingsGoal.Float64(),
			SavingsMonths:   a.SavingsMonths,
		})
	}
	for _, c := range snap.Categories {
		doc.Categories = append(doc.Categories, categoryDTO{ID: c.ID, Name: c.Name, Icon: c.Icon, Color: c.Color})
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (d transactionDTO) toTransaction() (core.Transaction, bool) {
	accountID := d.AccountID
	if accountID == "" {
		accountID = core.UnlinkedAccount
	}
	tx := core.Transaction{
		ID:        d.ID,
		Amount:    core.FromFloat(d.Amount),
		Type:      core.TxType(d.Type),
		AccountID: accountID,
		Category:  d.Category,
		Note:      d.Note,
		Date:      parseDate(d.Date),
	}
	return tx, tx.Validate() == nil
}

func (d accountDTO) toAccount() core.Account {
	kind := core.Asset
	// Legacy flag pair; liability wins when a corrupt backup sets both.
	if d.IsLiability {
		kind = core.Liability
	} else if d.IsSavings {
		kind = core.SavingsGoal
	}
	return core.Account{
		ID:              d.ID,
		Name:            d.Name,
		Kind:            kind,
		InitialBalance:  core.FromFloat(d.InitialBalance),
		Color:           d.Color,
		Note:            d.Note,
		DebtAmount:      core.FromFloat(d.DebtAmount),
		RepaymentMonths: d.RepaymentMonths,
		SavingsGoal:     core.FromFloat(d.SavingsGoal),
		SavingsMonths:   d.SavingsMonths,
	}
}

// parseDate accepts RFC 3339 timestamps and plain calendar dates.
func parseDate(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}
