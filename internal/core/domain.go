package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Asset       AccountKind = "asset"
	Liability   AccountKind = "liability"
	SavingsGoal AccountKind = "savings-goal"
)

const (
	TxExpense TxType = "expense"
	TxIncome  TxType = "income"
)

// UnlinkedAccount is the sentinel account ID for transactions that affect
// no account balance.
const UnlinkedAccount = "unlinked"

type (
	// AccountKind determines an account's balance polarity. Liability and
	// savings-goal are mutually exclusive, so the classification is a single
	// closed variant rather than two boolean flags.
	AccountKind string

	TxType string

	Account struct {
		ID             string
		Name           string
		Kind           AccountKind
		InitialBalance Money
		Color          string // display-only
		Note           string

		// Advisory targets shown as progress bars. Never feed balance math.
		DebtAmount      Money // liability accounts
		RepaymentMonths int
		SavingsGoal     Money // savings-goal accounts
		SavingsMonths   int
	}

	// Transaction is immutable once created; the host only ever deletes or
	// fully replaces one. Amount is always positive, the sign is carried by
	// Type.
	Transaction struct {
		ID        string
		Amount    Money
		Type      TxType
		AccountID string // UnlinkedAccount when the event touches no balance
		Category  string // free-text category name, not foreign-key enforced
		Date      time.Time
		Note      string
	}

	Category struct {
		ID    string
		Name  string // unique key used for aggregation and budget matching
		Icon  string
		Color string
	}

	// Settings are the persisted host toggles the engine consumes.
	Settings struct {
		LinkAccounts      bool
		AccumulateSurplus bool
		DeductExcess      bool
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidKind   = errors.New("invalid account kind")
	ErrEmptyID       = errors.New("empty id")
	ErrEmptyName     = errors.New("empty name")
	ErrEmptyCategory = errors.New("empty category")
	ErrZeroDate      = errors.New("zero date")
	ErrInvalidPeriod = errors.New("invalid budget period")
)

func (k AccountKind) Valid() bool {
	switch k {
	case Asset, Liability, SavingsGoal:
		return true
	}
	return false
}

func (t TxType) Valid() bool {
	return t == TxExpense || t == TxIncome
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

// Validate enforces the ingestion invariants. The ledger engine assumes
// valid input and never re-checks them.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// RepaymentProgress returns the percentage of the advisory debt target
// already repaid, given the current balance (the amount still owed).
// Clamped to [0, 100]; zero for non-liability accounts or a zero target.
func (a Account) RepaymentProgress(balance Money) float64 {
	if a.Kind != Liability || a.DebtAmount.Cents <= 0 {
		return 0
	}
	repaid := a.DebtAmount.Cents - balance.Cents
	return clampPercent(float64(repaid) / float64(a.DebtAmount.Cents) * 100)
}

// SavingsProgress returns the percentage of the savings target reached.
func (a Account) SavingsProgress(balance Money) float64 {
	if a.Kind != SavingsGoal || a.SavingsGoal.Cents <= 0 {
		return 0
	}
	return clampPercent(float64(balance.Cents) / float64(a.SavingsGoal.Cents) * 100)
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
