// Package services orchestrates storage writes, engine reads and ledger
// event publishing. The engine stays pure; everything stateful lives here
// or below.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"zenbudget/internal/bundle"
	"zenbudget/internal/core"
	"zenbudget/internal/ledger"
)

// Store is the persistence boundary the service writes through.
type Store interface {
	LoadSnapshot(ctx context.Context) (core.Snapshot, error)
	CreateTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	SaveAccount(ctx context.Context, a core.Account) error
	DeleteAccount(ctx context.Context, id string) error
	SaveBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, category string) error
	SaveCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, id string) error
	RenameCategory(ctx context.Context, oldName, newName string) error
	SaveSettings(ctx context.Context, s core.Settings) error
	ReplaceSnapshot(ctx context.Context, snap core.Snapshot) error
}

// EventPublisher announces ledger changes to interested consumers.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, entity, entityID, action string) error
}

// LedgerService is the host-side orchestrator. A nil publisher disables
// event publishing; a failed publish never fails the local write.
type LedgerService struct {
	store  Store
	events EventPublisher
}

func NewLedgerService(store Store, events EventPublisher) *LedgerService {
	return &LedgerService{store: store, events: events}
}

// Snapshot loads the full bundle for engine computations.
func (s *LedgerService) Snapshot(ctx context.Context) (core.Snapshot, error) {
	return s.store.LoadSnapshot(ctx)
}

// AddTransaction validates and persists a new ledger event. A missing ID is
// assigned; a missing account link falls back to the unlinked sentinel.
func (s *LedgerService) AddTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.AccountID == "" {
		tx.AccountID = core.UnlinkedAccount
	}
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validate transaction: %w", err)
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}
	s.publish(ctx, "transaction", tx.ID, "created")
	return tx.ID, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, "transaction", id, "deleted")
	return nil
}

func (s *LedgerService) SaveAccount(ctx context.Context, a core.Account) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := a.Validate(); err != nil {
		return "", fmt.Errorf("validate account: %w", err)
	}
	if err := s.store.SaveAccount(ctx, a); err != nil {
		return "", fmt.Errorf("save account: %w", err)
	}
	s.publish(ctx, "account", a.ID, "updated")
	return a.ID, nil
}

// DeleteAccount removes the account only. Its transactions become dangling
// references, tolerated everywhere and contributing to no balance.
func (s *LedgerService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.publish(ctx, "account", id, "deleted")
	return nil
}

// SetBudget applies a limit value to one period of a category's budget and
// persists the rederived triple.
func (s *LedgerService) SetBudget(ctx context.Context, category string, period core.BudgetPeriod, value core.Money) error {
	if category == "" {
		return core.ErrEmptyCategory
	}
	snap, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	b, _ := snap.BudgetFor(category)
	b.Category = category
	if err := b.Set(period, value); err != nil {
		return err
	}
	if err := s.store.SaveBudget(ctx, b); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	s.publish(ctx, "budget", category, "updated")
	return nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, category string) error {
	if err := s.store.DeleteBudget(ctx, category); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	s.publish(ctx, "budget", category, "deleted")
	return nil
}

func (s *LedgerService) SaveCategory(ctx context.Context, c core.Category) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := c.Validate(); err != nil {
		return "", fmt.Errorf("validate category: %w", err)
	}
	if err := s.store.SaveCategory(ctx, c); err != nil {
		return "", fmt.Errorf("save category: %w", err)
	}
	s.publish(ctx, "category", c.ID, "updated")
	return c.ID, nil
}

// RenameCategory cascades the new name into transactions and budgets before
// any engine call can observe the rename, preserving name-keyed matching.
func (s *LedgerService) RenameCategory(ctx context.Context, oldName, newName string) error {
	if oldName == "" || newName == "" {
		return core.ErrEmptyName
	}
	if err := s.store.RenameCategory(ctx, oldName, newName); err != nil {
		return fmt.Errorf("rename category: %w", err)
	}
	s.publish(ctx, "category", newName, "updated")
	return nil
}

// DeleteCategory removes only the category row; existing transactions and
// budgets keep the orphaned name as tolerated dangling state.
func (s *LedgerService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.publish(ctx, "category", id, "deleted")
	return nil
}

func (s *LedgerService) SaveSettings(ctx context.Context, st core.Settings) error {
	if err := s.store.SaveSettings(ctx, st); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.publish(ctx, "snapshot", "", "updated")
	return nil
}

// Import replaces the whole stored bundle with a decoded backup document.
func (s *LedgerService) Import(ctx context.Context, data []byte) error {
	snap, err := bundle.Decode(data)
	if err != nil {
		return fmt.Errorf("decode import: %w", err)
	}
	if err := s.store.ReplaceSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	s.publish(ctx, "snapshot", "", "replaced")
	return nil
}

// Export renders the current bundle as a backup document.
func (s *LedgerService) Export(ctx context.Context) ([]byte, error) {
	snap, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return bundle.Encode(snap, time.Now())
}

// AccountView pairs an account with its derived state at a cutoff.
type AccountView struct {
	Account  core.Account
	Balance  core.Money
	Progress float64
}

// AccountViews resolves every account's balance as of the cutoff.
func (s *LedgerService) AccountViews(ctx context.Context, cutoff time.Time) ([]AccountView, error) {
	snap, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	views := make([]AccountView, 0, len(snap.Accounts))
	for _, acc := range snap.Accounts {
		balance := ledger.BalanceAsOf(acc, snap.Transactions, cutoff)
		v := AccountView{Account: acc, Balance: balance}
		switch acc.Kind {
		case core.Liability:
			v.Progress = acc.RepaymentProgress(balance)
		case core.SavingsGoal:
			v.Progress = acc.SavingsProgress(balance)
		}
		views = append(views, v)
	}
	return views, nil
}

// NetWorth evaluates the aggregate trend over [start, end].
func (s *LedgerService) NetWorth(ctx context.Context, start, end time.Time) (ledger.TrendSeries, error) {
	snap, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return ledger.TrendSeries{}, fmt.Errorf("load snapshot: %w", err)
	}
	return ledger.NetWorthSeries(snap.Accounts, snap.Transactions, start, end), nil
}

// AccountTrend evaluates a single account's raw balance trend.
func (s *LedgerService) AccountTrend(ctx context.Context, accountID string, start, end time.Time) (ledger.TrendSeries, error) {
	snap, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return ledger.TrendSeries{}, fmt.Errorf("load snapshot: %w", err)
	}
	acc, ok := snap.AccountByID(accountID)
	if !ok {
		return ledger.TrendSeries{}, ErrAccountNotFound
	}
	return ledger.AccountTrendSeries(acc, snap.Transactions, start, end), nil
}

// Summary aggregates the period [start, end].
func (s *LedgerService) Summary(ctx context.Context, start, end time.Time) (ledger.Summary, error) {
	snap, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("load snapshot: %w", err)
	}
	return ledger.PeriodSummary(snap.Transactions, start, end), nil
}

// BudgetStatuses evaluates budgets for the given month, applying rollover
// per the persisted settings toggles.
func (s *LedgerService) BudgetStatuses(ctx context.Context, year int, month time.Month) ([]ledger.BudgetStatus, error) {
	snap, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	rules := ledger.RolloverRules{
		AccumulateSurplus: snap.Settings.AccumulateSurplus,
		DeductExcess:      snap.Settings.DeductExcess,
	}
	return ledger.BudgetStatuses(snap.Budgets, snap.Transactions, year, month, rules), nil
}

func (s *LedgerService) publish(ctx context.Context, entity, entityID, action string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, entity, entityID, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"entity", entity, "entity_id", entityID, "action", action, "error", err)
	}
}
