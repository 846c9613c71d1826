// Package ledger derives balances, net-worth trends, period aggregates and
// budget rollovers from an append-style list of money-movement events.
//
// Every function is a pure computation over the snapshot it is handed:
// nothing is cached, nothing is retained across calls, and recomputing with
// identical inputs yields identical results. The naive full-scan approach is
// deliberate; at a few thousand transactions correctness wins over
// throughput.
package ledger

import (
	"time"

	"zenbudget/internal/core"
)

// delta returns the signed cent contribution of a transaction to an account
// of the given kind. Liability polarity is inverted: spending grows the
// amount owed, income (a repayment) shrinks it.
func delta(kind core.AccountKind, tx core.Transaction) int64 {
	switch kind {
	case core.Liability:
		if tx.Type == core.TxExpense {
			return tx.Amount.Cents
		}
		return -tx.Amount.Cents
	default: // Asset, SavingsGoal
		if tx.Type == core.TxIncome {
			return tx.Amount.Cents
		}
		return -tx.Amount.Cents
	}
}

// BalanceAsOf resolves an account's balance at the cutoff instant
// (inclusive), starting from its opening balance. Transactions referencing
// the unlinked sentinel never contribute. The result is not clamped and may
// be negative for either polarity.
func BalanceAsOf(acc core.Account, txs []core.Transaction, cutoff time.Time) core.Money {
	cents := acc.InitialBalance.Cents
	for _, tx := range txs {
		if tx.AccountID == core.UnlinkedAccount || tx.AccountID != acc.ID {
			continue
		}
		if tx.Date.After(cutoff) {
			continue
		}
		cents += delta(acc.Kind, tx)
	}
	return core.Money{Cents: cents}
}
