package ledger

import (
	"time"

	"zenbudget/internal/core"
)

// RolloverRules are two independent toggles. Surplus accumulation and excess
// deduction can each be enabled on their own.
type RolloverRules struct {
	AccumulateSurplus bool
	DeductExcess      bool
}

// RolloverAdjustments computes, per budgeted category, the signed carry
// applied to the current month's limit from the immediately preceding
// calendar month. Lookback is exactly one period: an unconsumed surplus from
// two months back is never chained forward.
func RolloverAdjustments(budgets []core.Budget, txs []core.Transaction, year int, month time.Month, rules RolloverRules) map[string]core.Money {
	prevStart := time.Date(year, month-1, 1, 0, 0, 0, 0, time.UTC)
	prevEnd := prevStart.AddDate(0, 1, 0)

	adj := make(map[string]core.Money, len(budgets))
	for _, b := range budgets {
		spent := spentBetween(txs, b.Category, prevStart, prevEnd)
		balance := b.MonthlyLimit.Cents - spent
		var a int64
		if balance > 0 && rules.AccumulateSurplus {
			a = balance
		}
		if balance < 0 && rules.DeductExcess {
			a = balance
		}
		adj[b.Category] = core.Money{Cents: a}
	}
	return adj
}

// EffectiveLimit is the limit budget tracking consumes: a deduction may eat
// the whole budget but never drives the limit below zero.
func EffectiveLimit(limit, adjustment core.Money) core.Money {
	v := limit.Cents + adjustment.Cents
	if v < 0 {
		v = 0
	}
	return core.Money{Cents: v}
}

// BudgetStatus is the per-category budget view for one month.
type BudgetStatus struct {
	Category       string
	MonthlyLimit   core.Money
	Adjustment     core.Money
	EffectiveLimit core.Money
	Spent          core.Money
	Remaining      core.Money
	Percent        float64 // spent share of the effective limit, capped at 100
}

// BudgetStatuses evaluates every budget against the given month's spend,
// applying rollover adjustments per the rules.
func BudgetStatuses(budgets []core.Budget, txs []core.Transaction, year int, month time.Month, rules RolloverRules) []BudgetStatus {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)
	adjustments := RolloverAdjustments(budgets, txs, year, month, rules)

	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		adj := adjustments[b.Category]
		eff := EffectiveLimit(b.MonthlyLimit, adj)
		spent := core.Money{Cents: spentBetween(txs, b.Category, monthStart, monthEnd)}
		st := BudgetStatus{
			Category:       b.Category,
			MonthlyLimit:   b.MonthlyLimit,
			Adjustment:     adj,
			EffectiveLimit: eff,
			Spent:          spent,
			Remaining:      eff.Sub(spent),
		}
		switch {
		case eff.Cents > 0:
			st.Percent = clampShare(float64(spent.Cents) / float64(eff.Cents) * 100)
		case spent.Cents > 0:
			st.Percent = 100
		}
		out = append(out, st)
	}
	return out
}

func spentBetween(txs []core.Transaction, category string, start, end time.Time) int64 {
	var cents int64
	for _, tx := range txs {
		if tx.Type != core.TxExpense || tx.Category != category {
			continue
		}
		if tx.Date.Before(start) || !tx.Date.Before(end) {
			continue
		}
		cents += tx.Amount.Cents
	}
	return cents
}

func clampShare(p float64) float64 {
	if p > 100 {
		return 100
	}
	return p
}
