package ledger

import (
	"testing"
	"time"

	"zenbudget/internal/core"
)

func budget(category string, monthlyCents int64) core.Budget {
	var b core.Budget
	b.Category = category
	b.SetMonthly(cents(monthlyCents))
	return b
}

func priorSpend(category string, amount int64) core.Transaction {
	// Current period is May 2024 in these tests; prior month is April.
	return catTx("prev-"+category, category, core.TxExpense, amount, date(2024, 4, 10))
}

func TestRolloverAdjustments(t *testing.T) {
	cases := []struct {
		name  string
		limit int64
		spent int64
		rules RolloverRules
		want  int64
	}{
		{"surplus accumulated", 100000, 70000, RolloverRules{AccumulateSurplus: true}, 30000},
		{"surplus ignored when disabled", 100000, 70000, RolloverRules{}, 0},
		{"excess deducted", 100000, 120000, RolloverRules{DeductExcess: true}, -20000},
		{"excess ignored when disabled", 100000, 120000, RolloverRules{AccumulateSurplus: true}, 0},
		{"exact spend carries nothing", 100000, 100000, RolloverRules{AccumulateSurplus: true, DeductExcess: true}, 0},
		{"both rules, surplus", 100000, 40000, RolloverRules{AccumulateSurplus: true, DeductExcess: true}, 60000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			budgets := []core.Budget{budget("food", tc.limit)}
			txs := []core.Transaction{priorSpend("food", tc.spent)}
			adj := RolloverAdjustments(budgets, txs, 2024, time.May, tc.rules)
			if got := adj["food"].Cents; got != tc.want {
				t.Fatalf("adjustment %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRolloverAdjustments_SinglePeriodLookbackOnly(t *testing.T) {
	budgets := []core.Budget{budget("food", 100000)}
	txs := []core.Transaction{
		// March surplus must not reach May's adjustment; only April counts.
		catTx("march", "food", core.TxExpense, 10000, date(2024, 3, 5)),
		catTx("april", "food", core.TxExpense, 100000, date(2024, 4, 5)),
	}
	adj := RolloverAdjustments(budgets, txs, 2024, time.May, RolloverRules{AccumulateSurplus: true})
	if got := adj["food"].Cents; got != 0 {
		t.Fatalf("adjustment %d, want 0 (April spent the full limit)", got)
	}
}

func TestRolloverAdjustments_YearBoundary(t *testing.T) {
	budgets := []core.Budget{budget("food", 50000)}
	txs := []core.Transaction{
		catTx("dec", "food", core.TxExpense, 20000, date(2023, 12, 15)),
	}
	adj := RolloverAdjustments(budgets, txs, 2024, time.January, RolloverRules{AccumulateSurplus: true})
	if got := adj["food"].Cents; got != 30000 {
		t.Fatalf("January must look back into December, got %d want 30000", got)
	}
}

func TestEffectiveLimit(t *testing.T) {
	cases := []struct {
		name            string
		limit, adj, want int64
	}{
		{"surplus raises", 100000, 30000, 130000},
		{"deduction lowers", 100000, -20000, 80000},
		{"no adjustment", 100000, 0, 100000},
		{"clamped at zero", 10000, -490000, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EffectiveLimit(cents(tc.limit), cents(tc.adj)).Cents; got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestBudgetStatuses(t *testing.T) {
	budgets := []core.Budget{budget("food", 100000)}
	txs := []core.Transaction{
		priorSpend("food", 70000),                                 // April: 300 surplus
		catTx("may", "food", core.TxExpense, 65000, date(2024, 5, 8)), // current spend
	}
	rules := RolloverRules{AccumulateSurplus: true}
	statuses := BudgetStatuses(budgets, txs, 2024, time.May, rules)
	if len(statuses) != 1 {
		t.Fatalf("got %d statuses, want 1", len(statuses))
	}
	st := statuses[0]
	if st.Adjustment.Cents != 30000 {
		t.Errorf("adjustment %d, want 30000", st.Adjustment.Cents)
	}
	if st.EffectiveLimit.Cents != 130000 {
		t.Errorf("effective limit %d, want 130000", st.EffectiveLimit.Cents)
	}
	if st.Remaining.Cents != 65000 {
		t.Errorf("remaining %d, want 65000", st.Remaining.Cents)
	}
	if st.Percent != 50 {
		t.Errorf("percent %v, want 50", st.Percent)
	}
}

func TestBudgetStatuses_ZeroEffectiveLimit(t *testing.T) {
	budgets := []core.Budget{budget("food", 10000)}
	txs := []core.Transaction{
		priorSpend("food", 500000), // blows April's budget entirely
		catTx("may", "food", core.TxExpense, 100, date(2024, 5, 2)),
	}
	statuses := BudgetStatuses(budgets, txs, 2024, time.May, RolloverRules{DeductExcess: true})
	st := statuses[0]
	if st.EffectiveLimit.Cents != 0 {
		t.Fatalf("effective limit %d, want 0 (never negative)", st.EffectiveLimit.Cents)
	}
	if st.Percent != 100 {
		t.Fatalf("percent with zero limit and spend present: %v, want 100", st.Percent)
	}
}
