package ledger

import (
	"sort"
	"time"

	"zenbudget/internal/core"
)

// CategoryShare is one category's slice of the period's expense total.
type CategoryShare struct {
	Name    string
	Value   core.Money
	Percent float64 // share of total expense; 0 when the total is zero
}

// DayBucket aggregates one calendar day inside a period. Empty days are
// kept, charts depend on one bucket per day.
type DayBucket struct {
	Date       time.Time // midnight opening the bucket's day
	Income     core.Money
	Expense    core.Money
	ByCategory map[string]core.Money // per-category expense breakdown
}

type Summary struct {
	Income     core.Money
	Expense    core.Money
	ByCategory []CategoryShare
	ByBucket   []DayBucket
}

// PeriodSummary aggregates transactions dated within [start, end], both ends
// clamped to day boundaries (start at midnight, end covering its whole day).
// A range with end before start returns zeroed aggregates.
func PeriodSummary(txs []core.Transaction, start, end time.Time) Summary {
	var s Summary
	from := startOfDay(start)
	to := startOfDay(end).AddDate(0, 0, 1) // exclusive
	if !from.Before(to) {
		return s
	}

	var buckets []*DayBucket
	byDay := make(map[string]*DayBucket)
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		b := &DayBucket{Date: d, ByCategory: make(map[string]core.Money)}
		buckets = append(buckets, b)
		byDay[dayKey(d)] = b
	}
	byCat := make(map[string]int64)
	for _, tx := range txs {
		if tx.Date.Before(from) || !tx.Date.Before(to) {
			continue
		}
		// Bucket lookup must use the grid's location: a transaction stored
		// in another zone can fall on a different calendar day there.
		bucket := byDay[dayKey(tx.Date.In(from.Location()))]
		if bucket == nil {
			continue
		}
		switch tx.Type {
		case core.TxIncome:
			s.Income.Cents += tx.Amount.Cents
			bucket.Income.Cents += tx.Amount.Cents
		case core.TxExpense:
			s.Expense.Cents += tx.Amount.Cents
			bucket.Expense.Cents += tx.Amount.Cents
			byCat[tx.Category] += tx.Amount.Cents
			cur := bucket.ByCategory[tx.Category]
			bucket.ByCategory[tx.Category] = core.Money{Cents: cur.Cents + tx.Amount.Cents}
		}
	}
	s.ByBucket = make([]DayBucket, len(buckets))
	for i, b := range buckets {
		s.ByBucket[i] = *b
	}

	for name, cents := range byCat {
		share := CategoryShare{Name: name, Value: core.Money{Cents: cents}}
		if s.Expense.Cents > 0 {
			share.Percent = float64(cents) / float64(s.Expense.Cents) * 100
		}
		s.ByCategory = append(s.ByCategory, share)
	}
	// Descending by value; name breaks ties so the output is deterministic.
	sort.Slice(s.ByCategory, func(i, j int) bool {
		a, b := s.ByCategory[i], s.ByCategory[j]
		if a.Value.Cents != b.Value.Cents {
			return a.Value.Cents > b.Value.Cents
		}
		return a.Name < b.Name
	})
	return s
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
