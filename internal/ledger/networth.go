package ledger

import (
	"time"

	"zenbudget/internal/core"
)

// Windows up to this span are sampled per calendar day; longer windows fall
// back to one point per month, at the month's last calendar day.
const dayGranularityMax = 90 * 24 * time.Hour

type TrendPoint struct {
	Date  time.Time
	Value core.Money
}

// TrendSeries is an evenly sampled value-over-time series with its derived
// extremes. Average truncates toward zero.
type TrendSeries struct {
	Points  []TrendPoint
	Peak    core.Money
	Trough  core.Money
	Average core.Money
}

// NetWorthAsOf sums every account's resolved balance at the cutoff, with
// liability balances subtracting.
func NetWorthAsOf(accounts []core.Account, txs []core.Transaction, cutoff time.Time) core.Money {
	var cents int64
	for _, acc := range accounts {
		b := BalanceAsOf(acc, txs, cutoff)
		if acc.Kind == core.Liability {
			cents -= b.Cents
		} else {
			cents += b.Cents
		}
	}
	return core.Money{Cents: cents}
}

// NetWorthSeries evaluates NetWorthAsOf at evenly spaced cutoffs spanning
// [start, end]. Day granularity for windows of up to ~90 days, last calendar
// day of each month beyond that. A degenerate window yields an empty series.
func NetWorthSeries(accounts []core.Account, txs []core.Transaction, start, end time.Time) TrendSeries {
	return buildSeries(seriesCutoffs(start, end), func(cutoff time.Time) core.Money {
		return NetWorthAsOf(accounts, txs, cutoff)
	})
}

// AccountTrendSeries is the single-account variant of NetWorthSeries. The
// liability sign flip does not apply here: a liability account's own trend is
// its raw owed amount.
func AccountTrendSeries(acc core.Account, txs []core.Transaction, start, end time.Time) TrendSeries {
	return buildSeries(seriesCutoffs(start, end), func(cutoff time.Time) core.Money {
		return BalanceAsOf(acc, txs, cutoff)
	})
}

func buildSeries(cutoffs []time.Time, valueAt func(time.Time) core.Money) TrendSeries {
	var s TrendSeries
	if len(cutoffs) == 0 {
		return s
	}
	var sum int64
	for i, c := range cutoffs {
		v := valueAt(c)
		s.Points = append(s.Points, TrendPoint{Date: c, Value: v})
		sum += v.Cents
		if i == 0 || v.Cents > s.Peak.Cents {
			s.Peak = v
		}
		if i == 0 || v.Cents < s.Trough.Cents {
			s.Trough = v
		}
	}
	s.Average = core.Money{Cents: sum / int64(len(cutoffs))}
	return s
}

// seriesCutoffs returns the sampling instants for a window, each at the end
// of its calendar day so the whole day's events are included.
func seriesCutoffs(start, end time.Time) []time.Time {
	if end.Before(start) {
		return nil
	}
	last := endOfDay(end)
	if end.Sub(start) <= dayGranularityMax {
		var out []time.Time
		for d := endOfDay(start); !d.After(last); d = d.AddDate(0, 0, 1) {
			out = append(out, d)
		}
		return out
	}
	var out []time.Time
	for month := startOfMonth(start); !month.After(end); month = month.AddDate(0, 1, 0) {
		cutoff := endOfDay(month.AddDate(0, 1, -1)) // last calendar day
		if cutoff.Before(start) {
			continue
		}
		if cutoff.After(last) {
			cutoff = last
		}
		out = append(out, cutoff)
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// endOfDay is the last representable instant of t's calendar day.
func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
