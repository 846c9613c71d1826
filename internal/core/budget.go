package core

// Budget carries one spending limit per category, viewed at three periods.
// The daily, monthly and yearly limits are denormalized projections of a
// single rate: setting any one of them recomputes the other two, so they can
// never drift apart. Division truncates toward zero.
type Budget struct {
	Category     string
	MonthlyLimit Money
	DailyLimit   Money
	YearlyLimit  Money
}

func (b *Budget) SetMonthly(m Money) {
	b.MonthlyLimit = m
	b.DailyLimit = Money{Cents: m.Cents / 30}
	b.YearlyLimit = Money{Cents: m.Cents * 12}
}

func (b *Budget) SetDaily(d Money) {
	b.DailyLimit = d
	b.MonthlyLimit = Money{Cents: d.Cents * 30}
	b.YearlyLimit = Money{Cents: d.Cents * 365}
}

func (b *Budget) SetYearly(y Money) {
	b.YearlyLimit = y
	b.MonthlyLimit = Money{Cents: y.Cents / 12}
	b.DailyLimit = Money{Cents: y.Cents / 365}
}

// BudgetPeriod names the limit field being edited.
type BudgetPeriod string

const (
	PeriodDaily   BudgetPeriod = "daily"
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodYearly  BudgetPeriod = "yearly"
)

func (p BudgetPeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Set applies the value to the named period and rederives the other limits.
func (b *Budget) Set(period BudgetPeriod, v Money) error {
	switch period {
	case PeriodDaily:
		b.SetDaily(v)
	case PeriodMonthly:
		b.SetMonthly(v)
	case PeriodYearly:
		b.SetYearly(v)
	default:
		return ErrInvalidPeriod
	}
	return nil
}
