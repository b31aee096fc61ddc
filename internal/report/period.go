package report

import (
	"sort"

	"gastos/internal/core"

	"github.com/shopspring/decimal"
)

// MonthRow is one bucket of the monthly summary. The bucket key is
// "YYYY-MM", which sorts lexicographically in chronological order.
type MonthRow struct {
	Month    string
	Expenses decimal.Decimal
	Income   decimal.Decimal
	Balance  decimal.Decimal
}

// CategoryShare is a category's total within the selected buckets and
// its percentage share of the table's selected-period total.
type CategoryShare struct {
	Category string
	Amount   decimal.Decimal
	Share    float64
}

// MonthDelta compares the two most recent buckets.
type MonthDelta struct {
	Latest        string
	Previous      string
	Expenses      decimal.Decimal
	Income        decimal.Decimal
	Balance       decimal.Decimal
	ExpensesDelta decimal.Decimal
	IncomeDelta   decimal.Decimal
	BalanceDelta  decimal.Decimal
}

// Months returns the sorted union of buckets present in the given
// tables. Records with an unparsable date contribute nothing.
func Months(tables ...[]core.Record) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, records := range tables {
		for _, r := range records {
			b, ok := r.Date.Bucket()
			if !ok {
				continue
			}
			if _, dup := seen[b]; dup {
				continue
			}
			seen[b] = struct{}{}
			out = append(out, b)
		}
	}
	sort.Strings(out)
	return out
}

// MonthlySummary outer-joins per-bucket expense and income sums over
// the union of buckets present in either table, restricted to the
// selected months when the selection is non-empty. Missing sums are 0
// and balance = income - expenses. Rows come back in chronological
// order.
func MonthlySummary(expenses, income []core.Record, selected []string) []MonthRow {
	sel := toSet(selected)
	expSums := sumByBucket(expenses)
	incSums := sumByBucket(income)

	var months []string
	for _, m := range Months(expenses, income) {
		if sel != nil {
			if _, ok := sel[m]; !ok {
				continue
			}
		}
		months = append(months, m)
	}

	rows := make([]MonthRow, 0, len(months))
	for _, m := range months {
		e := expSums[m]
		i := incSums[m]
		rows = append(rows, MonthRow{Month: m, Expenses: e, Income: i, Balance: i.Sub(e)})
	}
	return rows
}

// Decompose splits the bucket for the stacked visualization:
// expenseWithinIncome + savings equals the income sum when the balance
// is non-negative; otherwise expenseWithinIncome equals the income sum
// and deficit carries the overshoot.
func (r MonthRow) Decompose() (expenseWithinIncome, savings, deficit decimal.Decimal) {
	expenseWithinIncome = decimal.Min(r.Expenses, r.Income)
	savings = decimal.Max(r.Balance, decimal.Zero)
	deficit = decimal.Max(r.Balance.Neg(), decimal.Zero)
	return expenseWithinIncome, savings, deficit
}

// Totals sums the rows of a monthly summary.
func Totals(rows []MonthRow) (expenses, income, balance decimal.Decimal) {
	for _, r := range rows {
		expenses = expenses.Add(r.Expenses)
		income = income.Add(r.Income)
		balance = balance.Add(r.Balance)
	}
	return expenses, income, balance
}

// CategoryBreakdown sums one table's records per category within the
// selected buckets and derives each category's percentage share of the
// selection total. Shares are 0 when the total is 0. Categories come
// back by descending amount, ties in first-encountered order.
func CategoryBreakdown(records []core.Record, selected []string) []CategoryShare {
	sel := toSet(selected)
	sums := map[string]decimal.Decimal{}
	firstSeen := map[string]int{}
	var order []string
	total := decimal.Zero

	for _, r := range records {
		b, ok := r.Date.Bucket()
		if !ok {
			continue
		}
		if sel != nil {
			if _, in := sel[b]; !in {
				continue
			}
		}
		if _, seen := sums[r.Category]; !seen {
			firstSeen[r.Category] = len(order)
			order = append(order, r.Category)
		}
		sums[r.Category] = sums[r.Category].Add(r.Amount)
		total = total.Add(r.Amount)
	}

	out := make([]CategoryShare, 0, len(order))
	for _, name := range order {
		share := 0.0
		if total.IsPositive() {
			share, _ = sums[name].Div(total).Mul(decimal.NewFromInt(100)).Float64()
		}
		out = append(out, CategoryShare{Category: name, Amount: sums[name], Share: share})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return firstSeen[out[i].Category] < firstSeen[out[j].Category]
	})
	return out
}

// TopCategories truncates a breakdown to its n largest entries.
func TopCategories(breakdown []CategoryShare, n int) []CategoryShare {
	if n <= 0 || n >= len(breakdown) {
		return breakdown
	}
	return breakdown[:n]
}

// Trend returns the monthly summary over the trailing window of
// available buckets, independent of any snapshot selection. The window
// is 6 or 12 months; anything else falls back to 12.
func Trend(expenses, income []core.Record, window int) []MonthRow {
	if window != 6 && window != 12 {
		window = 12
	}
	months := Months(expenses, income)
	if len(months) > window {
		months = months[len(months)-window:]
	}
	return MonthlySummary(expenses, income, months)
}

// Compare derives the month-over-month deltas for the two most recent
// buckets. ok is false when fewer than two buckets exist; a delta
// against zero would be misleading, not informative.
func Compare(expenses, income []core.Record) (MonthDelta, bool) {
	months := Months(expenses, income)
	if len(months) < 2 {
		return MonthDelta{}, false
	}
	latest, previous := months[len(months)-1], months[len(months)-2]
	expSums := sumByBucket(expenses)
	incSums := sumByBucket(income)

	eLast, ePrev := expSums[latest], expSums[previous]
	iLast, iPrev := incSums[latest], incSums[previous]
	return MonthDelta{
		Latest:        latest,
		Previous:      previous,
		Expenses:      eLast,
		Income:        iLast,
		Balance:       iLast.Sub(eLast),
		ExpensesDelta: eLast.Sub(ePrev),
		IncomeDelta:   iLast.Sub(iPrev),
		BalanceDelta:  iLast.Sub(eLast).Sub(iPrev.Sub(ePrev)),
	}, true
}

func sumByBucket(records []core.Record) map[string]decimal.Decimal {
	sums := map[string]decimal.Decimal{}
	for _, r := range records {
		b, ok := r.Date.Bucket()
		if !ok {
			continue
		}
		sums[b] = sums[b].Add(r.Amount)
	}
	return sums
}
