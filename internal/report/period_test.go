package report

import (
	"math"
	"testing"

	"gastos/internal/core"

	"github.com/shopspring/decimal"
)

func TestMonthlySummaryBucketSums(t *testing.T) {
	expenses := []core.Record{
		rec(1, "2024-01-15", "Comida", "", 50),
		rec(2, "2024-01-20", "Comida", "", 30),
	}
	rows := MonthlySummary(expenses, nil, nil)
	if len(rows) != 1 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].Month != "2024-01" || rows[0].Expenses.String() != "80" {
		t.Fatalf("row = %+v", rows[0])
	}
	if rows[0].Balance.String() != "-80" {
		t.Fatalf("balance = %s", rows[0].Balance)
	}
}

func TestMonthlySummaryOuterJoin(t *testing.T) {
	expenses := []core.Record{rec(1, "2024-01-15", "Comida", "", 100)}
	income := []core.Record{rec(1, "2024-02-01", "Salario", "", 1000)}
	rows := MonthlySummary(expenses, income, nil)
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].Month != "2024-01" || !rows[0].Income.IsZero() {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if rows[1].Month != "2024-02" || !rows[1].Expenses.IsZero() {
		t.Fatalf("row 1 = %+v", rows[1])
	}
}

func TestMonthlySummarySelection(t *testing.T) {
	expenses := []core.Record{
		rec(1, "2024-01-15", "a", "", 10),
		rec(2, "2024-02-15", "a", "", 20),
	}
	rows := MonthlySummary(expenses, nil, []string{"2024-02"})
	if len(rows) != 1 || rows[0].Month != "2024-02" {
		t.Fatalf("rows = %+v", rows)
	}
	// Selected months absent from both tables produce no row.
	rows = MonthlySummary(expenses, nil, []string{"2030-01"})
	if len(rows) != 0 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestDecomposeDeficitScenario(t *testing.T) {
	income := []core.Record{rec(1, "2024-01-01", "Salario", "", 1000)}
	expenses := []core.Record{rec(1, "2024-01-15", "Vivienda", "", 1200)}
	rows := MonthlySummary(expenses, income, nil)
	if len(rows) != 1 {
		t.Fatalf("got %d rows", len(rows))
	}
	r := rows[0]
	if r.Balance.String() != "-200" {
		t.Fatalf("balance = %s", r.Balance)
	}
	within, savings, deficit := r.Decompose()
	if within.String() != "1000" || savings.String() != "0" || deficit.String() != "200" {
		t.Fatalf("decomposition = %s, %s, %s", within, savings, deficit)
	}
}

func TestDecomposeIdentity(t *testing.T) {
	cases := []struct{ e, i int64 }{
		{0, 0}, {100, 0}, {0, 100}, {50, 100}, {100, 100}, {150, 100},
	}
	for _, tc := range cases {
		r := MonthRow{
			Expenses: decimal.NewFromInt(tc.e),
			Income:   decimal.NewFromInt(tc.i),
			Balance:  decimal.NewFromInt(tc.i - tc.e),
		}
		within, savings, deficit := r.Decompose()
		if r.Balance.Sign() >= 0 {
			if !within.Add(savings).Equal(r.Income) {
				t.Fatalf("e=%d i=%d: within+savings = %s, want %s", tc.e, tc.i, within.Add(savings), r.Income)
			}
			if !deficit.IsZero() {
				t.Fatalf("e=%d i=%d: deficit = %s", tc.e, tc.i, deficit)
			}
		} else {
			if !within.Equal(r.Income) {
				t.Fatalf("e=%d i=%d: within = %s, want %s", tc.e, tc.i, within, r.Income)
			}
			if !deficit.Equal(r.Expenses.Sub(r.Income)) {
				t.Fatalf("e=%d i=%d: deficit = %s", tc.e, tc.i, deficit)
			}
		}
	}
}

func TestCategoryBreakdownShares(t *testing.T) {
	records := []core.Record{
		rec(1, "2024-01-10", "Comida", "", 75),
		rec(2, "2024-01-11", "Viajes", "", 25),
	}
	shares := CategoryBreakdown(records, nil)
	if len(shares) != 2 {
		t.Fatalf("got %d categories", len(shares))
	}
	if shares[0].Category != "Comida" || shares[0].Share != 75 {
		t.Fatalf("shares[0] = %+v", shares[0])
	}
	sum := 0.0
	for _, s := range shares {
		sum += s.Share
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("shares sum to %f", sum)
	}
}

func TestCategoryBreakdownEmpty(t *testing.T) {
	if shares := CategoryBreakdown(nil, nil); len(shares) != 0 {
		t.Fatalf("got %v", shares)
	}
	// Zero-amount records: shares 0, no division error.
	records := []core.Record{rec(1, "2024-01-10", "Comida", "", 0)}
	shares := CategoryBreakdown(records, nil)
	if len(shares) != 1 || shares[0].Share != 0 {
		t.Fatalf("got %+v", shares)
	}
}

func TestTrendWindow(t *testing.T) {
	var expenses []core.Record
	months := []string{"2023-01", "2023-02", "2023-03", "2023-04", "2023-05", "2023-06", "2023-07", "2023-08"}
	for i := range months {
		expenses = append(expenses, rec(int64(i), months[i]+"-15", "a", "", 10))
	}
	rows := Trend(expenses, nil, 6)
	if len(rows) != 6 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].Month != "2023-03" || rows[5].Month != "2023-08" {
		t.Fatalf("window = %s..%s", rows[0].Month, rows[5].Month)
	}
	// Invalid window falls back to 12: all 8 available buckets.
	if rows := Trend(expenses, nil, 7); len(rows) != 8 {
		t.Fatalf("got %d rows for fallback window", len(rows))
	}
}

func TestCompare(t *testing.T) {
	expenses := []core.Record{
		rec(1, "2024-01-10", "a", "", 100),
		rec(2, "2024-02-10", "a", "", 150),
	}
	income := []core.Record{
		rec(1, "2024-01-05", "s", "", 1000),
		rec(2, "2024-02-05", "s", "", 900),
	}
	delta, ok := Compare(expenses, income)
	if !ok {
		t.Fatalf("expected comparison")
	}
	if delta.Latest != "2024-02" || delta.Previous != "2024-01" {
		t.Fatalf("months = %s, %s", delta.Latest, delta.Previous)
	}
	if delta.ExpensesDelta.String() != "50" || delta.IncomeDelta.String() != "-100" {
		t.Fatalf("deltas = %s, %s", delta.ExpensesDelta, delta.IncomeDelta)
	}
	// balance: feb 750, jan 900 -> delta -150
	if delta.BalanceDelta.String() != "-150" {
		t.Fatalf("balance delta = %s", delta.BalanceDelta)
	}
}

func TestCompareInsufficientData(t *testing.T) {
	if _, ok := Compare(nil, nil); ok {
		t.Fatalf("empty tables must not compare")
	}
	one := []core.Record{rec(1, "2024-01-10", "a", "", 100)}
	if _, ok := Compare(one, nil); ok {
		t.Fatalf("single bucket must not compare")
	}
}

func TestEmptyTablesYieldEmptySummary(t *testing.T) {
	rows := MonthlySummary(nil, nil, nil)
	if len(rows) != 0 {
		t.Fatalf("rows = %+v", rows)
	}
	e, i, b := Totals(rows)
	if !e.IsZero() || !i.IsZero() || !b.IsZero() {
		t.Fatalf("totals = %s, %s, %s", e, i, b)
	}
	if months := Months(nil, nil); len(months) != 0 {
		t.Fatalf("months = %v", months)
	}
}
