package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// summaryHeader matches the resumen.csv layout.
var summaryHeader = []string{"ym", "gastos", "ingresos", "balance"}

// WriteSummaryCSV serializes the monthly summary, header first, one
// row per bucket in the computed order. Output is deterministic for a
// given input.
func WriteSummaryCSV(w io.Writer, rows []MonthRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{r.Month, r.Expenses.String(), r.Income.String(), r.Balance.String()}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.Month, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSummaryCSV parses a summary produced by WriteSummaryCSV.
func ReadSummaryCSV(r io.Reader) ([]MonthRow, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing csv header")
	}
	var rows []MonthRow
	for i, rec := range records[1:] {
		if len(rec) != len(summaryHeader) {
			return nil, fmt.Errorf("csv row %d: expected %d fields, got %d", i+1, len(summaryHeader), len(rec))
		}
		expenses, err := decimal.NewFromString(rec[1])
		if err != nil {
			return nil, fmt.Errorf("csv row %d: parse gastos: %w", i+1, err)
		}
		income, err := decimal.NewFromString(rec[2])
		if err != nil {
			return nil, fmt.Errorf("csv row %d: parse ingresos: %w", i+1, err)
		}
		balance, err := decimal.NewFromString(rec[3])
		if err != nil {
			return nil, fmt.Errorf("csv row %d: parse balance: %w", i+1, err)
		}
		rows = append(rows, MonthRow{Month: rec[0], Expenses: expenses, Income: income, Balance: balance})
	}
	return rows, nil
}
