package ledger

import (
	"strconv"
	"strings"
	"time"

	"gastos/internal/core"
)

// DecodeRows converts a raw cell matrix into records. A leading header
// row (non-numeric id cell) is skipped. Cells follow the read-time
// coercion policy: id and amount parse-or-zero, date parse-or-invalid.
// excluded counts rows whose date could not be parsed; those records
// are still returned (they show up in history) but never join a
// period bucket.
func DecodeRows(values [][]string) (records []core.Record, excluded int) {
	for i, row := range values {
		if i == 0 && isHeaderRow(row) {
			continue
		}
		if isEmptyRow(row) {
			continue
		}
		rec := core.Record{
			ID:       coerceID(cell(row, 0)),
			Date:     core.ParseDate(cell(row, 1)),
			Category: strings.TrimSpace(cell(row, 2)),
			Amount:   core.CoerceAmount(cell(row, 3)),
			Note:     strings.TrimSpace(cell(row, 4)),
			Tags:     strings.TrimSpace(cell(row, 5)),
			User:     strings.TrimSpace(cell(row, 6)),
		}
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(cell(row, 7))); err == nil {
			rec.RecordedAt = ts
		}
		if !rec.Date.Valid {
			excluded++
		}
		records = append(records, rec)
	}
	return records, excluded
}

// MaxID returns the highest numeric id among the records, 0 when none.
// Unparsable ids already decoded to 0 and cannot win.
func MaxID(records []core.Record) int64 {
	var max int64
	for _, r := range records {
		if r.ID > max {
			max = r.ID
		}
	}
	return max
}

func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.TrimSpace(row[0])
	if first == "" {
		return false
	}
	_, err := strconv.ParseInt(first, 10, 64)
	return err != nil
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func coerceID(s string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
