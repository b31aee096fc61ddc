package ledger

import (
	"testing"

	"gastos/internal/core"
)

func TestDecodeRowsSkipsHeader(t *testing.T) {
	values := [][]string{
		{"id", "fecha", "categoria", "monto", "nota", "tags", "usuario", "ts"},
		{"1", "2024-01-15", "Comida", "50", "", "", "JP", "2024-01-15T12:00:00Z"},
	}
	records, excluded := DecodeRows(values)
	if len(records) != 1 || excluded != 0 {
		t.Fatalf("got %d records, %d excluded", len(records), excluded)
	}
	r := records[0]
	if r.ID != 1 || r.Category != "Comida" || r.Amount.String() != "50" {
		t.Fatalf("unexpected record: %+v", r)
	}
	if b, ok := r.Date.Bucket(); !ok || b != "2024-01" {
		t.Fatalf("unexpected bucket: %q %v", b, ok)
	}
	if r.RecordedAt.IsZero() {
		t.Fatalf("expected ts parsed")
	}
}

func TestDecodeRowsCoercion(t *testing.T) {
	values := [][]string{
		{"x7", "not-a-date", "Otros", "n/a", "", "", "", ""},
		{"3", "2024-02-01", "Comida", "12,50", "nota", "a, b", "JP", "bad-ts"},
	}
	records, excluded := DecodeRows(values)
	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}
	if excluded != 1 {
		t.Fatalf("excluded = %d, want 1", excluded)
	}
	// Malformed row coerced, not dropped.
	if records[0].ID != 0 || !records[0].Amount.IsZero() || records[0].Date.Valid {
		t.Fatalf("unexpected coercion: %+v", records[0])
	}
	if records[0].Date.Raw != "not-a-date" {
		t.Fatalf("raw date text lost: %q", records[0].Date.Raw)
	}
	// Decimal comma accepted on read.
	if records[1].Amount.String() != "12.5" {
		t.Fatalf("amount = %s", records[1].Amount)
	}
	if records[1].RecordedAt.IsZero() == false {
		t.Fatalf("bad ts must decode to zero time")
	}
}

func TestDecodeRowsShortAndEmptyRows(t *testing.T) {
	values := [][]string{
		{"1", "2024-01-01"},
		{"", "", ""},
		{},
	}
	records, _ := DecodeRows(values)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Category != "" || !records[0].Amount.IsZero() {
		t.Fatalf("missing cells must read as empty: %+v", records[0])
	}
}

func TestMaxID(t *testing.T) {
	if got := MaxID(nil); got != 0 {
		t.Fatalf("empty table max = %d", got)
	}
	records := []core.Record{{ID: 2}, {ID: 9}, {ID: 0}}
	if got := MaxID(records); got != 9 {
		t.Fatalf("max = %d, want 9", got)
	}
}
