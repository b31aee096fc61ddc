package report

import (
	"testing"
	"time"

	"gastos/internal/core"

	"github.com/shopspring/decimal"
)

func rec(id int64, date, category, user string, amount int64) core.Record {
	return core.Record{
		ID:       id,
		Date:     core.ParseDate(date),
		Category: category,
		User:     user,
		Amount:   decimal.NewFromInt(amount),
	}
}

func TestApplyEmptyFilterSortsByDateDescending(t *testing.T) {
	in := []core.Record{
		rec(1, "2024-01-10", "Comida", "JP", 10),
		rec(2, "2024-03-01", "Viajes", "MA", 20),
		rec(3, "2024-01-10", "Otros", "JP", 30), // same date as #1, later insertion
	}
	got := Apply(in, Filter{})
	if len(got) != 3 {
		t.Fatalf("got %d records", len(got))
	}
	if got[0].ID != 2 || got[1].ID != 1 || got[2].ID != 3 {
		t.Fatalf("order = %d,%d,%d", got[0].ID, got[1].ID, got[2].ID)
	}
	// Input untouched.
	if in[0].ID != 1 || in[1].ID != 2 {
		t.Fatalf("input mutated")
	}
}

func TestApplyDateRangeInclusive(t *testing.T) {
	in := []core.Record{
		rec(1, "2024-01-01", "a", "", 1),
		rec(2, "2024-01-15", "a", "", 1),
		rec(3, "2024-01-31", "a", "", 1),
		rec(4, "2024-02-01", "a", "", 1),
	}
	f := Filter{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	got := Apply(in, f)
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	for _, r := range got {
		if r.ID == 4 {
			t.Fatalf("record outside range included")
		}
	}
}

func TestApplyConjunctivePredicates(t *testing.T) {
	in := []core.Record{
		rec(1, "2024-01-10", "Comida", "JP", 1),
		rec(2, "2024-01-11", "Comida", "MA", 1),
		rec(3, "2024-01-12", "Viajes", "JP", 1),
	}
	got := Apply(in, Filter{Categories: []string{"Comida"}, Users: []string{"JP"}})
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("got %v", got)
	}
}

func TestApplyUnparsableDates(t *testing.T) {
	in := []core.Record{
		rec(1, "garbage", "a", "", 1),
		rec(2, "2024-01-10", "a", "", 1),
	}
	// No range: unparsable record kept, sorted last.
	got := Apply(in, Filter{})
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("got %v", got)
	}
	// Range set: unparsable record excluded.
	got = Apply(in, Filter{From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("got %v", got)
	}
}
