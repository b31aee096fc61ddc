package storage

import (
	"context"
	"path/filepath"
	"testing"

	"gastos/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "gastos.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAppendAndReadAll(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rows := [][]string{
		{"1", "2024-01-15", "Comida", "12.5", "nota", "food", "JP", "2024-01-15T10:00:00Z"},
		{"2", "2024-01-16", "Viajes", "80", "", "", "MA", ""},
	}
	for _, row := range rows {
		if err := repo.AppendRow(ctx, core.Expenses, row); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.ReadAll(ctx, core.Expenses)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows", len(got))
	}
	for i := range rows {
		for j := range rows[i] {
			if got[i][j] != rows[i][j] {
				t.Fatalf("row %d cell %d = %q, want %q", i, j, got[i][j], rows[i][j])
			}
		}
	}

	// Tables are isolated.
	income, err := repo.ReadAll(ctx, core.Income)
	if err != nil {
		t.Fatalf("read income: %v", err)
	}
	if len(income) != 0 {
		t.Fatalf("income rows leaked: %v", income)
	}
}

func TestAppendPadsShortRows(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.AppendRow(ctx, core.Expenses, []string{"1", "2024-01-15", "Comida", "10"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := repo.ReadAll(ctx, core.Expenses)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || len(got[0]) != len(core.Header) {
		t.Fatalf("got %v", got)
	}
	if got[0][4] != "" || got[0][7] != "" {
		t.Fatalf("padding lost: %v", got[0])
	}
}

func TestEnsureTableRejectsUnknownTable(t *testing.T) {
	repo := newTestRepository(t)
	if err := repo.EnsureTable(context.Background(), core.Table("bogus")); err != core.ErrInvalidTable {
		t.Fatalf("err = %v", err)
	}
	if err := repo.EnsureTable(context.Background(), core.Expenses); err != nil {
		t.Fatalf("err = %v", err)
	}
}

func TestReplaceAll(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.AppendRow(ctx, core.Expenses, []string{"1", "2024-01-15", "Vieja", "10", "", "", "", ""}); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Source matrix includes a header row, as the spreadsheet returns it.
	fresh := [][]string{
		{"id", "fecha", "categoria", "monto", "nota", "tags", "usuario", "ts"},
		{"1", "2024-02-01", "Nueva", "20", "", "", "", ""},
		{"2", "2024-02-02", "Nueva", "30", "", "", "", ""},
	}
	if err := repo.ReplaceAll(ctx, core.Expenses, fresh); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := repo.ReadAll(ctx, core.Expenses)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows", len(got))
	}
	if got[0][2] != "Nueva" || got[1][0] != "2" {
		t.Fatalf("got %v", got)
	}
}
