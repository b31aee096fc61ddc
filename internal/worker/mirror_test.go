package worker

import (
	"context"
	"path/filepath"
	"testing"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/ledger/memory"
	"gastos/internal/storage"
)

func newTestWorker(t *testing.T) (*MirrorWorker, *memory.Store, *storage.Repository) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "replica.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	source := memory.New()
	return NewMirrorWorker(repo, source), source, repo
}

func TestHandleRecordCreated(t *testing.T) {
	w, _, repo := newTestWorker(t)
	ctx := context.Background()

	msg := amqp.NewRecordCreatedMessage("expenses", 3,
		[]string{"3", "2024-01-15", "Comida", "12.5", "", "food", "JP", "2024-01-15T10:00:00Z"})
	if err := w.HandleRecordCreated(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	rows, err := repo.ReadAll(ctx, core.Expenses)
	if err != nil {
		t.Fatalf("read replica: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != "3" || rows[0][2] != "Comida" {
		t.Fatalf("replica rows = %v", rows)
	}
}

func TestHandleRecordCreatedUnknownTable(t *testing.T) {
	w, _, _ := newTestWorker(t)
	msg := amqp.NewRecordCreatedMessage("bogus", 1, []string{"1"})
	if err := w.HandleRecordCreated(context.Background(), msg); err == nil {
		t.Fatalf("expected error")
	}
}

func TestResyncWithoutSource(t *testing.T) {
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "replica.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	ctx := context.Background()

	if err := repo.AppendRow(ctx, core.Expenses, []string{"1", "2024-01-01", "Comida", "10", "", "", "", ""}); err != nil {
		t.Fatalf("seed replica: %v", err)
	}

	w := NewMirrorWorker(repo, nil)
	if err := w.Resync(ctx); err != nil {
		t.Fatalf("resync without source: %v", err)
	}

	// The replica is left alone.
	rows, err := repo.ReadAll(ctx, core.Expenses)
	if err != nil {
		t.Fatalf("read replica: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("replica rows = %v", rows)
	}
}

func TestResyncReplacesBothTables(t *testing.T) {
	w, source, repo := newTestWorker(t)
	ctx := context.Background()

	// Stale replica content.
	if err := repo.AppendRow(ctx, core.Expenses, []string{"9", "2023-01-01", "Vieja", "1", "", "", "", ""}); err != nil {
		t.Fatalf("seed replica: %v", err)
	}

	// Source with headers, as the spreadsheet presents them.
	for _, tbl := range []core.Table{core.Expenses, core.Income} {
		if err := source.EnsureTable(ctx, tbl); err != nil {
			t.Fatalf("ensure: %v", err)
		}
	}
	if err := source.AppendRow(ctx, core.Expenses, []string{"1", "2024-02-01", "Comida", "20", "", "", "", ""}); err != nil {
		t.Fatalf("seed source: %v", err)
	}
	if err := source.AppendRow(ctx, core.Income, []string{"1", "2024-02-01", "Salario", "1000", "", "", "", ""}); err != nil {
		t.Fatalf("seed source: %v", err)
	}

	if err := w.Resync(ctx); err != nil {
		t.Fatalf("resync: %v", err)
	}

	expenses, err := repo.ReadAll(ctx, core.Expenses)
	if err != nil {
		t.Fatalf("read expenses: %v", err)
	}
	if len(expenses) != 1 || expenses[0][2] != "Comida" {
		t.Fatalf("expenses = %v", expenses)
	}
	income, err := repo.ReadAll(ctx, core.Income)
	if err != nil {
		t.Fatalf("read income: %v", err)
	}
	if len(income) != 1 || income[0][2] != "Salario" {
		t.Fatalf("income = %v", income)
	}
}
