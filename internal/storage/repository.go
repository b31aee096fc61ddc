package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gastos/internal/core"
	ports "gastos/internal/ledger"

	_ "modernc.org/sqlite"
)

// Repository is the SQLite row store. It backs the local "sqlite"
// backend and serves as the mirror worker's replica target. Rows are
// stored as raw cells so decode semantics match the spreadsheet
// backend exactly.
type Repository struct {
	db *sql.DB
}

var _ ports.RowStore = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReadAll returns the table's data rows in insertion order. No header
// row is stored; the schema is fixed by the migration.
func (r *Repository) ReadAll(ctx context.Context, t core.Table) ([][]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT record_id, fecha, categoria, monto, nota, tags, usuario, ts
		   FROM ledger_rows WHERE table_name = ? ORDER BY seq`, t.String())
	if err != nil {
		return nil, fmt.Errorf("select ledger rows: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		row := make([]string, len(core.Header))
		dest := make([]any, len(row))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}
	return out, nil
}

func (r *Repository) AppendRow(ctx context.Context, t core.Table, row []string) error {
	cells := padRow(row)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ledger_rows (table_name, record_id, fecha, categoria, monto, nota, tags, usuario, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.String(), cells[0], cells[1], cells[2], cells[3], cells[4], cells[5], cells[6], cells[7])
	if err != nil {
		return fmt.Errorf("insert ledger row: %w", err)
	}
	return nil
}

// EnsureTable is satisfied by the migration; both tables share one
// physical table keyed by table_name.
func (r *Repository) EnsureTable(_ context.Context, t core.Table) error {
	if !t.IsValid() {
		return core.ErrInvalidTable
	}
	return nil
}

// ReplaceAll swaps the table's rows for the given matrix inside one
// transaction. A leading header row is dropped. Used by the mirror
// worker's full resync.
func (r *Repository) ReplaceAll(ctx context.Context, t core.Table, rows [][]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin resync transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_rows WHERE table_name = ?`, t.String()); err != nil {
		return fmt.Errorf("clear ledger rows: %w", err)
	}

	inserted := 0
	for i, row := range rows {
		if i == 0 && looksLikeHeader(row) {
			continue
		}
		cells := padRow(row)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_rows (table_name, record_id, fecha, categoria, monto, nota, tags, usuario, ts)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.String(), cells[0], cells[1], cells[2], cells[3], cells[4], cells[5], cells[6], cells[7]); err != nil {
			return fmt.Errorf("insert ledger row: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit resync transaction: %w", err)
	}
	slog.InfoContext(ctx, "Replaced replica rows", "table", t.String(), "rows", inserted)
	return nil
}

func padRow(row []string) []string {
	cells := make([]string, len(core.Header))
	for i := range cells {
		if i < len(row) {
			cells[i] = row[i]
		}
	}
	return cells
}

func looksLikeHeader(row []string) bool {
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
