package worker

import (
	"context"
	"fmt"
	"log/slog"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/ledger"
	"gastos/internal/storage"
)

// MirrorWorker maintains a SQLite replica of the spreadsheet tables.
// Row-by-row it applies record created events; periodically it resyncs
// both tables in full, which also picks up rows written by other
// clients that never produced an event.
type MirrorWorker struct {
	replica *storage.Repository
	source  ledger.RowReader
}

func NewMirrorWorker(replica *storage.Repository, source ledger.RowReader) *MirrorWorker {
	return &MirrorWorker{
		replica: replica,
		source:  source,
	}
}

// HandleRecordCreated applies one record created event to the replica
func (w *MirrorWorker) HandleRecordCreated(ctx context.Context, msg *amqp.RecordCreatedMessage) error {
	t, err := core.ParseTable(msg.Table)
	if err != nil {
		return fmt.Errorf("parse table %q: %w", msg.Table, err)
	}

	if err := w.replica.AppendRow(ctx, t, msg.Row); err != nil {
		return fmt.Errorf("append to replica: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored record to replica",
		"table", t.String(),
		"id", msg.ID)

	return nil
}

// Resync replaces the replica's rows for both tables with a fresh read
// of the source. Without a source it is a no-op; the replica then only
// grows through events. Errors are per table; one table failing does
// not stop the other.
func (w *MirrorWorker) Resync(ctx context.Context) error {
	if w.source == nil {
		slog.DebugContext(ctx, "Resync skipped, no source configured")
		return nil
	}

	var errs []error
	for _, t := range []core.Table{core.Expenses, core.Income} {
		if err := w.resyncTable(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to resync table",
				"table", t.String(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", t, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("resync: %v", errs)
	}
	return nil
}

func (w *MirrorWorker) resyncTable(ctx context.Context, t core.Table) error {
	rows, err := w.source.ReadAll(ctx, t)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	if err := w.replica.ReplaceAll(ctx, t, rows); err != nil {
		return fmt.Errorf("replace replica rows: %w", err)
	}
	return nil
}
