package ledger

import (
	"context"

	"gastos/internal/core"
)

// Ports for outbound row-store adapters. Every backend exposes the
// tables as raw cell matrices; decoding into records happens here so
// the coercion policy is identical regardless of backend.
type (
	RowReader interface {
		// ReadAll returns every row of the table, header included when
		// the backend stores one. A missing table reads as empty.
		ReadAll(ctx context.Context, t core.Table) ([][]string, error)
	}

	RowAppender interface {
		AppendRow(ctx context.Context, t core.Table, row []string) error
	}

	TableEnsurer interface {
		// EnsureTable creates the table with the fixed header if absent.
		EnsureTable(ctx context.Context, t core.Table) error
	}

	RowStore interface {
		RowReader
		RowAppender
		TableEnsurer
	}
)
