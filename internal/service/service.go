package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gastos/internal/cache"
	"gastos/internal/core"
	"gastos/internal/ledger"
)

// Snapshot is one cached read of a table: the decoded records, the
// cache generation they were fetched under and how many rows the
// decoder excluded for unparsable dates.
type Snapshot struct {
	Records    []core.Record
	Generation uint64
	Excluded   int
}

// EventPublisher receives a notification after a row has been appended
// to the backing store. Publish failures never fail the append.
type EventPublisher interface {
	PublishRecordCreated(ctx context.Context, t core.Table, id int64, row []string) error
}

// Ledger orchestrates reads and appends against a row store, with a
// versioned per-table snapshot cache in front of the reads.
type Ledger struct {
	store     ledger.RowStore
	snapshots *cache.SnapshotStore[Snapshot]
	publisher EventPublisher

	// Serializes in-process appends so two concurrent writers do not
	// compute the same next id. Writers in other processes can still
	// race on id assignment; the store itself has no reservation
	// primitive.
	appendMu sync.Mutex
}

func New(store ledger.RowStore, ttl time.Duration, publisher EventPublisher) *Ledger {
	return &Ledger{
		store:     store,
		snapshots: cache.NewSnapshotStore[Snapshot](ttl),
		publisher: publisher,
	}
}

// Snapshots exposes the cache for cleanup registration.
func (l *Ledger) Snapshots() *cache.SnapshotStore[Snapshot] {
	return l.snapshots
}

// Load returns the table's snapshot, from cache when fresh. Reads fail
// soft: a store error is logged and yields an empty snapshot, so a
// flaky backend degrades the view instead of breaking every page.
func (l *Ledger) Load(ctx context.Context, t core.Table) Snapshot {
	snap, gen, ok := l.snapshots.Get(t.String())
	if ok {
		snap.Generation = gen
		return snap
	}
	return l.fetch(ctx, t)
}

// LoadAt returns a snapshot at or after minGeneration, refetching when
// the cached one predates it. A caller holding the generation returned
// by Append uses this to read its own write.
func (l *Ledger) LoadAt(ctx context.Context, t core.Table, minGeneration uint64) Snapshot {
	snap, gen, ok := l.snapshots.Get(t.String())
	if ok && gen >= minGeneration {
		snap.Generation = gen
		return snap
	}
	return l.fetch(ctx, t)
}

// Append validates the record, assigns the next id, stamps the
// recording time and appends it to the store. On success the table's
// snapshot is invalidated and the returned generation identifies the
// first snapshot that includes the write.
func (l *Ledger) Append(ctx context.Context, t core.Table, rec core.Record) (core.Record, uint64, error) {
	if !t.IsValid() {
		return core.Record{}, 0, core.ErrInvalidTable
	}
	if err := rec.Validate(); err != nil {
		return core.Record{}, 0, err
	}

	l.appendMu.Lock()
	defer l.appendMu.Unlock()

	if err := l.store.EnsureTable(ctx, t); err != nil {
		return core.Record{}, 0, fmt.Errorf("ensure table %s: %w", t, err)
	}

	snap := l.Load(ctx, t)
	rec.ID = ledger.MaxID(snap.Records) + 1
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	row := rec.Row()
	if err := l.store.AppendRow(ctx, t, row); err != nil {
		return core.Record{}, 0, fmt.Errorf("append to %s: %w", t, err)
	}

	gen := l.snapshots.Invalidate(t.String())

	if l.publisher != nil {
		if err := l.publisher.PublishRecordCreated(ctx, t, rec.ID, row); err != nil {
			slog.ErrorContext(ctx, "Failed to publish record created event",
				"table", t.String(), "id", rec.ID, "error", err)
		}
	}

	return rec, gen, nil
}

func (l *Ledger) fetch(ctx context.Context, t core.Table) Snapshot {
	values, err := l.store.ReadAll(ctx, t)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read table, serving empty snapshot",
			"table", t.String(), "error", err)
		return Snapshot{Generation: l.snapshots.Generation(t.String())}
	}

	records, excluded := ledger.DecodeRows(values)
	if excluded > 0 {
		slog.WarnContext(ctx, "Excluded rows with unparsable dates",
			"table", t.String(), "excluded", excluded)
	}

	gen := l.snapshots.Set(t.String(), Snapshot{Records: records, Excluded: excluded})
	return Snapshot{Records: records, Generation: gen, Excluded: excluded}
}
