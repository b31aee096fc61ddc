package memory

import (
	"context"
	"sync"

	"gastos/internal/core"
)

// Store is an in-memory row store for development and tests. Tables
// are created lazily with the fixed header, mirroring the spreadsheet
// backend's behavior.
type Store struct {
	mu     sync.Mutex
	tables map[core.Table][][]string

	// failReads simulates an unreachable store for fail-soft tests.
	failReads error
}

func New() *Store {
	return &Store{tables: make(map[core.Table][][]string)}
}

// FailReads makes every subsequent ReadAll return err (nil restores
// normal behavior).
func (s *Store) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failReads = err
}

// ReadAll returns a copy of the table rows, header included. A table
// never written to reads as empty.
func (s *Store) ReadAll(_ context.Context, t core.Table) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return nil, s.failReads
	}
	rows, ok := s.tables[t]
	if !ok {
		return nil, nil
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (s *Store) AppendRow(_ context.Context, t core.Table, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLocked(t)
	s.tables[t] = append(s.tables[t], append([]string(nil), row...))
	return nil
}

func (s *Store) EnsureTable(_ context.Context, t core.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLocked(t)
	return nil
}

func (s *Store) ensureLocked(t core.Table) {
	if _, ok := s.tables[t]; !ok {
		s.tables[t] = [][]string{append([]string(nil), core.Header...)}
	}
}
