// Package report computes the derived views of the ledger: filtered
// history, monthly aggregates, tag rankings and the exportable summary.
// Everything here is a pure function over loaded snapshots; input
// slices are never mutated.
package report

import (
	"sort"
	"time"

	"gastos/internal/core"
)

// Filter holds the optional history predicates. Predicates are
// conjunctive; a zero/empty predicate matches everything.
type Filter struct {
	From       time.Time // inclusive, zero = unbounded
	To         time.Time // inclusive, zero = unbounded
	Categories []string
	Users      []string
}

// Apply returns the records satisfying every supplied predicate,
// sorted by date descending with ties in original insertion order.
// Records with an unparsable date fail any date-range predicate and
// sort after all dated records.
func Apply(records []core.Record, f Filter) []core.Record {
	cats := toSet(f.Categories)
	users := toSet(f.Users)

	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if !matchesRange(r.Date, f.From, f.To) {
			continue
		}
		if len(cats) > 0 {
			if _, ok := cats[r.Category]; !ok {
				continue
			}
		}
		if len(users) > 0 {
			if _, ok := users[r.User]; !ok {
				continue
			}
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		if a.Valid != b.Valid {
			return a.Valid
		}
		if !a.Valid {
			return false
		}
		return a.Time.After(b.Time)
	})
	return out
}

func matchesRange(d core.Date, from, to time.Time) bool {
	if from.IsZero() && to.IsZero() {
		return true
	}
	if !d.Valid {
		return false
	}
	if !from.IsZero() && d.Time.Before(from) {
		return false
	}
	if !to.IsZero() && d.Time.After(to) {
		return false
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
