package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expenses Table = "expenses"
	Income   Table = "income"
)

type (
	// Table identifies one of the two record domains. Each table is
	// backed by its own worksheet and has its own id space.
	Table string

	// Date is the calendar date of a record. Rows read back from the
	// store may carry anything in the date cell; an unparsable value is
	// kept as Raw with Valid=false and excluded from period bucketing.
	Date struct {
		Time  time.Time
		Valid bool
		Raw   string
	}

	// Record is one expense or income entry.
	Record struct {
		ID         int64
		Date       Date
		Category   string
		Amount     decimal.Decimal
		Note       string
		Tags       string
		User       string
		RecordedAt time.Time
	}
)

// Header is the fixed column schema of every table.
var Header = []string{"id", "fecha", "categoria", "monto", "nota", "tags", "usuario", "ts"}

var (
	ErrInvalidTable  = errors.New("invalid table")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
)

// SheetName returns the worksheet title backing the table.
func (t Table) SheetName() string {
	switch t {
	case Expenses:
		return "gastos"
	case Income:
		return "ingresos"
	default:
		return string(t)
	}
}

func (t Table) IsValid() bool {
	return t == Expenses || t == Income
}

// String implements fmt.Stringer
func (t Table) String() string {
	return string(t)
}

// ParseTable maps a table or worksheet name to a Table.
func ParseTable(s string) (Table, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expenses", "gastos":
		return Expenses, nil
	case "income", "ingresos":
		return Income, nil
	default:
		return "", ErrInvalidTable
	}
}

// NewDate creates a valid Date from year, month, day.
func NewDate(year, month, day int) Date {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return Date{Time: t, Valid: true, Raw: t.Format("2006-01-02")}
}

// dateLayouts are tried in order when decoding a date cell.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// ParseDate decodes a date cell. Unparsable input yields an invalid
// Date carrying the raw text so callers can report excluded rows.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t, Valid: true, Raw: s}
		}
	}
	return Date{Raw: s}
}

func (d Date) Validate() error {
	if !d.Valid || d.Time.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Bucket returns the year-month aggregation key ("2006-01"). The key
// sorts lexicographically in chronological order. ok is false for
// unparsable dates, which never join a bucket.
func (d Date) Bucket() (string, bool) {
	if !d.Valid {
		return "", false
	}
	return d.Time.Format("2006-01"), true
}

// ISO returns the date formatted for storage, or the raw cell text for
// an unparsable date.
func (d Date) ISO() string {
	if !d.Valid {
		return d.Raw
	}
	return d.Time.Format("2006-01-02")
}

// Validate checks the write-time invariants: a parseable date, a
// non-empty category and a strictly positive amount. Note, tags and
// user are free text and may be empty.
func (r Record) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// TagList splits the comma-separated tags field, trimming whitespace
// and dropping empty fragments. Duplicates are preserved.
func (r Record) TagList() []string {
	if strings.TrimSpace(r.Tags) == "" {
		return nil
	}
	parts := strings.Split(r.Tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Row serializes the record as an ordered cell slice matching Header.
func (r Record) Row() []string {
	ts := ""
	if !r.RecordedAt.IsZero() {
		ts = r.RecordedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		decimal.NewFromInt(r.ID).String(),
		r.Date.ISO(),
		r.Category,
		r.Amount.String(),
		r.Note,
		r.Tags,
		r.User,
		ts,
	}
}
