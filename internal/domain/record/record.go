// Package record holds the production-log rows the trackers derive snapshots from.
package record

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Column names as they appear in the production log.
const (
	ColRecordDate   = "recordDate"
	ColWorkingShift = "workingShift"
	ColMachineNo    = "machineNo"
	ColMachineCode  = "machineCode"
	ColMoldNo       = "moldNo"
)

// DateLayout is the ISO-8601 calendar date format used for cutoffs and history keys.
const DateLayout = "2006-01-02"

// Record is one row of the production log. Records are never modified after loading.
type Record struct {
	Date        time.Time
	Shift       string
	MachineNo   string
	MachineCode string
	MoldNo      string

	// Row is the position in the source table; later rows win ties on the same date.
	Row int
}

// DateKey returns the record date formatted as an ISO-8601 history key.
func (r Record) DateKey() string {
	return r.Date.Format(DateLayout)
}

// Table is an in-memory view of the production log.
type Table struct {
	Columns []string
	Rows    []Record
}

// NewTable builds a table and assigns row positions in input order.
func NewTable(columns []string, rows []Record) *Table {
	out := make([]Record, len(rows))
	for i, r := range rows {
		r.Row = i
		out[i] = r
	}
	cols := append([]string(nil), columns...)
	return &Table{Columns: cols, Rows: out}
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Require fails with a MissingColumnError if any of the named columns is absent.
func (t *Table) Require(cols ...string) error {
	if t == nil {
		return &MissingColumnError{Columns: cols}
	}
	var missing []string
	for _, c := range cols {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnError{Columns: missing}
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// MaxDate returns the latest record date, or false for an empty table.
func (t *Table) MaxDate() (time.Time, bool) {
	if t.Len() == 0 {
		return time.Time{}, false
	}
	max := t.Rows[0].Date
	for _, r := range t.Rows[1:] {
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return max, true
}

// Dates returns the distinct record dates in ascending order.
func (t *Table) Dates() []time.Time {
	seen := make(map[string]time.Time)
	for _, r := range t.Rows {
		seen[r.DateKey()] = r.Date
	}
	out := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// ParseDate parses an ISO-8601 date, also accepting a full RFC3339 timestamp.
// The result is truncated to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05.999999999-07", "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Truncate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
}

// Truncate drops the time-of-day part, keeping the calendar date in UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
