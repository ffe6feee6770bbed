package snapshot

import (
	"sort"
	"time"

	"github.com/YoshitsuguKoike/moldtrack/internal/domain/record"
)

// backfill runs the cutoff extractor at every distinct candidate date and keeps
// the dates whose snapshot is a new version of the one before it.
func backfill[S Snapshot](e Extractor[S], t *record.Table, candidates []time.Time) *History[S] {
	h := NewHistory[S]()

	dates := make(map[string]time.Time, len(candidates))
	for _, d := range candidates {
		dates[d.Format(record.DateLayout)] = d
	}

	var prev Snapshot
	for _, key := range sortedKeys(dates) {
		s := e.Extract(t, dates[key])
		if s.Len() == 0 {
			continue
		}
		if prev != nil && !s.ChangedFrom(prev) {
			continue
		}
		// keys are unique by construction
		_ = h.Put(key, s)
		prev = s
	}
	return h
}

// ordered returns the rows at or before cutoff sorted by date, keeping table
// order within a date.
func ordered(t *record.Table, cutoff time.Time) []record.Record {
	rows := make([]record.Record, 0, len(t.Rows))
	for _, r := range t.Rows {
		if !r.Date.After(cutoff) {
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].Row < rows[j].Row
	})
	return rows
}
