package service

import (
	"time"

	"github.com/YoshitsuguKoike/moldtrack/internal/domain/record"
	"github.com/YoshitsuguKoike/moldtrack/internal/domain/snapshot"
)

// ChangeDetector decides whether the current configuration is a new version of
// the latest persisted one.
type ChangeDetector[S snapshot.Snapshot] struct {
	extractor snapshot.Extractor[S]
}

// NewChangeDetector creates a detector for one snapshot kind
func NewChangeDetector[S snapshot.Snapshot](e snapshot.Extractor[S]) *ChangeDetector[S] {
	return &ChangeDetector[S]{extractor: e}
}

// Reason explains a detection outcome.
type Reason string

const (
	ReasonBackfill  Reason = "backfill"  // no usable history, rebuilt from records
	ReasonChanged   Reason = "changed"   // current differs from the latest entry
	ReasonUnchanged Reason = "unchanged" // current matches the latest entry
	ReasonStale     Reason = "stale"     // differs, but the cutoff key is not after the latest key
	ReasonEmpty     Reason = "empty"     // no records at or before the cutoff
)

// Detection is the outcome of one Detect call.
type Detection[S snapshot.Snapshot] struct {
	Changed bool
	Reason  Reason

	// History is the merged history when Changed, otherwise the input history.
	History *snapshot.History[S]

	// Key is the history key the current snapshot was (or would be) stored under.
	Key     string
	Current S

	// Previous is the latest entry before this run; PreviousKey is empty after backfill.
	PreviousKey string
	Previous    S

	// Added and Removed are the (key, value) pairs gained and lost since Previous.
	// After a backfill every pair of Current counts as added.
	Added   snapshot.PairSet
	Removed snapshot.PairSet
}

// Detect compares current against the latest history entry. A nil or empty
// history triggers a backfill from the records table. Detect never fails:
// a cutoff at or before the latest key with a differing snapshot is reported
// as ReasonStale and leaves the history untouched.
func (d *ChangeDetector[S]) Detect(
	history *snapshot.History[S],
	current S,
	t *record.Table,
	cutoff time.Time,
) *Detection[S] {
	key := cutoff.Format(record.DateLayout)
	det := &Detection[S]{
		History: history,
		Key:     key,
		Current: current,
		Added:   snapshot.PairSet{},
		Removed: snapshot.PairSet{},
	}

	if history.IsEmpty() {
		return d.backfill(det, history, t, cutoff)
	}

	prevKey, prev, _ := history.Latest()
	det.PreviousKey = prevKey
	det.Previous = prev
	det.Added = current.Pairs().Difference(prev.Pairs())
	det.Removed = prev.Pairs().Difference(current.Pairs())

	if !current.ChangedFrom(prev) {
		det.Reason = ReasonUnchanged
		return det
	}

	if key <= prevKey {
		det.Reason = ReasonStale
		return det
	}

	merged, err := history.With(key, current)
	if err != nil {
		// unreachable: key is strictly after every existing key
		det.Reason = ReasonStale
		return det
	}
	det.Changed = true
	det.Reason = ReasonChanged
	det.History = merged
	return det
}

func (d *ChangeDetector[S]) backfill(det *Detection[S], history *snapshot.History[S], t *record.Table, cutoff time.Time) *Detection[S] {
	built := d.extractor.Backfill(t, cutoff)
	if built.IsEmpty() {
		det.Reason = ReasonEmpty
		return det
	}
	// carry over non-date keys from an otherwise empty history file
	if history != nil {
		for _, k := range history.Extras() {
			raw, _ := history.Extra(k)
			built.SetExtra(k, raw)
		}
	}
	latestKey, latest, _ := built.Latest()
	det.Changed = true
	det.Reason = ReasonBackfill
	det.History = built
	det.Key = latestKey
	det.Current = latest
	det.Added = latest.Pairs()
	return det
}
