package snapshot

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/YoshitsuguKoike/moldtrack/internal/domain/record"
)

// ErrKeyExists is returned when a history entry would overwrite an existing date.
var ErrKeyExists = errors.New("history key already exists")

// History is the append-only, date-keyed collection of snapshots for one tracker.
// Keys are ISO-8601 dates, so lexicographic order is chronological order.
type History[S Snapshot] struct {
	entries map[string]S

	// extras holds top-level keys that are not ISO dates. They are carried through
	// unchanged so a save never drops content written by other tools.
	extras map[string][]byte
}

// NewHistory returns an empty history.
func NewHistory[S Snapshot]() *History[S] {
	return &History[S]{entries: make(map[string]S)}
}

// Len returns the number of dated entries.
func (h *History[S]) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// IsEmpty treats a nil history the same as one without entries.
func (h *History[S]) IsEmpty() bool {
	return h.Len() == 0
}

// Keys returns the dated keys in chronological order.
func (h *History[S]) Keys() []string {
	if h == nil {
		return nil
	}
	return sortedKeys(h.entries)
}

// Get returns the snapshot stored under key.
func (h *History[S]) Get(key string) (S, bool) {
	var zero S
	if h == nil {
		return zero, false
	}
	s, ok := h.entries[key]
	return s, ok
}

// Latest returns the entry with the greatest key.
func (h *History[S]) Latest() (string, S, bool) {
	var zero S
	keys := h.Keys()
	if len(keys) == 0 {
		return "", zero, false
	}
	k := keys[len(keys)-1]
	return k, h.entries[k], true
}

// Put inserts a new entry in place. Existing keys are never rewritten.
func (h *History[S]) Put(key string, s S) error {
	if !IsDateKey(key) {
		return fmt.Errorf("history key %q is not an ISO-8601 date", key)
	}
	if _, ok := h.entries[key]; ok {
		return fmt.Errorf("%w: %s", ErrKeyExists, key)
	}
	h.entries[key] = s
	return nil
}

// With returns a copy of h with one more entry; h itself is left untouched.
func (h *History[S]) With(key string, s S) (*History[S], error) {
	out := h.Clone()
	if err := out.Put(key, s); err != nil {
		return nil, err
	}
	return out, nil
}

// Clone returns a shallow copy; snapshots are immutable so sharing them is safe.
func (h *History[S]) Clone() *History[S] {
	out := NewHistory[S]()
	if h == nil {
		return out
	}
	for k, v := range h.entries {
		out.entries[k] = v
	}
	if len(h.extras) > 0 {
		out.extras = make(map[string][]byte, len(h.extras))
		for k, v := range h.extras {
			out.extras[k] = v
		}
	}
	return out
}

// SetExtra records a non-date key verbatim.
func (h *History[S]) SetExtra(key string, raw []byte) {
	if h.extras == nil {
		h.extras = make(map[string][]byte)
	}
	h.extras[key] = append([]byte(nil), raw...)
}

// Extras returns the preserved non-date keys in sorted order.
func (h *History[S]) Extras() []string {
	if h == nil {
		return nil
	}
	keys := make([]string, 0, len(h.extras))
	for k := range h.extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Extra returns the raw JSON stored under a non-date key.
func (h *History[S]) Extra(key string) ([]byte, bool) {
	if h == nil {
		return nil, false
	}
	raw, ok := h.extras[key]
	return raw, ok
}

// IsSupersetOf reports whether every entry of prev is present and unchanged in h.
func (h *History[S]) IsSupersetOf(prev *History[S]) bool {
	for _, k := range prev.Keys() {
		cur, ok := h.Get(k)
		if !ok {
			return false
		}
		old, _ := prev.Get(k)
		if !cur.Equal(old) {
			return false
		}
	}
	return true
}

// IsDateKey reports whether key is an ISO-8601 calendar date.
func IsDateKey(key string) bool {
	_, err := time.Parse(record.DateLayout, key)
	return err == nil
}
