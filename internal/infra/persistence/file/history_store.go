// Package file persists tracker histories as pretty-printed JSON files.
package file

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/moldtrack/internal/domain/snapshot"
	"github.com/YoshitsuguKoike/moldtrack/internal/infra/fs"
)

// HistoryStore loads and saves one kind of snapshot history.
type HistoryStore[S snapshot.Snapshot] struct {
	FS afero.Fs
}

// NewHistoryStore creates a new file-based history store
func NewHistoryStore[S snapshot.Snapshot](afs afero.Fs) *HistoryStore[S] {
	return &HistoryStore[S]{FS: afs}
}

// Load reads the history at path. A missing, unreadable or malformed file
// yields nil and a logged warning; callers rebuild the history from records.
func (s *HistoryStore[S]) Load(path string) *snapshot.History[S] {
	h, err := s.LoadStrict(path)
	if err != nil {
		if os.IsNotExist(err) {
			fs.GetLogger().Warn("no history at %s, starting fresh", path)
		} else {
			fs.GetLogger().Warn("history %s is unusable, treating as empty: %v", path, err)
		}
		return nil
	}
	return h
}

// LoadStrict is Load without the fail-soft policy.
func (s *HistoryStore[S]) LoadStrict(path string) (*snapshot.History[S], error) {
	data, err := afero.ReadFile(s.FS, path)
	if err != nil {
		return nil, err
	}
	return Decode[S](data)
}

// Save writes the full history atomically. Keys are emitted in sorted order,
// which for ISO-8601 dates is chronological.
func (s *HistoryStore[S]) Save(path string, h *snapshot.History[S]) error {
	data, err := Encode(h)
	if err != nil {
		return fmt.Errorf("encode history %s: %w", path, err)
	}
	if err := fs.WriteFileAtomic(s.FS, path, data); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Decode parses a history document. Non-date top-level keys are preserved verbatim.
func Decode[S snapshot.Snapshot](data []byte) (*snapshot.History[S], error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed history: %w", err)
	}
	h := snapshot.NewHistory[S]()
	for key, msg := range raw {
		if !snapshot.IsDateKey(key) {
			h.SetExtra(key, msg)
			continue
		}
		var snap S
		if err := json.Unmarshal(msg, &snap); err != nil {
			return nil, fmt.Errorf("malformed snapshot %s: %w", key, err)
		}
		if err := h.Put(key, snap); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Encode renders a history as indented JSON with a trailing newline.
func Encode[S snapshot.Snapshot](h *snapshot.History[S]) ([]byte, error) {
	doc := make(map[string]any, h.Len())
	for _, k := range h.Keys() {
		v, _ := h.Get(k)
		doc[k] = v
	}
	for _, k := range h.Extras() {
		raw, _ := h.Extra(k)
		doc[k] = json.RawMessage(raw)
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
