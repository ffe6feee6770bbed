// Package snapshot models point-in-time plant configurations and their date-keyed history.
package snapshot

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// Kind tags the snapshot variant.
type Kind string

const (
	// KindLayout maps machine numbers to the machine code installed there.
	KindLayout Kind = "layout"
	// KindPairing maps mold numbers to every machine code the mold has run on.
	KindPairing Kind = "pairing"
)

// Snapshot is the full configuration as of one date.
type Snapshot interface {
	Kind() Kind
	// Pairs flattens the snapshot into (key, value) pairs.
	Pairs() PairSet
	// Equal reports structural equality with another snapshot of the same kind.
	Equal(other Snapshot) bool
	// ChangedFrom reports whether this snapshot is a new version relative to prev.
	ChangedFrom(prev Snapshot) bool
	Len() int
}

// Layout is machineNo -> machineCode.
type Layout map[string]string

func (Layout) Kind() Kind { return KindLayout }

func (l Layout) Len() int { return len(l) }

func (l Layout) Pairs() PairSet {
	ps := make(PairSet, len(l))
	for k, v := range l {
		ps.Add(Pair{Key: k, Value: v})
	}
	return ps
}

func (l Layout) Equal(other Snapshot) bool {
	o, ok := other.(Layout)
	if !ok || len(o) != len(l) {
		return false
	}
	for k, v := range l {
		if ov, ok := o[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// ChangedFrom is plain inequality for layouts: moves, installs and removals all count.
func (l Layout) ChangedFrom(prev Snapshot) bool {
	return !l.Equal(prev)
}

// Changes lists machines whose code differs from prev, ordered by machine number.
func (l Layout) Changes(prev Layout) []LayoutChange {
	keys := make(map[string]struct{}, len(l)+len(prev))
	for k := range l {
		keys[k] = struct{}{}
	}
	for k := range prev {
		keys[k] = struct{}{}
	}
	var out []LayoutChange
	for _, k := range sortedKeys(keys) {
		before, after := prev[k], l[k]
		if before != after {
			out = append(out, LayoutChange{MachineNo: k, Previous: before, Current: after})
		}
	}
	return out
}

// UnmarshalJSON coerces non-string values (numbers written by older tooling) to strings.
func (l *Layout) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Layout, len(raw))
	for k, v := range raw {
		out[k] = coerce(v)
	}
	*l = out
	return nil
}

// LayoutChange is one machine whose installed code differs between two layouts.
// An empty Previous means the machine appeared; an empty Current means it vanished.
type LayoutChange struct {
	MachineNo string `json:"machine_no"`
	Previous  string `json:"previous"`
	Current   string `json:"current"`
}

// Pairing is moldNo -> sorted, de-duplicated machine codes.
type Pairing map[string][]string

func (Pairing) Kind() Kind { return KindPairing }

func (p Pairing) Len() int { return len(p) }

func (p Pairing) Pairs() PairSet {
	ps := make(PairSet)
	for mold, machines := range p {
		for _, m := range machines {
			ps.Add(Pair{Key: mold, Value: m})
		}
	}
	return ps
}

func (p Pairing) Equal(other Snapshot) bool {
	o, ok := other.(Pairing)
	if !ok || len(o) != len(p) {
		return false
	}
	for k, v := range p {
		ov, ok := o[k]
		if !ok || len(ov) != len(v) {
			return false
		}
		for i := range v {
			if v[i] != ov[i] {
				return false
			}
		}
	}
	return true
}

// ChangedFrom is true only when p holds a (mold, machine) pair that prev lacks.
func (p Pairing) ChangedFrom(prev Snapshot) bool {
	if prev == nil {
		return p.Len() > 0
	}
	return len(p.Pairs().Difference(prev.Pairs())) > 0
}

func (p *Pairing) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Pairing, len(raw))
	for k, v := range raw {
		var vals []string
		switch tv := v.(type) {
		case []any:
			for _, item := range tv {
				vals = append(vals, coerce(item))
			}
		case nil:
		default:
			vals = []string{coerce(tv)}
		}
		out[k] = uniqueSorted(vals)
	}
	*p = out
	return nil
}

// Pair is one (key, value) association, e.g. (mold, machine).
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// PairSet is an unordered set of pairs.
type PairSet map[Pair]struct{}

func (s PairSet) Add(p Pair) { s[p] = struct{}{} }

func (s PairSet) Has(p Pair) bool {
	_, ok := s[p]
	return ok
}

// Difference returns the pairs in s that are not in other.
func (s PairSet) Difference(other PairSet) PairSet {
	out := make(PairSet)
	for p := range s {
		if !other.Has(p) {
			out.Add(p)
		}
	}
	return out
}

// Sorted returns the pairs ordered by key, then value.
func (s PairSet) Sorted() []Pair {
	out := make([]Pair, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func coerce(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case nil:
		return ""
	case float64:
		if tv == float64(int64(tv)) {
			return fmt.Sprintf("%d", int64(tv))
		}
		return fmt.Sprintf("%g", tv)
	default:
		return fmt.Sprint(tv)
	}
}

func uniqueSorted(vals []string) []string {
	seen := make(map[string]struct{}, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
