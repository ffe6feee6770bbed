package snapshot

import (
	"time"

	"github.com/YoshitsuguKoike/moldtrack/internal/domain/record"
)

// Extractor derives snapshots of one kind from a records table.
type Extractor[S Snapshot] interface {
	Kind() Kind
	// RequiredColumns lists the columns the table must carry.
	RequiredColumns() []string
	// Extract returns the configuration as of cutoff (inclusive).
	Extract(t *record.Table, cutoff time.Time) S
	// Backfill reconstructs the full history up to cutoff from the raw records.
	Backfill(t *record.Table, cutoff time.Time) *History[S]
}

// LayoutExtractor derives machineNo -> machineCode snapshots.
type LayoutExtractor struct{}

func (LayoutExtractor) Kind() Kind { return KindLayout }

func (LayoutExtractor) RequiredColumns() []string {
	return []string{record.ColRecordDate, record.ColMachineNo, record.ColMachineCode}
}

// Extract keeps, for every machine, the row with the latest date at or before
// cutoff. Rows on the same date resolve to the last one in table order.
func (LayoutExtractor) Extract(t *record.Table, cutoff time.Time) Layout {
	type seen struct {
		date time.Time
		row  int
		code string
	}
	latest := make(map[string]seen)
	if t != nil {
		for _, r := range t.Rows {
			if r.Date.After(cutoff) || r.MachineNo == "" || r.MachineCode == "" {
				continue
			}
			cur, ok := latest[r.MachineNo]
			if ok && (r.Date.Before(cur.date) || (r.Date.Equal(cur.date) && r.Row < cur.row)) {
				continue
			}
			latest[r.MachineNo] = seen{date: r.Date, row: r.Row, code: r.MachineCode}
		}
	}
	out := make(Layout, len(latest))
	for m, s := range latest {
		out[m] = s.code
	}
	return out
}

// Backfill emits one snapshot per date on which some machine was first seen
// with a code, or switched to a code different from its previous row.
func (e LayoutExtractor) Backfill(t *record.Table, cutoff time.Time) *History[Layout] {
	var candidates []time.Time
	if t != nil {
		first := make(map[[2]string]struct{})
		last := make(map[string]string)
		for _, r := range ordered(t, cutoff) {
			if r.MachineNo == "" || r.MachineCode == "" {
				continue
			}
			combo := [2]string{r.MachineNo, r.MachineCode}
			_, known := first[combo]
			if !known || last[r.MachineNo] != r.MachineCode {
				candidates = append(candidates, r.Date)
			}
			first[combo] = struct{}{}
			last[r.MachineNo] = r.MachineCode
		}
	}
	return backfill[Layout](e, t, candidates)
}

// PairingExtractor derives moldNo -> [machineCode...] snapshots.
type PairingExtractor struct{}

func (PairingExtractor) Kind() Kind { return KindPairing }

func (PairingExtractor) RequiredColumns() []string {
	return []string{record.ColRecordDate, record.ColMachineCode, record.ColMoldNo}
}

// Extract groups rows at or before cutoff that carry a mold number by mold and
// collects every machine code each mold has run on.
func (PairingExtractor) Extract(t *record.Table, cutoff time.Time) Pairing {
	groups := make(map[string][]string)
	if t != nil {
		for _, r := range t.Rows {
			if r.Date.After(cutoff) || r.MoldNo == "" || r.MachineCode == "" {
				continue
			}
			groups[r.MoldNo] = append(groups[r.MoldNo], r.MachineCode)
		}
	}
	out := make(Pairing, len(groups))
	for mold, machines := range groups {
		out[mold] = uniqueSorted(machines)
	}
	return out
}

// Backfill emits one snapshot per date on which a (mold, machine) pair was first seen.
func (e PairingExtractor) Backfill(t *record.Table, cutoff time.Time) *History[Pairing] {
	var candidates []time.Time
	if t != nil {
		first := make(map[Pair]struct{})
		for _, r := range ordered(t, cutoff) {
			if r.MoldNo == "" || r.MachineCode == "" {
				continue
			}
			p := Pair{Key: r.MoldNo, Value: r.MachineCode}
			if _, ok := first[p]; !ok {
				first[p] = struct{}{}
				candidates = append(candidates, r.Date)
			}
		}
	}
	return backfill[Pairing](e, t, candidates)
}
