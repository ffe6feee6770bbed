// Package presenter renders tracker detections into report artifacts.
package presenter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path"

	"github.com/YoshitsuguKoike/moldtrack/internal/domain/service"
	"github.com/YoshitsuguKoike/moldtrack/internal/domain/snapshot"
)

// Artifact is one output file, with a slash-separated path relative to the newest directory.
type Artifact struct {
	Path string
	Data []byte
}

// ReportWriter turns a detection into the files a tracker publishes.
type ReportWriter[S snapshot.Snapshot] interface {
	Render(det *service.Detection[S]) ([]Artifact, error)
}

// LayoutReport writes the current layout and the per-machine changes.
type LayoutReport struct{}

// Render produces <key>_machine_layout.csv and <key>_machine_layout_changes.csv.
func (LayoutReport) Render(det *service.Detection[snapshot.Layout]) ([]Artifact, error) {
	layoutRows := [][]string{{"machineNo", "machineCode"}}
	for _, p := range det.Current.Pairs().Sorted() {
		layoutRows = append(layoutRows, []string{p.Key, p.Value})
	}
	layout, err := encodeCSV(layoutRows)
	if err != nil {
		return nil, err
	}

	prev := det.Previous
	if prev == nil {
		prev = snapshot.Layout{}
	}
	changeRows := [][]string{{"machineNo", "previousCode", "currentCode"}}
	for _, c := range det.Current.Changes(prev) {
		changeRows = append(changeRows, []string{c.MachineNo, c.Previous, c.Current})
	}
	changes, err := encodeCSV(changeRows)
	if err != nil {
		return nil, err
	}

	return []Artifact{
		{Path: fmt.Sprintf("%s_machine_layout.csv", det.Key), Data: layout},
		{Path: fmt.Sprintf("%s_machine_layout_changes.csv", det.Key), Data: changes},
	}, nil
}

// PairingReport writes every known (mold, machine) pair and, in a subdirectory, the new ones.
type PairingReport struct{}

// NewPairsDir groups per-date new-pair files.
const NewPairsDir = "new_pairs"

// Render produces <key>_mold_machine_pairing.csv and new_pairs/<key>_new_pairs.csv.
func (PairingReport) Render(det *service.Detection[snapshot.Pairing]) ([]Artifact, error) {
	allRows := [][]string{{"moldNo", "machineCode", "machineCount"}}
	for _, p := range det.Current.Pairs().Sorted() {
		allRows = append(allRows, []string{p.Key, p.Value, fmt.Sprint(len(det.Current[p.Key]))})
	}
	all, err := encodeCSV(allRows)
	if err != nil {
		return nil, err
	}

	newRows := [][]string{{"moldNo", "machineCode", "firstSeenBy"}}
	for _, p := range det.Added.Sorted() {
		newRows = append(newRows, []string{p.Key, p.Value, det.Key})
	}
	added, err := encodeCSV(newRows)
	if err != nil {
		return nil, err
	}

	return []Artifact{
		{Path: fmt.Sprintf("%s_mold_machine_pairing.csv", det.Key), Data: all},
		{Path: path.Join(NewPairsDir, fmt.Sprintf("%s_new_pairs.csv", det.Key)), Data: added},
	}, nil
}

func encodeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}
