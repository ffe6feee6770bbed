package source

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/moldtrack/internal/domain/record"
)

// Loader reads a records table from a file.
type Loader interface {
	Load(path string) (*record.Table, error)
}

// ForPath picks a loader by file extension.
func ForPath(afs afero.Fs, path string) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSVLoader(afs), nil
	case ".parquet":
		return NewParquetLoader(), nil
	default:
		return nil, fmt.Errorf("unsupported records format %q (want .csv or .parquet)", filepath.Ext(path))
	}
}

// knownColumns are the columns the trackers read; others are ignored.
var knownColumns = []string{
	record.ColRecordDate,
	record.ColWorkingShift,
	record.ColMachineNo,
	record.ColMachineCode,
	record.ColMoldNo,
}

// requireDate fails before any row is read when the source has no recordDate column.
func requireDate(path string, has func(string) bool) error {
	if has(record.ColRecordDate) {
		return nil
	}
	return &record.MissingColumnError{Source: path, Columns: []string{record.ColRecordDate}}
}

// buildRecord converts one row of cells keyed by column name.
func buildRecord(cells map[string]string) (record.Record, error) {
	raw := strings.TrimSpace(cells[record.ColRecordDate])
	if raw == "" {
		return record.Record{}, fmt.Errorf("empty %s", record.ColRecordDate)
	}
	date, err := record.ParseDate(raw)
	if err != nil {
		return record.Record{}, err
	}
	return record.Record{
		Date:        date,
		Shift:       NormalizeID(cells[record.ColWorkingShift]),
		MachineNo:   NormalizeID(cells[record.ColMachineNo]),
		MachineCode: NormalizeID(cells[record.ColMachineCode]),
		MoldNo:      NormalizeID(cells[record.ColMoldNo]),
	}, nil
}

func sortedNames(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
