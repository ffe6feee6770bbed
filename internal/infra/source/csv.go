package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/moldtrack/internal/domain/record"
)

// CSVLoader reads comma-separated exports with a header row.
type CSVLoader struct {
	fs afero.Fs
}

// NewCSVLoader creates a CSV loader over afs.
func NewCSVLoader(afs afero.Fs) *CSVLoader {
	return &CSVLoader{fs: afs}
}

// Load reads path. Rows without a parsable recordDate fail the load with their line number.
func (l *CSVLoader) Load(path string) (*record.Table, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records %s: %w", path, err)
	}
	defer f.Close()
	return readCSV(f, path)
}

func readCSV(r io.Reader, path string) (*record.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return record.NewTable(nil, nil), nil
		}
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	for i, h := range header {
		// drop a UTF-8 BOM written by spreadsheet exports
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	if err := requireDate(path, func(c string) bool { return slices.Contains(header, c) }); err != nil {
		return nil, err
	}

	var rows []record.Record
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", path, line, err)
		}
		cells := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(fields) {
				cells[h] = fields[i]
			}
		}
		rec, err := buildRecord(cells)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		rows = append(rows, rec)
	}
	return record.NewTable(header, rows), nil
}
