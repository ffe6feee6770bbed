package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/YoshitsuguKoike/moldtrack/internal/domain/record"
)

// ParquetLoader reads Parquet files through an in-memory DuckDB connection.
// DuckDB opens the path itself, so it always reads the real filesystem.
type ParquetLoader struct{}

// NewParquetLoader creates a Parquet loader.
func NewParquetLoader() *ParquetLoader {
	return &ParquetLoader{}
}

// Load reads the known columns present in path, every value cast to text.
func (l *ParquetLoader) Load(path string) (*record.Table, error) {
	return l.LoadContext(context.Background(), path)
}

// LoadContext is Load with a caller-supplied context.
func (l *ParquetLoader) LoadContext(ctx context.Context, path string) (*record.Table, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	src := fmt.Sprintf("read_parquet('%s')", strings.ReplaceAll(path, "'", "''"))

	columns, err := describe(ctx, db, src)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", path, err)
	}
	hasColumn := func(c string) bool {
		_, ok := columns[c]
		return ok
	}
	if err := requireDate(path, hasColumn); err != nil {
		return nil, err
	}

	var present []string
	for _, c := range knownColumns {
		if _, ok := columns[c]; ok {
			present = append(present, c)
		}
	}
	if len(present) == 0 {
		return record.NewTable(sortedNames(columns), nil), nil
	}

	selects := make([]string, len(present))
	for i, c := range present {
		selects[i] = fmt.Sprintf(`CAST("%s" AS VARCHAR)`, c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selects, ", "), src)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", path, err)
	}
	defer rows.Close()

	var out []record.Record
	n := 0
	for rows.Next() {
		n++
		vals := make([]sql.NullString, len(present))
		ptrs := make([]any, len(present))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s row %d: %w", path, n, err)
		}
		cells := make(map[string]string, len(present))
		for i, c := range present {
			cells[c] = vals[i].String
		}
		rec, err := buildRecord(cells)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, n, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return record.NewTable(sortedNames(columns), out), nil
}

func describe(ctx context.Context, db *sql.DB, src string) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+src+" LIMIT 0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out, nil
}
