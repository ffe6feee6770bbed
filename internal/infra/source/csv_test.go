package source

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/moldtrack/internal/domain/record"
)

func TestCSVLoader_Load(t *testing.T) {
	afs := afero.NewMemMapFs()
	content := "\ufeffrecordDate,workingShift,machineNo,machineCode,moldNo,itemCode\n" +
		"2024-01-01,1,M1,Ｃ１,MOLD-1,X\n" +
		"2024-01-05 00:00:00,2,M1,C2,nan,Y\n" +
		"2024-01-05,3, M2 ,C3\n"
	require.NoError(t, afero.WriteFile(afs, "records.csv", []byte(content), 0o644))

	tbl, err := NewCSVLoader(afs).Load("records.csv")
	require.NoError(t, err)

	assert.True(t, tbl.HasColumn(record.ColRecordDate), "BOM must be stripped from the first header")
	assert.NoError(t, tbl.Require(record.ColRecordDate, record.ColMachineNo, record.ColMachineCode, record.ColMoldNo))
	require.Equal(t, 3, tbl.Len())

	first := tbl.Rows[0]
	assert.Equal(t, "2024-01-01", first.DateKey())
	assert.Equal(t, "C1", first.MachineCode)
	assert.Equal(t, "MOLD-1", first.MoldNo)

	assert.Equal(t, "2024-01-05", tbl.Rows[1].DateKey())
	assert.Empty(t, tbl.Rows[1].MoldNo)

	assert.Equal(t, "M2", tbl.Rows[2].MachineNo)
	assert.Equal(t, 2, tbl.Rows[2].Row)
}

func TestCSVLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "Unparsable date carries line number",
			content: "recordDate,machineNo,machineCode\n2024-01-01,M1,C1\nyesterday,M1,C2\n",
			wantMsg: "line 3",
		},
		{
			name:    "Empty date",
			content: "recordDate,machineNo,machineCode\n,M1,C1\n",
			wantMsg: "empty recordDate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			afs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(afs, "r.csv", []byte(tt.content), 0o644))

			_, err := NewCSVLoader(afs).Load("r.csv")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	_, err := NewCSVLoader(afero.NewMemMapFs()).Load("missing.csv")
	assert.Error(t, err)
}

func TestCSVLoader_MissingDateColumn(t *testing.T) {
	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, "x.csv", []byte("machineNo,machineCode\nM1,C1\n"), 0o644))

	_, err := NewCSVLoader(afs).Load("x.csv")
	require.Error(t, err)

	var mce *record.MissingColumnError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "x.csv", mce.Source)
	assert.Equal(t, []string{record.ColRecordDate}, mce.Columns)
}

func TestCSVLoader_EmptyFile(t *testing.T) {
	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, "r.csv", nil, 0o644))

	tbl, err := NewCSVLoader(afs).Load("r.csv")
	require.NoError(t, err)
	assert.Zero(t, tbl.Len())
	assert.Error(t, tbl.Require(record.ColRecordDate))
}

func TestForPath(t *testing.T) {
	afs := afero.NewMemMapFs()

	l, err := ForPath(afs, "records.CSV")
	require.NoError(t, err)
	assert.IsType(t, &CSVLoader{}, l)

	l, err = ForPath(afs, "records.parquet")
	require.NoError(t, err)
	assert.IsType(t, &ParquetLoader{}, l)

	_, err = ForPath(afs, "records.xlsx")
	assert.Error(t, err)
}
