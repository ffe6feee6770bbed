package record

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewTable_AssignsRowPositions(t *testing.T) {
	rows := []Record{
		{Date: day("2024-01-02"), MachineNo: "M1", Row: 99},
		{Date: day("2024-01-01"), MachineNo: "M2"},
	}
	tbl := NewTable([]string{ColRecordDate, ColMachineNo}, rows)

	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, 0, tbl.Rows[0].Row)
	assert.Equal(t, 1, tbl.Rows[1].Row)
	assert.Equal(t, 99, rows[0].Row, "input rows must not be modified")
}

func TestTable_Require(t *testing.T) {
	tbl := NewTable([]string{ColRecordDate, ColMachineNo}, nil)

	assert.NoError(t, tbl.Require(ColRecordDate, ColMachineNo))

	err := tbl.Require(ColRecordDate, ColMachineCode, ColMoldNo)
	var mce *MissingColumnError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []string{ColMachineCode, ColMoldNo}, mce.Columns)
	assert.Contains(t, err.Error(), "machineCode, moldNo")

	var nilTable *Table
	assert.Error(t, nilTable.Require(ColRecordDate))
}

func TestTable_MaxDateAndDates(t *testing.T) {
	empty := NewTable(nil, nil)
	_, ok := empty.MaxDate()
	assert.False(t, ok)

	tbl := NewTable(nil, []Record{
		{Date: day("2024-01-05")},
		{Date: day("2024-01-01")},
		{Date: day("2024-01-05")},
		{Date: day("2024-01-03")},
	})
	max, ok := tbl.MaxDate()
	require.True(t, ok)
	assert.Equal(t, day("2024-01-05"), max)
	assert.Equal(t, []time.Time{day("2024-01-01"), day("2024-01-03"), day("2024-01-05")}, tbl.Dates())
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2024-01-05", want: "2024-01-05"},
		{in: " 2024-01-05 ", want: "2024-01-05"},
		{in: "2024-01-05T13:45:00Z", want: "2024-01-05"},
		{in: "2024-01-05 08:00:00", want: "2024-01-05"},
		{in: "2024/01/05", want: "2024-01-05"},
		{in: "05.01.2024", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format(DateLayout))
			assert.Equal(t, time.UTC, got.Location())
			assert.Zero(t, got.Hour())
		})
	}
}
