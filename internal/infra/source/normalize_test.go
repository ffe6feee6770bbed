package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "M01", want: "M01"},
		{in: "  M01\t", want: "M01"},
		{in: "Ｍ０１", want: "M01"},
		{in: "ＮＯ．１２", want: "NO.12"},
		{in: "nan", want: ""},
		{in: "None", want: ""},
		{in: "<NA>", want: ""},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeID(tt.in))
		})
	}
}
