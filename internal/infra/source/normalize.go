// Package source loads production-log tables from CSV and Parquet files.
package source

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// blanks are cell values spreadsheet and dataframe exports use for "no value".
var blanks = map[string]struct{}{
	"": {}, "nan": {}, "NaN": {}, "None": {}, "null": {}, "NULL": {}, "<NA>": {}, "NaT": {},
}

// NormalizeID folds full-width characters (NFKC) and trims whitespace, so
// "Ｍ０１ " and "M01" name the same machine. Blank markers become "".
func NormalizeID(s string) string {
	s = strings.TrimSpace(norm.NFKC.String(s))
	if _, ok := blanks[s]; ok {
		return ""
	}
	return s
}
