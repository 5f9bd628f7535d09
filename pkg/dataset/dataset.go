package dataset

import (
	"fmt"
	"strings"
)

// Row is one record keyed by column name. Cell values are strings as read
// from the source; a nil value is an explicitly cleared cell.
type Row map[string]any

// Dataset couples rows with their column order. Column order matters for
// serialization and for stable iteration in the detectors.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// Clone deep-copies the dataset so repairs never mutate the caller's rows.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Columns: append([]string(nil), d.Columns...),
		Rows:    make([]Row, len(d.Rows)),
	}
	for i, row := range d.Rows {
		copied := make(Row, len(row))
		for k, v := range row {
			copied[k] = v
		}
		out.Rows[i] = copied
	}
	return out
}

// CellString renders a cell for comparison or output. Nil becomes "".
func CellString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// IsBlank reports whether a cell is empty after trimming.
func IsBlank(v any) bool {
	return strings.TrimSpace(CellString(v)) == ""
}

// missingIndicators are the values treated as "no data" across the
// detectors: literal nulls and their common spellings.
var missingIndicators = map[string]struct{}{
	"":          {},
	"null":      {},
	"none":      {},
	"n/a":       {},
	"na":        {},
	"nan":       {},
	"nil":       {},
	"undefined": {},
	"missing":   {},
}

// IsNullish reports whether a cell holds no usable data, covering the
// spellings of null that show up in exported spreadsheets.
func IsNullish(v any) bool {
	if v == nil {
		return true
	}
	s := strings.ToLower(strings.TrimSpace(CellString(v)))
	_, ok := missingIndicators[s]
	return ok
}
