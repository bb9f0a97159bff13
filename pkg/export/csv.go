// Package export writes flattened contract tables to disk.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/opengov-br/transparencia-contratos/pkg/contratos"
)

// Columns computes the output column set for a flattened table: the
// records' base columns sorted lexicographically, followed by the schema's
// flat columns in declaration order. JSON decoding loses upstream key
// order, so sorting is what keeps the output deterministic across runs.
// The schema's columns are always included, even when every value is null.
func Columns(records []contratos.Record, schema *contratos.Schema) []string {
	var schemaColumns []string
	mapped := make(map[string]struct{})
	if schema != nil {
		schemaColumns = schema.Columns()
		for _, c := range schemaColumns {
			mapped[c] = struct{}{}
		}
		for _, src := range schema.Sources() {
			// A source that survived flattening (e.g. never present) must
			// not reappear as a base column.
			mapped[src] = struct{}{}
		}
	}

	baseSet := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec {
			if _, isMapped := mapped[k]; !isMapped {
				baseSet[k] = struct{}{}
			}
		}
	}

	base := make([]string, 0, len(baseSet))
	for k := range baseSet {
		base = append(base, k)
	}
	sort.Strings(base)

	return append(base, schemaColumns...)
}

// WriteCSV writes one row per record with the given column order. Absent
// or null values become empty cells. Parent directories are created as
// needed.
func WriteCSV(path string, columns []string, records []contratos.Record) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = ""
			if v, ok := rec[col]; ok && v != nil {
				row[i] = formatCell(v)
			}
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}

// formatCell renders one cell value. Floats use the shortest exact
// representation instead of fmt's %v, which switches to scientific
// notation for large values.
func formatCell(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
