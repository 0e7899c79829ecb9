package geoframe

import (
	"encoding/json"
	"sort"
)

// ValueColumn names the column used for top-level values that are not objects.
const ValueColumn = "value"

// Normalize flattens decoded JSON into a Table. An array yields one row per
// element and an object yields a single row. Nested objects become dotted
// column names ("a.b.c") and empty nested objects contribute no column, as
// pandas json_normalize does; arrays are kept as cell values.
// json.Number cells are converted to int64 when integral, float64 otherwise.
func Normalize(v any) *Table {
	var records []any
	switch x := v.(type) {
	case []any:
		records = x
	case nil:
		records = nil
	default:
		records = []any{x}
	}

	flat := make([]map[string]any, 0, len(records))
	seen := make(map[string]struct{})
	for _, rec := range records {
		row := make(map[string]any)
		if obj, ok := rec.(map[string]any); ok {
			flatten("", obj, row)
		} else {
			row[ValueColumn] = convertNumber(rec)
		}
		for k := range row {
			seen[k] = struct{}{}
		}
		flat = append(flat, row)
	}

	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	t := &Table{Columns: columns, Rows: make([][]any, 0, len(flat))}
	for _, m := range flat {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = m[c]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func flatten(prefix string, obj map[string]any, out map[string]any) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = convertNumber(v)
	}
}

func convertNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
