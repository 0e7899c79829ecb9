// Package geoframe holds the tabular and geospatial-tabular values returned by
// NSI queries, plus the GeoJSON, CSV and XLSX conversions around them.
package geoframe

import (
	"sort"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Table is a flat, column-oriented result such as NSI statistics.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at row for the named column.
func (t *Table) Value(row int, column string) (any, bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return nil, false
	}
	r := t.Rows[row]
	if idx >= len(r) {
		return nil, false
	}
	return r[idx], true
}

// Column returns every value of the named column, in row order.
func (t *Table) Column(name string) []any {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		if idx < len(r) {
			out[i] = r[idx]
		}
	}
	return out
}

// GeoTable is a Table whose rows each carry a geometry. Geometries[i]
// belongs to Rows[i]; a nil entry is a feature without geometry.
type GeoTable struct {
	Table
	Geometries []geom.T
}

// NewGeoTable builds a GeoTable from decoded features. Columns are the sorted
// union of all property keys; missing properties are nil.
func NewGeoTable(features []*geojson.Feature) *GeoTable {
	seen := make(map[string]struct{})
	for _, f := range features {
		for k := range f.Properties {
			seen[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	gt := &GeoTable{
		Table: Table{
			Columns: columns,
			Rows:    make([][]any, 0, len(features)),
		},
		Geometries: make([]geom.T, 0, len(features)),
	}
	for _, f := range features {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = f.Properties[c]
		}
		gt.Rows = append(gt.Rows, row)
		gt.Geometries = append(gt.Geometries, f.Geometry)
	}
	return gt
}

// Features converts the table back to GeoJSON features. Nil cells are left
// out of the property map.
func (g *GeoTable) Features() []*geojson.Feature {
	features := make([]*geojson.Feature, 0, g.Len())
	for i, row := range g.Rows {
		props := make(map[string]any, len(g.Columns))
		for j, c := range g.Columns {
			if j < len(row) && row[j] != nil {
				props[c] = row[j]
			}
		}
		var geometry geom.T
		if i < len(g.Geometries) {
			geometry = g.Geometries[i]
		}
		features = append(features, &geojson.Feature{
			Geometry:   geometry,
			Properties: props,
		})
	}
	return features
}

// FeatureCollection wraps Features in a collection.
func (g *GeoTable) FeatureCollection() *geojson.FeatureCollection {
	return &geojson.FeatureCollection{Features: g.Features()}
}

// Bounds returns the envelope of every non-nil geometry. It is empty when the
// table has no geometry.
func (g *GeoTable) Bounds() *geom.Bounds {
	b := geom.NewBounds(geom.XY)
	for _, gm := range g.Geometries {
		if gm == nil {
			continue
		}
		b.Extend(gm)
	}
	return b
}
