package geoframe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// GeometryColumn is the header of the WKT column written by WriteGeoCSV.
const GeometryColumn = "geometry"

// ReadGeoJSON loads a FeatureCollection, a single Feature, or a bare geometry
// from a GeoJSON file.
func ReadGeoJSON(path string) (*GeoTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geoframe: read %s", path)
	}
	return ParseGeoJSON(data)
}

// ParseGeoJSON is ReadGeoJSON over an in-memory document.
func ParseGeoJSON(data []byte) (*GeoTable, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, eris.Wrap(err, "geoframe: parse geojson")
	}

	switch head.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := fc.UnmarshalJSON(data); err != nil {
			return nil, eris.Wrap(err, "geoframe: decode feature collection")
		}
		return NewGeoTable(fc.Features), nil
	case "Feature":
		var f geojson.Feature
		if err := f.UnmarshalJSON(data); err != nil {
			return nil, eris.Wrap(err, "geoframe: decode feature")
		}
		return NewGeoTable([]*geojson.Feature{&f}), nil
	default:
		var g geom.T
		if err := geojson.Unmarshal(data, &g); err != nil {
			return nil, eris.Wrapf(err, "geoframe: decode geometry of type %q", head.Type)
		}
		return NewGeoTable([]*geojson.Feature{{Geometry: g}}), nil
	}
}

// WriteGeoJSON writes the table as a FeatureCollection.
func WriteGeoJSON(w io.Writer, t *GeoTable) error {
	data, err := t.FeatureCollection().MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "geoframe: encode feature collection")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "geoframe: write geojson")
	}
	return nil
}

// WriteCSV writes a header row followed by one line per row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return eris.Wrap(err, "geoframe: write csv header")
	}
	for _, row := range t.Rows {
		if err := cw.Write(formatRow(row, len(t.Columns))); err != nil {
			return eris.Wrap(err, "geoframe: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "geoframe: flush csv")
}

// WriteGeoCSV writes the attribute columns followed by a WKT geometry column.
func WriteGeoCSV(w io.Writer, t *GeoTable) error {
	cw := csv.NewWriter(w)
	header := append(append([]string{}, t.Columns...), GeometryColumn)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "geoframe: write csv header")
	}
	for i, row := range t.Rows {
		record := formatRow(row, len(t.Columns))
		var text string
		if i < len(t.Geometries) && t.Geometries[i] != nil {
			s, err := wkt.Marshal(t.Geometries[i])
			if err != nil {
				return eris.Wrapf(err, "geoframe: encode wkt for row %d", i)
			}
			text = s
		}
		if err := cw.Write(append(record, text)); err != nil {
			return eris.Wrap(err, "geoframe: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "geoframe: flush csv")
}

// WriteXLSX saves the table as a single-sheet workbook.
func WriteXLSX(path, sheetName string, t *Table) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range t.Columns {
		header.AddCell().SetString(c)
	}
	for _, row := range t.Rows {
		r := sheet.AddRow()
		for j := range t.Columns {
			cell := r.AddCell()
			if j >= len(row) {
				continue
			}
			switch v := row[j].(type) {
			case nil:
			case int64:
				cell.SetInt64(v)
			case float64:
				cell.SetFloat(v)
			case bool:
				cell.SetBool(v)
			case string:
				cell.SetString(v)
			default:
				cell.SetString(formatCell(v))
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func formatRow(row []any, width int) []string {
	out := make([]string, width)
	for j := 0; j < width && j < len(row); j++ {
		out[j] = formatCell(row[j])
	}
	return out
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []any, map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}
