// Package shapefile reads ESRI shapefiles into geospatial tables.
package shapefile

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/nsi-cli/pkg/geoframe"
)

// SRID assigned to every geometry read. Shapefiles are assumed to be WGS84.
const SRID = 4326

// ReadLayer reads every record of the shapefile at path. DBF fields become
// columns in file order; blank values are nil and numeric fields are parsed
// into int64 or float64. Records whose shape cannot be converted keep their
// attributes with a nil geometry.
func ReadLayer(path string) (*geoframe.GeoTable, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "shapefile: open %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = strings.TrimRight(f.String(), "\x00")
	}

	layer := &geoframe.GeoTable{Table: geoframe.Table{Columns: columns}}
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		row := make([]any, len(fields))
		for i, f := range fields {
			row[i] = attributeValue(f, reader.Attribute(i))
		}

		g := ToGeometry(shape)
		if g == nil {
			skipped++
		}

		layer.Rows = append(layer.Rows, row)
		layer.Geometries = append(layer.Geometries, g)
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "shapefile: read %s", path)
	}

	if skipped > 0 {
		zap.L().Debug("shapefile: records without usable geometry",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	return layer, nil
}

// attributeValue trims DBF padding and converts numeric fields.
func attributeValue(f shp.Field, raw string) any {
	val := strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	if val == "" {
		return nil
	}

	switch f.Fieldtype {
	case 'N', 'F':
		if f.Precision == 0 {
			if i, err := strconv.ParseInt(val, 10, 64); err == nil {
				return i
			}
		}
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			return v
		}
	}
	return val
}
