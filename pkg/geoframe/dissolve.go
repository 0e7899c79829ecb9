package geoframe

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// Dissolve merges every polygonal geometry of the layer into one feature and
// returns it as a single-feature collection. The merged feature keeps the
// attributes of the first row. One polygon stays a Polygon; more become a
// MultiPolygon. Non-polygonal rows are skipped. When the parts mix layouts
// (say XY and XYZ) every part is projected to XY so none is lost. An empty
// layer yields an empty collection.
//
// Overlapping polygons are not topologically unioned: the merged MultiPolygon
// covers the same area for point-in-polygon queries.
func Dissolve(layer *GeoTable) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	if layer == nil || layer.Len() == 0 {
		return fc
	}

	var polys []*geom.Polygon
	for i, g := range layer.Geometries {
		switch p := g.(type) {
		case *geom.Polygon:
			polys = append(polys, p)
		case *geom.MultiPolygon:
			for j := 0; j < p.NumPolygons(); j++ {
				polys = append(polys, p.Polygon(j))
			}
		case nil:
			zap.L().Debug("geoframe: dissolve skipping row without geometry", zap.Int("row", i))
		default:
			zap.L().Debug("geoframe: dissolve skipping non-polygonal geometry",
				zap.Int("row", i),
				zap.String("layout", g.Layout().String()),
			)
		}
	}

	props := make(map[string]any, len(layer.Columns))
	for j, c := range layer.Columns {
		if j < len(layer.Rows[0]) && layer.Rows[0][j] != nil {
			props[c] = layer.Rows[0][j]
		}
	}

	fc.Features = append(fc.Features, &geojson.Feature{
		Geometry:   mergePolygons(polys),
		Properties: props,
	})
	return fc
}

func mergePolygons(polys []*geom.Polygon) geom.T {
	switch len(polys) {
	case 0:
		return nil
	case 1:
		return polys[0]
	}

	layout := polys[0].Layout()
	for _, p := range polys[1:] {
		if p.Layout() != layout {
			zap.L().Debug("geoframe: dissolve projecting mixed layouts to XY")
			layout = geom.XY
			break
		}
	}

	mp := geom.NewMultiPolygon(layout).SetSRID(polys[0].SRID())
	for i, p := range polys {
		if p.Layout() != layout {
			p = toXY(p)
		}
		if err := mp.Push(p); err != nil {
			zap.L().Debug("geoframe: dissolve skipping polygon part", zap.Int("part", i), zap.Error(err))
		}
	}
	return mp
}

// toXY drops every ordinate beyond x and y.
func toXY(p *geom.Polygon) *geom.Polygon {
	stride := p.Stride()
	flat := p.FlatCoords()
	xy := make([]float64, 0, len(flat)/stride*2)
	for i := 0; i+1 < len(flat); i += stride {
		xy = append(xy, flat[i], flat[i+1])
	}
	ends := make([]int, len(p.Ends()))
	for i, end := range p.Ends() {
		ends[i] = end / stride * 2
	}
	return geom.NewPolygonFlat(geom.XY, xy, ends).SetSRID(p.SRID())
}
