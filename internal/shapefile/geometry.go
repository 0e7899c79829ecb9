package shapefile

import (
	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ToGeometry converts a go-shp shape to a go-geom geometry with SRID 4326.
// Z and M values are dropped. Returns nil for null, empty or unsupported
// shapes.
func ToGeometry(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(SRID)
	case *shp.PointZ:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(SRID)
	case *shp.PolyLine:
		return lineStrings(s.Parts, s.Points)
	case *shp.PolyLineZ:
		return lineStrings(s.Parts, s.Points)
	case *shp.Polygon:
		return polygons(s.Parts, s.Points)
	case *shp.PolygonZ:
		return polygons(s.Parts, s.Points)
	case *shp.PolygonM:
		return polygons(s.Parts, s.Points)
	default:
		return nil
	}
}

// splitParts returns the flat XY coordinates of each part.
func splitParts(parts []int32, points []shp.Point) [][]float64 {
	out := make([][]float64, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || end > int32(len(points)) {
			zap.L().Debug("shapefile: skipping part with bad offsets",
				zap.Int("part", i), zap.Int32("start", start), zap.Int32("end", end))
			continue
		}
		flat := make([]float64, 0, 2*(end-start))
		for _, p := range points[start:end] {
			flat = append(flat, p.X, p.Y)
		}
		out = append(out, flat)
	}
	return out
}

func lineStrings(parts []int32, points []shp.Point) geom.T {
	mls := geom.NewMultiLineString(geom.XY).SetSRID(SRID)
	for i, flat := range splitParts(parts, points) {
		if len(flat) < 4 {
			zap.L().Debug("shapefile: skipping short linestring part", zap.Int("part", i))
			continue
		}
		if err := mls.Push(geom.NewLineStringFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("shapefile: skipping malformed linestring part", zap.Int("part", i), zap.Error(err))
		}
	}
	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

// polygons groups rings into polygons. Shapefile outer rings run clockwise
// and holes counter-clockwise; each hole is attached to the outer ring that
// precedes it. A single resulting polygon is returned as a Polygon, several
// as a MultiPolygon.
func polygons(parts []int32, points []shp.Point) geom.T {
	var rings [][][]float64
	for i, flat := range splitParts(parts, points) {
		if len(flat) < 8 {
			zap.L().Debug("shapefile: skipping degenerate ring", zap.Int("part", i), zap.Int("coords", len(flat)/2))
			continue
		}
		if signedArea(flat) <= 0 || len(rings) == 0 {
			rings = append(rings, [][]float64{flat})
			continue
		}
		last := len(rings) - 1
		rings[last] = append(rings[last], flat)
	}

	switch len(rings) {
	case 0:
		return nil
	case 1:
		return newPolygon(rings[0])
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(SRID)
	for i, r := range rings {
		if err := mp.Push(newPolygon(r)); err != nil {
			zap.L().Debug("shapefile: skipping malformed polygon part", zap.Int("part", i), zap.Error(err))
		}
	}
	return mp
}

func newPolygon(rings [][]float64) *geom.Polygon {
	var flat []float64
	ends := make([]int, 0, len(rings))
	for _, r := range rings {
		flat = append(flat, r...)
		ends = append(ends, len(flat))
	}
	return geom.NewPolygonFlat(geom.XY, flat, ends).SetSRID(SRID)
}

// signedArea is the shoelace sum over an XY ring: positive when the ring is
// counter-clockwise.
func signedArea(flat []float64) float64 {
	var sum float64
	n := len(flat) / 2
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += flat[2*i]*flat[2*j+1] - flat[2*j]*flat[2*i+1]
	}
	return sum / 2
}
