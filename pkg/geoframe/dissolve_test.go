package geoframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func square(x, y, size float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{x, y}, {x, y + size}, {x + size, y + size}, {x + size, y}, {x, y},
	}})
}

func TestDissolve_SinglePolygon(t *testing.T) {
	layer := &GeoTable{
		Table:      Table{Columns: []string{"name"}, Rows: [][]any{{"tract"}}},
		Geometries: []geom.T{square(0, 0, 1)},
	}

	fc := Dissolve(layer)
	require.Len(t, fc.Features, 1)
	p, ok := fc.Features[0].Geometry.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, 5, p.NumCoords())
	assert.Equal(t, map[string]any{"name": "tract"}, fc.Features[0].Properties)
}

func TestDissolve_MergesPolygonsAndMultiPolygons(t *testing.T) {
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(square(10, 10, 1)))
	require.NoError(t, mp.Push(square(20, 20, 1)))

	layer := &GeoTable{
		Table: Table{
			Columns: []string{"name"},
			Rows:    [][]any{{"first"}, {"second"}, {"third"}},
		},
		Geometries: []geom.T{
			square(0, 0, 1),
			mp,
			geom.NewPointFlat(geom.XY, []float64{5, 5}),
		},
	}

	fc := Dissolve(layer)
	require.Len(t, fc.Features, 1)
	merged, ok := fc.Features[0].Geometry.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 3, merged.NumPolygons())
	assert.Equal(t, "first", fc.Features[0].Properties["name"])
}

func TestDissolve_EmptyLayer(t *testing.T) {
	fc := Dissolve(&GeoTable{})
	assert.Empty(t, fc.Features)

	data, err := fc.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(data))
}

func TestDissolve_NoPolygons(t *testing.T) {
	layer := &GeoTable{
		Table:      Table{Rows: [][]any{{}}},
		Geometries: []geom.T{nil},
	}

	fc := Dissolve(layer)
	require.Len(t, fc.Features, 1)
	assert.Nil(t, fc.Features[0].Geometry)
}

func TestDissolve_MixedLayoutsProjectedToXY(t *testing.T) {
	xyz := geom.NewPolygon(geom.XYZ).MustSetCoords([][]geom.Coord{
		{{0, 0, 1}, {0, 4, 1}, {4, 4, 1}, {4, 0, 1}, {0, 0, 1}},
		{{1, 1, 2}, {2, 1, 2}, {2, 2, 2}, {1, 2, 2}, {1, 1, 2}},
	})
	layer := &GeoTable{
		Table:      Table{Rows: [][]any{{}, {}, {}}},
		Geometries: []geom.T{square(10, 10, 1), xyz, square(30, 30, 1)},
	}

	fc := Dissolve(layer)
	merged, ok := fc.Features[0].Geometry.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, geom.XY, merged.Layout())
	require.Equal(t, 3, merged.NumPolygons())

	projected := merged.Polygon(1)
	require.Equal(t, 2, projected.NumLinearRings())
	assert.Equal(t, []float64{0, 0, 0, 4, 4, 4, 4, 0, 0, 0}, projected.LinearRing(0).FlatCoords())
	assert.Equal(t, []float64{1, 1, 2, 1, 2, 2, 1, 2, 1, 1}, projected.LinearRing(1).FlatCoords())
}

func TestDissolve_SameLayoutKept(t *testing.T) {
	ring := func(x float64) [][]geom.Coord {
		return [][]geom.Coord{{{x, 0, 5}, {x, 1, 5}, {x + 1, 1, 5}, {x, 0, 5}}}
	}
	layer := &GeoTable{
		Table: Table{Rows: [][]any{{}, {}}},
		Geometries: []geom.T{
			geom.NewPolygon(geom.XYZ).MustSetCoords(ring(0)),
			geom.NewPolygon(geom.XYZ).MustSetCoords(ring(3)),
		},
	}

	merged, ok := Dissolve(layer).Features[0].Geometry.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, geom.XYZ, merged.Layout())
	assert.Equal(t, 2, merged.NumPolygons())
}
