package nsi

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/nsi-cli/pkg/geoframe"
)

const ndjsonBody = `{"type":"Feature","geometry":{"type":"Point","coordinates":[-100.5,40.25]},"properties":{"fd_id":1,"occtype":"RES1"}}
{"type":"Feature","geometry":{"type":"Point","coordinates":[-100.75,40.5]},"properties":{"fd_id":2,"occtype":"COM1","num_story":2}}
`

// prettyCollection is a valid FeatureCollection that is not a feature stream.
const prettyCollection = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [-99.5, 40.5]},
      "properties": {"fd_id": 7, "occtype": "RES3A"}
    }
  ]
}`

func TestParseFeatures_NDJSON(t *testing.T) {
	table, err := ParseFeatures("application/x-ndjson", []byte(ndjsonBody))
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"fd_id", "num_story", "occtype"}, table.Columns)
	assert.Equal(t, []any{"RES1", "COM1"}, table.Column("occtype"))

	v, ok := table.Value(0, "num_story")
	assert.True(t, ok)
	assert.Nil(t, v)

	p, ok := table.Geometries[1].(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, []float64{-100.75, 40.5}, p.FlatCoords())
}

func TestParseFeatures_GeoJSONSeq(t *testing.T) {
	body := "\x1e" + strings.ReplaceAll(strings.TrimSpace(ndjsonBody), "\n", "\n\x1e") + "\n"

	table, err := ParseFeatures("application/geo+json-seq", []byte(body))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestParseFeatures_Collection(t *testing.T) {
	table, err := ParseFeatures("application/geo+json", []byte(pointCollection))
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	v, _ := table.Value(0, "val_struct")
	assert.Equal(t, 211000.5, v)
}

func TestParseFeatures_SniffsBody(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		body := `[{"type":"Feature","geometry":null,"properties":{"a":1}}]`
		table, err := ParseFeatures("", []byte(body))
		require.NoError(t, err)
		require.Equal(t, 1, table.Len())
		assert.Nil(t, table.Geometries[0])
	})

	t.Run("collection", func(t *testing.T) {
		table, err := ParseFeatures("text/plain", []byte(pointCollection))
		require.NoError(t, err)
		assert.Equal(t, 1, table.Len())
	})

	t.Run("stream", func(t *testing.T) {
		table, err := ParseFeatures("application/octet-stream", []byte(ndjsonBody))
		require.NoError(t, err)
		assert.Equal(t, 2, table.Len())
	})
}

func TestParseFeatures_DeclaredTypeIsOnlyAHint(t *testing.T) {
	arrayBody := `[{"type":"Feature","geometry":{"type":"Point","coordinates":[-100.5,40.25]},"properties":{"fd_id":1}}]`

	for name, tc := range map[string]struct {
		contentType string
		body        string
		rows        int
	}{
		"stream sent as json":       {"application/json", ndjsonBody, 2},
		"array sent as json":        {"application/json", arrayBody, 1},
		"array sent as geo+json":    {"application/geo+json", arrayBody, 1},
		"collection sent as stream": {"application/x-ndjson", prettyCollection, 1},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ParseFeatures(tc.contentType, []byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.rows, got.Len())

			// Same result as with no header at all.
			plain, err := ParseFeatures("", []byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, plain, got)
		})
	}
}

func TestParseFeatures_FallbackToForcedGeoJSON(t *testing.T) {
	orig := detectFeatures
	t.Cleanup(func() { detectFeatures = orig })
	detectFeatures = func(string, []byte) ([]*geojson.Feature, error) {
		return nil, errors.New("unrecognized format")
	}

	body := []byte(prettyCollection)
	got, err := ParseFeatures("application/x-ndjson", body)
	require.NoError(t, err)

	forced, err := decodeFeatureCollection(body)
	require.NoError(t, err)
	assert.Equal(t, geoframe.NewGeoTable(forced), got)
	assert.Equal(t, 1, got.Len())
}

func TestParseFeatures_ForcedFailureIsReported(t *testing.T) {
	orig := detectFeatures
	t.Cleanup(func() { detectFeatures = orig })
	detectFeatures = func(string, []byte) ([]*geojson.Feature, error) {
		return nil, errors.New("unrecognized format")
	}

	_, err := ParseFeatures("application/geo+json", []byte(`{"type":"GeometryCollection","geometries":[]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.NotContains(t, err.Error(), "unrecognized format")
}

func TestParseFeatures_BothStrategiesFail(t *testing.T) {
	_, err := ParseFeatures("application/json", []byte(`<html>upstream error</html>`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), "decode feature collection")
}

func TestParseFeatures_WrongTypeFailsBoth(t *testing.T) {
	_, err := ParseFeatures("application/geo+json", []byte(`{"type":"Point","coordinates":[1,2]}`))
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseFeatures_ZeroFeatures(t *testing.T) {
	for name, tc := range map[string]struct{ contentType, body string }{
		"empty collection": {"application/geo+json", emptyCollection},
		"empty stream":     {"application/x-ndjson", ""},
		"blank stream":     {"application/x-ndjson", "\n\n"},
	} {
		t.Run(name, func(t *testing.T) {
			table, err := ParseFeatures(tc.contentType, []byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, 0, table.Len())
		})
	}
}

func TestParseFeatures_TranscodesCharset(t *testing.T) {
	body := []byte(`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":null,"properties":{"name":"Caf` + "\xe9" + `"}}]}`)

	table, err := ParseFeatures("application/json; charset=ISO-8859-1", body)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	v, _ := table.Value(0, "name")
	assert.Equal(t, "Café", v)
}

func TestParseStats(t *testing.T) {
	body := `[{"county":"06037","total":{"count":3,"val_struct":1.5e6}},{"county":"06059","total":{"count":2,"val_struct":250000.25}}]`

	table, err := ParseStats("application/json", []byte(body))
	require.NoError(t, err)

	assert.Equal(t, []string{"county", "total.count", "total.val_struct"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []any{int64(3), int64(2)}, table.Column("total.count"))
	assert.Equal(t, []any{float64(1500000), 250000.25}, table.Column("total.val_struct"))
}

func TestParseStats_SingleObject(t *testing.T) {
	table, err := ParseStats("application/json", []byte(`{"numStructures":12,"valStruct":{"sum":99.5}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, []string{"numStructures", "valStruct.sum"}, table.Columns)
}

func TestParseStats_Invalid(t *testing.T) {
	_, err := ParseStats("application/json", []byte(`{"broken":`))
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseStats_TrailingData(t *testing.T) {
	for name, body := range map[string]string{
		"garbage after array":  `[{"a":1}] this is not json`,
		"two objects":          `{"a":1}{"b":2}`,
		"two arrays, newlined": "[1]\n[2]",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseStats("application/json", []byte(body))
			assert.ErrorIs(t, err, ErrParse)
		})
	}

	table, err := ParseStats("application/json", []byte("{\"a\":1}\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}
