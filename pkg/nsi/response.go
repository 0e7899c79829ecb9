package nsi

import (
	"bytes"
	"io"
	"mime"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/nsi-cli/pkg/geoframe"
)

// recordSeparator prefixes each record of an RFC 8142 GeoJSON text sequence.
const recordSeparator = 0x1E

// rawFeature is the lenient shape accepted by the auto-detecting decoder.
type rawFeature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

// ParseFeatures turns an NSI structures response into a GeoTable. The body is
// first decoded by format detection (Content-Type, then body sniffing). If
// that fails it is decoded strictly as a GeoJSON FeatureCollection. When both
// fail the error wraps the second failure.
func ParseFeatures(contentType string, body []byte) (*geoframe.GeoTable, error) {
	body = transcode(contentType, body)

	features, err := detectFeatures(contentType, body)
	if err == nil {
		return geoframe.NewGeoTable(features), nil
	}

	zap.L().Debug("nsi: auto-detect parse failed, retrying as feature collection",
		zap.String("content_type", contentType),
		zap.Error(err),
	)

	features, err = decodeFeatureCollection(body)
	if err != nil {
		return nil, &Error{Kind: KindParse, Op: "parse features", Msg: "response is not a GeoJSON feature collection", Err: err}
	}
	return geoframe.NewGeoTable(features), nil
}

// ParseStats decodes a /stats response and normalizes it into a Table.
func ParseStats(contentType string, body []byte) (*geoframe.Table, error) {
	body = transcode(contentType, body)

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &Error{Kind: KindParse, Op: "parse stats", Msg: "statistics response is not JSON", Err: eris.Wrap(err, "decode stats")}
	}
	// The body must hold exactly one JSON value.
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		if err == nil {
			err = eris.New("decode stats: unexpected data after top-level value")
		} else {
			err = eris.Wrap(err, "decode stats: trailing data")
		}
		return nil, &Error{Kind: KindParse, Op: "parse stats", Msg: "statistics response is not JSON", Err: err}
	}
	return geoframe.Normalize(v), nil
}

// detectFeatures is the auto-detecting strategy used by ParseFeatures.
var detectFeatures = decodeDetected

// decodeDetected tries the decoder named by the media type first. The header
// is only a hint: when it names no known format, or its decoder fails, the
// format is sniffed from the first significant byte of the body.
func decodeDetected(contentType string, body []byte) ([]*geojson.Feature, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	mediaType = strings.ToLower(mediaType)

	var declared func([]byte) ([]*geojson.Feature, error)
	switch {
	case strings.Contains(mediaType, "ndjson"), strings.Contains(mediaType, "json-seq"):
		declared = decodeFeatureStream
	case strings.HasSuffix(mediaType, "json"):
		declared = decodeCollection
	}
	if declared != nil {
		features, err := declared(body)
		if err == nil {
			return features, nil
		}
		zap.L().Debug("nsi: body does not match declared content type, sniffing",
			zap.String("content_type", mediaType),
			zap.Error(err),
		)
	}

	return sniffFeatures(body)
}

// sniffFeatures picks a decoder from the first significant byte of the body.
func sniffFeatures(body []byte) ([]*geojson.Feature, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	switch {
	case len(trimmed) == 0:
		return decodeFeatureStream(body)
	case trimmed[0] == '[':
		var items []rawFeature
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, eris.Wrap(err, "decode feature array")
		}
		return convertFeatures(items)
	case json.Valid(trimmed):
		return decodeCollection(trimmed)
	default:
		return decodeFeatureStream(body)
	}
}

// decodeCollection accepts a FeatureCollection or a single Feature.
func decodeCollection(body []byte) ([]*geojson.Feature, error) {
	var fc rawCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, eris.Wrap(err, "decode collection")
	}
	switch fc.Type {
	case "FeatureCollection":
		return convertFeatures(fc.Features)
	case "Feature":
		var f rawFeature
		if err := json.Unmarshal(body, &f); err != nil {
			return nil, eris.Wrap(err, "decode feature")
		}
		return convertFeatures([]rawFeature{f})
	default:
		return nil, eris.Errorf("unexpected GeoJSON type %q", fc.Type)
	}
}

// decodeFeatureStream reads newline-delimited or RS-separated features. An
// empty body is zero features.
func decodeFeatureStream(body []byte) ([]*geojson.Feature, error) {
	body = bytes.ReplaceAll(body, []byte{recordSeparator}, []byte{'\n'})
	dec := json.NewDecoder(bytes.NewReader(body))

	var items []rawFeature
	for {
		var f rawFeature
		err := dec.Decode(&f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "decode stream record %d", len(items))
		}
		items = append(items, f)
	}
	return convertFeatures(items)
}

func convertFeatures(items []rawFeature) ([]*geojson.Feature, error) {
	out := make([]*geojson.Feature, 0, len(items))
	for i, item := range items {
		if item.Type != "Feature" {
			return nil, eris.Errorf("record %d: expected Feature, got %q", i, item.Type)
		}
		g, err := decodeGeometry(item.Geometry)
		if err != nil {
			return nil, eris.Wrapf(err, "record %d", i)
		}
		out = append(out, &geojson.Feature{Geometry: g, Properties: item.Properties})
	}
	return out, nil
}

func decodeGeometry(raw json.RawMessage) (geom.T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var g geom.T
	if err := geojson.Unmarshal(trimmed, &g); err != nil {
		return nil, eris.Wrap(err, "decode geometry")
	}
	return g, nil
}

// decodeFeatureCollection is the strict decoder used as the fallback.
func decodeFeatureCollection(body []byte) ([]*geojson.Feature, error) {
	var fc geojson.FeatureCollection
	if err := fc.UnmarshalJSON(body); err != nil {
		return nil, eris.Wrap(err, "decode feature collection")
	}
	return fc.Features, nil
}

// transcode converts body to UTF-8 when the Content-Type declares another
// charset. Unknown charsets leave the body untouched.
func transcode(contentType string, body []byte) []byte {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body
	}
	charset := strings.ToLower(params["charset"])
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return body
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		zap.L().Debug("nsi: unknown response charset", zap.String("charset", charset))
		return body
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		zap.L().Debug("nsi: transcode failed", zap.String("charset", charset), zap.Error(err))
		return body
	}
	return out
}
