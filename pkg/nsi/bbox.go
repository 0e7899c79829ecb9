package nsi

import (
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
)

// BBox is an axis-aligned rectangle in WGS84 degrees. Fields are ordered
// west, east, south, north, matching the NSI extent convention; this is not
// the (minX, minY, maxX, maxY) order used elsewhere.
//
// No range or CRS checks are made, including whether the box falls inside
// the area covered by the inventory.
type BBox struct {
	West  float64
	East  float64
	South float64
	North float64
}

// NewBBox builds a BBox from coordinates in west, east, south, north order.
func NewBBox(west, east, south, north float64) BBox {
	return BBox{West: west, East: east, South: south, North: north}
}

// flatCoords returns the closed ring west/south, west/north, east/north,
// east/south, west/south as x,y pairs.
func (b BBox) flatCoords() []float64 {
	return []float64{
		b.West, b.South,
		b.West, b.North,
		b.East, b.North,
		b.East, b.South,
		b.West, b.South,
	}
}

// Ring encodes the box as the comma-separated ring expected by the bbox
// query parameter, e.g. "-100,40,-100,41,-99,41,-99,40,-100,40".
func (b BBox) Ring() string {
	coords := b.flatCoords()
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.FormatFloat(c, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Polygon returns the ring as a WGS84 polygon.
func (b BBox) Polygon() *geom.Polygon {
	coords := b.flatCoords()
	return geom.NewPolygonFlat(geom.XY, coords, []int{len(coords)}).SetSRID(4326)
}
