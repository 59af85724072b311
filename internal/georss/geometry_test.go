package georss

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/georss/internal/vector"
)

func TestParseLatLonList(t *testing.T) {
	flat, err := parseLatLonList("45.5 -93.25, 46 -94")
	require.NoError(t, err)
	assert.Equal(t, []float64{-93.25, 45.5, -94, 46}, flat)

	_, err = parseLatLonList("45.5")
	assert.Error(t, err)
	_, err = parseLatLonList("")
	assert.Error(t, err)
	_, err = parseLatLonList("north west")
	assert.Error(t, err)
}

func TestParsePolygon_ClosesRing(t *testing.T) {
	g, err := parsePolygon("0 0 0 1 1 1")
	require.NoError(t, err)
	poly := g.(*geom.Polygon)
	ring := poly.LinearRing(0)
	assert.Equal(t, 4, ring.NumCoords())
	assert.Equal(t, ring.Coord(0), ring.Coord(3))
}

func TestParseGeometry_Errors(t *testing.T) {
	_, err := parsePoint("1 2 3 4")
	assert.Error(t, err)
	_, err = parseLine("1 2")
	assert.Error(t, err)
	_, err = parsePolygon("1 2 3 4")
	assert.Error(t, err)
	_, err = parseBox("1 2")
	assert.Error(t, err)
	_, err = parsePoint("NaN 1")
	assert.Error(t, err)
	_, err = parsePoint("1 Inf")
	assert.Error(t, err)
	_, err = parseLine("1 2 -Infinity 4")
	assert.Error(t, err)
}

func TestReadFeed_NonFiniteCoordinatesDropGeometry(t *testing.T) {
	doc, err := readFeed(strings.NewReader(`<rss xmlns:georss="http://www.georss.org/georss"><channel>` +
		`<item><title>bad</title><georss:point>NaN Inf</georss:point></item>` +
		`</channel></rss>`))
	require.NoError(t, err)
	require.Len(t, doc.features, 1)
	assert.Nil(t, doc.features[0].Geometry)
	assert.Equal(t, "bad", doc.features[0].Fields["title"])
}

func TestGeometryType(t *testing.T) {
	pt, _ := parsePoint("1 2")
	ln, _ := parseLine("1 2 3 4")
	pg, _ := parseBox("0 0 1 1")
	assert.Equal(t, vector.GeomPoint, geometryType(pt))
	assert.Equal(t, vector.GeomLineString, geometryType(ln))
	assert.Equal(t, vector.GeomPolygon, geometryType(pg))
	assert.Equal(t, vector.GeomUnknown, geometryType(geom.NewMultiPoint(geom.XY)))
}

func TestFormatLatLon(t *testing.T) {
	assert.Equal(t, "37.75 -122.5 38 -122", formatLatLon([]geom.Coord{{-122.5, 37.75}, {-122, 38}}))
}
