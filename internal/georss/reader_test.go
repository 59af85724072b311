package georss

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/georss/internal/vector"
)

func readFixture(t *testing.T, name string) *document {
	t.Helper()
	f, err := os.Open("testdata/" + name)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	doc, err := readFeed(f)
	require.NoError(t, err)
	return doc
}

func fieldNames(fields []vector.FieldDefn) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func TestReadFeed_RSS(t *testing.T) {
	doc := readFixture(t, "quakes.xml")

	assert.Equal(t, kindRSS, doc.kind)
	assert.Equal(t, "Quakes", doc.meta["title"])
	assert.Equal(t, "Recent quakes", doc.meta["description"])

	assert.Equal(t,
		[]string{"title", "link", "pubDate", "category", "category2", "guid", "guid_isPermaLink"},
		fieldNames(doc.fields),
	)
	assert.Equal(t, vector.FieldDateTime, doc.fields[2].Type)
	assert.Equal(t, vector.FieldString, doc.fields[0].Type)

	require.Len(t, doc.features, 3)

	f1 := doc.features[0]
	assert.Equal(t, int64(1), f1.FID)
	assert.Equal(t, "seismic", f1.Fields["category"])
	assert.Equal(t, "bay-area", f1.Fields["category2"])
	pt, ok := f1.Geometry.(*geom.Point)
	require.True(t, ok)
	assert.InDelta(t, -122.5, pt.X(), 1e-9)
	assert.InDelta(t, 37.75, pt.Y(), 1e-9)
	assert.Equal(t, 4326, pt.SRID())

	f2 := doc.features[1]
	assert.Equal(t, "fault-1", f2.Fields["guid"])
	assert.Equal(t, "false", f2.Fields["guid_isPermaLink"])
	ls, ok := f2.Geometry.(*geom.LineString)
	require.True(t, ok)
	assert.Equal(t, 2, ls.NumCoords())
	assert.InDelta(t, -121.5, ls.Coord(1).X(), 1e-9)

	poly, ok := doc.features[2].Geometry.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, 5, poly.LinearRing(0).NumCoords())

	assert.Equal(t, vector.GeomUnknown, doc.layer().GeometryType())
}

func TestReadFeed_AtomWithW3CGeo(t *testing.T) {
	doc := readFixture(t, "sites_atom.xml")

	assert.Equal(t, kindAtom, doc.kind)
	assert.Equal(t, "Sites", doc.meta["title"])
	assert.Equal(t, "http://example.com/sites", doc.meta["link_href"])

	assert.Equal(t,
		[]string{"id", "title", "link_href", "link_rel", "author_name", "author_email", "updated"},
		fieldNames(doc.fields),
	)

	require.Len(t, doc.features, 2)
	pt, ok := doc.features[0].Geometry.(*geom.Point)
	require.True(t, ok)
	assert.InDelta(t, -0.12, pt.X(), 1e-9)
	assert.InDelta(t, 51.5, pt.Y(), 1e-9)
	assert.Equal(t, "ann@example.com", doc.features[0].Fields["author_email"])

	assert.Nil(t, doc.features[1].Geometry, "unreadable geometry is dropped, not fatal")
	assert.Equal(t, "Broken", doc.features[1].Fields["title"])

	assert.Equal(t, vector.GeomPoint, doc.layer().GeometryType())
}

func TestReadFeed_GMLVariants(t *testing.T) {
	in := `<feed xmlns="http://www.w3.org/2005/Atom" xmlns:georss="http://www.georss.org/georss" xmlns:gml="http://www.opengis.net/gml">
<entry><georss:where><gml:Point><gml:pos>10 20</gml:pos></gml:Point></georss:where></entry>
<entry><georss:where><gml:Polygon><gml:exterior><gml:LinearRing><gml:posList>0 0 0 1 1 1 0 0</gml:posList></gml:LinearRing></gml:exterior></gml:Polygon></georss:where></entry>
<entry><georss:where><gml:Envelope><gml:lowerCorner>0 0</gml:lowerCorner><gml:upperCorner>2 3</gml:upperCorner></gml:Envelope></georss:where></entry>
</feed>`
	doc, err := readFeed(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, doc.features, 3)

	pt := doc.features[0].Geometry.(*geom.Point)
	assert.InDelta(t, 20.0, pt.X(), 1e-9)
	assert.InDelta(t, 10.0, pt.Y(), 1e-9)

	_, ok := doc.features[1].Geometry.(*geom.Polygon)
	assert.True(t, ok)

	env := doc.features[2].Geometry.(*geom.Polygon)
	b := env.Bounds()
	assert.InDelta(t, 0.0, b.Min(0), 1e-9)
	assert.InDelta(t, 3.0, b.Max(0), 1e-9)
	assert.InDelta(t, 2.0, b.Max(1), 1e-9)
}

func TestReadFeed_RDFAndUndeclaredPrefix(t *testing.T) {
	in := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
<channel><title>c</title></channel>
<item><title>x</title><geo:lat>1</geo:lat><geo:long>2</geo:long></item>
</rdf:RDF>`
	doc, err := readFeed(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, kindRDF, doc.kind)
	require.Len(t, doc.features, 1)
	require.NotNil(t, doc.features[0].Geometry)
	assert.Equal(t, []string{"title"}, fieldNames(doc.fields))
}

func TestReadFeed_Latin1Charset(t *testing.T) {
	in := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<rss><channel><item><title>Caf\xe9</title></item></channel></rss>"
	doc, err := readFeed(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, doc.features, 1)
	assert.Equal(t, "Café", doc.features[0].Fields["title"])
}

func TestReadFeed_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"wrong root", "<kml/>"},
		{"truncated", `<rss version="2.0"><channel><item>`},
		{"bad charset", `<?xml version="1.0" encoding="x-klingon"?><rss/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readFeed(strings.NewReader(tt.in))
			require.Error(t, err)
		})
	}
}
