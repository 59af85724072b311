package georss

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/georss/internal/vector"
)

// Namespaces recognised on input and declared on output.
const (
	nsAtom   = "http://www.w3.org/2005/Atom"
	nsGeoRSS = "http://www.georss.org/georss"
	nsGML    = "http://www.opengis.net/gml"
	nsGeo    = "http://www.w3.org/2003/01/geo/wgs84_pos#"
)

// LayerName is the name of the single layer exposed by a GeoRSS dataset.
const LayerName = "georss"

// ErrNotGeoRSS is returned when a document's root is not rss, feed or rdf:RDF.
var ErrNotGeoRSS = eris.New("georss: not an RSS or Atom document")

// node is a parsed XML element subtree.
type node struct {
	name     xml.Name
	attrs    []xml.Attr
	text     string
	children []*node
}

func (n *node) child(local string) *node {
	for _, c := range n.children {
		if c.name.Local == local {
			return c
		}
	}
	return nil
}

// parseNode consumes tokens up to the end of start and returns its subtree.
func parseNode(dec *xml.Decoder, start xml.StartElement) (*node, error) {
	n := &node{name: start.Name, attrs: start.Attr}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, eris.Wrapf(err, "georss: read <%s>", start.Name.Local)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			c, err := parseNode(dec, t)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, c)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			n.text = strings.TrimSpace(text.String())
			return n, nil
		}
	}
}

// feedKind is the flavour of the document root.
type feedKind int

const (
	kindRSS feedKind = iota
	kindAtom
	kindRDF
)

// document is the parsed content of one feed.
type document struct {
	kind     feedKind
	meta     map[string]string
	fields   []vector.FieldDefn
	features []*vector.Feature
}

// layer returns the feed's features as a read-only layer.
func (d *document) layer() *vector.MemLayer {
	gt := vector.GeomUnknown
	first := true
	for _, f := range d.features {
		if f.Geometry == nil {
			continue
		}
		t := geometryType(f.Geometry)
		if first {
			gt, first = t, false
			continue
		}
		if t != gt {
			gt = vector.GeomUnknown
			break
		}
	}
	return vector.NewMemLayer(LayerName, gt, d.fields, d.features)
}

func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "georss: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}
	return dec
}

// readFeed parses a whole RSS, RDF or Atom document.
func readFeed(r io.Reader) (*document, error) {
	dec := newDecoder(r)

	root, err := nextStart(dec)
	if err != nil {
		return nil, err
	}

	doc := &document{meta: make(map[string]string)}
	switch root.Name.Local {
	case "rss":
		doc.kind = kindRSS
	case "feed":
		doc.kind = kindAtom
	case "RDF":
		doc.kind = kindRDF
	default:
		return nil, eris.Wrapf(ErrNotGeoRSS, "georss: root element <%s>", root.Name.Local)
	}

	schema := newSchema()
	if err := doc.walk(dec, root.Name.Local, schema); err != nil {
		return nil, err
	}
	doc.fields = schema.fields
	return doc, nil
}

func nextStart(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, eris.Wrap(ErrNotGeoRSS, "georss: empty document")
		}
		if err != nil {
			return xml.StartElement{}, eris.Wrap(err, "georss: read root")
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

// walk streams the children of the element named parent. Items and entries
// become features; other leaf elements of the channel or feed become metadata.
func (d *document) walk(dec *xml.Decoder, parent string, schema *schema) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return eris.Errorf("georss: unexpected end of document inside <%s>", parent)
		}
		if err != nil {
			return eris.Wrap(err, "georss: read token")
		}

		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			switch {
			case t.Name.Local == "channel" && d.kind != kindAtom:
				if err := d.walk(dec, "channel", schema); err != nil {
					return err
				}
			case (t.Name.Local == "item" && d.kind != kindAtom) || (t.Name.Local == "entry" && d.kind == kindAtom):
				n, err := parseNode(dec, t)
				if err != nil {
					return err
				}
				d.features = append(d.features, schema.feature(n, int64(len(d.features)+1)))
			default:
				n, err := parseNode(dec, t)
				if err != nil {
					return err
				}
				rec := newRecord()
				flatten(n, n.name.Local, rec)
				for _, k := range rec.order {
					if _, ok := d.meta[k]; !ok {
						d.meta[k] = rec.values[k]
					}
				}
			}
		}
	}
}

// dateTimeFields are typed as DateTime rather than String.
var dateTimeFields = map[string]bool{
	"pubDate":   true,
	"updated":   true,
	"published": true,
}

// schema accumulates the union of field names across items.
type schema struct {
	fields []vector.FieldDefn
	seen   map[string]bool
}

func newSchema() *schema {
	return &schema{seen: make(map[string]bool)}
}

func (s *schema) add(name string) {
	if s.seen[name] {
		return
	}
	s.seen[name] = true
	t := vector.FieldString
	if dateTimeFields[name] {
		t = vector.FieldDateTime
	}
	s.fields = append(s.fields, vector.FieldDefn{Name: name, Type: t})
}

// feature converts one item or entry into a feature and extends the schema.
func (s *schema) feature(item *node, fid int64) *vector.Feature {
	rec := newRecord()
	seen := make(map[string]int)
	var g geom.T

	for _, c := range item.children {
		if isGeometryElement(c) {
			if g != nil {
				continue
			}
			parsed, err := geometryFromNode(c, item)
			if err != nil {
				zap.L().Debug("georss: skipping unreadable geometry",
					zap.Int64("fid", fid),
					zap.String("element", c.name.Local),
					zap.Error(err),
				)
				continue
			}
			g = parsed
			continue
		}
		seen[c.name.Local]++
		name := c.name.Local
		if n := seen[name]; n > 1 {
			name += strconv.Itoa(n)
		}
		flatten(c, name, rec)
	}

	for _, k := range rec.order {
		s.add(k)
	}
	return &vector.Feature{FID: fid, Geometry: g, Fields: rec.values}
}

// record collects field values for one element, numbering repeats.
type record struct {
	values map[string]string
	order  []string
}

func newRecord() *record {
	return &record{values: make(map[string]string)}
}

func (r *record) add(name, value string) {
	key := name
	for i := 2; ; i++ {
		if _, dup := r.values[key]; !dup {
			break
		}
		key = name + strconv.Itoa(i)
	}
	r.values[key] = value
	r.order = append(r.order, key)
}

// flatten maps n to fields: leaf text under name, attributes as
// name_attr and nested elements as name_child.
func flatten(n *node, name string, rec *record) {
	if len(n.children) == 0 && (n.text != "" || len(n.attrs) == 0) {
		rec.add(name, n.text)
	}
	for _, a := range n.attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		rec.add(name+"_"+a.Name.Local, a.Value)
	}
	for _, c := range n.children {
		flatten(c, name+"_"+c.name.Local, rec)
	}
}

func inNamespace(n *node, uri, prefix string) bool {
	return n.name.Space == uri || n.name.Space == prefix
}

// isGeometryElement reports whether n carries the item's location.
func isGeometryElement(n *node) bool {
	switch {
	case inNamespace(n, nsGeoRSS, "georss"):
		switch n.name.Local {
		case "point", "line", "polygon", "box", "where":
			return true
		}
	case inNamespace(n, nsGeo, "geo"):
		switch n.name.Local {
		case "lat", "long", "lon", "Point":
			return true
		}
	}
	return false
}

// geometryFromNode decodes a geometry element. item is needed for W3C geo,
// whose latitude and longitude are sibling elements.
func geometryFromNode(n *node, item *node) (geom.T, error) {
	if inNamespace(n, nsGeo, "geo") {
		if n.name.Local == "Point" {
			return w3cPoint(n)
		}
		return w3cPoint(item)
	}

	switch n.name.Local {
	case "point":
		return parsePoint(n.text)
	case "line":
		return parseLine(n.text)
	case "polygon":
		return parsePolygon(n.text)
	case "box":
		return parseBox(n.text)
	case "where":
		return gmlGeometry(n)
	}
	return nil, eris.Errorf("georss: unsupported geometry element <%s>", n.name.Local)
}

// w3cPoint reads geo:lat and geo:long (or geo:lon) children of n.
func w3cPoint(n *node) (geom.T, error) {
	var lat, lon string
	var haveLat, haveLon bool
	for _, c := range n.children {
		if !inNamespace(c, nsGeo, "geo") {
			continue
		}
		switch c.name.Local {
		case "lat":
			lat, haveLat = c.text, true
		case "long", "lon":
			lon, haveLon = c.text, true
		}
	}
	if !haveLat || !haveLon {
		return nil, eris.New("georss: geo point needs both lat and long")
	}
	return parsePoint(lat + " " + lon)
}

// gmlGeometry decodes the GML child of georss:where.
func gmlGeometry(where *node) (geom.T, error) {
	for _, g := range where.children {
		switch g.name.Local {
		case "Point":
			if pos := g.child("pos"); pos != nil {
				return parsePoint(pos.text)
			}
			return nil, eris.New("georss: gml:Point without gml:pos")
		case "LineString":
			if pl := g.child("posList"); pl != nil {
				return parseLine(pl.text)
			}
			return nil, eris.New("georss: gml:LineString without gml:posList")
		case "Polygon":
			ext := g.child("exterior")
			if ext == nil {
				return nil, eris.New("georss: gml:Polygon without gml:exterior")
			}
			ring := ext.child("LinearRing")
			if ring == nil || ring.child("posList") == nil {
				return nil, eris.New("georss: gml:exterior without gml:LinearRing/gml:posList")
			}
			return parsePolygon(ring.child("posList").text)
		case "Envelope":
			lower, upper := g.child("lowerCorner"), g.child("upperCorner")
			if lower == nil || upper == nil {
				return nil, eris.New("georss: gml:Envelope needs lowerCorner and upperCorner")
			}
			return parseBox(lower.text + " " + upper.text)
		}
	}
	return nil, eris.New("georss: georss:where without a supported GML geometry")
}
