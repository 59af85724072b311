package georss

import (
	"bufio"
	"encoding/xml"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/georss/internal/vector"
)

// ErrW3CPointsOnly is returned when a non-point geometry is written with
// GEOM_DIALECT=W3C_GEO.
var ErrW3CPointsOnly = eris.New("georss: W3C_GEO dialect only supports points")

// Core item/entry elements per format. Other fields are extensions.
var (
	rssCore = map[string]bool{
		"title": true, "link": true, "description": true, "author": true, "category": true,
		"comments": true, "enclosure": true, "guid": true, "pubDate": true, "source": true,
	}

	atomCore = map[string]bool{
		"id": true, "title": true, "updated": true, "published": true, "author": true,
		"contributor": true, "content": true, "link": true, "summary": true, "category": true,
		"rights": true, "source": true,
	}

	// Atom person constructs carry sub-fields as child elements, not attributes.
	atomPerson = map[string]bool{"author": true, "contributor": true}
)

// feedWriter streams a feed to a file. Errors are sticky: after the first
// failed write every later call is a no-op that returns the same error.
type feedWriter struct {
	f   afero.File
	w   *bufio.Writer
	cfg createConfig
	err error
}

func newFeedWriter(f afero.File, cfg createConfig) *feedWriter {
	return &feedWriter{f: f, w: bufio.NewWriter(f), cfg: cfg}
}

func (fw *feedWriter) write(parts ...string) {
	for _, p := range parts {
		if fw.err != nil {
			return
		}
		_, fw.err = io.WriteString(fw.w, p)
	}
}

func (fw *feedWriter) namespaces() string {
	switch fw.cfg.dialect {
	case DialectGML:
		return ` xmlns:georss="` + nsGeoRSS + `" xmlns:gml="` + nsGML + `"`
	case DialectW3C:
		return ` xmlns:geo="` + nsGeo + `"`
	default:
		return ` xmlns:georss="` + nsGeoRSS + `"`
	}
}

func (fw *feedWriter) writeHeader() error {
	if !fw.cfg.writeHeaderAndFooter {
		return nil
	}

	fw.write(`<?xml version="1.0" encoding="UTF-8"?>`, "\n")
	if fw.cfg.format == FormatAtom {
		fw.write(`<feed xmlns="`, nsAtom, `"`, fw.namespaces(), ">\n")
	} else {
		fw.write(`<rss version="2.0"`, fw.namespaces(), ">\n")
		fw.write("  <channel>\n")
	}

	switch {
	case fw.cfg.header != "":
		fw.write(fw.cfg.header)
		if !strings.HasSuffix(fw.cfg.header, "\n") {
			fw.write("\n")
		}
	case fw.cfg.format == FormatAtom:
		fw.write("  <title>", escape(fw.cfg.title), "</title>\n")
		fw.write("  <updated>", escape(fw.cfg.updated), "</updated>\n")
		fw.write("  <author><name>", escape(fw.cfg.authorName), "</name></author>\n")
		fw.write("  <id>", escape(fw.cfg.id), "</id>\n")
	default:
		fw.write("    <title>", escape(fw.cfg.title), "</title>\n")
		fw.write("    <description>", escape(fw.cfg.description), "</description>\n")
		fw.write("    <link>", escape(fw.cfg.link), "</link>\n")
	}

	return eris.Wrap(fw.err, "georss: write header")
}

func (fw *feedWriter) writeFooter() {
	if !fw.cfg.writeHeaderAndFooter {
		return
	}
	if fw.cfg.format == FormatAtom {
		fw.write("</feed>\n")
	} else {
		fw.write("  </channel>\n</rss>\n")
	}
}

// close writes the footer (unless abort), flushes and closes the file.
func (fw *feedWriter) close(abort bool) error {
	if !abort {
		fw.writeFooter()
		if fw.err == nil {
			fw.err = fw.w.Flush()
		}
	}
	cerr := fw.f.Close()
	if fw.err != nil {
		return eris.Wrap(fw.err, "georss: finish feed")
	}
	return eris.Wrap(cerr, "georss: close feed")
}

// elemGroup is one output element assembled from one or more fields.
type elemGroup struct {
	key      string
	elem     string
	text     string
	hasText  bool
	attrs    [][2]string
	children [][2]string
}

func (fw *feedWriter) core() map[string]bool {
	if fw.cfg.format == FormatAtom {
		return atomCore
	}
	return rssCore
}

// groupFields turns flat field names back into elements: "link_href" is the
// href attribute of <link>, "author_name" the <name> child of an Atom
// <author>, "category2" a second <category>.
func (fw *feedWriter) groupFields(fields []vector.FieldDefn, values map[string]string) []*elemGroup {
	core := fw.core()
	var groups []*elemGroup
	byKey := make(map[string]*elemGroup)

	get := func(key, elem string) *elemGroup {
		if g, ok := byKey[key]; ok {
			return g
		}
		g := &elemGroup{key: key, elem: elem}
		byKey[key] = g
		groups = append(groups, g)
		return g
	}

	for _, fd := range fields {
		v, ok := values[fd.Name]
		if !ok {
			continue
		}

		if base, sub, found := strings.Cut(fd.Name, "_"); found && sub != "" && core[trimRepeat(base)] {
			elem := trimRepeat(base)
			g := get(base, elem)
			if fw.cfg.format == FormatAtom && atomPerson[elem] {
				g.children = append(g.children, [2]string{sub, v})
			} else {
				g.attrs = append(g.attrs, [2]string{sub, v})
			}
			continue
		}

		elem := fd.Name
		if core[trimRepeat(elem)] {
			elem = trimRepeat(elem)
		}
		g := get(fd.Name, elem)
		g.text, g.hasText = fw.formatValue(fd, v), true
	}
	return groups
}

// trimRepeat strips the numeric suffix added to repeated elements.
func trimRepeat(name string) string {
	trimmed := strings.TrimRight(name, "0123456789")
	if trimmed == "" {
		return name
	}
	return trimmed
}

// formatValue converts DateTime values to the date style of the target format.
func (fw *feedWriter) formatValue(fd vector.FieldDefn, v string) string {
	if fd.Type != vector.FieldDateTime && !dateTimeFields[fd.Name] {
		return v
	}
	if fw.cfg.format == FormatAtom {
		for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.Format(time.RFC3339)
			}
		}
		return v
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.Format(time.RFC1123Z)
	}
	return v
}

// writeFeature appends one item (RSS) or entry (Atom).
func (fw *feedWriter) writeFeature(fields []vector.FieldDefn, f *vector.Feature) error {
	if fw.err != nil {
		return eris.Wrap(fw.err, "georss: write feature")
	}
	if fw.cfg.dialect == DialectW3C && f.Geometry != nil {
		if _, ok := f.Geometry.(*geom.Point); !ok {
			return eris.Wrapf(ErrW3CPointsOnly, "georss: feature %d has %T", f.FID, f.Geometry)
		}
	}

	indent, inner, tag := "    ", "      ", "item"
	if fw.cfg.format == FormatAtom {
		indent, inner, tag = "  ", "    ", "entry"
	}
	core := fw.core()

	fw.write(indent, "<", tag, ">\n")
	for _, g := range fw.groupFields(fields, f.Fields) {
		if !core[g.elem] && !fw.cfg.useExtensions {
			continue
		}
		if !validName(g.elem) {
			zap.L().Debug("georss: skipping field with invalid element name", zap.String("field", g.key))
			continue
		}
		fw.write(inner)
		fw.writeElement(g)
		fw.write("\n")
	}
	fw.writeGeometry(inner, f)
	fw.write(indent, "</", tag, ">\n")

	return eris.Wrap(fw.err, "georss: write feature")
}

func (fw *feedWriter) writeElement(g *elemGroup) {
	fw.write("<", g.elem)
	for _, a := range g.attrs {
		fw.write(" ", attrName(a[0]), `="`, escape(a[1]), `"`)
	}
	if !g.hasText && len(g.children) == 0 {
		fw.write("/>")
		return
	}
	fw.write(">")
	if g.hasText {
		fw.write(escape(g.text))
	}
	for _, c := range g.children {
		fw.write("<", c[0], ">", escape(c[1]), "</", c[0], ">")
	}
	fw.write("</", g.elem, ">")
}

// xmlAttrs are attributes of the reserved xml: namespace. The reader drops
// the prefix when flattening (title_lang), so it is restored here.
var xmlAttrs = map[string]bool{"lang": true, "base": true, "space": true}

func attrName(sub string) string {
	if xmlAttrs[sub] {
		return "xml:" + sub
	}
	return sub
}

func (fw *feedWriter) writeGeometry(indent string, f *vector.Feature) {
	if f.Geometry == nil {
		return
	}

	var kind, coords string
	switch g := f.Geometry.(type) {
	case *geom.Point:
		kind, coords = "point", formatLatLon([]geom.Coord{g.Coords()})
	case *geom.LineString:
		kind, coords = "line", formatLatLon(g.Coords())
	case *geom.Polygon:
		if g.NumLinearRings() == 0 {
			return
		}
		kind, coords = "polygon", formatLatLon(g.LinearRing(0).Coords())
	default:
		zap.L().Debug("georss: skipping unsupported geometry",
			zap.Int64("fid", f.FID),
			zap.String("type", geometryType(f.Geometry).String()),
		)
		return
	}

	switch fw.cfg.dialect {
	case DialectW3C:
		p := f.Geometry.(*geom.Point)
		fw.write(indent, "<geo:lat>", formatFloat(p.Y()), "</geo:lat>\n")
		fw.write(indent, "<geo:long>", formatFloat(p.X()), "</geo:long>\n")
	case DialectGML:
		fw.write(indent, "<georss:where>")
		switch kind {
		case "point":
			fw.write("<gml:Point><gml:pos>", coords, "</gml:pos></gml:Point>")
		case "line":
			fw.write("<gml:LineString><gml:posList>", coords, "</gml:posList></gml:LineString>")
		case "polygon":
			fw.write("<gml:Polygon><gml:exterior><gml:LinearRing><gml:posList>", coords,
				"</gml:posList></gml:LinearRing></gml:exterior></gml:Polygon>")
		}
		fw.write("</georss:where>\n")
	default:
		fw.write(indent, "<georss:", kind, ">", coords, "</georss:", kind, ">\n")
	}
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// validName reports whether s is usable as an unprefixed XML element name.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && (r == '-' || r == '.' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}
