// Package sink exports vector layers into databases.
package sink

import (
	"context"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/georss/internal/vector"
)

// SRID is the spatial reference written by every sink.
const SRID = 4326

// Sink loads every feature of a layer and reports how many were written.
type Sink interface {
	Load(ctx context.Context, layer vector.Layer) (int64, error)
}

// drain rewinds layer and returns all of its features.
func drain(layer vector.Layer) []*vector.Feature {
	layer.ResetReading()
	var out []*vector.Feature
	for {
		f, ok := layer.NextFeature()
		if !ok {
			return out
		}
		out = append(out, f)
	}
}

// withSRID returns g tagged with SRID when it carries none. g itself is
// left untouched; a tagged copy is returned.
func withSRID(g geom.T) geom.T {
	if g == nil || g.SRID() != 0 {
		return g
	}
	switch t := g.(type) {
	case *geom.Point:
		return t.Clone().SetSRID(SRID)
	case *geom.LineString:
		return t.Clone().SetSRID(SRID)
	case *geom.Polygon:
		return t.Clone().SetSRID(SRID)
	case *geom.MultiPoint:
		return t.Clone().SetSRID(SRID)
	case *geom.MultiLineString:
		return t.Clone().SetSRID(SRID)
	case *geom.MultiPolygon:
		return t.Clone().SetSRID(SRID)
	default:
		return g
	}
}
