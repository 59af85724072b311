package georss

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/georss/internal/vector"
)

const srid4326 = 4326

// parseLatLonList parses "lat lon lat lon ..." (commas tolerated) into flat
// XY coordinates (lon, lat, lon, lat, ...).
func parseLatLonList(s string) ([]float64, error) {
	parts := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(parts) == 0 || len(parts)%2 != 0 {
		return nil, eris.Errorf("georss: odd or empty coordinate list %q", s)
	}

	flat := make([]float64, 0, len(parts))
	for i := 0; i < len(parts); i += 2 {
		lat, err := strconv.ParseFloat(parts[i], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "georss: latitude %q", parts[i])
		}
		lon, err := strconv.ParseFloat(parts[i+1], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "georss: longitude %q", parts[i+1])
		}
		if !finite(lat) || !finite(lon) {
			return nil, eris.Errorf("georss: non-finite coordinate %q %q", parts[i], parts[i+1])
		}
		flat = append(flat, lon, lat)
	}
	return flat, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func parsePoint(s string) (geom.T, error) {
	flat, err := parseLatLonList(s)
	if err != nil {
		return nil, err
	}
	if len(flat) != 2 {
		return nil, eris.Errorf("georss: point needs one coordinate pair, got %d", len(flat)/2)
	}
	return geom.NewPointFlat(geom.XY, flat).SetSRID(srid4326), nil
}

func parseLine(s string) (geom.T, error) {
	flat, err := parseLatLonList(s)
	if err != nil {
		return nil, err
	}
	if len(flat) < 4 {
		return nil, eris.Errorf("georss: line needs at least two coordinate pairs, got %d", len(flat)/2)
	}
	return geom.NewLineStringFlat(geom.XY, flat).SetSRID(srid4326), nil
}

func parsePolygon(s string) (geom.T, error) {
	flat, err := parseLatLonList(s)
	if err != nil {
		return nil, err
	}
	return ringPolygon(flat)
}

// ringPolygon builds a single-ring polygon, closing the ring if needed.
func ringPolygon(flat []float64) (geom.T, error) {
	if len(flat) < 6 {
		return nil, eris.Errorf("georss: polygon needs at least three coordinate pairs, got %d", len(flat)/2)
	}
	n := len(flat)
	if flat[0] != flat[n-2] || flat[1] != flat[n-1] {
		flat = append(flat, flat[0], flat[1])
	}
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}).SetSRID(srid4326), nil
}

// parseBox parses "lowerLat lowerLon upperLat upperLon" into a polygon.
func parseBox(s string) (geom.T, error) {
	flat, err := parseLatLonList(s)
	if err != nil {
		return nil, err
	}
	if len(flat) != 4 {
		return nil, eris.Errorf("georss: box needs two coordinate pairs, got %d", len(flat)/2)
	}
	return envelopePolygon(flat[0], flat[1], flat[2], flat[3])
}

func envelopePolygon(minX, minY, maxX, maxY float64) (geom.T, error) {
	return ringPolygon([]float64{
		minX, minY,
		minX, maxY,
		maxX, maxY,
		maxX, minY,
		minX, minY,
	})
}

// geometryType maps a go-geom value to the layer geometry type.
func geometryType(g geom.T) vector.GeometryType {
	switch g.(type) {
	case *geom.Point:
		return vector.GeomPoint
	case *geom.LineString:
		return vector.GeomLineString
	case *geom.Polygon:
		return vector.GeomPolygon
	default:
		return vector.GeomUnknown
	}
}

// formatLatLon renders coordinates in GeoRSS "lat lon" order.
func formatLatLon(coords []geom.Coord) string {
	var b strings.Builder
	for i, c := range coords {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(formatFloat(c.Y()))
		b.WriteByte(' ')
		b.WriteString(formatFloat(c.X()))
	}
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
