package shapefile

import (
	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/georss/internal/vector"
)

const srid4326 = 4326

// layerGeometryType maps the shapefile header type to the vector enum.
func layerGeometryType(t shp.ShapeType) vector.GeometryType {
	switch t {
	case shp.POINT, shp.POINTZ, shp.POINTM:
		return vector.GeomPoint
	case shp.POLYLINE, shp.POLYLINEZ, shp.POLYLINEM:
		return vector.GeomLineString
	case shp.POLYGON, shp.POLYGONZ, shp.POLYGONM:
		return vector.GeomPolygon
	default:
		return vector.GeomUnknown
	}
}

// toGeom converts a go-shp shape to a go-geom geometry in EPSG:4326.
// Single-part lines and polygons stay simple; multi-part shapes become
// MultiLineString or MultiPolygon. Unsupported or empty shapes return nil.
func toGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(srid4326)
	case *shp.PointZ:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(srid4326)
	case *shp.PolyLine:
		return lineGeom(s.Parts, s.Points)
	case *shp.Polygon:
		return polygonGeom(s.Parts, s.Points)
	default:
		return nil
	}
}

// partRanges splits a point slice into the [start,end) ranges named by parts.
func partRanges(parts []int32, n int) [][2]int {
	ranges := make([][2]int, 0, len(parts))
	for i, start := range parts {
		end := n
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		if int(start) >= end || end > n {
			continue
		}
		ranges = append(ranges, [2]int{int(start), end})
	}
	return ranges
}

func flatCoords(points []shp.Point) []float64 {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}

func lineGeom(parts []int32, points []shp.Point) geom.T {
	ranges := partRanges(parts, len(points))
	if len(ranges) == 0 {
		return nil
	}
	if len(ranges) == 1 {
		r := ranges[0]
		return geom.NewLineStringFlat(geom.XY, flatCoords(points[r[0]:r[1]])).SetSRID(srid4326)
	}

	mls := geom.NewMultiLineString(geom.XY).SetSRID(srid4326)
	for i, r := range ranges {
		ls := geom.NewLineStringFlat(geom.XY, flatCoords(points[r[0]:r[1]]))
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("shapefile: skipping malformed line part", zap.Int("part", i), zap.Error(err))
		}
	}
	return mls
}

func polygonGeom(parts []int32, points []shp.Point) geom.T {
	ranges := partRanges(parts, len(points))
	if len(ranges) == 0 {
		return nil
	}

	polys := make([]*geom.Polygon, 0, len(ranges))
	for i, r := range ranges {
		poly := geom.NewPolygon(geom.XY)
		ring := geom.NewLinearRingFlat(geom.XY, flatCoords(points[r[0]:r[1]]))
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("shapefile: skipping malformed polygon ring", zap.Int("part", i), zap.Error(err))
			continue
		}
		polys = append(polys, poly)
	}

	switch len(polys) {
	case 0:
		return nil
	case 1:
		return polys[0].SetSRID(srid4326)
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(srid4326)
	for _, p := range polys {
		if err := mp.Push(p); err != nil {
			zap.L().Debug("shapefile: skipping malformed polygon part", zap.Error(err))
		}
	}
	return mp
}
