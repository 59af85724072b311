// Package georss implements the GeoRSS vector driver: sniffing RSS and Atom
// feeds, binding them to a read-only DataSource, creating new feeds and
// registering the driver into a vector.Registry.
//
// Geometries are read from GeoRSS Simple (georss:point, line, polygon, box),
// GeoRSS GML (georss:where) and W3C Basic Geo (geo:lat / geo:long). GeoRSS
// orders coordinates "lat lon"; geometries are exposed as go-geom XY values
// with X = longitude and Y = latitude in EPSG:4326.
package georss
