// Package shapefile is a read-only ESRI Shapefile driver for the vector
// registry. It competes with the GeoRSS driver during probing, so callers can
// hand any path to vector.Registry.OpenEx and get the right dataset back.
package shapefile
