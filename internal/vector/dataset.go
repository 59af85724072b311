package vector

import (
	"github.com/twpayne/go-geom"
)

// State is the lifecycle state of a dataset object.
type State int

const (
	// Uninitialized is a freshly constructed dataset.
	Uninitialized State = iota
	// Binding is a dataset whose open or create is in progress.
	Binding
	// Bound is a usable dataset. It is the only state visible to callers.
	Bound
	// Failed is a dataset whose bind failed; it is destroyed before the factory returns.
	Failed
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Binding:
		return "binding"
	case Bound:
		return "bound"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// GeometryType is the declared geometry type of a layer.
type GeometryType int

const (
	GeomUnknown GeometryType = iota
	GeomPoint
	GeomLineString
	GeomPolygon
)

// String returns the human-readable geometry type name.
func (g GeometryType) String() string {
	switch g {
	case GeomPoint:
		return "Point"
	case GeomLineString:
		return "LineString"
	case GeomPolygon:
		return "Polygon"
	default:
		return "Unknown"
	}
}

// FieldType is the type of an attribute field.
type FieldType int

const (
	FieldString FieldType = iota
	FieldDateTime
)

// String returns the human-readable field type name.
func (t FieldType) String() string {
	if t == FieldDateTime {
		return "DateTime"
	}
	return "String"
}

// MarshalText renders the type by name in JSON and YAML output.
func (t FieldType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// FieldDefn describes one attribute field of a layer.
type FieldDefn struct {
	Name string    `json:"name" yaml:"name"`
	Type FieldType `json:"type" yaml:"type"`
}

// Feature is one record of a layer. Geometry may be nil.
type Feature struct {
	FID      int64
	Geometry geom.T
	Fields   map[string]string
}

// Dataset is one opened or newly created file.
type Dataset interface {
	// Name returns the path the dataset was bound to.
	Name() string

	// State reports the lifecycle state. Datasets handed to callers are Bound.
	State() State

	// Metadata returns dataset-level key/value metadata (e.g. feed title).
	Metadata() map[string]string

	LayerCount() int
	Layer(i int) Layer
	LayerByName(name string) (Layer, bool)

	// CreateLayer adds a layer to a dataset opened for writing.
	CreateLayer(name string, gt GeometryType) (Layer, error)

	// Close flushes pending writes and releases file handles.
	Close() error
}

// Layer is a named collection of features sharing one schema.
type Layer interface {
	Name() string
	GeometryType() GeometryType
	Fields() []FieldDefn

	// ResetReading rewinds NextFeature to the first feature.
	ResetReading()
	NextFeature() (*Feature, bool)
	FeatureCount() int

	CreateField(fd FieldDefn) error
	CreateFeature(f *Feature) error
}
