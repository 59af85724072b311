package vector

import (
	"github.com/rotisserie/eris"
)

// MemLayer is a read-only Layer backed by a slice of features. Drivers that
// load a whole file up front expose their features through it.
type MemLayer struct {
	name     string
	geomType GeometryType
	fields   []FieldDefn
	features []*Feature
	cursor   int
}

// NewMemLayer creates a layer over the given features.
func NewMemLayer(name string, gt GeometryType, fields []FieldDefn, features []*Feature) *MemLayer {
	return &MemLayer{
		name:     name,
		geomType: gt,
		fields:   fields,
		features: features,
	}
}

func (l *MemLayer) Name() string               { return l.name }
func (l *MemLayer) GeometryType() GeometryType { return l.geomType }
func (l *MemLayer) FeatureCount() int          { return len(l.features) }
func (l *MemLayer) ResetReading()              { l.cursor = 0 }

// Fields returns a copy of the layer schema.
func (l *MemLayer) Fields() []FieldDefn {
	out := make([]FieldDefn, len(l.fields))
	copy(out, l.fields)
	return out
}

// NextFeature returns the next feature, or false once the layer is exhausted.
func (l *MemLayer) NextFeature() (*Feature, bool) {
	if l.cursor >= len(l.features) {
		return nil, false
	}
	f := l.features[l.cursor]
	l.cursor++
	return f, true
}

// CreateField is not supported on read-only layers.
func (l *MemLayer) CreateField(FieldDefn) error {
	return eris.Wrapf(ErrReadOnly, "vector: layer %s", l.name)
}

// CreateFeature is not supported on read-only layers.
func (l *MemLayer) CreateFeature(*Feature) error {
	return eris.Wrapf(ErrReadOnly, "vector: layer %s", l.name)
}
