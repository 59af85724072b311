package shapefile

import (
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/georss/internal/vector"
)

// Dataset is an opened shapefile, fully loaded into one in-memory layer.
type Dataset struct {
	name  string
	state vector.State
	layer *vector.MemLayer
}

func openDataset(path string) (*Dataset, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "shapefile: open %s", path)
	}
	defer func() { _ = reader.Close() }()

	shpFields := reader.Fields()
	fields := make([]vector.FieldDefn, len(shpFields))
	for i, f := range shpFields {
		fields[i] = vector.FieldDefn{Name: strings.TrimRight(f.String(), "\x00"), Type: vector.FieldString}
	}

	var features []*vector.Feature
	for reader.Next() {
		n, shape := reader.Shape()
		feat := &vector.Feature{FID: int64(n) + 1, Geometry: toGeom(shape), Fields: make(map[string]string)}
		for i, fd := range fields {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val != "" {
				feat.Fields[fd.Name] = val
			}
		}
		features = append(features, feat)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Dataset{
		name:  path,
		state: vector.Bound,
		layer: vector.NewMemLayer(name, layerGeometryType(reader.GeometryType), fields, features),
	}, nil
}

func (ds *Dataset) Name() string                { return ds.name }
func (ds *Dataset) State() vector.State         { return ds.state }
func (ds *Dataset) Metadata() map[string]string { return map[string]string{} }
func (ds *Dataset) LayerCount() int             { return 1 }

// Layer returns the single layer for index 0.
func (ds *Dataset) Layer(i int) vector.Layer {
	if i != 0 {
		return nil
	}
	return ds.layer
}

func (ds *Dataset) LayerByName(name string) (vector.Layer, bool) {
	if name != ds.layer.Name() {
		return nil, false
	}
	return ds.layer, true
}

func (ds *Dataset) CreateLayer(name string, _ vector.GeometryType) (vector.Layer, error) {
	return nil, eris.Wrapf(vector.ErrReadOnly, "shapefile: create layer %s", name)
}

func (ds *Dataset) Close() error { return nil }
