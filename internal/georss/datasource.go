package georss

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/sells-group/georss/internal/vector"
)

// ErrUpdateNotSupported is returned when opening a feed in update mode.
var ErrUpdateNotSupported = eris.New("georss: update access is not supported")

// DataSource is one GeoRSS feed, either opened for reading or created for
// writing. A DataSource only becomes visible to callers once it is Bound.
type DataSource struct {
	fs     afero.Fs
	name   string
	state  vector.State
	meta   map[string]string
	layers []vector.Layer

	// write side; nil for read-only datasets
	writer  *feedWriter
	created bool
	closed  bool
}

// NewDataSource returns an unbound DataSource that does its I/O on fs.
func NewDataSource(fs afero.Fs) *DataSource {
	return &DataSource{fs: fs, state: vector.Uninitialized, meta: make(map[string]string)}
}

func (ds *DataSource) Name() string                { return ds.name }
func (ds *DataSource) State() vector.State         { return ds.state }
func (ds *DataSource) Metadata() map[string]string { return ds.meta }
func (ds *DataSource) LayerCount() int             { return len(ds.layers) }

// Layer returns the i-th layer or nil when out of range.
func (ds *DataSource) Layer(i int) vector.Layer {
	if i < 0 || i >= len(ds.layers) {
		return nil
	}
	return ds.layers[i]
}

// LayerByName returns the layer with the given name.
func (ds *DataSource) LayerByName(name string) (vector.Layer, bool) {
	for _, l := range ds.layers {
		if l.Name() == name {
			return l, true
		}
	}
	return nil, false
}

// Open binds the DataSource to an existing feed. Update access is refused.
func (ds *DataSource) Open(path string, update bool) error {
	ds.state = vector.Binding
	ds.name = path

	if update {
		return eris.Wrapf(ErrUpdateNotSupported, "georss: open %s", path)
	}

	f, err := ds.fs.Open(path)
	if err != nil {
		return eris.Wrapf(err, "georss: open %s", path)
	}
	defer func() { _ = f.Close() }()

	doc, err := readFeed(f)
	if err != nil {
		return eris.Wrapf(err, "georss: parse %s", path)
	}

	ds.meta = doc.meta
	ds.layers = []vector.Layer{doc.layer()}
	ds.state = vector.Bound

	zap.L().Debug("georss: opened feed",
		zap.String("component", "georss.datasource"),
		zap.String("path", path),
		zap.Int("features", len(doc.features)),
		zap.Int("fields", len(doc.fields)),
	)
	return nil
}

// Create initialises a new feed at path. The file must not exist yet.
func (ds *DataSource) Create(path string, opts vector.Options) error {
	ds.state = vector.Binding
	ds.name = path

	cfg, err := parseCreateOptions(opts)
	if err != nil {
		return err
	}

	if _, err := ds.fs.Stat(path); err == nil {
		return eris.Errorf("georss: %s already exists; delete it before creating it with the GeoRSS driver", path)
	}

	f, err := ds.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "georss: create %s", path)
	}
	ds.created = true
	ds.writer = newFeedWriter(f, cfg)

	if err := ds.writer.writeHeader(); err != nil {
		return err
	}

	ds.meta = map[string]string{"format": string(cfg.format), "geom_dialect": string(cfg.dialect)}
	ds.state = vector.Bound
	return nil
}

// CreateLayer adds the single output layer of a feed being written.
func (ds *DataSource) CreateLayer(name string, gt vector.GeometryType) (vector.Layer, error) {
	if ds.writer == nil {
		return nil, eris.Wrapf(vector.ErrReadOnly, "georss: %s", ds.name)
	}
	if len(ds.layers) > 0 {
		return nil, eris.Errorf("georss: %s already has a layer; GeoRSS supports a single layer", ds.name)
	}
	l := &writeLayer{ds: ds, name: name, geomType: gt}
	ds.layers = append(ds.layers, l)
	return l, nil
}

// Close finishes a written feed. Calling it more than once is a no-op.
func (ds *DataSource) Close() error {
	if ds.closed {
		return nil
	}
	ds.closed = true
	if ds.writer == nil {
		return nil
	}
	return ds.writer.close(false)
}

// destroy releases a DataSource whose bind failed, removing any file it
// created so no partial artifact survives.
func (ds *DataSource) destroy() {
	ds.state = vector.Failed
	ds.closed = true
	if ds.writer != nil {
		if err := ds.writer.close(true); err != nil {
			zap.L().Debug("georss: close after failed bind", zap.String("path", ds.name), zap.Error(err))
		}
		ds.writer = nil
	}
	if ds.created {
		if err := ds.fs.Remove(ds.name); err != nil {
			zap.L().Debug("georss: remove after failed create", zap.String("path", ds.name), zap.Error(err))
		}
	}
	ds.layers = nil
}

// writeLayer streams features of a feed being created.
type writeLayer struct {
	ds       *DataSource
	name     string
	geomType vector.GeometryType
	fields   []vector.FieldDefn
	count    int
}

func (l *writeLayer) Name() string                      { return l.name }
func (l *writeLayer) GeometryType() vector.GeometryType { return l.geomType }
func (l *writeLayer) FeatureCount() int                 { return l.count }
func (l *writeLayer) ResetReading()                     {}

// NextFeature always reports an empty layer; written features are not kept.
func (l *writeLayer) NextFeature() (*vector.Feature, bool) { return nil, false }

func (l *writeLayer) Fields() []vector.FieldDefn {
	out := make([]vector.FieldDefn, len(l.fields))
	copy(out, l.fields)
	return out
}

// CreateField adds fd to the schema; an existing name is left untouched.
func (l *writeLayer) CreateField(fd vector.FieldDefn) error {
	for _, f := range l.fields {
		if f.Name == fd.Name {
			return nil
		}
	}
	l.fields = append(l.fields, fd)
	return nil
}

// CreateFeature writes f. Fields missing from the schema are added first.
func (l *writeLayer) CreateFeature(f *vector.Feature) error {
	if l.ds.closed {
		return eris.Errorf("georss: %s is closed", l.ds.name)
	}
	for _, k := range sortedKeys(f.Fields) {
		_ = l.CreateField(vector.FieldDefn{Name: k, Type: vector.FieldString})
	}
	if err := l.ds.writer.writeFeature(l.fields, f); err != nil {
		return err
	}
	l.count++
	return nil
}

func sortedKeys(m map[string]string) []string {
	return vector.Options(m).Keys()
}
