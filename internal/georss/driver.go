package georss

import (
	"bytes"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/sells-group/georss/internal/vector"
)

// DriverName is the unique registry key of the GeoRSS driver.
const DriverName = "GeoRSS"

var (
	markerRSS  = []byte("<rss")
	markerAtom = []byte("<feed")
)

// Driver is the GeoRSS format driver.
type Driver struct {
	fs afero.Fs
}

// NewDriver returns a driver whose create and delete go through fs.
// Open uses the filesystem carried by the open request.
func NewDriver(fs afero.Fs) *Driver {
	return &Driver{fs: fs}
}

// Metadata describes the driver.
func (d *Driver) Metadata() vector.Metadata {
	return vector.Metadata{
		Name:      DriverName,
		LongName:  "GeoRSS",
		HelpTopic: "drv_georss.html",
		Capabilities: vector.Capabilities{
			Vector:    true,
			VirtualIO: true,
		},
		Extensions:      []string{"xml"},
		CreationOptions: creationOptions,
	}
}

// Sniff reports whether info plausibly names a GeoRSS feed. It only looks at
// the header bytes already read by the framework.
func Sniff(info *vector.OpenInfo) bool {
	if info.Access == vector.Update || info.File == nil {
		return false
	}
	return bytes.Contains(info.Header, markerRSS) || bytes.Contains(info.Header, markerAtom)
}

// Open binds a DataSource to the requested feed. Any failure, including a
// failed bind after a positive sniff, is reported as NotApplicable so the
// next driver may try the file.
func (d *Driver) Open(info *vector.OpenInfo) vector.OpenResult {
	if !Sniff(info) {
		return vector.NoMatch()
	}

	fs := info.Fs
	if fs == nil {
		fs = d.fs
	}

	ds := NewDataSource(fs)
	if err := ds.Open(info.Path, info.Access == vector.Update); err != nil {
		zap.L().Debug("georss: bind failed, declining file",
			zap.String("component", "georss.driver"),
			zap.String("path", info.Path),
			zap.Error(err),
		)
		ds.destroy()
		return vector.NoMatch()
	}
	return vector.Match(ds)
}

// Create makes a new, empty feed at path. Unlike Open, failure is an error.
func (d *Driver) Create(path string, opts vector.Options) (vector.Dataset, error) {
	ds := NewDataSource(d.fs)
	if err := ds.Create(path, opts); err != nil {
		ds.destroy()
		return nil, err
	}
	return ds, nil
}

// Delete removes the feed file at path.
func (d *Driver) Delete(path string) error {
	if err := d.fs.Remove(path); err != nil {
		return eris.Wrapf(err, "georss: delete %s", path)
	}
	return nil
}
