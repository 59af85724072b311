package shapefile

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/sells-group/georss/internal/vector"
)

// DriverName is the registry key of the shapefile driver.
const DriverName = "ESRI Shapefile"

// fileCode is the big-endian magic at offset 0 of every .shp file.
const fileCode = 9994

// sidecars are removed together with the .shp on Delete.
var sidecars = []string{".shp", ".shx", ".dbf", ".prj", ".cpg"}

// Driver reads shapefiles from the local filesystem. go-shp opens files by
// path, so virtual paths are never claimed.
type Driver struct {
	fs afero.Fs
}

// NewDriver returns a shapefile driver that deletes through fs.
func NewDriver(fs afero.Fs) *Driver {
	return &Driver{fs: fs}
}

// Metadata describes the driver.
func (d *Driver) Metadata() vector.Metadata {
	return vector.Metadata{
		Name:         DriverName,
		LongName:     "ESRI Shapefile",
		HelpTopic:    "drv_shapefile.html",
		Capabilities: vector.Capabilities{Vector: true},
		Extensions:   []string{"shp"},
	}
}

// Sniff reports whether info looks like a readable .shp file.
func Sniff(info *vector.OpenInfo) bool {
	if info.Access == vector.Update || info.File == nil {
		return false
	}
	if vector.IsVirtual(info.Path) || !strings.EqualFold(filepath.Ext(info.Path), ".shp") {
		return false
	}
	return len(info.Header) >= 4 && binary.BigEndian.Uint32(info.Header[:4]) == fileCode
}

// Open claims info when it sniffs as a shapefile and its records load.
func (d *Driver) Open(info *vector.OpenInfo) vector.OpenResult {
	if !Sniff(info) {
		return vector.NoMatch()
	}
	ds, err := openDataset(info.Path)
	if err != nil {
		zap.L().Debug("shapefile: open failed",
			zap.String("component", "shapefile.driver"),
			zap.String("path", info.Path),
			zap.Error(err),
		)
		return vector.NoMatch()
	}
	return vector.Match(ds)
}

// Create is not supported; the driver is read-only.
func (d *Driver) Create(path string, _ vector.Options) (vector.Dataset, error) {
	return nil, eris.Wrapf(vector.ErrNotSupported, "shapefile: create %s", path)
}

// Delete removes the .shp and its sidecar files. Missing sidecars are ignored.
func (d *Driver) Delete(path string) error {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if err := d.fs.Remove(path); err != nil {
		return eris.Wrapf(err, "shapefile: delete %s", path)
	}
	for _, ext := range sidecars {
		p := base + ext
		if p == path {
			continue
		}
		if err := d.fs.Remove(p); err != nil && !os.IsNotExist(err) {
			return eris.Wrapf(err, "shapefile: delete %s", p)
		}
	}
	return nil
}

// builtAgainst is the driver API version this package implements.
var builtAgainst = vector.APIVersion{Major: 1, Minor: 2}

// Register adds the shapefile driver to reg unless it is already present or
// the registry's API version is incompatible.
func Register(reg *vector.Registry, fs afero.Fs) {
	if !reg.CheckVersion(builtAgainst, "ESRI Shapefile driver") {
		return
	}
	if _, err := reg.Get(DriverName); err == nil {
		return
	}
	reg.RegisterIfAbsent(NewDriver(fs))
}
