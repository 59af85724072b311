package georss

import (
	"github.com/spf13/afero"

	"github.com/sells-group/georss/internal/vector"
)

// builtAgainst is the driver API version this package implements.
var builtAgainst = vector.APIVersion{Major: 1, Minor: 2}

// Register publishes the GeoRSS driver into reg, doing its file access
// through fs. It is a no-op when the registry's API version is incompatible
// or a GeoRSS driver is already registered.
func Register(reg *vector.Registry, fs afero.Fs) {
	if !reg.CheckVersion(builtAgainst, "GeoRSS driver") {
		return
	}
	if _, err := reg.Get(DriverName); err == nil {
		return
	}
	reg.RegisterIfAbsent(NewDriver(fs))
}

// RegisterDefault registers the driver into the process-wide registry.
func RegisterDefault() {
	Register(vector.Default(), vector.DefaultFs())
}
