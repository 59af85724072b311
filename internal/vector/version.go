package vector

import (
	"fmt"

	"go.uber.org/zap"
)

// APIVersion identifies the driver API a registry or driver was built for.
type APIVersion struct {
	Major int
	Minor int
}

// String formats the version as "major.minor".
func (v APIVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// CurrentAPI is the driver API implemented by this package.
var CurrentAPI = APIVersion{Major: 1, Minor: 2}

// Compatible reports whether a driver built against built can run on v.
func (v APIVersion) Compatible(built APIVersion) bool {
	return v.Major == built.Major && built.Minor <= v.Minor
}

// CheckVersion reports whether a driver built against built may register
// into r. Incompatibility is logged here; callers just return.
func (r *Registry) CheckVersion(built APIVersion, caller string) bool {
	if r.version.Compatible(built) {
		return true
	}
	zap.L().Warn("vector: driver API version mismatch, driver not registered",
		zap.String("component", "vector.registry"),
		zap.String("caller", caller),
		zap.Stringer("built", built),
		zap.Stringer("runtime", r.version),
	)
	return false
}
