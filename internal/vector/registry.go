package vector

import (
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Registry maps driver names to their implementations. Registration is
// insert-if-absent and serialised by an internal mutex.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
	order   []string // insertion order for deterministic probing
	version APIVersion
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithVersion overrides the API version the registry reports.
func WithVersion(v APIVersion) RegistryOption {
	return func(r *Registry) { r.version = v }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		drivers: make(map[string]Driver),
		version: CurrentAPI,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Version returns the API version of the registry.
func (r *Registry) Version() APIVersion { return r.version }

// RegisterIfAbsent publishes d under its metadata name. It reports whether
// the driver was added; a driver already registered under that name wins.
func (r *Registry) RegisterIfAbsent(d Driver) bool {
	name := d.Metadata().Name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.drivers[name]; ok {
		return false
	}
	r.drivers[name] = d
	r.order = append(r.order, name)

	zap.L().Debug("vector: driver registered",
		zap.String("component", "vector.registry"),
		zap.String("driver", name),
	)
	return true
}

// Get returns a driver by name.
func (r *Registry) Get(name string) (Driver, error) {
	r.mu.RLock()
	d, ok := r.drivers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, eris.Wrapf(ErrUnknownDriver, "vector: driver %q", name)
	}
	return d, nil
}

// All returns all drivers in registration order.
func (r *Registry) All() []Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Driver, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.drivers[name])
	}
	return result
}

// Names returns all registered driver names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Reset drops every registered driver.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.drivers = make(map[string]Driver)
	r.order = nil
}

// OpenEx probes every driver in registration order and returns the first
// bound dataset together with the driver that produced it.
func (r *Registry) OpenEx(fs afero.Fs, path string, access Access) (Dataset, Driver, error) {
	info := NewOpenInfo(fs, path, access)
	defer func() { _ = info.Close() }()

	for _, d := range r.All() {
		switch res := d.Open(info).(type) {
		case Matched:
			return res.Dataset, d, nil
		case NotApplicable:
			continue
		}
	}
	return nil, nil, eris.Wrapf(ErrNoDriver, "vector: open %s", path)
}

// Identify returns the driver that claims path without keeping it open.
func (r *Registry) Identify(fs afero.Fs, path string) (Driver, error) {
	ds, d, err := r.OpenEx(fs, path, ReadOnly)
	if err != nil {
		return nil, err
	}
	if err := ds.Close(); err != nil {
		zap.L().Debug("vector: close after identify", zap.String("path", path), zap.Error(err))
	}
	return d, nil
}

// Create creates a new dataset at path with the named driver.
func (r *Registry) Create(name, path string, opts Options) (Dataset, error) {
	d, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	ds, err := d.Create(path, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "vector: create %s with %s", path, name)
	}
	return ds, nil
}

// Delete identifies the driver owning path and asks it to remove the dataset.
func (r *Registry) Delete(fs afero.Fs, path string) error {
	d, err := r.Identify(fs, path)
	if err != nil {
		return err
	}
	if err := d.Delete(path); err != nil {
		return eris.Wrapf(err, "vector: delete %s with %s", path, d.Metadata().Name)
	}
	return nil
}
