package vector

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// MemPrefix routes a path to the in-memory filesystem.
const MemPrefix = "/vsimem/"

// Router is an afero.Fs that sends MemPrefix paths to an in-memory
// filesystem and everything else to a base filesystem. Drivers advertising
// VirtualIO do all of their file access through it.
type Router struct {
	mu   sync.RWMutex
	base afero.Fs
	mem  afero.Fs
}

// NewRouter returns a Router over the OS filesystem.
func NewRouter() *Router {
	return NewRouterWithBase(afero.NewOsFs())
}

// NewRouterWithBase returns a Router over base.
func NewRouterWithBase(base afero.Fs) *Router {
	return &Router{base: base, mem: afero.NewMemMapFs()}
}

var (
	defaultFsOnce sync.Once
	defaultFs     *Router
)

// DefaultFs returns the process-wide Router.
func DefaultFs() *Router {
	defaultFsOnce.Do(func() {
		defaultFs = NewRouter()
	})
	return defaultFs
}

// ResetMem discards everything stored under MemPrefix.
func (r *Router) ResetMem() {
	r.mu.Lock()
	r.mem = afero.NewMemMapFs()
	r.mu.Unlock()
}

// IsVirtual reports whether name lives on the in-memory filesystem.
func IsVirtual(name string) bool {
	return strings.HasPrefix(name, MemPrefix)
}

func (r *Router) pick(name string) afero.Fs {
	if IsVirtual(name) {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.mem
	}
	return r.base
}

func (r *Router) Name() string { return "vsi" }

func (r *Router) Create(name string) (afero.File, error) { return r.pick(name).Create(name) }

func (r *Router) Mkdir(name string, perm os.FileMode) error { return r.pick(name).Mkdir(name, perm) }

func (r *Router) MkdirAll(path string, perm os.FileMode) error {
	return r.pick(path).MkdirAll(path, perm)
}

func (r *Router) Open(name string) (afero.File, error) { return r.pick(name).Open(name) }

func (r *Router) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	return r.pick(name).OpenFile(name, flag, perm)
}

func (r *Router) Remove(name string) error { return r.pick(name).Remove(name) }

func (r *Router) RemoveAll(path string) error { return r.pick(path).RemoveAll(path) }

// Rename only works within one side of the router.
func (r *Router) Rename(oldname, newname string) error {
	if IsVirtual(oldname) != IsVirtual(newname) {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: os.ErrInvalid}
	}
	return r.pick(oldname).Rename(oldname, newname)
}

func (r *Router) Stat(name string) (os.FileInfo, error) { return r.pick(name).Stat(name) }

func (r *Router) Chmod(name string, mode os.FileMode) error { return r.pick(name).Chmod(name, mode) }

func (r *Router) Chown(name string, uid, gid int) error { return r.pick(name).Chown(name, uid, gid) }

func (r *Router) Chtimes(name string, atime, mtime time.Time) error {
	return r.pick(name).Chtimes(name, atime, mtime)
}
