package vector

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDriver claims files whose header starts with prefix.
type mockDriver struct {
	name    string
	prefix  string
	opened  int
	deleted []string
	fs      afero.Fs
}

func (m *mockDriver) Metadata() Metadata {
	return Metadata{Name: m.name, LongName: m.name, Capabilities: Capabilities{Vector: true}}
}

func (m *mockDriver) Open(info *OpenInfo) OpenResult {
	m.opened++
	if info.File == nil || !bytes.HasPrefix(info.Header, []byte(m.prefix)) {
		return NoMatch()
	}
	return Match(&mockDataset{name: info.Path})
}

func (m *mockDriver) Create(path string, _ Options) (Dataset, error) {
	if path == "" {
		return nil, errors.New("empty path")
	}
	return &mockDataset{name: path}, nil
}

func (m *mockDriver) Delete(path string) error {
	m.deleted = append(m.deleted, path)
	return m.fs.Remove(path)
}

type mockDataset struct {
	name   string
	closed bool
}

func (d *mockDataset) Name() string                     { return d.name }
func (d *mockDataset) State() State                     { return Bound }
func (d *mockDataset) Metadata() map[string]string      { return nil }
func (d *mockDataset) LayerCount() int                  { return 0 }
func (d *mockDataset) Layer(int) Layer                  { return nil }
func (d *mockDataset) LayerByName(string) (Layer, bool) { return nil, false }
func (d *mockDataset) CreateLayer(string, GeometryType) (Layer, error) {
	return nil, ErrReadOnly
}
func (d *mockDataset) Close() error {
	d.closed = true
	return nil
}

func TestRegistry_RegisterIfAbsent(t *testing.T) {
	reg := NewRegistry()
	first := &mockDriver{name: "A"}

	assert.True(t, reg.RegisterIfAbsent(first))
	assert.False(t, reg.RegisterIfAbsent(&mockDriver{name: "A"}))

	got, err := reg.Get("A")
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.Equal(t, []string{"A"}, reg.Names())
}

func TestRegistry_Get_NotFound(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestRegistry_All_PreservesOrder(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterIfAbsent(&mockDriver{name: "alpha"})
	reg.RegisterIfAbsent(&mockDriver{name: "beta"})
	reg.RegisterIfAbsent(&mockDriver{name: "gamma"})

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, reg.Names())
	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, "beta", all[1].Metadata().Name)
}

func TestRegistry_Reset(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterIfAbsent(&mockDriver{name: "A"})
	reg.Reset()
	assert.Empty(t, reg.Names())
	assert.True(t, reg.RegisterIfAbsent(&mockDriver{name: "A"}))
}

func TestRegistry_ConcurrentRegistration(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	added := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			added <- reg.RegisterIfAbsent(&mockDriver{name: "same"})
		}()
	}
	wg.Wait()
	close(added)

	var wins int
	for ok := range added {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Len(t, reg.Names(), 1)
}

func TestRegistry_CheckVersion(t *testing.T) {
	reg := NewRegistry(WithVersion(APIVersion{Major: 1, Minor: 2}))
	assert.True(t, reg.CheckVersion(APIVersion{Major: 1, Minor: 0}, "test"))
	assert.True(t, reg.CheckVersion(APIVersion{Major: 1, Minor: 2}, "test"))
	assert.False(t, reg.CheckVersion(APIVersion{Major: 1, Minor: 3}, "test"))
	assert.False(t, reg.CheckVersion(APIVersion{Major: 2, Minor: 0}, "test"))
	assert.Equal(t, "1.2", reg.Version().String())
}

func TestRegistry_OpenEx_ProbesInOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/b.dat", []byte("BBBB"), 0o644))

	a := &mockDriver{name: "A", prefix: "AAAA"}
	b := &mockDriver{name: "B", prefix: "BBBB"}
	reg := NewRegistry()
	reg.RegisterIfAbsent(a)
	reg.RegisterIfAbsent(b)

	ds, d, err := reg.OpenEx(fs, "/b.dat", ReadOnly)
	require.NoError(t, err)
	assert.Equal(t, "B", d.Metadata().Name)
	assert.Equal(t, "/b.dat", ds.Name())
	assert.Equal(t, 1, a.opened)
	assert.Equal(t, 1, b.opened)
}

func TestRegistry_OpenEx_NoDriver(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/c.dat", []byte("CCCC"), 0o644))

	reg := NewRegistry()
	reg.RegisterIfAbsent(&mockDriver{name: "A", prefix: "AAAA"})

	_, _, err := reg.OpenEx(fs, "/c.dat", ReadOnly)
	require.ErrorIs(t, err, ErrNoDriver)

	_, _, err = reg.OpenEx(fs, "/missing.dat", ReadOnly)
	require.ErrorIs(t, err, ErrNoDriver)
}

func TestRegistry_CreateAndDelete(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.dat", []byte("AAAA"), 0o644))

	a := &mockDriver{name: "A", prefix: "AAAA", fs: fs}
	reg := NewRegistry()
	reg.RegisterIfAbsent(a)

	ds, err := reg.Create("A", "/new.dat", nil)
	require.NoError(t, err)
	assert.Equal(t, "/new.dat", ds.Name())

	_, err = reg.Create("A", "", nil)
	require.Error(t, err)

	_, err = reg.Create("Z", "/new.dat", nil)
	require.ErrorIs(t, err, ErrUnknownDriver)

	require.NoError(t, reg.Delete(fs, "/a.dat"))
	assert.Equal(t, []string{"/a.dat"}, a.deleted)
	exists, _ := afero.Exists(fs, "/a.dat")
	assert.False(t, exists)
}

func TestDefault_IsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
	assert.Same(t, DefaultFs(), DefaultFs())
}
