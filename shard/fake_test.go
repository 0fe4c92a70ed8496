package shard

import (
	"os"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5shard/fileset"
	"github.com/robert-malhotra/h5shard/ndarray"
)

// fakeFile is the contents of one in-memory container. Keys are
// canonical paths.
type fakeFile struct {
	datasets map[string]*ndarray.Array
	groups   map[string][]string
	attrs    map[string]map[string]any
	openErr  error
	readErr  error
}

// fakeOpener serves fakeFiles by path and counts the work done.
type fakeOpener struct {
	files map[string]*fakeFile
	delay time.Duration

	opens  atomic.Int64
	reads  atomic.Int64
	closes atomic.Int64
}

func (o *fakeOpener) Open(path string) (Container, error) {
	o.opens.Add(1)
	f, ok := o.files[path]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &fakeContainer{file: f, opener: o}, nil
}

type fakeContainer struct {
	file   *fakeFile
	opener *fakeOpener
}

func (c *fakeContainer) exists(id string) bool {
	_, ds := c.file.datasets[id]
	_, g := c.file.groups[id]
	return ds || g || id == "/"
}

func (c *fakeContainer) Dataset(id string) (*ndarray.Array, error) {
	c.opener.reads.Add(1)
	if c.opener.delay > 0 {
		time.Sleep(c.opener.delay)
	}
	if c.file.readErr != nil {
		return nil, c.file.readErr
	}
	a, ok := c.file.datasets[id]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, id)
	}
	return a, nil
}

func (c *fakeContainer) Describe(id string) (Meta, error) {
	if c.file.readErr != nil {
		return Meta{}, c.file.readErr
	}
	a, ok := c.file.datasets[id]
	if !ok {
		return Meta{}, errors.Wrap(ErrNotFound, id)
	}
	return Meta{Kind: a.Kind(), Shape: a.Shape()}, nil
}

func (c *fakeContainer) Entries(group string) ([]string, error) {
	names, ok := c.file.groups[group]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, group)
	}
	names = append([]string(nil), names...)
	sort.Strings(names)
	return names, nil
}

func (c *fakeContainer) Attributes(id string) ([]string, error) {
	if !c.exists(id) {
		return nil, errors.Wrap(ErrNotFound, id)
	}
	var names []string
	for name := range c.file.attrs[id] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (c *fakeContainer) Attribute(id, name string) (any, error) {
	if !c.exists(id) {
		return nil, errors.Wrap(ErrNotFound, id)
	}
	v, ok := c.file.attrs[id][name]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s@%s", id, name)
	}
	return v, nil
}

func (c *fakeContainer) Close() error {
	c.opener.closes.Add(1)
	return nil
}

// add registers n empty files and returns their paths.
func (o *fakeOpener) add(n int) []string {
	if o.files == nil {
		o.files = map[string]*fakeFile{}
	}
	paths := make([]string, n)
	for i := range paths {
		paths[i] = "shard" + string(rune('0'+i)) + ".h5"
		o.files[paths[i]] = &fakeFile{
			datasets: map[string]*ndarray.Array{},
			groups:   map[string][]string{"/": nil},
			attrs:    map[string]map[string]any{},
		}
	}
	return paths
}

func (o *fakeOpener) file(path string) *fakeFile { return o.files[path] }

func newReader(t *testing.T, o *fakeOpener, paths []string, opts ...Option) *Reader {
	t.Helper()
	opts = append([]Option{WithOpener(o), WithProgress(false)}, opts...)
	r, err := New(fileset.Explicit(paths...), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func array[T ndarray.Element](t *testing.T, values []T, shape ...int) *ndarray.Array {
	t.Helper()
	a, err := ndarray.New(values, shape...)
	require.NoError(t, err)
	return a
}

func seq(from, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = float64(from + i)
	}
	return v
}
