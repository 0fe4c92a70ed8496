// Package h5test builds small HDF5 files in memory for tests.
//
// Files use a version 2 superblock with 8 byte offsets and lengths, version
// 2 object headers and compact link storage. Datasets can be contiguous,
// compact or chunked with deflate, shuffle and fletcher32, which covers the
// storage paths the reader supports without needing h5py.
//
//	b := h5test.New()
//	b.Dataset("/data/x", []float64{1, 2, 3, 4}, 2, 2).Chunked(1, 2).Deflate(6)
//	b.Root().Attr("title", "run 1")
//	path := b.Temp(t, "x.h5")
package h5test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Builder describes the contents of a file.
type Builder struct {
	root *Group
}

// New returns a builder with an empty root group.
func New() *Builder {
	return &Builder{root: &Group{name: "/"}}
}

// Root returns the root group.
func (b *Builder) Root() *Group { return b.root }

// Group returns the group at path, creating missing groups on the way.
func (b *Builder) Group(path string) *Group {
	g := b.root
	for _, part := range split(path) {
		g = g.Group(part)
	}
	return g
}

// Dataset adds a dataset at path, creating its parent groups.
func (b *Builder) Dataset(path string, values any, shape ...int) *Dataset {
	parts := split(path)
	if len(parts) == 0 {
		panic("h5test: dataset path has no name")
	}
	parent := b.Group(strings.Join(parts[:len(parts)-1], "/"))
	return parent.Dataset(parts[len(parts)-1], values, shape...)
}

// Bytes encodes the file.
func (b *Builder) Bytes() ([]byte, error) {
	w := &writer{}
	w.alloc(make([]byte, superblockSize))
	root, err := w.group(b.root)
	if err != nil {
		return nil, err
	}
	w.superblock(root)
	return w.buf, nil
}

// WriteFile encodes the file and writes it to path.
func (b *Builder) WriteFile(path string) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Temp writes the file under t.TempDir and returns its path.
func (b *Builder) Temp(t testing.TB, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := b.WriteFile(path); err != nil {
		t.Fatalf("h5test: writing %s: %v", name, err)
	}
	return path
}

// Group is a group under construction. Members are written in the order
// they were added.
type Group struct {
	name    string
	entries []*entry
	attrs   []attr
	dense   bool
}

type entry struct {
	name    string
	group   *Group
	dataset *Dataset
	soft    string
}

type attr struct {
	name  string
	value any
}

func (g *Group) lookup(name string) *entry {
	for _, e := range g.entries {
		if e.name == name {
			return e
		}
	}
	return nil
}

// Group returns the child group name, creating it if needed.
func (g *Group) Group(name string) *Group {
	if e := g.lookup(name); e != nil {
		if e.group == nil {
			panic(fmt.Sprintf("h5test: %q is not a group", name))
		}
		return e.group
	}
	child := &Group{name: name}
	g.entries = append(g.entries, &entry{name: name, group: child})
	return child
}

// Dataset adds a dataset. With no shape the dataset is one dimensional.
func (g *Group) Dataset(name string, values any, shape ...int) *Dataset {
	if g.lookup(name) != nil {
		panic(fmt.Sprintf("h5test: duplicate member %q", name))
	}
	d := &Dataset{values: values, shape: shape}
	g.entries = append(g.entries, &entry{name: name, dataset: d})
	return d
}

// SoftLink adds a soft link to target.
func (g *Group) SoftLink(name, target string) *Group {
	g.entries = append(g.entries, &entry{name: name, soft: target})
	return g
}

// Attr adds an attribute. Scalar Go values produce scalar attributes and
// slices produce one dimensional ones.
func (g *Group) Attr(name string, value any) *Group {
	g.attrs = append(g.attrs, attr{name, value})
	return g
}

// DenseLinks marks the group as using dense link storage. No fractal heap
// is written, so readers only see the link info message.
func (g *Group) DenseLinks() *Group {
	g.dense = true
	return g
}

// Dataset is a dataset under construction.
type Dataset struct {
	values  any
	shape   []int
	scalar  bool
	compact bool
	fixed   bool
	chunks  []int
	filters []filterSpec
	attrs   []attr
}

type filterSpec struct {
	id uint16
	cd []uint32
}

// Scalar stores the dataset with a scalar dataspace. Values must hold one
// element.
func (d *Dataset) Scalar() *Dataset {
	d.scalar = true
	return d
}

// Compact stores the data inside the object header.
func (d *Dataset) Compact() *Dataset {
	d.compact = true
	return d
}

// FixedStrings stores string values as fixed-length, null padded strings
// instead of variable-length ones.
func (d *Dataset) FixedStrings() *Dataset {
	d.fixed = true
	return d
}

// Chunked stores the data in chunks indexed by a version 1 B-tree.
func (d *Dataset) Chunked(dims ...int) *Dataset {
	d.chunks = dims
	return d
}

// Shuffle adds the byte shuffle filter. Filters apply in the order added.
func (d *Dataset) Shuffle() *Dataset {
	d.filters = append(d.filters, filterSpec{id: filterShuffle})
	return d
}

// Deflate adds the deflate filter.
func (d *Dataset) Deflate(level int) *Dataset {
	d.filters = append(d.filters, filterSpec{id: filterDeflate, cd: []uint32{uint32(level)}})
	return d
}

// Fletcher32 adds the checksum filter.
func (d *Dataset) Fletcher32() *Dataset {
	d.filters = append(d.filters, filterSpec{id: filterFletcher32})
	return d
}

// Attr adds an attribute to the dataset.
func (d *Dataset) Attr(name string, value any) *Dataset {
	d.attrs = append(d.attrs, attr{name, value})
	return d
}

func split(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
