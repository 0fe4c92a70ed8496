package hdf5

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/robert-malhotra/h5shard/internal/binary"
	"github.com/robert-malhotra/h5shard/internal/object"
	"github.com/robert-malhotra/h5shard/internal/superblock"
)

// File is an open HDF5 file. A File is not safe for concurrent use; open
// one File per goroutine instead.
type File struct {
	path       string
	file       *os.File
	reader     *binary.Reader
	superblock *superblock.Superblock
	root       *Group
	closed     bool
}

// Open opens an HDF5 file for reading.
func Open(path string) (*File, error) {
	osFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	f, err := newFile(osFile, path)
	if err != nil {
		osFile.Close()
		return nil, err
	}
	f.file = osFile
	return f, nil
}

// OpenReader reads an HDF5 file from r. Close does not close r.
func OpenReader(r io.ReaderAt, name string) (*File, error) {
	return newFile(r, name)
}

func newFile(r io.ReaderAt, name string) (*File, error) {
	sb, err := superblock.Read(r)
	if err != nil {
		if errors.Is(err, superblock.ErrNotHDF5) {
			return nil, fmt.Errorf("%w: %s", ErrNotHDF5, name)
		}
		return nil, fmt.Errorf("reading superblock of %s: %w", name, err)
	}

	// Addresses are relative to the base address, which moves past any
	// user block.
	var base io.ReaderAt = r
	if sb.BaseAddress > 0 {
		base = io.NewSectionReader(r, int64(sb.BaseAddress), math.MaxInt64-int64(sb.BaseAddress))
	}

	f := &File{
		path:       name,
		reader:     binary.NewReader(base, sb.ReaderConfig()),
		superblock: sb,
	}
	header, err := object.Read(f.reader, sb.RootAddress)
	if err != nil {
		return nil, fmt.Errorf("reading root group of %s: %w", name, err)
	}
	f.root = &Group{file: f, path: "/", header: header}
	return f, nil
}

// Close releases the file. Closing twice is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

// Path returns the name the file was opened with.
func (f *File) Path() string { return f.path }

// Version returns the superblock version.
func (f *File) Version() int { return int(f.superblock.Version) }

// Root returns the root group.
func (f *File) Root() *Group { return f.root }

// Lookup returns the group or dataset at path.
func (f *File) Lookup(path string) (Object, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.Lookup(path)
}

// OpenGroup opens a group by path.
func (f *File) OpenGroup(path string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(path)
}

// OpenDataset opens a dataset by path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenDataset(path)
}

// ReadAttr reads an attribute value by path, in the form
// /group/object@name.
func (f *File) ReadAttr(path string) (any, error) {
	objPath, name, err := ParseAttrPath(path)
	if err != nil {
		return nil, err
	}
	obj, err := f.Lookup(objPath)
	if err != nil {
		return nil, err
	}
	attr, err := obj.Attr(name)
	if err != nil {
		return nil, err
	}
	return attr.Value()
}
