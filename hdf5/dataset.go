package hdf5

import (
	"errors"
	"fmt"
	"math/bits"
	"path"

	"github.com/robert-malhotra/h5shard/internal/dtype"
	"github.com/robert-malhotra/h5shard/internal/filter"
	"github.com/robert-malhotra/h5shard/internal/layout"
	"github.com/robert-malhotra/h5shard/internal/message"
	"github.com/robert-malhotra/h5shard/internal/object"
	"github.com/robert-malhotra/h5shard/ndarray"
)

// Dataset represents an HDF5 dataset.
type Dataset struct {
	file      *File
	path      string
	header    *object.Header
	dataspace *message.Dataspace
	datatype  *message.Datatype
	layout    *message.DataLayout
	filters   *message.FilterPipeline
}

func newDataset(f *File, path string, header *object.Header) (*Dataset, error) {
	d := &Dataset{file: f, path: path, header: header}
	var err error
	if d.dataspace, err = header.Dataspace(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	if d.datatype, err = header.Datatype(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, unsupported(err))
	}
	if d.layout, err = header.DataLayout(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, unsupported(err))
	}
	if d.filters, err = header.FilterPipeline(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	switch {
	case d.dataspace == nil:
		return nil, fmt.Errorf("dataset %s: missing dataspace message", path)
	case d.datatype == nil:
		return nil, fmt.Errorf("dataset %s: missing datatype message", path)
	case d.layout == nil:
		return nil, fmt.Errorf("dataset %s: missing layout message", path)
	}
	return d, nil
}

// unsupported maps decoder errors for features the reader does not cover
// onto ErrUnsupported.
func unsupported(err error) error {
	for _, target := range []error{
		message.ErrUnsupportedLayout,
		message.ErrSharedDatatype,
		object.ErrSharedMessage,
		dtype.ErrUnsupported,
		filter.ErrUnsupported,
	} {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrUnsupported, err)
		}
	}
	return err
}

// Name returns the dataset name (last component of path).
func (d *Dataset) Name() string { return path.Base(d.path) }

// Path returns the full path to this dataset.
func (d *Dataset) Path() string { return d.path }

// Shape returns the dimensions of the dataset. Dimensions of an array
// element type follow the dataspace dimensions. A scalar has no
// dimensions.
func (d *Dataset) Shape() []int {
	var shape []int
	switch {
	case d.dataspace.IsScalar():
		shape = []int{}
	case d.dataspace.IsNull():
		shape = []int{0}
	default:
		shape = make([]int, len(d.dataspace.Dimensions))
		for i, n := range d.dataspace.Dimensions {
			shape[i] = int(n)
		}
	}
	_, extra := dtype.Flatten(d.datatype)
	return append(shape, extra...)
}

// Rank returns the number of dimensions.
func (d *Dataset) Rank() int { return len(d.Shape()) }

// IsScalar reports whether the dataset holds a single value.
func (d *Dataset) IsScalar() bool { return d.dataspace.IsScalar() }

// Kind returns the element kind values decode to.
func (d *Dataset) Kind() (ndarray.Kind, error) {
	elem, _ := dtype.Flatten(d.datatype)
	k, err := dtype.Kind(elem)
	if err != nil {
		return k, fmt.Errorf("dataset %s: %w", d.path, unsupported(err))
	}
	return k, nil
}

// Datatype describes the stored element type, such as "int32".
func (d *Dataset) Datatype() string { return d.datatype.String() }

// Layout returns the storage layout class name.
func (d *Dataset) Layout() string { return d.layout.Class.String() }

// ChunkShape returns the chunk dimensions of a chunked dataset.
func (d *Dataset) ChunkShape() []int {
	if !d.layout.IsChunked() {
		return nil
	}
	out := make([]int, len(d.layout.ChunkDims))
	for i, n := range d.layout.ChunkDims {
		out[i] = int(n)
	}
	return out
}

// Filters returns the names of the filters applied to the data.
func (d *Dataset) Filters() []string {
	if d.filters == nil {
		return nil
	}
	names := make([]string, len(d.filters.Filters))
	for i, f := range d.filters.Filters {
		names[i] = f.Name
		if names[i] == "" {
			names[i] = filter.Name(f.ID)
		}
	}
	return names
}

// Read reads every element into a typed slice such as []float64 or
// []string, in row-major order.
func (d *Dataset) Read() (any, error) {
	if d.file.closed {
		return nil, ErrClosed
	}
	elem, extra := dtype.Flatten(d.datatype)
	if _, err := dtype.Kind(elem); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, unsupported(err))
	}
	count, err := d.dataspace.NumElements()
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	for _, e := range extra {
		hi, lo := bits.Mul64(count, uint64(e))
		if hi != 0 {
			return nil, fmt.Errorf("dataset %s: %w", d.path, message.ErrTooLarge)
		}
		count = lo
	}
	if count == 0 {
		return dtype.Decode(elem, nil, 0, d.file.reader)
	}

	store, err := layout.New(d.file.reader, d.layout, d.dataspace, int(d.datatype.Size), d.filters)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, unsupported(err))
	}
	raw, err := store.Read()
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", d.path, unsupported(err))
	}
	// layout.New bounds the byte size, so count fits in an int here.
	values, err := dtype.Decode(elem, raw, int(count), d.file.reader)
	if err != nil {
		return nil, fmt.Errorf("decoding dataset %s: %w", d.path, err)
	}
	return values, nil
}

// ReadArray reads the dataset into an array with the dataset's shape.
func (d *Dataset) ReadArray() (*ndarray.Array, error) {
	values, err := d.Read()
	if err != nil {
		return nil, err
	}
	arr, err := ndarray.FromSlice(values, d.Shape()...)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	return arr, nil
}

// Attrs returns the dataset's attribute names in sorted order.
func (d *Dataset) Attrs() ([]string, error) {
	return attrNames(d.file, d.header, d.path)
}

// Attr returns the named attribute of the dataset.
func (d *Dataset) Attr(name string) (*Attribute, error) {
	return findAttr(d.file, d.header, d.path, name)
}
