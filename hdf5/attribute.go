package hdf5

import (
	"fmt"
	"sort"

	"github.com/robert-malhotra/h5shard/internal/binary"
	"github.com/robert-malhotra/h5shard/internal/dtype"
	"github.com/robert-malhotra/h5shard/internal/message"
	"github.com/robert-malhotra/h5shard/internal/object"
	"github.com/robert-malhotra/h5shard/ndarray"
)

// Attribute represents an HDF5 attribute attached to a dataset or group.
type Attribute struct {
	msg    *message.Attribute
	reader *binary.Reader // resolves global heap references
}

func readAttrs(f *File, h *object.Header, owner string) ([]*message.Attribute, error) {
	if f.closed {
		return nil, ErrClosed
	}
	info, err := h.AttributeInfo()
	if err != nil {
		return nil, fmt.Errorf("attributes of %s: %w", owner, err)
	}
	if info != nil && info.IsDense() {
		return nil, fmt.Errorf("%w: dense attribute storage on %s", ErrUnsupported, owner)
	}
	msgs, err := h.Attributes()
	if err != nil {
		return nil, fmt.Errorf("attributes of %s: %w", owner, unsupported(err))
	}
	return msgs, nil
}

func attrNames(f *File, h *object.Header, owner string) ([]string, error) {
	msgs, err := readAttrs(f, h, owner)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(msgs))
	for i, m := range msgs {
		names[i] = m.Name
	}
	sort.Strings(names)
	return names, nil
}

func findAttr(f *File, h *object.Header, owner, name string) (*Attribute, error) {
	msgs, err := readAttrs(f, h, owner)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		if m.Name == name {
			return &Attribute{msg: m, reader: f.reader}, nil
		}
	}
	return nil, fmt.Errorf("%w: attribute %q on %s", ErrNotFound, name, owner)
}

// Name returns the attribute name.
func (a *Attribute) Name() string { return a.msg.Name }

// Shape returns the dimensions of the attribute value, empty for a scalar.
func (a *Attribute) Shape() []int {
	ds := a.msg.Dataspace
	if ds.IsScalar() {
		return []int{}
	}
	shape := make([]int, len(ds.Dimensions))
	for i, n := range ds.Dimensions {
		shape[i] = int(n)
	}
	return shape
}

// IsScalar reports whether the attribute holds a single value.
func (a *Attribute) IsScalar() bool { return a.msg.Dataspace.IsScalar() }

// Kind returns the element kind of the value.
func (a *Attribute) Kind() (ndarray.Kind, error) {
	k, err := dtype.Kind(a.msg.Datatype)
	if err != nil {
		return k, unsupported(err)
	}
	return k, nil
}

func (a *Attribute) read() (any, error) {
	n, err := a.msg.Dataspace.NumElements()
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.msg.Name, err)
	}
	if n > uint64(len(a.msg.Data)) {
		return nil, fmt.Errorf("attribute %q: %d elements in %d bytes", a.msg.Name, n, len(a.msg.Data))
	}
	values, err := dtype.Decode(a.msg.Datatype, a.msg.Data, int(n), a.reader)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.msg.Name, unsupported(err))
	}
	return values, nil
}

// ReadArray decodes the attribute into an array with its native kind.
func (a *Attribute) ReadArray() (*ndarray.Array, error) {
	values, err := a.read()
	if err != nil {
		return nil, err
	}
	return ndarray.FromSlice(values, a.Shape()...)
}

// Value reads the attribute as a Go value. Integers widen to int64 or
// uint64 and floats to float64. Scalar attributes return a single value:
//
//   - int64, uint64, float64 or string for a scalar
//   - []int64, []uint64, []float64 or []string otherwise
func (a *Attribute) Value() (any, error) {
	values, err := a.read()
	if err != nil {
		return nil, err
	}
	wide := widen(values)
	if !a.IsScalar() {
		return wide, nil
	}
	switch v := wide.(type) {
	case []int64:
		return v[0], nil
	case []uint64:
		return v[0], nil
	case []float64:
		return v[0], nil
	case []string:
		return v[0], nil
	}
	return nil, fmt.Errorf("%w: attribute %q of %T", ErrUnsupported, a.msg.Name, values)
}

func widen(values any) any {
	switch v := values.(type) {
	case []int8:
		return convert[int8, int64](v)
	case []int16:
		return convert[int16, int64](v)
	case []int32:
		return convert[int32, int64](v)
	case []uint8:
		return convert[uint8, uint64](v)
	case []uint16:
		return convert[uint16, uint64](v)
	case []uint32:
		return convert[uint32, uint64](v)
	case []float32:
		return convert[float32, float64](v)
	}
	return values
}

type number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

func convert[S, D number](v []S) []D {
	out := make([]D, len(v))
	for i, x := range v {
		out[i] = D(x)
	}
	return out
}
