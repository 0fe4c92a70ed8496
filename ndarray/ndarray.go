// Package ndarray holds immutable, typed, row-major N-dimensional arrays.
//
// An Array never exposes its backing slice: every accessor returns a copy,
// so a value handed to several callers cannot be changed by any of them.
package ndarray

import (
	"fmt"
	"math"
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrShape is returned when values do not fit a shape or arrays cannot
	// be joined.
	ErrShape = errors.New("ndarray: shape mismatch")

	// ErrKind is returned when an array holds a different element kind
	// than requested.
	ErrKind = errors.New("ndarray: kind mismatch")
)

// Kind is the element type of an Array.
type Kind uint8

const (
	Invalid Kind = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	String
)

var kindNames = [...]string{
	Invalid: "invalid",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	String:  "string",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Size returns the size of one element in bytes, or 0 for strings.
func (k Kind) Size() int {
	switch k {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

// Numeric reports whether k is an integer or float kind.
func (k Kind) Numeric() bool { return k >= Int8 && k <= Float64 }

// Element is the set of Go types an Array can hold.
type Element interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~string
}

// KindOf returns the kind of a typed slice, or Invalid.
func KindOf(values any) Kind {
	switch values.(type) {
	case []int8:
		return Int8
	case []int16:
		return Int16
	case []int32:
		return Int32
	case []int64:
		return Int64
	case []uint8:
		return Uint8
	case []uint16:
		return Uint16
	case []uint32:
		return Uint32
	case []uint64:
		return Uint64
	case []float32:
		return Float32
	case []float64:
		return Float64
	case []string:
		return String
	}
	return Invalid
}

// Array is an immutable N-dimensional array. A rank-0 array is a scalar.
type Array struct {
	kind  Kind
	shape []int
	data  any // typed slice of kind
}

// FromSlice builds an array from a typed slice. The slice is copied. With
// no shape the array is one-dimensional.
func FromSlice(values any, shape ...int) (*Array, error) {
	k := KindOf(values)
	if k == Invalid {
		return nil, errors.Wrapf(ErrKind, "unsupported element type %T", values)
	}
	n := sliceLen(values)
	if shape == nil {
		shape = []int{n}
	}
	if size, err := sizeOf(shape); err != nil {
		return nil, err
	} else if size != n {
		return nil, errors.Wrapf(ErrShape, "%d values for shape %v", n, shape)
	}
	return &Array{kind: k, shape: append([]int{}, shape...), data: copySlice(values)}, nil
}

// New builds an array from values with the given shape.
func New[T Element](values []T, shape ...int) (*Array, error) {
	return FromSlice(normalize(values), shape...)
}

// Scalar returns a rank-0 array holding v.
func Scalar[T Element](v T) *Array {
	a, _ := FromSlice(normalize([]T{v}), []int{}...)
	return a
}

// Zeros returns an array of the given kind and shape filled with zero
// values.
func Zeros(k Kind, shape ...int) (*Array, error) {
	n, err := sizeOf(shape)
	if err != nil {
		return nil, err
	}
	var data any
	switch k {
	case Int8:
		data = make([]int8, n)
	case Int16:
		data = make([]int16, n)
	case Int32:
		data = make([]int32, n)
	case Int64:
		data = make([]int64, n)
	case Uint8:
		data = make([]uint8, n)
	case Uint16:
		data = make([]uint16, n)
	case Uint32:
		data = make([]uint32, n)
	case Uint64:
		data = make([]uint64, n)
	case Float32:
		data = make([]float32, n)
	case Float64:
		data = make([]float64, n)
	case String:
		data = make([]string, n)
	default:
		return nil, errors.Wrapf(ErrKind, "zeros of %s", k)
	}
	return &Array{kind: k, shape: append([]int{}, shape...), data: data}, nil
}

// Kind returns the element kind.
func (a *Array) Kind() Kind { return a.kind }

// Shape returns a copy of the dimensions.
func (a *Array) Shape() []int { return append([]int{}, a.shape...) }

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.shape) }

// Len returns the length of the leading dimension, or 0 for a scalar.
func (a *Array) Len() int {
	if len(a.shape) == 0 {
		return 0
	}
	return a.shape[0]
}

// Size returns the total number of elements.
func (a *Array) Size() int { return sliceLen(a.data) }

// RowSize returns the number of elements in one leading-dimension row.
func (a *Array) RowSize() int {
	n := 1
	for _, d := range a.shape[min(1, len(a.shape)):] {
		n *= d
	}
	return n
}

// Values returns a copy of the backing slice, e.g. []float64.
func (a *Array) Values() any { return copySlice(a.data) }

// Values returns a copy of the elements of a as []T.
func Values[T Element](a *Array) ([]T, error) {
	v, ok := a.data.([]T)
	if !ok {
		var zero []T
		return nil, errors.Wrapf(ErrKind, "array of %s read as %T", a.kind, zero)
	}
	return append([]T(nil), v...), nil
}

// Float64s returns the elements of a numeric array converted to float64.
func (a *Array) Float64s() ([]float64, error) {
	switch v := a.data.(type) {
	case []int8:
		return widen(v), nil
	case []int16:
		return widen(v), nil
	case []int32:
		return widen(v), nil
	case []int64:
		return widen(v), nil
	case []uint8:
		return widen(v), nil
	case []uint16:
		return widen(v), nil
	case []uint32:
		return widen(v), nil
	case []uint64:
		return widen(v), nil
	case []float32:
		return widen(v), nil
	case []float64:
		return append([]float64(nil), v...), nil
	}
	return nil, errors.Wrapf(ErrKind, "%s is not numeric", a.kind)
}

// At returns the element at the given index, one coordinate per dimension.
func (a *Array) At(index ...int) (any, error) {
	if len(index) != len(a.shape) {
		return nil, errors.Wrapf(ErrShape, "index %v for shape %v", index, a.shape)
	}
	flat := 0
	for i, x := range index {
		if x < 0 || x >= a.shape[i] {
			return nil, errors.Wrapf(ErrShape, "index %v out of range for shape %v", index, a.shape)
		}
		flat = flat*a.shape[i] + x
	}
	return element(a.data, flat), nil
}

// Row returns leading-dimension row i as an array of rank-1 fewer.
func (a *Array) Row(i int) (*Array, error) {
	if len(a.shape) == 0 {
		return nil, errors.Wrap(ErrShape, "row of a scalar")
	}
	if i < 0 || i >= a.shape[0] {
		return nil, errors.Wrapf(ErrShape, "row %d out of range [0, %d)", i, a.shape[0])
	}
	n := a.RowSize()
	return &Array{
		kind:  a.kind,
		shape: append([]int{}, a.shape[1:]...),
		data:  copySlice(subslice(a.data, i*n, (i+1)*n)),
	}, nil
}

// Equal reports whether b has the same kind, shape and elements as a.
func (a *Array) Equal(b *Array) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.kind != b.kind || len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	n := a.Size()
	for i := 0; i < n; i++ {
		if element(a.data, i) != element(b.data, i) {
			return false
		}
	}
	return true
}

// String formats the array like "float64[3 2]".
func (a *Array) String() string {
	dims := make([]string, len(a.shape))
	for i, d := range a.shape {
		dims[i] = fmt.Sprint(d)
	}
	return fmt.Sprintf("%s[%s]", a.kind, strings.Join(dims, " "))
}

func sizeOf(shape []int) (int, error) {
	zero := false
	for _, d := range shape {
		if d < 0 {
			return 0, errors.Wrapf(ErrShape, "negative dimension in %v", shape)
		}
		zero = zero || d == 0
	}
	if zero {
		return 0, nil
	}
	n := uint64(1)
	for _, d := range shape {
		hi, lo := bits.Mul64(n, uint64(d))
		if hi != 0 || lo > math.MaxInt {
			return 0, errors.Wrapf(ErrShape, "element count of %v overflows", shape)
		}
		n = lo
	}
	return int(n), nil
}

type number interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

func widen[T number](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
