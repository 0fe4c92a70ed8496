// Package dtype converts raw HDF5 element data into typed Go slices.
//
// It works with the message.Datatype parsed from object headers and
// produces the slices ndarray.Array stores: []int8 to []uint64, []float32,
// []float64 and []string.
package dtype

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5shard/internal/message"
	"github.com/robert-malhotra/h5shard/ndarray"
)

// ErrUnsupported is returned for datatypes with no ndarray kind.
var ErrUnsupported = errors.New("unsupported datatype")

// Kind returns the ndarray kind that elements of dt decode to.
func Kind(dt *message.Datatype) (ndarray.Kind, error) {
	if dt == nil {
		return ndarray.Invalid, fmt.Errorf("%w: nil datatype", ErrUnsupported)
	}
	switch dt.Class {
	case message.ClassFixedPoint, message.ClassBitfield:
		signed := dt.Class == message.ClassFixedPoint && dt.Signed
		switch dt.Size {
		case 1:
			return pick(signed, ndarray.Int8, ndarray.Uint8), nil
		case 2:
			return pick(signed, ndarray.Int16, ndarray.Uint16), nil
		case 4:
			return pick(signed, ndarray.Int32, ndarray.Uint32), nil
		case 8:
			return pick(signed, ndarray.Int64, ndarray.Uint64), nil
		}
	case message.ClassFloatPoint:
		switch dt.Size {
		case 4:
			return ndarray.Float32, nil
		case 8:
			return ndarray.Float64, nil
		}
	case message.ClassString:
		return ndarray.String, nil
	case message.ClassVarLen:
		if dt.VarLenString {
			return ndarray.String, nil
		}
	case message.ClassEnum:
		return Kind(dt.Base)
	}
	return ndarray.Invalid, fmt.Errorf("%w: %s of %d bytes", ErrUnsupported, dt, dt.Size)
}

func pick(signed bool, s, u ndarray.Kind) ndarray.Kind {
	if signed {
		return s
	}
	return u
}

// Flatten unwraps array datatypes. It returns the element type and the
// dimensions the array type adds after the dataspace dimensions.
func Flatten(dt *message.Datatype) (*message.Datatype, []int) {
	var extra []int
	for dt != nil && dt.Class == message.ClassArray && dt.Base != nil {
		for _, d := range dt.ArrayDims {
			extra = append(extra, int(d))
		}
		dt = dt.Base
	}
	return dt, extra
}
