package dtype

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	binpkg "github.com/robert-malhotra/h5shard/internal/binary"
	"github.com/robert-malhotra/h5shard/internal/heap"
	"github.com/robert-malhotra/h5shard/internal/message"
	"github.com/robert-malhotra/h5shard/ndarray"
)

// Decode converts n elements of raw data of type dt into a typed slice
// matching Kind(dt). The reader resolves variable-length strings stored in
// the global heap and may be nil for other types.
func Decode(dt *message.Datatype, data []byte, n int, r *binpkg.Reader) (any, error) {
	kind, err := Kind(dt)
	if err != nil {
		return nil, err
	}
	size := int(dt.Size)
	if n < 0 || size <= 0 && n > 0 || size > 0 && n > len(data)/size {
		return nil, fmt.Errorf("%d bytes for %d elements of %d bytes", len(data), n, size)
	}

	if dt.Class == message.ClassVarLen {
		if r == nil {
			return nil, fmt.Errorf("variable-length strings need a file reader")
		}
		return vlenStrings(data, n, size, r)
	}

	order := dt.ByteOrder
	if dt.Class == message.ClassEnum {
		order = dt.Base.ByteOrder
	}
	if order == nil {
		order = binary.LittleEndian
	}

	switch kind {
	case ndarray.Int8:
		return ints[int8](data, n, size, order), nil
	case ndarray.Int16:
		return ints[int16](data, n, size, order), nil
	case ndarray.Int32:
		return ints[int32](data, n, size, order), nil
	case ndarray.Int64:
		return ints[int64](data, n, size, order), nil
	case ndarray.Uint8:
		return ints[uint8](data, n, size, order), nil
	case ndarray.Uint16:
		return ints[uint16](data, n, size, order), nil
	case ndarray.Uint32:
		return ints[uint32](data, n, size, order), nil
	case ndarray.Uint64:
		return ints[uint64](data, n, size, order), nil
	case ndarray.Float32:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(order.Uint32(data[i*4:]))
		}
		return out, nil
	case ndarray.Float64:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(order.Uint64(data[i*8:]))
		}
		return out, nil
	case ndarray.String:
		out := make([]string, n)
		for i := range out {
			out[i] = trim(data[i*size:(i+1)*size], dt.Padding)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, kind)
}

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// ints decodes fixed-size integers. Conversion from uint64 truncates, which
// gives two's complement values for signed T.
func ints[T integer](data []byte, n, size int, order binary.ByteOrder) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = T(binpkg.DecodeUint(data[i*size:(i+1)*size], order))
	}
	return out
}

func trim(b []byte, pad message.StringPadding) string {
	switch pad {
	case message.PadNullTerm:
		if i := bytes.IndexByte(b, 0); i >= 0 {
			b = b[:i]
		}
	case message.PadNullPad:
		b = bytes.TrimRight(b, "\x00")
	case message.PadSpacePad:
		b = bytes.TrimRight(b, " ")
	}
	return string(b)
}

// vlenStrings decodes elements of length(4), collection address(O) and
// object index(4).
func vlenStrings(data []byte, n, size int, r *binpkg.Reader) ([]string, error) {
	g := heap.NewGlobal(r)
	out := make([]string, n)
	for i := range out {
		c := r.Wrap(data[i*size : (i+1)*size])
		length := int(c.Uint32())
		id := heap.ID{Collection: c.Offset(), Index: c.Uint32()}
		if err := c.Err(); err != nil {
			return nil, fmt.Errorf("vlen string %d: %w", i, err)
		}
		if length == 0 || id.Collection == 0 {
			continue
		}
		obj, err := g.Get(id)
		if err != nil {
			return nil, fmt.Errorf("vlen string %d: %w", i, err)
		}
		if length > len(obj) {
			return nil, fmt.Errorf("vlen string %d: length %d exceeds heap object of %d bytes", i, length, len(obj))
		}
		out[i] = string(bytes.TrimRight(obj[:length], "\x00"))
	}
	return out, nil
}
