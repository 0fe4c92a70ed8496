package h5test

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

type encoded struct {
	dtype []byte
	size  int
	n     int
	data  []byte
}

// values encodes a slice of elements with its datatype message.
func (w *writer) values(values any, fixed bool) (*encoded, error) {
	switch v := values.(type) {
	case []string:
		if fixed {
			return fixedStrings(v), nil
		}
		return w.vlenStrings(v), nil
	case []float32:
		return numeric(v, len(v), floatType(4), 4)
	case []float64:
		return numeric(v, len(v), floatType(8), 8)
	case []int8:
		return numeric(v, len(v), fixedType(1, true), 1)
	case []int16:
		return numeric(v, len(v), fixedType(2, true), 2)
	case []int32:
		return numeric(v, len(v), fixedType(4, true), 4)
	case []int64:
		return numeric(v, len(v), fixedType(8, true), 8)
	case []uint8:
		return numeric(v, len(v), fixedType(1, false), 1)
	case []uint16:
		return numeric(v, len(v), fixedType(2, false), 2)
	case []uint32:
		return numeric(v, len(v), fixedType(4, false), 4)
	case []uint64:
		return numeric(v, len(v), fixedType(8, false), 8)
	}
	return nil, fmt.Errorf("h5test: unsupported values %T", values)
}

// sliceOf wraps scalar Go values in a one element slice.
func sliceOf(v any) (any, bool) {
	switch x := v.(type) {
	case string:
		return []string{x}, true
	case int:
		return []int64{int64(x)}, true
	case int8:
		return []int8{x}, true
	case int16:
		return []int16{x}, true
	case int32:
		return []int32{x}, true
	case int64:
		return []int64{x}, true
	case uint8:
		return []uint8{x}, true
	case uint16:
		return []uint16{x}, true
	case uint32:
		return []uint32{x}, true
	case uint64:
		return []uint64{x}, true
	case float32:
		return []float32{x}, true
	case float64:
		return []float64{x}, true
	}
	return v, false
}

func numeric(v any, n int, dtype []byte, size int) (*encoded, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return nil, err
	}
	return &encoded{dtype: dtype, size: size, n: n, data: buf.Bytes()}, nil
}

func fixedStrings(v []string) *encoded {
	size := 1
	for _, s := range v {
		if len(s) > size {
			size = len(s)
		}
	}
	var e enc
	e.u8(0x13)
	e.u8(0x01) // null padded, ASCII
	e.u8(0)
	e.u8(0)
	e.u32(uint32(size))
	out := &encoded{dtype: e.Bytes(), size: size, n: len(v), data: make([]byte, size*len(v))}
	for i, s := range v {
		copy(out.data[i*size:], s)
	}
	return out
}

// vlenStrings writes the strings to a new global heap collection and
// returns heap references to them.
func (w *writer) vlenStrings(v []string) *encoded {
	var objs enc
	for i, s := range v {
		objs.u16(uint16(i + 1))
		objs.u16(1)
		objs.u32(0)
		objs.u64(uint64(len(s)))
		objs.WriteString(s)
		for objs.Len()%8 != 0 {
			objs.u8(0)
		}
	}
	objs.Write(make([]byte, 16)) // free space object

	var col enc
	col.WriteString("GCOL")
	col.u8(1)
	col.Write([]byte{0, 0, 0})
	col.u64(uint64(16 + objs.Len()))
	col.Write(objs.Bytes())
	addr := w.alloc(col.Bytes())

	var data enc
	for i, s := range v {
		data.u32(uint32(len(s)))
		data.u64(addr)
		data.u32(uint32(i + 1))
	}

	var e enc
	e.u8(0x19)
	e.u8(0x01) // string
	e.u8(0x10) // null terminated, UTF-8
	e.u8(0)
	e.u32(16)
	e.Write(fixedType(1, false))
	return &encoded{dtype: e.Bytes(), size: 16, n: len(v), data: data.Bytes()}
}

func fixedType(size int, signed bool) []byte {
	var e enc
	e.u8(0x10)
	if signed {
		e.u8(0x08)
	} else {
		e.u8(0)
	}
	e.u8(0)
	e.u8(0)
	e.u32(uint32(size))
	e.u16(0)
	e.u16(uint16(size * 8))
	return e.Bytes()
}

func floatType(size int) []byte {
	var e enc
	e.u8(0x11)
	e.u8(0x20) // implied mantissa bit
	e.u8(uint8(size*8 - 1))
	e.u8(0)
	e.u32(uint32(size))
	e.u16(0)
	e.u16(uint16(size * 8))
	if size == 4 {
		e.Write([]byte{23, 8, 0, 23})
		e.u32(127)
	} else {
		e.Write([]byte{52, 11, 0, 52})
		e.u32(1023)
	}
	return e.Bytes()
}
