package h5test

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zlib"

	binpkg "github.com/robert-malhotra/h5shard/internal/binary"
)

const (
	superblockSize = 48
	undefined      = ^uint64(0)

	msgDataspace      = 0x0001
	msgLinkInfo       = 0x0002
	msgDatatype       = 0x0003
	msgLink           = 0x0006
	msgDataLayout     = 0x0008
	msgFilterPipeline = 0x000B
	msgAttribute      = 0x000C

	filterDeflate    = 1
	filterShuffle    = 2
	filterFletcher32 = 3
)

// enc appends little-endian fields.
type enc struct{ bytes.Buffer }

func (e *enc) u8(v uint8)   { e.WriteByte(v) }
func (e *enc) u16(v uint16) { e.Write(binary.LittleEndian.AppendUint16(nil, v)) }
func (e *enc) u32(v uint32) { e.Write(binary.LittleEndian.AppendUint32(nil, v)) }
func (e *enc) u64(v uint64) { e.Write(binary.LittleEndian.AppendUint64(nil, v)) }

type msg struct {
	typ  uint8
	body []byte
}

type writer struct {
	buf []byte
}

// alloc appends b at the next 8 byte boundary and returns its address.
func (w *writer) alloc(b []byte) uint64 {
	for len(w.buf)%8 != 0 {
		w.buf = append(w.buf, 0)
	}
	addr := uint64(len(w.buf))
	w.buf = append(w.buf, b...)
	return addr
}

func (w *writer) superblock(root uint64) {
	var e enc
	e.Write([]byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'})
	e.u8(2) // version
	e.u8(8) // offset size
	e.u8(8) // length size
	e.u8(0) // flags
	e.u64(0)
	e.u64(undefined)
	e.u64(uint64(len(w.buf)))
	e.u64(root)
	e.u32(binpkg.Lookup3Checksum(e.Bytes()))
	copy(w.buf, e.Bytes())
}

// header writes a version 2 object header with a 4 byte chunk size field.
func (w *writer) header(msgs []msg) uint64 {
	var body enc
	for _, m := range msgs {
		body.u8(m.typ)
		body.u16(uint16(len(m.body)))
		body.u8(0)
		body.Write(m.body)
	}
	var e enc
	e.WriteString("OHDR")
	e.u8(2)
	e.u8(0x02)
	e.u32(uint32(body.Len()))
	e.Write(body.Bytes())
	e.u32(binpkg.Lookup3Checksum(e.Bytes()))
	return w.alloc(e.Bytes())
}

func (w *writer) group(g *Group) (uint64, error) {
	var li enc
	li.u8(0)
	li.u8(0)
	if g.dense {
		li.u64(uint64(len(w.buf)))
	} else {
		li.u64(undefined)
	}
	li.u64(undefined)
	msgs := []msg{{msgLinkInfo, li.Bytes()}}

	if !g.dense {
		for _, e := range g.entries {
			var l enc
			l.u8(1)
			switch {
			case e.soft != "":
				l.u8(0x08)
				l.u8(1)
				l.u8(uint8(len(e.name)))
				l.WriteString(e.name)
				l.u16(uint16(len(e.soft)))
				l.WriteString(e.soft)
			default:
				var addr uint64
				var err error
				if e.group != nil {
					addr, err = w.group(e.group)
				} else {
					addr, err = w.dataset(e.dataset)
				}
				if err != nil {
					return 0, fmt.Errorf("%s: %w", e.name, err)
				}
				l.u8(0)
				l.u8(uint8(len(e.name)))
				l.WriteString(e.name)
				l.u64(addr)
			}
			msgs = append(msgs, msg{msgLink, l.Bytes()})
		}
	}

	attrs, err := w.attributes(g.attrs)
	if err != nil {
		return 0, err
	}
	return w.header(append(msgs, attrs...)), nil
}

func (w *writer) dataset(d *Dataset) (uint64, error) {
	v, err := w.values(d.values, d.fixed)
	if err != nil {
		return 0, err
	}
	dims := d.shape
	switch {
	case d.scalar:
		if v.n != 1 {
			return 0, fmt.Errorf("scalar dataset with %d values", v.n)
		}
		dims = nil
	case dims == nil:
		dims = []int{v.n}
	}
	if n := product(dims); n != v.n {
		return 0, fmt.Errorf("shape %v holds %d values, got %d", dims, n, v.n)
	}

	msgs := []msg{
		{msgDataspace, dataspace(dims, d.scalar)},
		{msgDatatype, v.dtype},
	}
	var layout enc
	layout.u8(3)
	switch {
	case d.compact:
		layout.u8(0)
		layout.u16(uint16(len(v.data)))
		layout.Write(v.data)
	case d.chunks != nil:
		if len(d.chunks) != len(dims) {
			return 0, fmt.Errorf("chunk rank %d for dataset rank %d", len(d.chunks), len(dims))
		}
		index, err := w.chunks(v, dims, d.chunks, d.filters)
		if err != nil {
			return 0, err
		}
		layout.u8(2)
		layout.u8(uint8(len(dims) + 1))
		layout.u64(index)
		for _, c := range d.chunks {
			layout.u32(uint32(c))
		}
		layout.u32(uint32(v.size))
		if len(d.filters) > 0 {
			msgs = append(msgs, msg{msgFilterPipeline, pipeline(d.filters, v.size)})
		}
	default:
		addr := undefined
		if len(v.data) > 0 {
			addr = w.alloc(v.data)
		}
		layout.u8(1)
		layout.u64(addr)
		layout.u64(uint64(len(v.data)))
	}
	msgs = append(msgs, msg{msgDataLayout, layout.Bytes()})

	attrs, err := w.attributes(d.attrs)
	if err != nil {
		return 0, err
	}
	return w.header(append(msgs, attrs...)), nil
}

func (w *writer) attributes(attrs []attr) ([]msg, error) {
	var out []msg
	for _, a := range attrs {
		values, scalar := sliceOf(a.value)
		v, err := w.values(values, false)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.name, err)
		}
		var dims []int
		if !scalar {
			dims = []int{v.n}
		}
		ds := dataspace(dims, scalar)

		var e enc
		e.u8(3)
		e.u8(0)
		e.u16(uint16(len(a.name) + 1))
		e.u16(uint16(len(v.dtype)))
		e.u16(uint16(len(ds)))
		e.u8(1) // UTF-8 name
		e.WriteString(a.name)
		e.u8(0)
		e.Write(v.dtype)
		e.Write(ds)
		e.Write(v.data)
		out = append(out, msg{msgAttribute, e.Bytes()})
	}
	return out, nil
}

// chunks writes every chunk of the dataset and a single leaf B-tree node
// indexing them.
func (w *writer) chunks(v *encoded, dims, chunk []int, filters []filterSpec) (uint64, error) {
	rank := len(dims)
	grid := make([]int, rank)
	for i := range dims {
		if chunk[i] <= 0 {
			return 0, fmt.Errorf("chunk dimension %d is %d", i, chunk[i])
		}
		grid[i] = (dims[i] + chunk[i] - 1) / chunk[i]
	}
	if product(grid) == 0 {
		return undefined, nil
	}

	type key struct {
		size   int
		offset []int
		addr   uint64
	}
	var keys []key
	pos := make([]int, rank)
	for {
		offset := make([]int, rank)
		for i := range pos {
			offset[i] = pos[i] * chunk[i]
		}
		raw := extract(v.data, v.size, dims, chunk, offset)
		data, err := applyFilters(raw, filters, v.size)
		if err != nil {
			return 0, err
		}
		keys = append(keys, key{len(data), offset, w.alloc(data)})

		i := rank - 1
		for ; i >= 0; i-- {
			pos[i]++
			if pos[i] < grid[i] {
				break
			}
			pos[i] = 0
		}
		if i < 0 {
			break
		}
	}

	var e enc
	e.WriteString("TREE")
	e.u8(1) // chunk node
	e.u8(0) // leaf
	e.u16(uint16(len(keys)))
	e.u64(undefined)
	e.u64(undefined)
	for _, k := range keys {
		e.u32(uint32(k.size))
		e.u32(0)
		for _, o := range k.offset {
			e.u64(uint64(o))
		}
		e.u64(0)
		e.u64(k.addr)
	}
	e.u32(0)
	e.u32(0)
	for _, d := range dims {
		e.u64(uint64(d))
	}
	e.u64(0)
	return w.alloc(e.Bytes()), nil
}

// extract copies the elements of the chunk at offset into a full sized,
// zero padded chunk buffer.
func extract(data []byte, size int, dims, chunk, offset []int) []byte {
	rank := len(dims)
	out := make([]byte, product(chunk)*size)
	idx := make([]int, rank)
	for n := 0; n < product(chunk); n++ {
		src, inside := 0, true
		for i := 0; i < rank; i++ {
			g := offset[i] + idx[i]
			if g >= dims[i] {
				inside = false
				break
			}
			src = src*dims[i] + g
		}
		if inside {
			copy(out[n*size:(n+1)*size], data[src*size:(src+1)*size])
		}
		for i := rank - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < chunk[i] {
				break
			}
			idx[i] = 0
		}
	}
	return out
}

func applyFilters(data []byte, filters []filterSpec, size int) ([]byte, error) {
	for _, f := range filters {
		switch f.id {
		case filterShuffle:
			n := len(data) / size
			out := make([]byte, len(data))
			for i := 0; i < n; i++ {
				for j := 0; j < size; j++ {
					out[j*n+i] = data[i*size+j]
				}
			}
			copy(out[n*size:], data[n*size:])
			data = out
		case filterDeflate:
			var buf bytes.Buffer
			zw, err := zlib.NewWriterLevel(&buf, int(f.cd[0]))
			if err != nil {
				return nil, err
			}
			if _, err := zw.Write(data); err != nil {
				return nil, err
			}
			if err := zw.Close(); err != nil {
				return nil, err
			}
			data = buf.Bytes()
		case filterFletcher32:
			data = binary.LittleEndian.AppendUint32(append([]byte(nil), data...), binpkg.Fletcher32(data))
		}
	}
	return data, nil
}

func pipeline(filters []filterSpec, size int) []byte {
	var e enc
	e.u8(2)
	e.u8(uint8(len(filters)))
	for _, f := range filters {
		cd := f.cd
		if f.id == filterShuffle {
			cd = []uint32{uint32(size)}
		}
		e.u16(f.id)
		e.u16(0)
		e.u16(uint16(len(cd)))
		for _, v := range cd {
			e.u32(v)
		}
	}
	return e.Bytes()
}

func dataspace(dims []int, scalar bool) []byte {
	var e enc
	e.u8(2)
	e.u8(uint8(len(dims)))
	e.u8(0)
	if scalar {
		e.u8(0)
		return e.Bytes()
	}
	e.u8(1)
	for _, d := range dims {
		e.u64(uint64(d))
	}
	return e.Bytes()
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
