package layout

import (
	"fmt"

	"github.com/robert-malhotra/h5shard/internal/binary"
	"github.com/robert-malhotra/h5shard/internal/btree"
	"github.com/robert-malhotra/h5shard/internal/filter"
	"github.com/robert-malhotra/h5shard/internal/message"
)

// Chunked data is split into equally shaped chunks found through an index.
type Chunked struct {
	r         *binary.Reader
	layout    *message.DataLayout
	dims      []uint64
	elemSize  int
	size      int // bytes in the whole dataset
	chunkSize int // bytes in one decoded chunk
	pipeline  *filter.Pipeline
}

func (c *Chunked) Class() message.LayoutClass { return message.LayoutChunked }

// Chunks lists the stored chunks. Chunks never written are not listed.
func (c *Chunked) Chunks() ([]btree.Chunk, error) {
	l := c.layout
	if c.r.IsUndefined(l.ChunkIndexAddr) {
		return nil, nil
	}
	rank := len(c.dims)
	switch l.ChunkIndexType {
	case message.ChunkIndexBTreeV1:
		return btree.ReadChunks(c.r, l.ChunkIndexAddr, rank)

	case message.ChunkIndexSingleChunk:
		size := c.chunkBytes()
		if l.FilteredChunkSize != 0 {
			size = l.FilteredChunkSize
		}
		return []btree.Chunk{{
			Offset:     make([]uint64, rank),
			Size:       uint32(size),
			FilterMask: l.FilterMask,
			Address:    l.ChunkIndexAddr,
		}}, nil

	case message.ChunkIndexImplicit:
		if !c.pipeline.Empty() {
			return nil, fmt.Errorf("%w: implicit chunk index with filters", ErrCorrupt)
		}
		var chunks []btree.Chunk
		size := c.chunkBytes()
		addr := l.ChunkIndexAddr
		forEachChunk(c.dims, l.ChunkDims, func(off []uint64) {
			chunks = append(chunks, btree.Chunk{
				Offset:  append([]uint64(nil), off...),
				Size:    uint32(size),
				Address: addr,
			})
			addr += size
		})
		return chunks, nil
	}
	return nil, fmt.Errorf("%w: chunk index type %d", message.ErrUnsupportedLayout, l.ChunkIndexType)
}

func (c *Chunked) Read() ([]byte, error) {
	out := make([]byte, c.size)
	if c.size == 0 {
		return out, nil
	}

	chunks, err := c.Chunks()
	if err != nil {
		return nil, err
	}
	want := c.chunkSize
	for _, ch := range chunks {
		raw, err := c.r.ReadAt(ch.Address, int(ch.Size))
		if err != nil {
			return nil, fmt.Errorf("reading chunk at %v: %w", ch.Offset, err)
		}
		data, err := c.pipeline.Decode(raw, ch.FilterMask)
		if err != nil {
			return nil, fmt.Errorf("decoding chunk at %v: %w", ch.Offset, err)
		}
		if len(data) < want {
			return nil, fmt.Errorf("%w: chunk at %v decoded to %d bytes, want %d", ErrCorrupt, ch.Offset, len(data), want)
		}
		if err := c.place(out, data, ch.Offset); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *Chunked) chunkBytes() uint64 { return uint64(c.chunkSize) }

// place copies the part of a chunk that falls inside the dataset into out.
// Rows along the last dimension are copied whole.
func (c *Chunked) place(out, chunk []byte, origin []uint64) error {
	rank := len(c.dims)
	cdims := c.layout.ChunkDims
	for i := range origin {
		if origin[i] >= c.dims[i] {
			return fmt.Errorf("%w: chunk offset %v outside dataset %v", ErrCorrupt, origin, c.dims)
		}
	}
	if rank == 0 {
		copy(out, chunk)
		return nil
	}

	// extent inside the dataset
	ext := make([]uint64, rank)
	for i := range ext {
		ext[i] = min(cdims[i], c.dims[i]-origin[i])
	}
	es := uint64(c.elemSize)
	row := ext[rank-1] * es

	idx := make([]uint64, rank)
	for {
		var src, dst uint64
		for i := 0; i < rank; i++ {
			src = src*cdims[i] + idx[i]
			dst = dst*c.dims[i] + origin[i] + idx[i]
		}
		copy(out[dst*es:dst*es+row], chunk[src*es:src*es+row])

		// advance every dimension but the last
		d := rank - 2
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < ext[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return nil
		}
	}
}

// forEachChunk calls fn with the origin of every chunk in row-major order.
func forEachChunk(dims, cdims []uint64, fn func(origin []uint64)) {
	rank := len(dims)
	for i, d := range dims {
		if d == 0 || cdims[i] == 0 {
			return
		}
	}
	off := make([]uint64, rank)
	for {
		fn(off)
		d := rank - 1
		for ; d >= 0; d-- {
			off[d] += cdims[d]
			if off[d] < dims[d] {
				break
			}
			off[d] = 0
		}
		if d < 0 {
			return
		}
	}
}
