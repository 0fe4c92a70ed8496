// Package layout reads the raw bytes of a dataset from its storage layout.
//
// Data comes back in row-major order with the element size of the
// dataset's datatype. Unallocated storage reads as zeros.
package layout

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/h5shard/internal/binary"
	"github.com/robert-malhotra/h5shard/internal/filter"
	"github.com/robert-malhotra/h5shard/internal/message"
)

// ErrCorrupt is returned when stored data does not match the size its
// layout declares.
var ErrCorrupt = errors.New("corrupt dataset storage")

// maxRead bounds the bytes a single dataset read may allocate.
const maxRead = 1 << 34

// Layout reads the full contents of a dataset.
type Layout interface {
	Class() message.LayoutClass
	Read() ([]byte, error)
}

// New returns the reader for a dataset's layout message.
func New(r *binary.Reader, l *message.DataLayout, ds *message.Dataspace, elemSize int, fp *message.FilterPipeline) (Layout, error) {
	if l == nil || ds == nil {
		return nil, fmt.Errorf("%w: missing layout or dataspace message", ErrCorrupt)
	}
	if elemSize <= 0 {
		return nil, fmt.Errorf("%w: element size %d", ErrCorrupt, elemSize)
	}
	n, err := ds.NumElements()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	total, err := byteSize(n, elemSize)
	if err != nil {
		return nil, err
	}
	switch l.Class {
	case message.LayoutCompact:
		return &Compact{data: l.CompactData, size: total}, nil
	case message.LayoutContiguous:
		return &Contiguous{r: r, address: l.Address, stored: l.Size, size: total}, nil
	case message.LayoutChunked:
		if len(l.ChunkDims) != ds.Rank() {
			return nil, fmt.Errorf("%w: chunk rank %d for dataspace rank %d", ErrCorrupt, len(l.ChunkDims), ds.Rank())
		}
		chunk := uint64(1)
		for _, d := range l.ChunkDims {
			if d == 0 {
				return nil, fmt.Errorf("%w: zero chunk dimension in %v", ErrCorrupt, l.ChunkDims)
			}
			hi, lo := bits.Mul64(chunk, d)
			if hi != 0 {
				return nil, fmt.Errorf("%w: chunk dimensions %v overflow", ErrCorrupt, l.ChunkDims)
			}
			chunk = lo
		}
		chunkSize, err := byteSize(chunk, elemSize)
		if err != nil {
			return nil, err
		}
		return &Chunked{
			r:         r,
			layout:    l,
			dims:      ds.Dimensions,
			elemSize:  elemSize,
			size:      total,
			chunkSize: chunkSize,
			pipeline:  filter.NewPipeline(fp, elemSize),
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", message.ErrUnsupportedLayout, l.Class)
}

// byteSize multiplies an element count by the element size, failing when
// the product passes maxRead.
func byteSize(n uint64, elemSize int) (int, error) {
	hi, lo := bits.Mul64(n, uint64(elemSize))
	if hi != 0 || lo > maxRead {
		return 0, fmt.Errorf("%w: %d elements of %d bytes exceed the read limit", ErrCorrupt, n, elemSize)
	}
	return int(lo), nil
}

// Compact data lives in the layout message itself.
type Compact struct {
	data []byte
	size int
}

func (c *Compact) Class() message.LayoutClass { return message.LayoutCompact }

func (c *Compact) Read() ([]byte, error) {
	if len(c.data) < c.size {
		return nil, fmt.Errorf("%w: compact data has %d bytes, need %d", ErrCorrupt, len(c.data), c.size)
	}
	out := make([]byte, c.size)
	copy(out, c.data)
	return out, nil
}

// Contiguous data is a single block in the file.
type Contiguous struct {
	r       *binary.Reader
	address uint64
	stored  uint64 // zero when the layout message does not record it
	size    int
}

func (c *Contiguous) Class() message.LayoutClass { return message.LayoutContiguous }

func (c *Contiguous) Read() ([]byte, error) {
	if c.r.IsUndefined(c.address) {
		return make([]byte, c.size), nil
	}
	if c.stored != 0 && c.stored < uint64(c.size) {
		return nil, fmt.Errorf("%w: contiguous block of %d bytes, need %d", ErrCorrupt, c.stored, c.size)
	}
	data, err := c.r.ReadAt(c.address, c.size)
	if err != nil {
		return nil, fmt.Errorf("reading contiguous data: %w", err)
	}
	return data, nil
}
