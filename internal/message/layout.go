package message

import (
	"errors"
	"fmt"

	binpkg "github.com/robert-malhotra/h5shard/internal/binary"
)

// ErrUnsupportedLayout is returned for storage layouts the reader cannot
// follow, such as virtual datasets and v4 array or B-tree v2 chunk indexes.
var ErrUnsupportedLayout = errors.New("unsupported data layout")

// LayoutClass represents the storage layout class.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0 // Data stored in object header
	LayoutContiguous LayoutClass = 1 // Data in single contiguous block
	LayoutChunked    LayoutClass = 2 // Data in indexed chunks
	LayoutVirtual    LayoutClass = 3 // Virtual dataset (v4+)
)

func (c LayoutClass) String() string {
	switch c {
	case LayoutCompact:
		return "compact"
	case LayoutContiguous:
		return "contiguous"
	case LayoutChunked:
		return "chunked"
	case LayoutVirtual:
		return "virtual"
	}
	return fmt.Sprintf("layout(%d)", uint8(c))
}

// ChunkIndexType identifies how chunk addresses are found. Values above
// zero match the encoding used by version 4 layout messages.
type ChunkIndexType uint8

const (
	ChunkIndexBTreeV1         ChunkIndexType = 0 // v1-v3 layouts
	ChunkIndexSingleChunk     ChunkIndexType = 1
	ChunkIndexImplicit        ChunkIndexType = 2
	ChunkIndexFixedArray      ChunkIndexType = 3
	ChunkIndexExtensibleArray ChunkIndexType = 4
	ChunkIndexBTreeV2         ChunkIndexType = 5
)

// DataLayout represents a data layout message (type 0x0008).
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	// Compact
	CompactData []byte

	// Contiguous. Size is zero for v1/v2 messages, which do not record it.
	Address uint64
	Size    uint64

	// Chunked. ChunkDims has one entry per dataspace dimension; the
	// trailing element-size entry of the encoding is split into
	// ElementSize.
	ChunkDims      []uint64
	ElementSize    uint64
	ChunkIndexType ChunkIndexType
	ChunkIndexAddr uint64

	// Single-chunk index with filters (v4)
	FilteredChunkSize uint64
	FilterMask        uint32
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

func (m *DataLayout) IsCompact() bool    { return m.Class == LayoutCompact }
func (m *DataLayout) IsContiguous() bool { return m.Class == LayoutContiguous }
func (m *DataLayout) IsChunked() bool    { return m.Class == LayoutChunked }

func parseDataLayout(c *binpkg.Cursor) (*DataLayout, error) {
	l := &DataLayout{Version: c.Uint8()}
	var err error
	switch l.Version {
	case 1, 2:
		err = parseLayoutV1(c, l)
	case 3, 4:
		err = parseLayoutV3(c, l)
	default:
		return nil, fmt.Errorf("unsupported layout version %d", l.Version)
	}
	if err != nil {
		return nil, err
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("data layout: %w", err)
	}
	return l, nil
}

//	version, ndims, class, reserved(5), [address], dims(ndims*4), [compact size, data]
func parseLayoutV1(c *binpkg.Cursor, l *DataLayout) error {
	ndims := int(c.Uint8())
	l.Class = LayoutClass(c.Uint8())
	c.Skip(5)
	if l.Class != LayoutCompact {
		l.Address = c.Offset()
	}
	dims := make([]uint64, ndims)
	for i := range dims {
		dims[i] = uint64(c.Uint32())
	}
	switch l.Class {
	case LayoutCompact:
		n := int(c.Uint32())
		l.CompactData = c.Bytes(n)
	case LayoutContiguous:
	case LayoutChunked:
		if ndims < 2 {
			return fmt.Errorf("chunked layout with %d dimensions", ndims)
		}
		l.ChunkIndexAddr = l.Address
		l.Address = 0
		l.ChunkDims = dims[:ndims-1]
		l.ElementSize = dims[ndims-1]
		return checkChunkDims(l.ChunkDims)
	default:
		return fmt.Errorf("%w: class %d", ErrUnsupportedLayout, l.Class)
	}
	return nil
}

func parseLayoutV3(c *binpkg.Cursor, l *DataLayout) error {
	l.Class = LayoutClass(c.Uint8())
	switch l.Class {
	case LayoutCompact:
		n := int(c.Uint16())
		l.CompactData = c.Bytes(n)
	case LayoutContiguous:
		l.Address = c.Offset()
		l.Size = c.Length()
	case LayoutChunked:
		if l.Version == 3 {
			return parseChunkedV3(c, l)
		}
		return parseChunkedV4(c, l)
	case LayoutVirtual:
		return fmt.Errorf("%w: virtual dataset", ErrUnsupportedLayout)
	default:
		return fmt.Errorf("%w: class %d", ErrUnsupportedLayout, l.Class)
	}
	return nil
}

//	ndims, address, dims(ndims*4)
func parseChunkedV3(c *binpkg.Cursor, l *DataLayout) error {
	ndims := int(c.Uint8())
	if ndims < 2 {
		return fmt.Errorf("chunked layout with %d dimensions", ndims)
	}
	l.ChunkIndexType = ChunkIndexBTreeV1
	l.ChunkIndexAddr = c.Offset()
	dims := make([]uint64, ndims)
	for i := range dims {
		dims[i] = uint64(c.Uint32())
	}
	l.ChunkDims = dims[:ndims-1]
	l.ElementSize = dims[ndims-1]
	return checkChunkDims(l.ChunkDims)
}

//	flags, ndims, dim width, dims(ndims*width), index type, index info, address
func parseChunkedV4(c *binpkg.Cursor, l *DataLayout) error {
	flags := c.Uint8()
	ndims := int(c.Uint8())
	width := int(c.Uint8())
	if ndims < 2 {
		return fmt.Errorf("chunked layout with %d dimensions", ndims)
	}
	if width < 1 || width > 8 {
		return fmt.Errorf("invalid chunk dimension width %d", width)
	}
	dims := make([]uint64, ndims)
	for i := range dims {
		dims[i] = c.UintN(width)
	}
	l.ChunkDims = dims[:ndims-1]
	l.ElementSize = dims[ndims-1]
	if err := checkChunkDims(l.ChunkDims); err != nil {
		return err
	}

	l.ChunkIndexType = ChunkIndexType(c.Uint8())
	switch l.ChunkIndexType {
	case ChunkIndexSingleChunk:
		if flags&0x02 != 0 {
			l.FilteredChunkSize = c.Length()
			l.FilterMask = c.Uint32()
		}
	case ChunkIndexImplicit:
	case ChunkIndexFixedArray:
		c.Skip(1)
	case ChunkIndexExtensibleArray:
		c.Skip(5)
	case ChunkIndexBTreeV2:
		c.Skip(6)
	default:
		return fmt.Errorf("%w: chunk index type %d", ErrUnsupportedLayout, l.ChunkIndexType)
	}
	l.ChunkIndexAddr = c.Offset()
	return nil
}

func checkChunkDims(dims []uint64) error {
	for _, d := range dims {
		if d == 0 {
			return fmt.Errorf("zero chunk dimension in %v", dims)
		}
	}
	return nil
}
