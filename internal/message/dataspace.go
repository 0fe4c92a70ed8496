package message

import (
	"errors"
	"fmt"
	"math/bits"

	binpkg "github.com/robert-malhotra/h5shard/internal/binary"
)

// ErrTooLarge is returned for a dataspace whose element count does not fit
// in 64 bits.
var ErrTooLarge = errors.New("dataspace element count overflows")

// DataspaceType is the kind of dataspace.
type DataspaceType uint8

const (
	DataspaceScalar DataspaceType = 0 // Single element
	DataspaceSimple DataspaceType = 1 // Regular N-dimensional array
	DataspaceNull   DataspaceType = 2 // No data
)

// Dataspace describes the shape of a dataset or attribute.
type Dataspace struct {
	Version    uint8
	SpaceType  DataspaceType
	Dimensions []uint64
	MaxDims    []uint64 // nil when absent
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// Rank returns the number of dimensions.
func (m *Dataspace) Rank() int { return len(m.Dimensions) }

// NumElements returns the total number of elements.
func (m *Dataspace) NumElements() (uint64, error) {
	switch m.SpaceType {
	case DataspaceNull:
		return 0, nil
	case DataspaceScalar:
		return 1, nil
	}
	for _, d := range m.Dimensions {
		if d == 0 {
			return 0, nil
		}
	}
	n := uint64(1)
	for _, d := range m.Dimensions {
		hi, lo := bits.Mul64(n, d)
		if hi != 0 {
			return 0, fmt.Errorf("%w: dimensions %v", ErrTooLarge, m.Dimensions)
		}
		n = lo
	}
	return n, nil
}

func (m *Dataspace) IsScalar() bool { return m.SpaceType == DataspaceScalar }
func (m *Dataspace) IsNull() bool   { return m.SpaceType == DataspaceNull }

// parseDataspace decodes versions 1 and 2.
//
//	v1: version, rank, flags, reserved(5), dims, [maxdims], [permutation]
//	v2: version, rank, flags, type, dims, [maxdims]
func parseDataspace(c *binpkg.Cursor) (*Dataspace, error) {
	version := c.Uint8()
	rank := int(c.Uint8())
	flags := c.Uint8()

	ds := &Dataspace{Version: version}
	switch version {
	case 1:
		c.Skip(5)
		ds.SpaceType = DataspaceSimple
		if rank == 0 {
			ds.SpaceType = DataspaceScalar
		}
	case 2:
		ds.SpaceType = DataspaceType(c.Uint8())
	default:
		return nil, fmt.Errorf("unsupported dataspace version %d", version)
	}
	if ds.SpaceType > DataspaceNull {
		return nil, fmt.Errorf("unknown dataspace type %d", ds.SpaceType)
	}
	if ds.SpaceType != DataspaceSimple {
		return ds, c.Err()
	}

	ds.Dimensions = make([]uint64, rank)
	for i := range ds.Dimensions {
		ds.Dimensions[i] = c.Length()
	}
	if flags&0x01 != 0 {
		ds.MaxDims = make([]uint64, rank)
		for i := range ds.MaxDims {
			ds.MaxDims[i] = c.Length()
		}
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("dataspace: %w", err)
	}
	if _, err := ds.NumElements(); err != nil {
		return nil, err
	}
	return ds, nil
}
