package message

import (
	"fmt"

	binpkg "github.com/robert-malhotra/h5shard/internal/binary"
)

// Filter IDs
const (
	FilterDeflate     uint16 = 1 // DEFLATE (gzip)
	FilterShuffle     uint16 = 2 // Byte shuffle
	FilterFletcher32  uint16 = 3 // Fletcher32 checksum
	FilterSZIP        uint16 = 4 // SZIP compression
	FilterNBit        uint16 = 5 // N-bit packing
	FilterScaleOffset uint16 = 6 // Scale + offset
)

// FilterInfo describes a single filter in the pipeline.
type FilterInfo struct {
	ID         uint16
	Flags      uint16 // bit 0: optional
	Name       string
	ClientData []uint32
}

// IsOptional reports whether a chunk may skip this filter.
func (f *FilterInfo) IsOptional() bool {
	return f.Flags&0x01 != 0
}

// FilterPipeline represents a filter pipeline message (type 0x000B).
type FilterPipeline struct {
	Version uint8
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

// HasFilter reports whether the pipeline contains the given filter ID.
func (m *FilterPipeline) HasFilter(id uint16) bool {
	for _, f := range m.Filters {
		if f.ID == id {
			return true
		}
	}
	return false
}

func parseFilterPipeline(c *binpkg.Cursor) (*FilterPipeline, error) {
	p := &FilterPipeline{Version: c.Uint8()}
	n := int(c.Uint8())
	switch p.Version {
	case 1:
		c.Skip(6)
	case 2:
	default:
		return nil, fmt.Errorf("unsupported filter pipeline version %d", p.Version)
	}

	p.Filters = make([]FilterInfo, 0, n)
	for i := 0; i < n; i++ {
		var f FilterInfo
		f.ID = c.Uint16()
		nameLen := 0
		if p.Version == 1 || f.ID >= 256 {
			nameLen = int(c.Uint16())
		}
		f.Flags = c.Uint16()
		ncd := int(c.Uint16())
		if nameLen > 0 {
			f.Name = cstring(c.Bytes(nameLen))
			if p.Version == 1 && nameLen%8 != 0 {
				c.Skip(8 - nameLen%8)
			}
		}
		f.ClientData = make([]uint32, ncd)
		for j := range f.ClientData {
			f.ClientData[j] = c.Uint32()
		}
		if p.Version == 1 && ncd%2 == 1 {
			c.Skip(4)
		}
		if err := c.Err(); err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		p.Filters = append(p.Filters, f)
	}
	return p, nil
}
