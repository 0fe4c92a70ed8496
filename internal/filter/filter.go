// Package filter implements the decode side of HDF5 chunk filters.
//
// Filters are applied to chunked data in reverse order during reading.
// Each filter transforms data from its encoded form to decoded form.
package filter

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5shard/internal/message"
)

// ErrUnsupported is returned when a chunk needs a filter the reader does
// not implement.
var ErrUnsupported = errors.New("unsupported filter")

// Filter is the interface implemented by all HDF5 filters.
type Filter interface {
	// ID returns the filter identifier.
	ID() uint16

	// Decode transforms encoded data to decoded form.
	Decode(input []byte) ([]byte, error)
}

// Registry maps filter IDs to filter constructors.
var Registry = map[uint16]func(cd []uint32, elemSize int) Filter{
	message.FilterDeflate:    func(cd []uint32, _ int) Filter { return NewDeflate(cd) },
	message.FilterShuffle:    func(cd []uint32, n int) Filter { return NewShuffle(cd, n) },
	message.FilterFletcher32: func([]uint32, int) Filter { return Fletcher32{} },
}

var filterNames = map[uint16]string{
	message.FilterDeflate:     "deflate",
	message.FilterShuffle:     "shuffle",
	message.FilterFletcher32:  "fletcher32",
	message.FilterSZIP:        "szip",
	message.FilterNBit:        "nbit",
	message.FilterScaleOffset: "scaleoffset",
	32000:                     "lzf",
	32001:                     "blosc",
	32004:                     "lz4",
	32008:                     "bitshuffle",
	32015:                     "zstd",
}

// Name returns a readable name for a filter ID.
func Name(id uint16) string {
	if n, ok := filterNames[id]; ok {
		return n
	}
	return fmt.Sprintf("filter %d", id)
}

// New creates a filter from a FilterInfo. Filters without a decoder
// come back as a stub that fails when a chunk actually needs it.
func New(info message.FilterInfo, elemSize int) Filter {
	ctor, ok := Registry[info.ID]
	if !ok {
		return missing{id: info.ID, name: info.Name}
	}
	return ctor(info.ClientData, elemSize)
}

type missing struct {
	id   uint16
	name string
}

func (m missing) ID() uint16 { return m.id }

func (m missing) Decode([]byte) ([]byte, error) {
	name := m.name
	if name == "" {
		name = Name(m.id)
	}
	return nil, fmt.Errorf("%w: %s (id %d)", ErrUnsupported, name, m.id)
}
