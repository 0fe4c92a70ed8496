package heap

import (
	"fmt"

	"github.com/robert-malhotra/h5shard/internal/binary"
)

// ID references one object in a global heap collection.
type ID struct {
	Collection uint64
	Index      uint32
}

// Collection is one global heap collection.
//
//	0  4  signature "GCOL"
//	4  1  version (1)
//	5  3  reserved
//	8  L  collection size, header included
//
// followed by objects of index(2), refcount(2), reserved(4), size(L) and
// data padded to 8 bytes. Index 0 is the free space object and ends the
// list.
type Collection struct {
	Address uint64
	Size    uint64
	objects map[uint16][]byte
}

// ReadCollection reads the global heap collection at address.
func ReadCollection(r *binary.Reader, address uint64) (*Collection, error) {
	if address == 0 || r.IsUndefined(address) {
		return nil, fmt.Errorf("%w: global heap address 0x%x", ErrInvalidHeap, address)
	}
	headerSize := 8 + r.LengthSize()
	c, err := r.Cursor(address, headerSize)
	if err != nil {
		return nil, fmt.Errorf("reading global heap at 0x%x: %w", address, err)
	}
	if sig := c.Bytes(4); string(sig) != "GCOL" {
		return nil, fmt.Errorf("%w: global heap signature %q at 0x%x", ErrInvalidHeap, sig, address)
	}
	if v := c.Uint8(); v != 1 {
		return nil, fmt.Errorf("%w: global heap version %d", ErrInvalidHeap, v)
	}
	c.Skip(3)
	size := c.Length()
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("global heap at 0x%x: %w", address, err)
	}
	if size < uint64(headerSize) {
		return nil, fmt.Errorf("%w: global heap collection size %d", ErrInvalidHeap, size)
	}

	body, err := r.ReadAt(address+uint64(headerSize), int(size)-headerSize)
	if err != nil {
		return nil, fmt.Errorf("reading global heap objects: %w", err)
	}
	col := &Collection{Address: address, Size: size, objects: make(map[uint16][]byte)}
	oc := r.Wrap(body)
	for oc.Remaining() >= 8+r.LengthSize() {
		index := oc.Uint16()
		if index == 0 {
			break
		}
		oc.Skip(6) // refcount, reserved
		n := int(oc.Length())
		data := oc.Bytes(n)
		oc.Align(8)
		if err := oc.Err(); err != nil {
			return nil, fmt.Errorf("global heap object %d at 0x%x: %w", index, address, err)
		}
		col.objects[index] = data
	}
	return col, nil
}

// Object returns the data of the object with the given index.
func (c *Collection) Object(index uint32) ([]byte, error) {
	data, ok := c.objects[uint16(index)]
	if !ok || index > 0xFFFF {
		return nil, fmt.Errorf("%w: object %d not in collection 0x%x", ErrInvalidHeap, index, c.Address)
	}
	return data, nil
}

// Len returns the number of objects in the collection.
func (c *Collection) Len() int { return len(c.objects) }

// Global resolves heap IDs, reading each collection once. It is not safe
// for concurrent use.
type Global struct {
	r           *binary.Reader
	collections map[uint64]*Collection
}

// NewGlobal returns a resolver reading collections through r.
func NewGlobal(r *binary.Reader) *Global {
	return &Global{r: r, collections: make(map[uint64]*Collection)}
}

// Get returns the data referenced by id.
func (g *Global) Get(id ID) ([]byte, error) {
	col, ok := g.collections[id.Collection]
	if !ok {
		var err error
		col, err = ReadCollection(g.r, id.Collection)
		if err != nil {
			return nil, err
		}
		g.collections[id.Collection] = col
	}
	return col.Object(id.Index)
}
