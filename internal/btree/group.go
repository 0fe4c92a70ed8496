package btree

import (
	"fmt"

	"github.com/robert-malhotra/h5shard/internal/binary"
	"github.com/robert-malhotra/h5shard/internal/heap"
)

// Cache types of a symbol table entry.
const (
	CacheNone        = 0
	CacheSymbolTable = 1 // scratch holds the group's B-tree and heap
	CacheSoftLink    = 2 // scratch holds the link value's heap offset
)

// GroupEntry is one member of an old-style group.
type GroupEntry struct {
	Name          string
	ObjectAddress uint64
	CacheType     uint32
	SoftTarget    string
}

// IsSoft reports whether the entry is a soft link.
func (e GroupEntry) IsSoft() bool { return e.CacheType == CacheSoftLink }

// ReadGroupEntries returns the members of the group whose B-tree is at
// address, with names resolved through its local heap.
func ReadGroupEntries(r *binary.Reader, address uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	var entries []GroupEntry
	err := walk(r, address, TypeGroup, r.LengthSize(), 0, func(_ *binary.Cursor, snod uint64) error {
		got, err := readSymbolNode(r, snod, names)
		if err != nil {
			return err
		}
		entries = append(entries, got...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// readSymbolNode decodes a symbol table node.
//
//	0  4  signature "SNOD"
//	4  1  version (1)
//	5  1  reserved
//	6  2  number of symbols
//	8     entries of name offset(O), header address(O), cache type(4),
//	      reserved(4), scratch(16)
func readSymbolNode(r *binary.Reader, address uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	c, err := r.Cursor(address, 8)
	if err != nil {
		return nil, fmt.Errorf("reading symbol table node at 0x%x: %w", address, err)
	}
	if sig := c.Bytes(4); string(sig) != "SNOD" {
		return nil, fmt.Errorf("%w: symbol table node signature %q at 0x%x", ErrInvalidNode, sig, address)
	}
	if v := c.Uint8(); v != 1 {
		return nil, fmt.Errorf("%w: symbol table node version %d", ErrInvalidNode, v)
	}
	c.Skip(1)
	n := int(c.Uint16())

	entrySize := 2*r.OffsetSize() + 24
	ec, err := r.Cursor(address+8, n*entrySize)
	if err != nil {
		return nil, fmt.Errorf("reading symbol table entries at 0x%x: %w", address, err)
	}
	entries := make([]GroupEntry, 0, n)
	for i := 0; i < n; i++ {
		nameOff := ec.Offset()
		e := GroupEntry{ObjectAddress: ec.Offset(), CacheType: ec.Uint32()}
		ec.Skip(4)
		scratch := ec.Sub(16)
		if err := ec.Err(); err != nil {
			return nil, fmt.Errorf("symbol table node at 0x%x: %w", address, err)
		}
		if e.Name, err = names.String(nameOff); err != nil {
			return nil, err
		}
		if e.CacheType == CacheSoftLink {
			if e.SoftTarget, err = names.String(uint64(scratch.Uint32())); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
