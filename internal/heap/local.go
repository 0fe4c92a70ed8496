// Package heap reads HDF5 local and global heaps.
//
// Local heaps hold the member names of old-style groups. Global heap
// collections hold variable-length data such as vlen strings.
package heap

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5shard/internal/binary"
)

// ErrInvalidHeap is returned for heaps with a bad signature or layout.
var ErrInvalidHeap = errors.New("invalid heap")

// LocalHeap is an HDF5 local heap.
//
//	0  4  signature "HEAP"
//	4  1  version (0)
//	5  3  reserved
//	8  L  data segment size
//	   L  offset to head of free list
//	   O  data segment address
type LocalHeap struct {
	DataSize    uint64
	FreeOffset  uint64
	DataAddress uint64
	data        []byte
}

// ReadLocal reads the local heap at address, including its data segment.
func ReadLocal(r *binary.Reader, address uint64) (*LocalHeap, error) {
	c, err := r.Cursor(address, 8+2*r.LengthSize()+r.OffsetSize())
	if err != nil {
		return nil, fmt.Errorf("reading local heap at 0x%x: %w", address, err)
	}
	if sig := c.Bytes(4); string(sig) != "HEAP" {
		return nil, fmt.Errorf("%w: local heap signature %q at 0x%x", ErrInvalidHeap, sig, address)
	}
	if v := c.Uint8(); v != 0 {
		return nil, fmt.Errorf("%w: local heap version %d", ErrInvalidHeap, v)
	}
	c.Skip(3)
	h := &LocalHeap{
		DataSize:    c.Length(),
		FreeOffset:  c.Length(),
		DataAddress: c.Offset(),
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("local heap at 0x%x: %w", address, err)
	}
	h.data, err = r.ReadAt(h.DataAddress, int(h.DataSize))
	if err != nil {
		return nil, fmt.Errorf("reading local heap data: %w", err)
	}
	return h, nil
}

// String returns the NUL-terminated string at offset.
func (h *LocalHeap) String(offset uint64) (string, error) {
	if offset >= uint64(len(h.data)) {
		return "", fmt.Errorf("%w: offset %d outside local heap of %d bytes", ErrInvalidHeap, offset, len(h.data))
	}
	b := h.data[offset:]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}
