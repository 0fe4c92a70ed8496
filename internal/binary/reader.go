// Package binary provides low-level binary I/O for HDF5 file parsing.
//
// A Reader fetches whole structures from the underlying file with a single
// ReadAt. A Cursor then decodes the fetched bytes field by field, keeping
// the first error it hits so callers check once at the end.
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidSize is returned when an invalid offset or length size is specified.
var ErrInvalidSize = errors.New("invalid offset/length size: must be 2, 4, or 8")

// ErrShortBuffer is recorded by a Cursor that runs past the end of its data.
var ErrShortBuffer = errors.New("structure truncated")

// Config holds reader configuration, typically derived from the superblock.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int // 2, 4, or 8 bytes
	LengthSize int // 2, 4, or 8 bytes
}

// DefaultConfig is used before the superblock has been decoded.
func DefaultConfig() Config {
	return Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: 8,
		LengthSize: 8,
	}
}

// Validate reports whether the configured sizes are usable.
func (c Config) Validate() error {
	for _, n := range []int{c.OffsetSize, c.LengthSize} {
		if n != 2 && n != 4 && n != 8 {
			return fmt.Errorf("%w: got %d", ErrInvalidSize, n)
		}
	}
	return nil
}

// Reader reads file structures with the variable-width addresses and
// lengths declared by the superblock. It is stateless and safe for
// concurrent use when the underlying io.ReaderAt is.
type Reader struct {
	r          io.ReaderAt
	order      binary.ByteOrder
	offsetSize int
	lengthSize int
}

// NewReader creates a binary reader with the given configuration.
func NewReader(r io.ReaderAt, cfg Config) *Reader {
	order := cfg.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}
	return &Reader{
		r:          r,
		order:      order,
		offsetSize: cfg.OffsetSize,
		lengthSize: cfg.LengthSize,
	}
}

// ReadAt reads exactly n bytes at the given file address.
func (r *Reader) ReadAt(addr uint64, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read size %d at 0x%x", n, addr)
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	got, err := r.r.ReadAt(buf, int64(addr))
	if got == n {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("reading %d bytes at 0x%x: %w", n, addr, err)
}

// Cursor reads n bytes at addr and returns a cursor over them.
func (r *Reader) Cursor(addr uint64, n int) (*Cursor, error) {
	buf, err := r.ReadAt(addr, n)
	if err != nil {
		return nil, err
	}
	return r.Wrap(buf), nil
}

// Wrap returns a cursor over an in-memory buffer using the reader's sizes.
func (r *Reader) Wrap(buf []byte) *Cursor {
	return &Cursor{
		buf:        buf,
		order:      r.order,
		offsetSize: r.offsetSize,
		lengthSize: r.lengthSize,
	}
}

// IsUndefined reports whether addr is the all-ones "undefined address".
func (r *Reader) IsUndefined(addr uint64) bool {
	return addr == undefined(r.offsetSize)
}

// OffsetSize returns the configured offset size in bytes.
func (r *Reader) OffsetSize() int { return r.offsetSize }

// LengthSize returns the configured length size in bytes.
func (r *Reader) LengthSize() int { return r.lengthSize }

// ByteOrder returns the configured byte order.
func (r *Reader) ByteOrder() binary.ByteOrder { return r.order }

// Cursor decodes fields from a byte slice. The first out-of-range access
// records ErrShortBuffer; every later accessor returns zero values.
type Cursor struct {
	buf        []byte
	pos        int
	order      binary.ByteOrder
	offsetSize int
	lengthSize int
	err        error
}

// NewCursor returns a cursor over buf with the given layout.
func NewCursor(buf []byte, cfg Config) *Cursor {
	order := cfg.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}
	return &Cursor{buf: buf, order: order, offsetSize: cfg.OffsetSize, lengthSize: cfg.LengthSize}
}

func (c *Cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.pos+n > len(c.buf) {
		c.err = fmt.Errorf("%w: need %d bytes at %d, have %d", ErrShortBuffer, n, c.pos, len(c.buf))
		return nil
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

// Err returns the first error encountered by the cursor.
func (c *Cursor) Err() error { return c.err }

// Pos returns the offset of the next unread byte.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the total size of the underlying buffer.
func (c *Cursor) Len() int { return len(c.buf) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	if c.pos >= len(c.buf) {
		return 0
	}
	return len(c.buf) - c.pos
}

// Uint8 reads an unsigned 8-bit integer.
func (c *Cursor) Uint8() uint8 {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Uint16 reads an unsigned 16-bit integer.
func (c *Cursor) Uint16() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return c.order.Uint16(b)
}

// Uint32 reads an unsigned 32-bit integer.
func (c *Cursor) Uint32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return c.order.Uint32(b)
}

// Uint64 reads an unsigned 64-bit integer.
func (c *Cursor) Uint64() uint64 {
	b := c.take(8)
	if b == nil {
		return 0
	}
	return c.order.Uint64(b)
}

// UintN reads an unsigned integer n bytes wide.
func (c *Cursor) UintN(n int) uint64 {
	b := c.take(n)
	if b == nil {
		return 0
	}
	return DecodeUint(b, c.order)
}

// Offset reads a file address using the configured offset size.
func (c *Cursor) Offset() uint64 { return c.UintN(c.offsetSize) }

// Length reads a length using the configured length size.
func (c *Cursor) Length() uint64 { return c.UintN(c.lengthSize) }

// Bytes returns the next n bytes. The slice aliases the cursor's buffer.
func (c *Cursor) Bytes(n int) []byte { return c.take(n) }

// Rest returns every unread byte.
func (c *Cursor) Rest() []byte { return c.take(c.Remaining()) }

// Skip advances the position by n bytes.
func (c *Cursor) Skip(n int) { c.take(n) }

// Align advances to the next multiple of n, relative to the buffer start.
// Alignment never fails: it stops at the end of the buffer.
func (c *Cursor) Align(n int) {
	if n <= 1 || c.err != nil {
		return
	}
	if rem := c.pos % n; rem != 0 {
		c.pos += n - rem
	}
	if c.pos > len(c.buf) {
		c.pos = len(c.buf)
	}
}

// Sub returns a cursor over the next n bytes and advances past them.
func (c *Cursor) Sub(n int) *Cursor {
	b := c.take(n)
	sub := &Cursor{buf: b, order: c.order, offsetSize: c.offsetSize, lengthSize: c.lengthSize}
	if b == nil {
		sub.err = c.err
	}
	return sub
}

// IsUndefined reports whether addr is the all-ones "undefined address".
func (c *Cursor) IsUndefined(addr uint64) bool {
	return addr == undefined(c.offsetSize)
}

// OffsetSize returns the configured offset size in bytes.
func (c *Cursor) OffsetSize() int { return c.offsetSize }

// LengthSize returns the configured length size in bytes.
func (c *Cursor) LengthSize() int { return c.lengthSize }

// DecodeUint decodes an unsigned integer of len(b) bytes.
func DecodeUint(b []byte, order binary.ByteOrder) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	case 8:
		return order.Uint64(b)
	}
	var v uint64
	if order == binary.BigEndian {
		for _, x := range b {
			v = v<<8 | uint64(x)
		}
		return v
	}
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func undefined(size int) uint64 {
	if size >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(uint(size)*8) - 1
}
