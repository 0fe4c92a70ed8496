package object

import (
	"fmt"

	"github.com/robert-malhotra/h5shard/internal/binary"
	"github.com/robert-malhotra/h5shard/internal/message"
)

/*
Version 1 object header:

	0   1  version (1)
	1   1  reserved
	2   2  number of messages
	4   4  reference count
	8   4  header size
	12  4  padding to 8 bytes
	16     messages

Each v1 message is type(2), size(2), flags(1), reserved(3) and a body
padded to 8 bytes.
*/
func (h *Header) readV1() error {
	c, err := h.r.Cursor(h.Address, 16)
	if err != nil {
		return fmt.Errorf("object header v1 at 0x%x: %w", h.Address, err)
	}
	h.Version = c.Uint8()
	c.Skip(1)
	nmsgs := int(c.Uint16())
	h.RefCount = c.Uint32()
	size := int(c.Uint32())

	type block struct {
		addr uint64
		size int
	}
	queue := []block{{h.Address + 16, size}}
	seen := 0
	for i := 0; len(queue) > 0; i++ {
		if i >= maxChunks {
			return fmt.Errorf("%w: too many continuation blocks", ErrInvalidHeader)
		}
		b := queue[0]
		queue = queue[1:]
		buf, err := h.r.ReadAt(b.addr, b.size)
		if err != nil {
			return fmt.Errorf("object header v1 block at 0x%x: %w", b.addr, err)
		}
		c := h.r.Wrap(buf)
		for c.Remaining() >= 8 && seen < nmsgs {
			seen++
			typ := message.Type(c.Uint16())
			n := int(c.Uint16())
			flags := c.Uint8()
			c.Skip(3)
			data := c.Bytes(n)
			c.Align(8)
			if err := c.Err(); err != nil {
				return fmt.Errorf("object header v1 at 0x%x: %w", h.Address, err)
			}
			next, err := h.add(typ, flags, data)
			if err != nil {
				return err
			}
			if next != nil {
				queue = append(queue, block{next.Offset, int(next.Length)})
			}
		}
	}
	return nil
}

/*
Version 2 object header:

	0    4    signature "OHDR"
	4    1    version (2)
	5    1    flags
	          bits 0-1: width of the chunk 0 size field (1 << value bytes)
	          bit 2:    messages carry a creation order
	          bit 4:    attribute phase change values stored
	          bit 5:    timestamps stored
	6    16   access, modification, change and birth times (bit 5)
	     4    max compact, min dense attributes (bit 4)
	     1-8  chunk 0 size
	          messages
	     4    checksum

Each v2 message is type(1), size(2), flags(1), creation order(2, bit 2)
and the body. Continuation blocks are "OCHK", messages and a checksum.
*/
func (h *Header) readV2() error {
	pre, err := h.r.ReadAt(h.Address, 6)
	if err != nil {
		return fmt.Errorf("object header v2 at 0x%x: %w", h.Address, err)
	}
	h.Version = pre[4]
	h.Flags = pre[5]
	if h.Version != 2 {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	prefix := 6
	if h.Flags&0x20 != 0 {
		prefix += 16
	}
	if h.Flags&0x10 != 0 {
		prefix += 4
	}
	width := 1 << (h.Flags & 0x03)

	c, err := h.r.Cursor(h.Address, prefix+width)
	if err != nil {
		return fmt.Errorf("object header v2 at 0x%x: %w", h.Address, err)
	}
	c.Skip(6)
	if h.Flags&0x20 != 0 {
		c.Skip(4)
		h.ModTime = c.Uint32()
		c.Skip(8)
	}
	if h.Flags&0x10 != 0 {
		c.Skip(4)
	}
	size := int(c.UintN(width))
	h.RefCount = 1

	buf, err := h.r.ReadAt(h.Address, prefix+width+size+4)
	if err != nil {
		return fmt.Errorf("object header v2 at 0x%x: %w", h.Address, err)
	}
	if err := verify(h.r, buf); err != nil {
		return fmt.Errorf("object header at 0x%x: %w", h.Address, err)
	}

	queue := []*message.Continuation{}
	if err := h.readV2Messages(buf[prefix+width : len(buf)-4], &queue); err != nil {
		return err
	}
	for i := 0; len(queue) > 0; i++ {
		if i >= maxChunks {
			return fmt.Errorf("%w: too many continuation blocks", ErrInvalidHeader)
		}
		cont := queue[0]
		queue = queue[1:]
		if cont.Length < 8 {
			return fmt.Errorf("%w: continuation block of %d bytes", ErrInvalidHeader, cont.Length)
		}
		blk, err := h.r.ReadAt(cont.Offset, int(cont.Length))
		if err != nil {
			return fmt.Errorf("continuation block at 0x%x: %w", cont.Offset, err)
		}
		if string(blk[:4]) != "OCHK" {
			return fmt.Errorf("%w: bad continuation signature at 0x%x", ErrInvalidHeader, cont.Offset)
		}
		if err := verify(h.r, blk); err != nil {
			return fmt.Errorf("continuation block at 0x%x: %w", cont.Offset, err)
		}
		if err := h.readV2Messages(blk[4:len(blk)-4], &queue); err != nil {
			return err
		}
	}
	return nil
}

func (h *Header) readV2Messages(buf []byte, queue *[]*message.Continuation) error {
	hdrLen := 4
	if h.Flags&0x04 != 0 {
		hdrLen += 2
	}
	c := h.r.Wrap(buf)
	// A tail shorter than a message header is a gap.
	for c.Remaining() >= hdrLen {
		typ := message.Type(c.Uint8())
		n := int(c.Uint16())
		flags := c.Uint8()
		if h.Flags&0x04 != 0 {
			c.Skip(2)
		}
		data := c.Bytes(n)
		if err := c.Err(); err != nil {
			return fmt.Errorf("object header v2 at 0x%x: %w", h.Address, err)
		}
		next, err := h.add(typ, flags, data)
		if err != nil {
			return err
		}
		if next != nil {
			*queue = append(*queue, next)
		}
	}
	return nil
}

// add records a message, returning the decoded continuation if it is one.
func (h *Header) add(typ message.Type, flags uint8, data []byte) (*message.Continuation, error) {
	switch typ {
	case message.TypeNIL:
		return nil, nil
	case message.TypeObjectHeaderContinuation:
		msg, err := message.Parse(typ, data, h.r)
		if err != nil {
			return nil, fmt.Errorf("object header at 0x%x: %w", h.Address, err)
		}
		return msg.(*message.Continuation), nil
	}
	h.msgs = append(h.msgs, rawMessage{typ: typ, flags: flags, data: data})
	return nil, nil
}

func verify(r *binary.Reader, buf []byte) error {
	n := len(buf) - 4
	stored := r.ByteOrder().Uint32(buf[n:])
	if sum := binary.Lookup3Checksum(buf[:n]); sum != stored {
		return fmt.Errorf("%w: stored 0x%08x, computed 0x%08x", ErrChecksumMismatch, stored, sum)
	}
	return nil
}
