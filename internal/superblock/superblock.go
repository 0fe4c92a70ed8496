package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/h5shard/internal/binary"
)

// Signature is the 8-byte HDF5 format signature.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// searchOffsets are the locations probed for a superblock. HDF5 allows a
// user block before it, sized in powers of two from 512 bytes.
var searchOffsets = []int64{0, 512, 1024, 2048, 4096, 8192}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock structure")
	ErrChecksum           = errors.New("superblock checksum mismatch")
)

// Superblock holds the fields the reader needs from any superblock version.
type Superblock struct {
	Version    uint8
	OffsetSize uint8
	LengthSize uint8
	Flags      uint8

	// Offset is where the signature was found in the file.
	Offset int64

	BaseAddress      uint64
	ExtensionAddress uint64
	EOFAddress       uint64

	// RootAddress is the object header address of the root group.
	RootAddress uint64

	// Symbol table addresses cached in the root entry scratch pad (v0/v1).
	// Zero when the entry carries no cache.
	RootBTreeAddress uint64
	RootHeapAddress  uint64

	GroupLeafK      uint16
	GroupInternalK  uint16
	IndexedStorageK uint16
}

// Read locates and decodes the superblock.
func Read(r io.ReaderAt) (*Superblock, error) {
	probe := make([]byte, 9)
	for _, off := range searchOffsets {
		n, err := r.ReadAt(probe, off)
		if n < len(probe) {
			if err == nil || err == io.EOF {
				break
			}
			return nil, err
		}
		if !bytes.Equal(probe[:8], Signature) {
			continue
		}

		var sb *Superblock
		switch v := probe[8]; v {
		case 0, 1:
			sb, err = readLegacy(r, off, v)
		case 2, 3:
			sb, err = readCompact(r, off, v)
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
		}
		if err != nil {
			return nil, err
		}
		sb.Offset = off
		return sb, nil
	}
	return nil, ErrNotHDF5
}

// ReaderConfig returns the binary reader configuration for this file.
func (sb *Superblock) ReaderConfig() binpkg.Config {
	return binpkg.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

// readLegacy decodes superblock versions 0 and 1.
//
//	0   8  signature
//	8   1  version
//	9   4  free-space, root entry, reserved, shared header versions
//	13  1  size of offsets
//	14  1  size of lengths
//	15  1  reserved
//	16  2  group leaf node K
//	18  2  group internal node K
//	20  4  file consistency flags
//	24  4  indexed storage K + reserved (version 1 only)
//	..  4O base, free-space, EOF, driver info addresses
//	..  .. root group symbol table entry
func readLegacy(r io.ReaderAt, off int64, version uint8) (*Superblock, error) {
	head := make([]byte, 24)
	if _, err := r.ReadAt(head, off); err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	sb := &Superblock{
		Version:        version,
		OffsetSize:     head[13],
		LengthSize:     head[14],
		GroupLeafK:     binary.LittleEndian.Uint16(head[16:18]),
		GroupInternalK: binary.LittleEndian.Uint16(head[18:20]),
		Flags:          head[20],
	}
	cfg := sb.ReaderConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}

	o := int(sb.OffsetSize)
	extra := 0
	if version == 1 {
		extra = 4
	}
	// addresses, then the root entry: name offset, header address,
	// cache type, reserved, 16-byte scratch pad
	size := extra + 4*o + 2*o + 8 + 16
	body := make([]byte, size)
	if _, err := r.ReadAt(body, off+24); err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}

	c := binpkg.NewCursor(body, cfg)
	if version == 1 {
		sb.IndexedStorageK = c.Uint16()
		c.Skip(2)
	}
	sb.BaseAddress = c.Offset()
	c.Offset() // free-space info
	sb.EOFAddress = c.Offset()
	c.Offset() // driver info

	c.Offset() // link name offset
	sb.RootAddress = c.Offset()
	cacheType := c.Uint32()
	c.Skip(4)
	if cacheType == 1 {
		sb.RootBTreeAddress = c.Offset()
		sb.RootHeapAddress = c.Offset()
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}
	return sb, nil
}

// readCompact decodes superblock versions 2 and 3.
//
//	0   8  signature
//	8   1  version
//	9   1  size of offsets
//	10  1  size of lengths
//	11  1  file consistency flags
//	12  4O base, extension, EOF, root object header addresses
//	..  4  lookup3 checksum of everything before it
func readCompact(r io.ReaderAt, off int64, version uint8) (*Superblock, error) {
	head := make([]byte, 12)
	if _, err := r.ReadAt(head, off); err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	sb := &Superblock{
		Version:    version,
		OffsetSize: head[9],
		LengthSize: head[10],
		Flags:      head[11],
	}
	cfg := sb.ReaderConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}

	total := 12 + 4*int(sb.OffsetSize) + 4
	buf := make([]byte, total)
	if _, err := r.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	stored := binary.LittleEndian.Uint32(buf[total-4:])
	if sum := binpkg.Lookup3Checksum(buf[:total-4]); sum != stored {
		return nil, fmt.Errorf("%w: stored 0x%08x, computed 0x%08x", ErrChecksum, stored, sum)
	}

	c := binpkg.NewCursor(buf[12:total-4], cfg)
	sb.BaseAddress = c.Offset()
	sb.ExtensionAddress = c.Offset()
	sb.EOFAddress = c.Offset()
	sb.RootAddress = c.Offset()
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}
	return sb, nil
}
