package message

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/h5shard/internal/binary"
)

// DatatypeClass represents the class of an HDF5 datatype.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = 0  // Integers
	ClassFloatPoint DatatypeClass = 1  // Floating-point
	ClassTime       DatatypeClass = 2  // Time (rarely used)
	ClassString     DatatypeClass = 3  // Strings
	ClassBitfield   DatatypeClass = 4  // Bitfields
	ClassOpaque     DatatypeClass = 5  // Opaque data
	ClassCompound   DatatypeClass = 6  // Compound types (structs)
	ClassReference  DatatypeClass = 7  // References to objects/regions
	ClassEnum       DatatypeClass = 8  // Enumerated types
	ClassVarLen     DatatypeClass = 9  // Variable-length data
	ClassArray      DatatypeClass = 10 // Fixed-size arrays
)

var classNames = [...]string{
	"integer", "float", "time", "string", "bitfield", "opaque",
	"compound", "reference", "enum", "vlen", "array",
}

func (c DatatypeClass) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// StringPadding represents how fixed-length strings are padded.
type StringPadding uint8

const (
	PadNullTerm StringPadding = 0
	PadNullPad  StringPadding = 1
	PadSpacePad StringPadding = 2
)

// CharacterSet represents the character encoding of string data.
type CharacterSet uint8

const (
	CharsetASCII CharacterSet = 0
	CharsetUTF8  CharacterSet = 1
)

// Datatype represents a datatype message (type 0x0003).
type Datatype struct {
	Version   uint8
	Class     DatatypeClass
	ClassBits uint32
	Size      uint32

	ByteOrder binary.ByteOrder

	// Fixed-point and bitfield
	BitOffset    uint16
	BitPrecision uint16
	Signed       bool

	// Strings, including variable-length strings
	Padding StringPadding
	Charset CharacterSet

	// Variable-length: true for strings, false for sequences
	VarLenString bool

	// Enum, vlen and array element type
	Base *Datatype

	// Enum members, in declaration order
	EnumNames  []string
	EnumValues [][]byte

	// Array dimensions
	ArrayDims []uint32

	Members []CompoundMember
}

// CompoundMember is one field of a compound type.
type CompoundMember struct {
	Name     string
	Offset   uint32
	Datatype *Datatype
}

func (m *Datatype) Type() Type { return TypeDatatype }

// IsVarLenString reports whether elements are variable-length strings.
func (m *Datatype) IsVarLenString() bool {
	return m.Class == ClassVarLen && m.VarLenString
}

func (m *Datatype) String() string {
	switch m.Class {
	case ClassFixedPoint:
		if m.Signed {
			return fmt.Sprintf("int%d", m.Size*8)
		}
		return fmt.Sprintf("uint%d", m.Size*8)
	case ClassFloatPoint:
		return fmt.Sprintf("float%d", m.Size*8)
	case ClassString:
		return fmt.Sprintf("string[%d]", m.Size)
	case ClassVarLen:
		if m.VarLenString {
			return "vlen string"
		}
		if m.Base != nil {
			return "vlen " + m.Base.String()
		}
	case ClassEnum:
		if m.Base != nil {
			return "enum " + m.Base.String()
		}
	}
	return m.Class.String()
}

func parseDatatype(c *binpkg.Cursor) (*Datatype, error) {
	dt, err := decodeDatatype(c, 0)
	if err != nil {
		return nil, err
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("datatype: %w", err)
	}
	return dt, nil
}

const maxTypeDepth = 16

func decodeDatatype(c *binpkg.Cursor, depth int) (*Datatype, error) {
	if depth > maxTypeDepth {
		return nil, fmt.Errorf("datatype nested too deeply")
	}
	head := c.Uint8()
	b := c.Bytes(3)
	size := c.Uint32()
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("datatype header: %w", err)
	}

	dt := &Datatype{
		Version:   head >> 4,
		Class:     DatatypeClass(head & 0x0F),
		ClassBits: uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16,
		Size:      size,
		ByteOrder: binary.LittleEndian,
	}
	if dt.Version < 1 || dt.Version > 4 {
		return nil, fmt.Errorf("unsupported datatype version %d", dt.Version)
	}

	switch dt.Class {
	case ClassFixedPoint, ClassBitfield:
		if dt.ClassBits&0x01 != 0 {
			dt.ByteOrder = binary.BigEndian
		}
		dt.Signed = dt.Class == ClassFixedPoint && dt.ClassBits&0x08 != 0
		dt.BitOffset = c.Uint16()
		dt.BitPrecision = c.Uint16()

	case ClassFloatPoint:
		switch dt.ClassBits & 0x41 {
		case 0x00:
		case 0x01:
			dt.ByteOrder = binary.BigEndian
		default:
			return nil, fmt.Errorf("VAX float byte order not supported")
		}
		// bit offset, precision, exponent/mantissa layout, bias
		c.Skip(12)

	case ClassTime:
		c.Skip(2)

	case ClassString:
		dt.Padding = StringPadding(dt.ClassBits & 0x0F)
		dt.Charset = CharacterSet((dt.ClassBits >> 4) & 0x0F)

	case ClassOpaque:
		tag := int(dt.ClassBits & 0xFF)
		c.Skip(tag)
		c.Align(8)

	case ClassReference:

	case ClassEnum:
		base, err := decodeDatatype(c, depth+1)
		if err != nil {
			return nil, fmt.Errorf("enum base: %w", err)
		}
		dt.Base = base
		n := int(dt.ClassBits & 0xFFFF)
		dt.EnumNames = make([]string, n)
		for i := range dt.EnumNames {
			dt.EnumNames[i] = readName(c, dt.Version < 3)
		}
		dt.EnumValues = make([][]byte, n)
		for i := range dt.EnumValues {
			dt.EnumValues[i] = c.Bytes(int(base.Size))
		}

	case ClassVarLen:
		dt.VarLenString = dt.ClassBits&0x0F == 1
		dt.Padding = StringPadding((dt.ClassBits >> 8) & 0x0F)
		dt.Charset = CharacterSet((dt.ClassBits >> 12) & 0x0F)
		base, err := decodeDatatype(c, depth+1)
		if err != nil {
			return nil, fmt.Errorf("vlen base: %w", err)
		}
		dt.Base = base

	case ClassArray:
		rank := int(c.Uint8())
		if dt.Version < 3 {
			c.Skip(3)
		}
		dt.ArrayDims = make([]uint32, rank)
		for i := range dt.ArrayDims {
			dt.ArrayDims[i] = c.Uint32()
		}
		if dt.Version < 3 {
			c.Skip(4 * rank) // permutation indices
		}
		base, err := decodeDatatype(c, depth+1)
		if err != nil {
			return nil, fmt.Errorf("array base: %w", err)
		}
		dt.Base = base

	case ClassCompound:
		if err := decodeCompound(c, dt, depth); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown datatype class %d", dt.Class)
	}
	return dt, c.Err()
}

func decodeCompound(c *binpkg.Cursor, dt *Datatype, depth int) error {
	n := int(dt.ClassBits & 0xFFFF)
	dt.Members = make([]CompoundMember, 0, n)
	for i := 0; i < n; i++ {
		var m CompoundMember
		m.Name = readName(c, dt.Version < 3)
		switch dt.Version {
		case 1, 2:
			m.Offset = c.Uint32()
			// rank, reserved, permutation, reserved, dims
			c.Skip(1 + 3 + 4 + 4 + 16)
		default:
			m.Offset = uint32(c.UintN(offsetWidth(dt.Size)))
		}
		mt, err := decodeDatatype(c, depth+1)
		if err != nil {
			return fmt.Errorf("compound member %q: %w", m.Name, err)
		}
		m.Datatype = mt
		dt.Members = append(dt.Members, m)
	}
	return c.Err()
}

// offsetWidth is the number of bytes needed to store offsets into a
// compound of the given size.
func offsetWidth(size uint32) int {
	switch {
	case size < 1<<8:
		return 1
	case size < 1<<16:
		return 2
	case size < 1<<24:
		return 3
	}
	return 4
}

// readName reads a NUL-terminated name, optionally padded to a multiple of
// eight bytes measured from the start of the name.
func readName(c *binpkg.Cursor, padded bool) string {
	start := c.Pos()
	var name []byte
	for c.Remaining() > 0 {
		b := c.Uint8()
		if b == 0 {
			break
		}
		name = append(name, b)
	}
	if padded {
		if n := (c.Pos() - start) % 8; n != 0 {
			c.Skip(8 - n)
		}
	}
	return string(name)
}
