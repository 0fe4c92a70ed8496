package message

import (
	"bytes"
	"fmt"

	binpkg "github.com/robert-malhotra/h5shard/internal/binary"
)

// Type is an object header message type.
type Type uint16

const (
	TypeNIL                      Type = 0x0000
	TypeDataspace                Type = 0x0001
	TypeLinkInfo                 Type = 0x0002
	TypeDatatype                 Type = 0x0003
	TypeFillValueOld             Type = 0x0004
	TypeFillValue                Type = 0x0005
	TypeLink                     Type = 0x0006
	TypeExternalDataFiles        Type = 0x0007
	TypeDataLayout               Type = 0x0008
	TypeBogus                    Type = 0x0009
	TypeGroupInfo                Type = 0x000A
	TypeFilterPipeline           Type = 0x000B
	TypeAttribute                Type = 0x000C
	TypeObjectComment            Type = 0x000D
	TypeObjectModTimeOld         Type = 0x000E
	TypeSharedMessageTable       Type = 0x000F
	TypeObjectHeaderContinuation Type = 0x0010
	TypeSymbolTable              Type = 0x0011
	TypeObjectModTime            Type = 0x0012
	TypeBTreeKValues             Type = 0x0013
	TypeDriverInfo               Type = 0x0014
	TypeAttributeInfo            Type = 0x0015
	TypeObjectRefCount           Type = 0x0016
)

// FlagShared marks a message stored in the shared message heap or a
// committed object rather than inline.
const FlagShared = 0x02

// Message is a decoded object header message.
type Message interface {
	Type() Type
}

// Parse decodes the body of a message of the given type. Types the reader
// has no use for come back as *Unknown.
func Parse(typ Type, data []byte, r *binpkg.Reader) (Message, error) {
	c := r.Wrap(data)
	var (
		msg Message
		err error
	)
	switch typ {
	case TypeDataspace:
		msg, err = parseDataspace(c)
	case TypeDatatype:
		msg, err = parseDatatype(c)
	case TypeDataLayout:
		msg, err = parseDataLayout(c)
	case TypeFilterPipeline:
		msg, err = parseFilterPipeline(c)
	case TypeAttribute:
		msg, err = parseAttribute(c)
	case TypeLink:
		msg, err = parseLink(c)
	case TypeLinkInfo:
		msg, err = parseLinkInfo(c)
	case TypeAttributeInfo:
		msg, err = parseAttributeInfo(c)
	case TypeSymbolTable:
		msg, err = parseSymbolTable(c)
	case TypeObjectHeaderContinuation:
		msg, err = parseContinuation(c)
	default:
		return &Unknown{typ: typ, data: data}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("message 0x%04x: %w", uint16(typ), err)
	}
	return msg, nil
}

// Unknown holds the raw body of a message type that is not decoded.
type Unknown struct {
	typ  Type
	data []byte
}

func (m *Unknown) Type() Type   { return m.typ }
func (m *Unknown) Data() []byte { return m.data }

// Continuation points at a further block of header messages.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeObjectHeaderContinuation }

func parseContinuation(c *binpkg.Cursor) (*Continuation, error) {
	m := &Continuation{Offset: c.Offset(), Length: c.Length()}
	return m, c.Err()
}

// cstring returns b up to its first NUL byte.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
