package object

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5shard/internal/binary"
	"github.com/robert-malhotra/h5shard/internal/message"
)

// Errors
var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
	ErrSharedMessage      = errors.New("shared message in shared message heap not supported")
)

// maxChunks bounds the number of continuation blocks followed for one
// header, which also breaks continuation cycles in corrupt files.
const maxChunks = 4096

type rawMessage struct {
	typ   message.Type
	flags uint8
	data  []byte
}

// Header is a parsed object header. Message bodies are kept raw and decoded
// on request.
type Header struct {
	Version  uint8
	Address  uint64
	Flags    uint8
	RefCount uint32
	ModTime  uint32 // v2 with stored timestamps only

	r    *binary.Reader
	msgs []rawMessage
}

// Read parses the object header at address.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	peek, err := r.ReadAt(address, 4)
	if err != nil {
		return nil, fmt.Errorf("reading object header at 0x%x: %w", address, err)
	}
	h := &Header{Address: address, r: r}
	switch {
	case string(peek) == "OHDR":
		err = h.readV2()
	case peek[0] == 1:
		err = h.readV1()
	default:
		return nil, fmt.Errorf("%w: unknown format at 0x%x", ErrInvalidHeader, address)
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Types returns the type of every message in header order.
func (h *Header) Types() []message.Type {
	out := make([]message.Type, len(h.msgs))
	for i, m := range h.msgs {
		out[i] = m.typ
	}
	return out
}

// Has reports whether the header holds a message of the given type.
func (h *Header) Has(typ message.Type) bool {
	for _, m := range h.msgs {
		if m.typ == typ {
			return true
		}
	}
	return false
}

// Message decodes the first message of the given type. It returns nil and
// no error when the header has none.
func (h *Header) Message(typ message.Type) (message.Message, error) {
	for _, m := range h.msgs {
		if m.typ == typ {
			return h.decode(m)
		}
	}
	return nil, nil
}

// Messages decodes every message of the given type.
func (h *Header) Messages(typ message.Type) ([]message.Message, error) {
	var out []message.Message
	for _, m := range h.msgs {
		if m.typ != typ {
			continue
		}
		msg, err := h.decode(m)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func (h *Header) decode(m rawMessage) (message.Message, error) {
	if m.flags&message.FlagShared != 0 {
		return h.resolveShared(m)
	}
	return message.Parse(m.typ, m.data, h.r)
}

// resolveShared follows a shared message to the committed object that
// holds it. Messages in the shared message heap are not followed.
//
//	v1:   version, type, reserved(6), reserved(L), address
//	v2/3: version, type, address or heap id
func (h *Header) resolveShared(m rawMessage) (message.Message, error) {
	c := h.r.Wrap(m.data)
	version := c.Uint8()
	kind := c.Uint8()
	switch version {
	case 1:
		c.Skip(6 + c.LengthSize())
	case 2, 3:
		if version == 3 && kind == 1 {
			return nil, fmt.Errorf("message 0x%04x: %w", uint16(m.typ), ErrSharedMessage)
		}
	default:
		return nil, fmt.Errorf("message 0x%04x: unsupported shared message version %d", uint16(m.typ), version)
	}
	addr := c.Offset()
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("shared message 0x%04x: %w", uint16(m.typ), err)
	}
	if addr == h.Address {
		return nil, fmt.Errorf("%w: shared message refers to its own header", ErrInvalidHeader)
	}
	target, err := Read(h.r, addr)
	if err != nil {
		return nil, fmt.Errorf("shared message target: %w", err)
	}
	for _, tm := range target.msgs {
		if tm.typ == m.typ && tm.flags&message.FlagShared == 0 {
			return message.Parse(tm.typ, tm.data, h.r)
		}
	}
	return nil, fmt.Errorf("%w: shared message 0x%04x missing from 0x%x", ErrInvalidHeader, uint16(m.typ), addr)
}

func first[T message.Message](h *Header, typ message.Type) (T, error) {
	var zero T
	msg, err := h.Message(typ)
	if err != nil || msg == nil {
		return zero, err
	}
	v, ok := msg.(T)
	if !ok {
		return zero, fmt.Errorf("%w: message 0x%04x decoded as %T", ErrInvalidHeader, uint16(typ), msg)
	}
	return v, nil
}

func all[T message.Message](h *Header, typ message.Type) ([]T, error) {
	msgs, err := h.Messages(typ)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(msgs))
	for _, msg := range msgs {
		v, ok := msg.(T)
		if !ok {
			return nil, fmt.Errorf("%w: message 0x%04x decoded as %T", ErrInvalidHeader, uint16(typ), msg)
		}
		out = append(out, v)
	}
	return out, nil
}

// Dataspace returns the dataspace message, or nil if absent.
func (h *Header) Dataspace() (*message.Dataspace, error) {
	return first[*message.Dataspace](h, message.TypeDataspace)
}

// Datatype returns the datatype message, or nil if absent.
func (h *Header) Datatype() (*message.Datatype, error) {
	return first[*message.Datatype](h, message.TypeDatatype)
}

// DataLayout returns the data layout message, or nil if absent.
func (h *Header) DataLayout() (*message.DataLayout, error) {
	return first[*message.DataLayout](h, message.TypeDataLayout)
}

// FilterPipeline returns the filter pipeline message, or nil if absent.
func (h *Header) FilterPipeline() (*message.FilterPipeline, error) {
	return first[*message.FilterPipeline](h, message.TypeFilterPipeline)
}

func (h *Header) SymbolTable() (*message.SymbolTable, error) {
	return first[*message.SymbolTable](h, message.TypeSymbolTable)
}

func (h *Header) LinkInfo() (*message.LinkInfo, error) {
	return first[*message.LinkInfo](h, message.TypeLinkInfo)
}

func (h *Header) AttributeInfo() (*message.AttributeInfo, error) {
	return first[*message.AttributeInfo](h, message.TypeAttributeInfo)
}

// Links returns the link messages of a compact new-style group.
func (h *Header) Links() ([]*message.Link, error) {
	return all[*message.Link](h, message.TypeLink)
}

// Attributes returns the attribute messages stored in the header.
func (h *Header) Attributes() ([]*message.Attribute, error) {
	return all[*message.Attribute](h, message.TypeAttribute)
}

// IsGroup reports whether the header describes a group.
func (h *Header) IsGroup() bool {
	return h.Has(message.TypeSymbolTable) || h.Has(message.TypeLinkInfo) ||
		(h.Has(message.TypeLink) && !h.Has(message.TypeDataLayout))
}

// IsDataset reports whether the header describes a dataset.
func (h *Header) IsDataset() bool {
	return h.Has(message.TypeDataLayout)
}

// IsDatatype reports whether the header is a committed datatype.
func (h *Header) IsDatatype() bool {
	return h.Has(message.TypeDatatype) && !h.Has(message.TypeDataLayout)
}
