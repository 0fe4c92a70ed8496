package message

import (
	"bytes"
	"fmt"

	binpkg "github.com/robert-malhotra/h5shard/internal/binary"
)

// LinkType represents the type of link.
type LinkType uint8

const (
	LinkTypeHard     LinkType = 0
	LinkTypeSoft     LinkType = 1
	LinkTypeExternal LinkType = 64
)

// Link represents a link message (type 0x0006), one member of a group
// stored in compact form.
type Link struct {
	Version       uint8
	LinkType      LinkType
	CreationOrder uint64
	Name          string

	ObjectAddress uint64 // hard
	SoftTarget    string // soft
	ExternalFile  string // external
	ExternalPath  string // external
}

func (m *Link) Type() Type { return TypeLink }

func (m *Link) IsHard() bool     { return m.LinkType == LinkTypeHard }
func (m *Link) IsSoft() bool     { return m.LinkType == LinkTypeSoft }
func (m *Link) IsExternal() bool { return m.LinkType == LinkTypeExternal }

func parseLink(c *binpkg.Cursor) (*Link, error) {
	l := &Link{Version: c.Uint8()}
	if l.Version != 1 {
		return nil, fmt.Errorf("unsupported link version %d", l.Version)
	}
	flags := c.Uint8()
	if flags&0x08 != 0 {
		l.LinkType = LinkType(c.Uint8())
	}
	if flags&0x04 != 0 {
		l.CreationOrder = c.Uint64()
	}
	if flags&0x10 != 0 {
		c.Skip(1) // name charset
	}
	nameLen := int(c.UintN(1 << (flags & 0x03)))
	l.Name = string(c.Bytes(nameLen))

	switch l.LinkType {
	case LinkTypeHard:
		l.ObjectAddress = c.Offset()
	case LinkTypeSoft:
		n := int(c.Uint16())
		l.SoftTarget = string(c.Bytes(n))
	case LinkTypeExternal:
		n := int(c.Uint16())
		v := c.Bytes(n)
		if len(v) > 1 {
			// version/flags byte, then file and path as C strings
			parts := bytes.SplitN(v[1:], []byte{0}, 2)
			l.ExternalFile = string(parts[0])
			if len(parts) == 2 {
				l.ExternalPath = cstring(parts[1])
			}
		}
	default:
		// User-defined link types carry opaque data.
		c.Rest()
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("link: %w", err)
	}
	return l, nil
}

// LinkInfo represents a link info message (type 0x0002). A defined
// fractal heap address means the group stores its links densely.
type LinkInfo struct {
	Version           uint8
	Flags             uint8
	MaxCreationIndex  uint64
	FractalHeapAddr   uint64
	NameIndexAddr     uint64
	CreationIndexAddr uint64
	dense             bool
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

// IsDense reports whether links live in a fractal heap instead of link
// messages.
func (m *LinkInfo) IsDense() bool { return m.dense }

func parseLinkInfo(c *binpkg.Cursor) (*LinkInfo, error) {
	li := &LinkInfo{Version: c.Uint8(), Flags: c.Uint8()}
	if li.Version != 0 {
		return nil, fmt.Errorf("unsupported link info version %d", li.Version)
	}
	if li.Flags&0x01 != 0 {
		li.MaxCreationIndex = c.Uint64()
	}
	li.FractalHeapAddr = c.Offset()
	li.NameIndexAddr = c.Offset()
	if li.Flags&0x02 != 0 {
		li.CreationIndexAddr = c.Offset()
	}
	li.dense = !c.IsUndefined(li.FractalHeapAddr)
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("link info: %w", err)
	}
	return li, nil
}

// AttributeInfo represents an attribute info message (type 0x0015).
type AttributeInfo struct {
	Version           uint8
	Flags             uint8
	MaxCreationIndex  uint16
	FractalHeapAddr   uint64
	NameIndexAddr     uint64
	CreationIndexAddr uint64
	dense             bool
}

func (m *AttributeInfo) Type() Type { return TypeAttributeInfo }

// IsDense reports whether attributes live in a fractal heap instead of
// attribute messages.
func (m *AttributeInfo) IsDense() bool { return m.dense }

func parseAttributeInfo(c *binpkg.Cursor) (*AttributeInfo, error) {
	ai := &AttributeInfo{Version: c.Uint8(), Flags: c.Uint8()}
	if ai.Version != 0 {
		return nil, fmt.Errorf("unsupported attribute info version %d", ai.Version)
	}
	if ai.Flags&0x01 != 0 {
		ai.MaxCreationIndex = c.Uint16()
	}
	ai.FractalHeapAddr = c.Offset()
	ai.NameIndexAddr = c.Offset()
	if ai.Flags&0x02 != 0 {
		ai.CreationIndexAddr = c.Offset()
	}
	ai.dense = !c.IsUndefined(ai.FractalHeapAddr)
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("attribute info: %w", err)
	}
	return ai, nil
}
