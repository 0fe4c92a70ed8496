package message

import (
	"errors"
	"fmt"

	binpkg "github.com/robert-malhotra/h5shard/internal/binary"
)

// ErrSharedDatatype is returned for attributes whose datatype or dataspace
// is a shared message rather than inline.
var ErrSharedDatatype = errors.New("shared attribute datatype not supported")

// Attribute represents an attribute message (type 0x000C).
type Attribute struct {
	Version   uint8
	Name      string
	Datatype  *Datatype
	Dataspace *Dataspace
	Data      []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

// parseAttribute decodes versions 1 to 3.
//
//	v1: version, reserved, name size, datatype size, dataspace size, then
//	    name, datatype and dataspace each padded to 8 bytes, then data
//	v2: version, flags, sizes, then unpadded fields
//	v3: as v2 with a name charset byte before the name
func parseAttribute(c *binpkg.Cursor) (*Attribute, error) {
	a := &Attribute{Version: c.Uint8()}
	if a.Version < 1 || a.Version > 3 {
		return nil, fmt.Errorf("unsupported attribute version %d", a.Version)
	}
	flags := c.Uint8()
	nameSize := int(c.Uint16())
	dtSize := int(c.Uint16())
	dsSize := int(c.Uint16())
	if a.Version == 3 {
		c.Skip(1)
	}
	if a.Version > 1 && flags&0x03 != 0 {
		return nil, ErrSharedDatatype
	}
	pad := func(n int) {
		if a.Version == 1 && n%8 != 0 {
			c.Skip(8 - n%8)
		}
	}

	a.Name = cstring(c.Bytes(nameSize))
	pad(nameSize)

	dt, err := decodeDatatype(c.Sub(dtSize), 0)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
	}
	a.Datatype = dt
	pad(dtSize)

	ds, err := parseDataspace(c.Sub(dsSize))
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
	}
	a.Dataspace = ds
	pad(dsSize)

	a.Data = c.Rest()
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
	}
	return a, nil
}
