package shard

import (
	"github.com/robert-malhotra/h5shard/ndarray"
)

// Container is one open file of the set. Methods that name a missing
// object return an error wrapping ErrNotFound; every other error is a
// fault of the file itself.
type Container interface {
	// Dataset reads a whole dataset. A group at id is reported as missing.
	Dataset(id string) (*ndarray.Array, error)

	// Describe returns the kind and shape of a dataset without reading it.
	Describe(id string) (Meta, error)

	// Entries lists the children of a group, sorted. "/" is the root.
	Entries(group string) ([]string, error)

	// Attributes lists the attribute names of a group or dataset, sorted.
	Attributes(id string) ([]string, error)

	// Attribute reads one attribute. Scalars come back as Go scalars,
	// anything else as a typed slice.
	Attribute(id, name string) (any, error)

	Close() error
}

// Meta is the header information of one dataset.
type Meta struct {
	Kind  ndarray.Kind
	Shape []int
}

// Opener opens a file of the set read-only.
type Opener interface {
	Open(path string) (Container, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Container, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (Container, error) { return f(path) }
