package shard

import (
	"github.com/pkg/errors"
)

// The inspection methods open only files[fileIndex] and treat it as
// representative of the set.

// ListEntries returns the sorted child names of group in one file. An
// empty group or "/" is the root.
func (r *Reader) ListEntries(group string, fileIndex int) ([]string, error) {
	var names []string
	err := r.inspect(fileIndex, func(path string, c Container) error {
		var err error
		g := canonical(group)
		names, err = c.Entries(g)
		return inspectErr(path, "list", g, "", err)
	})
	return names, err
}

// ListAttributes returns the sorted attribute names of a group or dataset
// in one file.
func (r *Reader) ListAttributes(id string, fileIndex int) ([]string, error) {
	var names []string
	err := r.inspect(fileIndex, func(path string, c Container) error {
		var err error
		obj := canonical(id)
		names, err = c.Attributes(obj)
		return inspectErr(path, "list attributes of", obj, "", err)
	})
	return names, err
}

// GetAttribute reads one attribute of a group or dataset in one file. A
// scalar attribute is returned as int64, uint64, float64 or string; any
// other attribute as a slice of one of those.
func (r *Reader) GetAttribute(id, name string, fileIndex int) (any, error) {
	var value any
	err := r.inspect(fileIndex, func(path string, c Container) error {
		obj := canonical(id)
		v, err := c.Attribute(obj, name)
		if errors.Is(err, ErrNotFound) {
			// Report the object rather than the attribute when the object
			// itself is missing.
			if _, lerr := c.Attributes(obj); errors.Is(lerr, ErrNotFound) {
				return &NotFoundError{Path: path, Object: obj}
			}
			return &NotFoundError{Path: path, Object: obj, Attribute: name}
		}
		value = v
		return inspectErr(path, "read attribute "+name+" of", obj, name, err)
	})
	return value, err
}

func (r *Reader) inspect(fileIndex int, fn func(path string, c Container) error) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if fileIndex < 0 || fileIndex >= r.set.Len() {
		return errors.Wrapf(ErrFileIndex, "index %d, set has %d files", fileIndex, r.set.Len())
	}
	path := r.set.File(fileIndex)
	c, err := r.opts.opener.Open(path)
	if err != nil {
		return &IOError{Path: path, Op: "open", Err: err}
	}
	defer c.Close()
	return fn(path, c)
}

func inspectErr(path, op, obj, attr string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return &NotFoundError{Path: path, Object: obj, Attribute: attr}
	}
	return &IOError{Path: path, Op: op + " " + obj, Err: err}
}
