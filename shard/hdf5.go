package shard

import (
	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5shard/hdf5"
	"github.com/robert-malhotra/h5shard/ndarray"
)

// HDF5 opens files with the built-in HDF5 decoder. It is the default
// Opener.
var HDF5 Opener = OpenerFunc(openHDF5)

func openHDF5(path string) (Container, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, err
	}
	return &hdf5Container{file: f}, nil
}

type hdf5Container struct {
	file *hdf5.File
}

// missing turns the decoder's lookup failures into ErrNotFound. A group
// where a dataset was asked for, or the reverse, counts as missing.
func missing(err error) error {
	if errors.Is(err, hdf5.ErrNotFound) || errors.Is(err, hdf5.ErrNotDataset) || errors.Is(err, hdf5.ErrNotGroup) {
		return errors.WithMessage(ErrNotFound, err.Error())
	}
	return err
}

func (c *hdf5Container) Dataset(id string) (*ndarray.Array, error) {
	ds, err := c.file.OpenDataset(id)
	if err != nil {
		return nil, missing(err)
	}
	return ds.ReadArray()
}

func (c *hdf5Container) Describe(id string) (Meta, error) {
	ds, err := c.file.OpenDataset(id)
	if err != nil {
		return Meta{}, missing(err)
	}
	kind, err := ds.Kind()
	if err != nil {
		return Meta{}, err
	}
	return Meta{Kind: kind, Shape: ds.Shape()}, nil
}

func (c *hdf5Container) Entries(group string) ([]string, error) {
	g, err := c.file.OpenGroup(group)
	if err != nil {
		return nil, missing(err)
	}
	return g.Members()
}

func (c *hdf5Container) Attributes(id string) ([]string, error) {
	obj, err := c.file.Lookup(id)
	if err != nil {
		return nil, missing(err)
	}
	return obj.Attrs()
}

func (c *hdf5Container) Attribute(id, name string) (any, error) {
	obj, err := c.file.Lookup(id)
	if err != nil {
		return nil, missing(err)
	}
	attr, err := obj.Attr(name)
	if err != nil {
		return nil, missing(err)
	}
	return attr.Value()
}

func (c *hdf5Container) Close() error { return c.file.Close() }
