// Package hdf5 reads groups, datasets and attributes from HDF5 files.
//
// The package is read-only. It covers the storage most scientific writers
// produce: old and new style compact groups, contiguous, compact and
// chunked datasets, and the deflate, shuffle and fletcher32 filters.
package hdf5

import "errors"

var (
	ErrNotHDF5     = errors.New("not an HDF5 file")
	ErrNotFound    = errors.New("object not found")
	ErrNotDataset  = errors.New("object is not a dataset")
	ErrNotGroup    = errors.New("object is not a group")
	ErrUnsupported = errors.New("unsupported feature")
	ErrInvalidPath = errors.New("invalid path")
	ErrClosed      = errors.New("file is closed")
	ErrLinkDepth   = errors.New("maximum link depth exceeded")
)

// MaxLinkDepth bounds the soft links followed while resolving one path.
const MaxLinkDepth = 100
