package shard

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5shard/fileset"
)

var (
	// ErrInvalidSpec is returned by New for a malformed path specification.
	ErrInvalidSpec = fileset.ErrInvalidSpec

	// ErrDatasetNotFound is matched by *DatasetNotFoundError.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrIO is matched by *IOError.
	ErrIO = errors.New("shard i/o error")

	// ErrNotFound is matched by *NotFoundError. Containers also wrap it
	// for a missing object.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned by every method of a closed Reader.
	ErrClosed = errors.New("reader is closed")

	// ErrFileIndex is returned when an inspection names a file outside the
	// set.
	ErrFileIndex = errors.New("file index out of range")
)

// DatasetNotFoundError reports a dataset that no file in the set holds.
type DatasetNotFoundError struct {
	ID string
}

func (e *DatasetNotFoundError) Error() string {
	return fmt.Sprintf("dataset %q not found in any file", e.ID)
}

func (e *DatasetNotFoundError) Is(target error) bool { return target == ErrDatasetNotFound }

// IOError is a failure to open or decode one file of the set.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// NotFoundError reports a missing group, dataset or attribute found while
// inspecting one file.
type NotFoundError struct {
	Path      string
	Object    string
	Attribute string
}

func (e *NotFoundError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("attribute %q of %s not found in %s", e.Attribute, e.Object, e.Path)
	}
	return fmt.Sprintf("%s not found in %s", e.Object, e.Path)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
