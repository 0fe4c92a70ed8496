// Package shard gives a single view of datasets split across several
// HDF5 files.
//
// A Reader owns an ordered file set. Get reads a dataset from every file,
// concatenates the pieces along the leading dimension in file order and
// caches the result for the life of the Reader:
//
//	r, err := shard.New(fileset.Templated("run/out_%02d.h5", 16))
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//	pos, err := r.Get(ctx, "particles/pos")
//
// A file that lacks the dataset contributes nothing. A dataset no file
// holds is a *DatasetNotFoundError, and a file that cannot be read fails
// the whole load with an *IOError.
package shard

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/robert-malhotra/h5shard/fileset"
	"github.com/robert-malhotra/h5shard/hdf5"
	"github.com/robert-malhotra/h5shard/ndarray"
)

// Shard is what one file holds for one identifier: an array, or nothing.
type Shard struct {
	array *ndarray.Array
}

// Present returns a shard holding a.
func Present(a *ndarray.Array) Shard { return Shard{array: a} }

// Absent returns the empty shard.
func Absent() Shard { return Shard{} }

// IsPresent reports whether the file held the dataset.
func (s Shard) IsPresent() bool { return s.array != nil }

// Array returns the contents, or nil for an absent shard.
func (s Shard) Array() *ndarray.Array { return s.array }

// Reader loads datasets from a file set. It is safe for concurrent use.
type Reader struct {
	set     *fileset.Set
	opts    options
	logger  zerolog.Logger
	metrics *Metrics
	cache   *cache
	closed  atomic.Bool
}

// New resolves spec and returns a Reader over the files. No file is
// opened until the first read.
func New(spec fileset.Spec, opts ...Option) (*Reader, error) {
	set, err := fileset.Resolve(spec)
	if err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.finish()
	return &Reader{
		set:     set,
		opts:    o,
		logger:  o.logger,
		metrics: o.metrics,
		cache:   newCache(),
	}, nil
}

// Files returns the ordered file list.
func (r *Reader) Files() []string { return r.set.Files() }

// Len returns the number of files.
func (r *Reader) Len() int { return r.set.Len() }

// Parallel reports whether Get uses the parallel load path.
func (r *Reader) Parallel() bool { return r.opts.parallel && r.set.Len() > 1 }

// Close drops the cache. Every later call returns ErrClosed. Closing twice
// is a no-op.
func (r *Reader) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.cache.reset()
	return nil
}

func (r *Reader) checkOpen() error {
	if r.closed.Load() {
		return ErrClosed
	}
	return nil
}

// canonical returns the cache key for a dataset identifier, so "a/b",
// "/a/b" and "a//b/" name the same dataset.
func canonical(id string) string { return hdf5.CleanPath(id) }

// ReadShard reads id from the single file at path. A missing dataset, or
// a group at id, is an Absent shard. Any other failure is an *IOError.
func (r *Reader) ReadShard(path, id string) (Shard, error) {
	if err := r.checkOpen(); err != nil {
		return Shard{}, err
	}
	s, err := r.readShard(path, canonical(id))
	switch {
	case err != nil:
		r.metrics.Reads.WithLabelValues(OutcomeError).Inc()
	case s.IsPresent():
		r.metrics.Reads.WithLabelValues(OutcomePresent).Inc()
	default:
		r.metrics.Reads.WithLabelValues(OutcomeAbsent).Inc()
	}
	return s, err
}

func (r *Reader) readShard(path, id string) (Shard, error) {
	c, err := r.opts.opener.Open(path)
	if err != nil {
		return Shard{}, &IOError{Path: path, Op: "open", Err: err}
	}
	defer c.Close()

	a, err := c.Dataset(id)
	if errors.Is(err, ErrNotFound) {
		return Absent(), nil
	} else if err != nil {
		return Shard{}, &IOError{Path: path, Op: "read " + id, Err: err}
	}
	return Present(a), nil
}
