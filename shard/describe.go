package shard

import (
	"context"

	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5shard/ndarray"
)

// Info is the merged layout of a dataset, as Get would build it.
type Info struct {
	ID    string
	Kind  ndarray.Kind
	Shape []int
	// Files holds the indexes of the files holding a piece, in order.
	Files []int
}

// Describe reports the kind and shape Get would return for id without
// reading any array data. It applies the same rules as the merge: the
// first contributor's kind and trailing dimensions are authoritative and
// the leading dimensions add up.
func (r *Reader) Describe(ctx context.Context, id string) (Info, error) {
	if err := r.checkOpen(); err != nil {
		return Info{}, err
	}
	key := canonical(id)
	info := Info{ID: id}
	for i, path := range r.set.Files() {
		if err := ctx.Err(); err != nil {
			return Info{}, err
		}
		m, ok, err := r.describeOne(path, key)
		if err != nil {
			return Info{}, err
		}
		if !ok {
			continue
		}
		if err := info.add(i, m); err != nil {
			return Info{}, errors.Wrapf(err, "describing %q", id)
		}
	}
	if len(info.Files) == 0 {
		return Info{}, &DatasetNotFoundError{ID: id}
	}
	return info, nil
}

func (r *Reader) describeOne(path, id string) (Meta, bool, error) {
	c, err := r.opts.opener.Open(path)
	if err != nil {
		return Meta{}, false, &IOError{Path: path, Op: "open", Err: err}
	}
	defer c.Close()

	m, err := c.Describe(id)
	if errors.Is(err, ErrNotFound) {
		return Meta{}, false, nil
	} else if err != nil {
		return Meta{}, false, &IOError{Path: path, Op: "describe " + id, Err: err}
	}
	return m, true, nil
}

func (info *Info) add(index int, m Meta) error {
	if len(info.Files) == 0 {
		info.Kind = m.Kind
		info.Shape = append([]int{}, m.Shape...)
		info.Files = []int{index}
		return nil
	}
	switch {
	case len(info.Shape) == 0 || len(m.Shape) == 0:
		return errors.Wrap(ndarray.ErrShape, "zero-dimensional arrays cannot be concatenated")
	case m.Kind != info.Kind:
		return errors.Wrapf(ndarray.ErrShape, "file %d is %s, want %s", index, m.Kind, info.Kind)
	case !sameTrailing(info.Shape, m.Shape):
		return errors.Wrapf(ndarray.ErrShape, "file %d has shape %v, want [* %v]", index, m.Shape, info.Shape[1:])
	}
	info.Shape[0] += m.Shape[0]
	info.Files = append(info.Files, index)
	return nil
}

func sameTrailing(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 1; i < len(a); i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
