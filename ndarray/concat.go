package ndarray

import "github.com/pkg/errors"

// Concat joins arrays along the leading dimension, in order. The first
// array's kind and trailing dimensions are authoritative; a part that
// disagrees is ErrShape. A single part is returned as is.
func Concat(parts ...*Array) (*Array, error) {
	switch len(parts) {
	case 0:
		return nil, errors.Wrap(ErrShape, "nothing to concatenate")
	case 1:
		return parts[0], nil
	}

	head := parts[0]
	if head.Rank() == 0 {
		return nil, errors.Wrap(ErrShape, "zero-dimensional arrays cannot be concatenated")
	}
	rows := 0
	for i, p := range parts {
		if p.kind != head.kind {
			return nil, errors.Wrapf(ErrShape, "part %d is %s, want %s", i, p.kind, head.kind)
		}
		if !sameTrailing(head.shape, p.shape) {
			return nil, errors.Wrapf(ErrShape, "part %d has shape %v, want [* %v]", i, p.shape, head.shape[1:])
		}
		rows += p.shape[0]
	}

	data := copySlice(subslice(head.data, 0, 0))
	for _, p := range parts {
		data = appendSlice(data, p.data)
	}
	shape := append([]int{rows}, head.shape[1:]...)
	return &Array{kind: head.kind, shape: shape, data: data}, nil
}

func sameTrailing(a, b []int) bool {
	if len(a) != len(b) || len(b) == 0 {
		return false
	}
	for i := 1; i < len(a); i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
