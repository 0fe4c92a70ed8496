// Package fileset resolves where the shards of a dataset live.
//
// A Spec names the files in one of three ways: an explicit ordered list,
// a printf-style template with one integer slot and a file count, or a
// single path. Resolve turns it into a Set, the ordered list the loader
// reads and merges in. Resolution does no I/O.
//
//	set, err := fileset.Resolve(fileset.Templated("run/out_%03d.h5", 8))
//	// run/out_000.h5 ... run/out_007.h5
package fileset

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidSpec is matched by every resolution failure.
var ErrInvalidSpec = errors.New("invalid path specification")

// SpecError describes a malformed Spec.
type SpecError struct {
	Reason string
}

func (e *SpecError) Error() string { return ErrInvalidSpec.Error() + ": " + e.Reason }

// Is makes errors.Is(err, ErrInvalidSpec) hold.
func (e *SpecError) Is(target error) bool { return target == ErrInvalidSpec }

type kind uint8

const (
	kindExplicit kind = iota + 1
	kindTemplated
	kindSingle
)

// Spec describes a set of files. The zero Spec is invalid.
type Spec struct {
	kind    kind
	paths   []string
	pattern string
	count   int
}

// Explicit names the files directly, in merge order.
func Explicit(paths ...string) Spec {
	return Spec{kind: kindExplicit, paths: append([]string(nil), paths...)}
}

// Templated names count files by substituting 0..count-1 into the single
// slot of pattern.
func Templated(pattern string, count int) Spec {
	return Spec{kind: kindTemplated, pattern: pattern, count: count}
}

// Single names one file. The path is used as is, even if it looks like a
// template.
func Single(path string) Spec {
	return Spec{kind: kindSingle, pattern: path}
}

// Auto picks Templated when path holds a slot and Single otherwise.
func Auto(path string, count int) Spec {
	if HasSlot(path) {
		return Templated(path, count)
	}
	return Single(path)
}

func (s Spec) String() string {
	switch s.kind {
	case kindExplicit:
		return fmt.Sprintf("explicit[%s]", strings.Join(s.paths, ", "))
	case kindTemplated:
		return fmt.Sprintf("template(%s, %d)", s.pattern, s.count)
	case kindSingle:
		return fmt.Sprintf("single(%s)", s.pattern)
	}
	return "invalid"
}

// Set is an ordered, non-empty list of files.
type Set struct {
	files []string
}

// Resolve produces the file list described by spec.
func Resolve(spec Spec) (*Set, error) {
	switch spec.kind {
	case kindExplicit:
		if len(spec.paths) == 0 {
			return nil, &SpecError{Reason: "empty file list"}
		}
		for i, p := range spec.paths {
			if p == "" {
				return nil, &SpecError{Reason: fmt.Sprintf("file %d has an empty path", i)}
			}
		}
		return &Set{files: append([]string(nil), spec.paths...)}, nil

	case kindTemplated:
		if spec.count <= 0 {
			return nil, &SpecError{Reason: fmt.Sprintf("template %q needs a positive file count, got %d", spec.pattern, spec.count)}
		}
		t, err := parseTemplate(spec.pattern)
		if err != nil {
			return nil, err
		}
		files := make([]string, spec.count)
		for i := range files {
			files[i] = t.format(i)
		}
		return &Set{files: files}, nil

	case kindSingle:
		if spec.pattern == "" {
			return nil, &SpecError{Reason: "empty path"}
		}
		return &Set{files: []string{spec.pattern}}, nil
	}
	return nil, &SpecError{Reason: "no files specified"}
}

// Files returns a copy of the file list.
func (s *Set) Files() []string { return append([]string(nil), s.files...) }

// Len returns the number of files.
func (s *Set) Len() int { return len(s.files) }

// File returns the i-th file.
func (s *Set) File(i int) string { return s.files[i] }
