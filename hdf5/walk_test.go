package hdf5

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robert-malhotra/h5shard/internal/h5test"
)

func TestParseAttrPath(t *testing.T) {
	tests := []struct {
		input    string
		wantObj  string
		wantAttr string
		wantErr  bool
	}{
		{"/@root_attr", "/", "root_attr", false},
		{"@root_attr", "/", "root_attr", false},
		{"/data@units", "/data", "units", false},
		{"sensors/temp@calibration", "/sensors/temp", "calibration", false},
		{"/a@b@c", "/a@b", "c", false},
		{"/data", "", "", true},
		{"/data@", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		obj, attr, err := ParseAttrPath(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPath) {
				t.Errorf("ParseAttrPath(%q): expected ErrInvalidPath, got %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAttrPath(%q): %v", tt.input, err)
			continue
		}
		if obj != tt.wantObj || attr != tt.wantAttr {
			t.Errorf("ParseAttrPath(%q) = %q, %q; want %q, %q", tt.input, obj, attr, tt.wantObj, tt.wantAttr)
		}
	}
}

func TestSplitPathEdgeCases(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"/", nil},
		{"//", nil},
		{"/foo", []string{"foo"}},
		{"foo/bar/", []string{"foo", "bar"}},
		{"/a//b///c", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		if got := SplitPath(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCleanPath(t *testing.T) {
	for input, want := range map[string]string{
		"":         "/",
		"/":        "/",
		"data":     "/data",
		"/data/":   "/data",
		"a//b/c/":  "/a/b/c",
		"/already": "/already",
	} {
		if got := CleanPath(input); got != want {
			t.Errorf("CleanPath(%q) = %q, want %q", input, got, want)
		}
	}
}

func walkFixture(t *testing.T) *File {
	b := h5test.New()
	b.Dataset("/b/y", []int8{1})
	b.Dataset("/b/sub/z", []int8{1})
	b.Dataset("/a", []int8{1})
	b.Root().SoftLink("c", "/b")
	return build(t, b)
}

func TestWalk(t *testing.T) {
	f := walkFixture(t)

	var visited []string
	err := Walk(f.Root(), func(p string, obj Object, err error) error {
		if err != nil {
			return err
		}
		kind := "group"
		if _, ok := obj.(*Dataset); ok {
			kind = "dataset"
		}
		visited = append(visited, kind+" "+p)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"group /",
		"dataset /a",
		"group /b",
		"group /b/sub",
		"dataset /b/sub/z",
		"dataset /b/y",
		"group /c",
	}
	if diff := cmp.Diff(want, visited); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkSkipGroup(t *testing.T) {
	f := walkFixture(t)

	var visited []string
	err := Walk(f.Root(), func(p string, obj Object, err error) error {
		visited = append(visited, p)
		if p == "/b" {
			return SkipGroup
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"/", "/a", "/b", "/c"}, visited); diff != "" {
		t.Errorf("visited mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkStop(t *testing.T) {
	f := walkFixture(t)
	stop := errors.New("stop")

	n := 0
	err := Walk(f.Root(), func(p string, obj Object, err error) error {
		n++
		if p == "/b" {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("expected stop error, got %v", err)
	}
	if n != 3 {
		t.Errorf("callback ran %d times, want 3", n)
	}
}

func TestWalkReportsOpenErrors(t *testing.T) {
	b := h5test.New()
	b.Root().SoftLink("broken", "/missing")
	f := build(t, b)

	var failed []string
	err := Walk(f.Root(), func(p string, obj Object, err error) error {
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("%s: unexpected error %v", p, err)
			}
			failed = append(failed, p)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(failed, []string{"/broken"}) {
		t.Errorf("failed = %q", failed)
	}
}
