package hdf5

import (
	"errors"
	"path"
	"sort"
)

// SkipGroup can be returned by a WalkFunc visiting a group to skip the
// group's members.
var SkipGroup = errors.New("skip this group")

// WalkFunc is called for each object during traversal. obj is a *Group or
// a *Dataset, or nil when err reports that the object could not be
// opened. Returning an error other than SkipGroup stops the walk.
type WalkFunc func(path string, obj Object, err error) error

// Walk visits g and every object below it in sorted member order. Soft
// links are reported as the object they point to. Groups reached through
// a soft link are not descended into, which keeps link cycles finite.
//
//	hdf5.Walk(f.Root(), func(p string, obj hdf5.Object, err error) error {
//		if err != nil {
//			return err
//		}
//		if ds, ok := obj.(*hdf5.Dataset); ok {
//			fmt.Println(p, ds.Shape())
//		}
//		return nil
//	})
func Walk(g *Group, fn WalkFunc) error {
	err := walkGroup(g, fn)
	if err == SkipGroup {
		return nil
	}
	return err
}

func walkGroup(g *Group, fn WalkFunc) error {
	if err := fn(g.Path(), g, nil); err != nil {
		return err
	}
	links, err := g.links()
	if err != nil {
		return fn(g.Path(), nil, err)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].name < links[j].name })

	for _, l := range links {
		childPath := path.Join(g.Path(), l.name)
		obj, err := g.Lookup(l.name)
		if err != nil {
			if err := fn(childPath, nil, err); err != nil && err != SkipGroup {
				return err
			}
			continue
		}
		sub, ok := obj.(*Group)
		if !ok || l.soft != "" {
			if err := fn(childPath, obj, nil); err != nil && err != SkipGroup {
				return err
			}
			continue
		}
		if err := walkGroup(sub, fn); err != nil && err != SkipGroup {
			return err
		}
	}
	return nil
}

