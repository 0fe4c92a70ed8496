package hdf5

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/robert-malhotra/h5shard/internal/btree"
	"github.com/robert-malhotra/h5shard/internal/heap"
	"github.com/robert-malhotra/h5shard/internal/message"
	"github.com/robert-malhotra/h5shard/internal/object"
)

// Object is a group or a dataset.
type Object interface {
	Name() string
	Path() string
	Attrs() ([]string, error)
	Attr(name string) (*Attribute, error)
}

var (
	_ Object = (*Group)(nil)
	_ Object = (*Dataset)(nil)
)

// Group represents an HDF5 group.
type Group struct {
	file   *File
	path   string
	header *object.Header
}

// link is a group member before it is resolved.
type link struct {
	name    string
	address uint64
	soft    string
	extFile string
}

// Name returns the group name (last component of path).
func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return path.Base(g.path)
}

// Path returns the full path to this group.
func (g *Group) Path() string { return g.path }

// Members returns the names of the group's members in sorted order.
func (g *Group) Members() ([]string, error) {
	links, err := g.links()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(links))
	for i, l := range links {
		names[i] = l.name
	}
	sort.Strings(names)
	return names, nil
}

// links lists the group's members from link messages (new-style groups)
// or from the symbol table B-tree (old-style groups).
func (g *Group) links() ([]link, error) {
	info, err := g.header.LinkInfo()
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", g.path, err)
	}
	if info != nil && info.IsDense() {
		return nil, fmt.Errorf("%w: dense link storage in group %s", ErrUnsupported, g.path)
	}

	msgs, err := g.header.Links()
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", g.path, err)
	}
	if info != nil || len(msgs) > 0 {
		out := make([]link, 0, len(msgs))
		for _, m := range msgs {
			l := link{name: m.Name}
			switch {
			case m.IsHard():
				l.address = m.ObjectAddress
			case m.IsSoft():
				l.soft = m.SoftTarget
			case m.IsExternal():
				l.extFile = m.ExternalFile
			default:
				continue
			}
			out = append(out, l)
		}
		return out, nil
	}

	st, err := g.header.SymbolTable()
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", g.path, err)
	}
	sb := g.file.superblock
	if st == nil && g.path == "/" && sb.RootBTreeAddress != 0 {
		st = &message.SymbolTable{BTreeAddress: sb.RootBTreeAddress, LocalHeapAddress: sb.RootHeapAddress}
	}
	if st == nil {
		return nil, nil
	}
	names, err := heap.ReadLocal(g.file.reader, st.LocalHeapAddress)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", g.path, err)
	}
	entries, err := btree.ReadGroupEntries(g.file.reader, st.BTreeAddress, names)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", g.path, err)
	}
	out := make([]link, len(entries))
	for i, e := range entries {
		out[i] = link{name: e.Name, address: e.ObjectAddress}
		if e.IsSoft() {
			out[i] = link{name: e.Name, soft: e.SoftTarget}
		}
	}
	return out, nil
}

func (g *Group) child(name string) (link, error) {
	links, err := g.links()
	if err != nil {
		return link{}, err
	}
	for _, l := range links {
		if l.name == name {
			return l, nil
		}
	}
	return link{}, fmt.Errorf("%w: %s", ErrNotFound, path.Join(g.path, name))
}

// Lookup returns the group or dataset at the given path. Relative paths
// start at g, absolute ones at the root. Soft links are followed.
func (g *Group) Lookup(p string) (Object, error) {
	if g.file.closed {
		return nil, ErrClosed
	}
	target, err := g.resolve(p, 0)
	if err != nil {
		return nil, err
	}
	switch {
	case target.header.IsDataset():
		return newDataset(target.file, target.path, target.header)
	case target.header.IsGroup() || target.path == "/":
		return target, nil
	}
	return nil, fmt.Errorf("%w: %s is neither a group nor a dataset", ErrUnsupported, target.path)
}

// resolve walks p component by component. The result is returned as a
// Group whose header may describe any object.
func (g *Group) resolve(p string, depth int) (*Group, error) {
	if depth > MaxLinkDepth {
		return nil, ErrLinkDepth
	}
	cur := g
	if strings.HasPrefix(p, "/") {
		cur = g.file.root
	}
	parts := SplitPath(p)
	for i, name := range parts {
		if name == "." {
			continue
		}
		if i > 0 && !cur.header.IsGroup() && cur.path != "/" {
			return nil, fmt.Errorf("%w: %s", ErrNotGroup, cur.path)
		}
		l, err := cur.child(name)
		if err != nil {
			return nil, err
		}
		full := path.Join(cur.path, name)
		switch {
		case l.extFile != "":
			return nil, fmt.Errorf("%w: external link %s to %s", ErrUnsupported, full, l.extFile)
		case l.soft != "":
			next, err := cur.resolve(l.soft, depth+1)
			if err != nil {
				return nil, fmt.Errorf("soft link %s -> %s: %w", full, l.soft, err)
			}
			cur = &Group{file: next.file, path: full, header: next.header}
		default:
			header, err := object.Read(cur.file.reader, l.address)
			if err != nil {
				return nil, fmt.Errorf("opening %s: %w", full, err)
			}
			cur = &Group{file: cur.file, path: full, header: header}
		}
	}
	return cur, nil
}

// OpenGroup opens a subgroup by relative path.
func (g *Group) OpenGroup(relativePath string) (*Group, error) {
	obj, err := g.Lookup(relativePath)
	if err != nil {
		return nil, err
	}
	group, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotGroup, obj.Path())
	}
	return group, nil
}

// OpenDataset opens a dataset by relative path.
func (g *Group) OpenDataset(relativePath string) (*Dataset, error) {
	obj, err := g.Lookup(relativePath)
	if err != nil {
		return nil, err
	}
	ds, ok := obj.(*Dataset)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDataset, obj.Path())
	}
	return ds, nil
}

// Attrs returns the group's attribute names in sorted order.
func (g *Group) Attrs() ([]string, error) {
	return attrNames(g.file, g.header, g.path)
}

// Attr returns the named attribute of the group.
func (g *Group) Attr(name string) (*Attribute, error) {
	return findAttr(g.file, g.header, g.path, name)
}
