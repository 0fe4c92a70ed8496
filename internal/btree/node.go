// Package btree walks version 1 B-trees: the group trees of old-style
// groups and the chunk index of chunked datasets.
package btree

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5shard/internal/binary"
)

// ErrInvalidNode is returned for nodes with a bad signature or layout.
var ErrInvalidNode = errors.New("invalid B-tree node")

// Node types
const (
	TypeGroup = 0
	TypeChunk = 1
)

// maxDepth bounds recursion into corrupt trees.
const maxDepth = 64

// node is a decoded v1 B-tree node.
//
//	0  4  signature "TREE"
//	4  1  node type
//	5  1  level, 0 for leaves
//	6  2  entries used
//	8  O  left sibling
//	   O  right sibling
//	      key 0, child 0, ..., key n-1, child n-1, key n
type node struct {
	level    uint8
	keys     []*binary.Cursor
	children []uint64
}

func readNode(r *binary.Reader, address uint64, typ uint8, keySize int) (*node, error) {
	hdrSize := 8 + 2*r.OffsetSize()
	c, err := r.Cursor(address, hdrSize)
	if err != nil {
		return nil, fmt.Errorf("reading B-tree node at 0x%x: %w", address, err)
	}
	if sig := c.Bytes(4); string(sig) != "TREE" {
		return nil, fmt.Errorf("%w: signature %q at 0x%x", ErrInvalidNode, sig, address)
	}
	if got := c.Uint8(); got != typ {
		return nil, fmt.Errorf("%w: node type %d at 0x%x, want %d", ErrInvalidNode, got, address, typ)
	}
	n := &node{level: c.Uint8()}
	used := int(c.Uint16())

	body, err := r.Cursor(address+uint64(hdrSize), used*(keySize+r.OffsetSize())+keySize)
	if err != nil {
		return nil, fmt.Errorf("reading B-tree node entries at 0x%x: %w", address, err)
	}
	n.keys = make([]*binary.Cursor, 0, used+1)
	n.children = make([]uint64, 0, used)
	for i := 0; i < used; i++ {
		n.keys = append(n.keys, body.Sub(keySize))
		n.children = append(n.children, body.Offset())
	}
	n.keys = append(n.keys, body.Sub(keySize))
	if err := body.Err(); err != nil {
		return nil, fmt.Errorf("B-tree node at 0x%x: %w", address, err)
	}
	return n, nil
}

// walk visits every leaf child address in key order.
func walk(r *binary.Reader, address uint64, typ uint8, keySize int, depth int, leaf func(key *binary.Cursor, child uint64) error) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: tree deeper than %d levels", ErrInvalidNode, maxDepth)
	}
	n, err := readNode(r, address, typ, keySize)
	if err != nil {
		return err
	}
	for i, child := range n.children {
		if n.level == 0 {
			if err := leaf(n.keys[i], child); err != nil {
				return err
			}
			continue
		}
		if err := walk(r, child, typ, keySize, depth+1, leaf); err != nil {
			return err
		}
	}
	return nil
}
