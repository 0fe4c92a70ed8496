package message

import (
	"fmt"

	binpkg "github.com/robert-malhotra/h5shard/internal/binary"
)

// SymbolTable represents a symbol table message (type 0x0011). It marks an
// old-style group whose members are indexed by a v1 B-tree with names in a
// local heap.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(c *binpkg.Cursor) (*SymbolTable, error) {
	st := &SymbolTable{BTreeAddress: c.Offset(), LocalHeapAddress: c.Offset()}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("symbol table: %w", err)
	}
	return st, nil
}
