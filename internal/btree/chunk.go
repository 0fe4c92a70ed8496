package btree

import (
	"fmt"

	"github.com/robert-malhotra/h5shard/internal/binary"
)

// Chunk locates one stored chunk of a dataset.
type Chunk struct {
	Offset     []uint64 // element offset of the chunk in each dimension
	Size       uint32   // stored size in bytes, after filters
	FilterMask uint32
	Address    uint64
}

// ReadChunks returns every chunk indexed by the tree at address for a
// dataset of the given rank.
//
// Chunk keys are size(4), filter mask(4) and rank+1 offsets of 8 bytes;
// the last offset is always zero and is dropped.
func ReadChunks(r *binary.Reader, address uint64, rank int) ([]Chunk, error) {
	if r.IsUndefined(address) {
		return nil, nil
	}
	keySize := 8 + 8*(rank+1)
	var chunks []Chunk
	err := walk(r, address, TypeChunk, keySize, 0, func(key *binary.Cursor, child uint64) error {
		ch := Chunk{Size: key.Uint32(), FilterMask: key.Uint32(), Address: child}
		ch.Offset = make([]uint64, rank)
		for i := range ch.Offset {
			ch.Offset[i] = key.Uint64()
		}
		if err := key.Err(); err != nil {
			return fmt.Errorf("chunk key: %w", err)
		}
		chunks = append(chunks, ch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}
