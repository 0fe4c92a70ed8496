package filter

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"

	binpkg "github.com/robert-malhotra/h5shard/internal/binary"
	"github.com/robert-malhotra/h5shard/internal/message"
)

// ErrChecksum is returned when a Fletcher-32 checksum does not match.
var ErrChecksum = errors.New("fletcher32 checksum mismatch")

// Fletcher32 verifies and strips the checksum appended to each chunk.
type Fletcher32 struct{}

func (Fletcher32) ID() uint16 { return message.FilterFletcher32 }

// Decode checks the trailing 4 byte checksum. Files written by old library
// versions store it byte-swapped, so both orders are accepted.
func (Fletcher32) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("%w: input too short", ErrChecksum)
	}
	data := input[:len(input)-4]
	stored := binary.LittleEndian.Uint32(input[len(input)-4:])
	sum := binpkg.Fletcher32(data)
	if stored != sum && stored != bits.ReverseBytes32(sum) {
		return nil, fmt.Errorf("%w: stored 0x%08x, computed 0x%08x", ErrChecksum, stored, sum)
	}
	return data, nil
}
