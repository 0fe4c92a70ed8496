package filter

import (
	"github.com/robert-malhotra/h5shard/internal/message"
)

// Shuffle implements the byte shuffle filter, which groups byte j of every
// element together to improve compression.
type Shuffle struct {
	elemSize int
}

// NewShuffle creates a shuffle filter. Client data: [0] = element size in
// bytes, falling back to the dataset element size.
func NewShuffle(clientData []uint32, elemSize int) *Shuffle {
	if len(clientData) > 0 && clientData[0] > 0 {
		elemSize = int(clientData[0])
	}
	if elemSize < 1 {
		elemSize = 1
	}
	return &Shuffle{elemSize: elemSize}
}

func (f *Shuffle) ID() uint16 { return message.FilterShuffle }

// Decode reverses the shuffle. Bytes past the last whole element are left
// in place, matching how they were written.
func (f *Shuffle) Decode(input []byte) ([]byte, error) {
	n := len(input) / f.elemSize
	if f.elemSize <= 1 || n <= 1 {
		return input, nil
	}
	out := make([]byte, len(input))
	for j := 0; j < f.elemSize; j++ {
		src := input[j*n : (j+1)*n]
		for i, b := range src {
			out[i*f.elemSize+j] = b
		}
	}
	tail := n * f.elemSize
	copy(out[tail:], input[tail:])
	return out, nil
}
