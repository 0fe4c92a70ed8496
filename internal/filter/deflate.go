package filter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/robert-malhotra/h5shard/internal/message"
)

// Deflate implements the DEFLATE filter.
type Deflate struct {
	level int
}

// NewDeflate creates a new DEFLATE filter.
// Client data: [0] = compression level. Decoding ignores it.
func NewDeflate(clientData []uint32) *Deflate {
	level := 6
	if len(clientData) > 0 {
		level = int(clientData[0])
	}
	return &Deflate{level: level}
}

func (f *Deflate) ID() uint16 { return message.FilterDeflate }

// Level returns the level recorded in the file.
func (f *Deflate) Level() int { return f.level }

func (f *Deflate) Decode(input []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("zlib reader: %w", err)
	}
	defer r.Close()

	out := bytes.NewBuffer(make([]byte, 0, 4*len(input)))
	if _, err := io.Copy(out, r); err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	return out.Bytes(), nil
}
