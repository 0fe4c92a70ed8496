package filter

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/bits"
	"testing"

	"github.com/klauspost/compress/zlib"

	binpkg "github.com/robert-malhotra/h5shard/internal/binary"
	"github.com/robert-malhotra/h5shard/internal/message"
)

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// shuffle is the encode side, used to build inputs.
func shuffle(data []byte, size int) []byte {
	n := len(data) / size
	out := make([]byte, len(data))
	for i := 0; i < n; i++ {
		for j := 0; j < size; j++ {
			out[j*n+i] = data[i*size+j]
		}
	}
	copy(out[n*size:], data[n*size:])
	return out
}

func withChecksum(data []byte) []byte {
	return binary.LittleEndian.AppendUint32(append([]byte(nil), data...), binpkg.Fletcher32(data))
}

func TestDeflateDecode(t *testing.T) {
	original := []byte("Hello, World! This is test data for compression testing.")

	got, err := NewDeflate(nil).Decode(deflate(t, original))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("Decompressed data mismatch:\ngot:  %q\nwant: %q", got, original)
	}
}

func TestDeflateCorrupt(t *testing.T) {
	if _, err := NewDeflate([]uint32{4}).Decode([]byte{1, 2, 3, 4, 5}); err == nil {
		t.Error("expected error for corrupt stream")
	}
}

func TestShuffleDecode(t *testing.T) {
	original := []byte{
		0x01, 0x02, 0x03, 0x04,
		0x11, 0x12, 0x13, 0x14,
		0x21, 0x22, 0x23, 0x24,
	}
	got, err := NewShuffle([]uint32{4}, 0).Decode(shuffle(original, 4))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("got %x, want %x", got, original)
	}
}

func TestShuffleTrailingBytes(t *testing.T) {
	original := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 0xAA, 0xBB}
	got, err := NewShuffle(nil, 5).Decode(shuffle(original, 5))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("got %x, want %x", got, original)
	}
}

func TestShuffleSingleByte(t *testing.T) {
	in := []byte{3, 2, 1}
	got, _ := NewShuffle([]uint32{1}, 8).Decode(in)
	if !bytes.Equal(got, in) {
		t.Errorf("got %x, want input unchanged", got)
	}
}

func TestFletcher32Decode(t *testing.T) {
	data := []byte("abcdefghij")
	got, err := Fletcher32{}.Decode(withChecksum(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("got %q, want %q", got, data)
	}

	swapped := binary.LittleEndian.AppendUint32(append([]byte(nil), data...), bits.ReverseBytes32(binpkg.Fletcher32(data)))
	if _, err := (Fletcher32{}).Decode(swapped); err != nil {
		t.Errorf("byte-swapped checksum rejected: %v", err)
	}

	bad := withChecksum(data)
	bad[0] ^= 0x01
	if _, err := (Fletcher32{}).Decode(bad); !errors.Is(err, ErrChecksum) {
		t.Errorf("error = %v, want ErrChecksum", err)
	}

	if _, err := (Fletcher32{}).Decode([]byte{1, 2}); !errors.Is(err, ErrChecksum) {
		t.Errorf("short input error = %v, want ErrChecksum", err)
	}
}

func TestPipelineOrder(t *testing.T) {
	values := make([]byte, 64)
	for i := range values {
		values[i] = byte(i * 7)
	}
	// Written as shuffle, deflate, fletcher32; read back in reverse.
	encoded := withChecksum(deflate(t, shuffle(values, 8)))

	fp := &message.FilterPipeline{Filters: []message.FilterInfo{
		{ID: message.FilterShuffle, ClientData: []uint32{8}},
		{ID: message.FilterDeflate, ClientData: []uint32{6}},
		{ID: message.FilterFletcher32},
	}}
	p := NewPipeline(fp, 8)
	if p.Len() != 3 || p.Empty() {
		t.Fatalf("Len() = %d", p.Len())
	}
	got, err := p.Decode(encoded, 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(got, values) {
		t.Errorf("got %x, want %x", got, values)
	}
}

func TestPipelineMask(t *testing.T) {
	values := []byte("skip the compression step for this chunk")
	fp := &message.FilterPipeline{Filters: []message.FilterInfo{
		{ID: message.FilterDeflate, Flags: 1},
		{ID: message.FilterFletcher32},
	}}
	got, err := NewPipeline(fp, 1).Decode(withChecksum(values), 0x1)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(got, values) {
		t.Errorf("got %q, want %q", got, values)
	}
}

func TestPipelineUnsupported(t *testing.T) {
	fp := &message.FilterPipeline{Filters: []message.FilterInfo{{ID: message.FilterSZIP}}}
	p := NewPipeline(fp, 4)

	_, err := p.Decode([]byte{1, 2, 3, 4}, 0)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("error = %v, want ErrUnsupported", err)
	}
	// A chunk written without the filter still decodes.
	if _, err := p.Decode([]byte{1, 2, 3, 4}, 0x1); err != nil {
		t.Errorf("masked decode failed: %v", err)
	}
}

func TestEmptyPipeline(t *testing.T) {
	p := NewPipeline(nil, 4)
	in := []byte{9, 8, 7}
	got, err := p.Decode(in, 0)
	if err != nil || !bytes.Equal(got, in) || !p.Empty() {
		t.Errorf("Decode = %v, %v; Empty = %v", got, err, p.Empty())
	}
}

func TestName(t *testing.T) {
	if Name(message.FilterDeflate) != "deflate" || Name(32015) != "zstd" || Name(9999) != "filter 9999" {
		t.Error("Name mismatch")
	}
}
