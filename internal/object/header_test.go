package object

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	binpkg "github.com/robert-malhotra/h5shard/internal/binary"
	"github.com/robert-malhotra/h5shard/internal/h5test"
	"github.com/robert-malhotra/h5shard/internal/message"
	"github.com/robert-malhotra/h5shard/internal/superblock"
)

var int32Type = []byte{0x10, 0x08, 0, 0, 4, 0, 0, 0, 0, 0, 32, 0}

func v1msg(typ uint16, flags uint8, body []byte) []byte {
	b := binary.LittleEndian.AppendUint16(nil, typ)
	b = binary.LittleEndian.AppendUint16(b, uint16(len(body)))
	b = append(b, flags, 0, 0, 0)
	b = append(b, body...)
	for len(b)%8 != 0 {
		b = append(b, 0)
	}
	return b
}

func v1header(nmsgs int, msgs ...[]byte) []byte {
	body := bytes.Join(msgs, nil)
	b := []byte{1, 0}
	b = binary.LittleEndian.AppendUint16(b, uint16(nmsgs))
	b = binary.LittleEndian.AppendUint32(b, 1)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(body)))
	b = append(b, 0, 0, 0, 0)
	return append(b, body...)
}

func u64(v uint64) []byte { return binary.LittleEndian.AppendUint64(nil, v) }

func reader(img []byte) *binpkg.Reader {
	return binpkg.NewReader(bytes.NewReader(img), binpkg.DefaultConfig())
}

func TestReadV1WithContinuation(t *testing.T) {
	// rank 1 dataspace of 7 elements
	space := append([]byte{1, 1, 0, 0, 0, 0, 0, 0}, u64(7)...)
	cont := append(u64(64), u64(24)...)
	img := v1header(3, v1msg(0x0001, 0, space), v1msg(0x0010, 0, cont))
	if len(img) != 64 {
		t.Fatalf("header is %d bytes", len(img))
	}
	img = append(img, v1msg(0x0003, 0, int32Type)...)

	h, err := Read(reader(img), 0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if h.Version != 1 || h.RefCount != 1 {
		t.Errorf("version %d refcount %d", h.Version, h.RefCount)
	}
	if got, want := h.Types(), []message.Type{message.TypeDataspace, message.TypeDatatype}; !reflect.DeepEqual(got, want) {
		t.Errorf("Types() = %v, want %v", got, want)
	}
	ds, err := h.Dataspace()
	if err != nil || ds == nil || !reflect.DeepEqual(ds.Dimensions, []uint64{7}) {
		t.Errorf("Dataspace() = %+v, %v", ds, err)
	}
	dt, err := h.Datatype()
	if err != nil || dt == nil || dt.Size != 4 || !dt.Signed {
		t.Errorf("Datatype() = %+v, %v", dt, err)
	}
	if fp, err := h.FilterPipeline(); fp != nil || err != nil {
		t.Errorf("FilterPipeline() = %+v, %v; want nil, nil", fp, err)
	}
	if h.IsDataset() || h.IsGroup() || !h.IsDatatype() {
		t.Errorf("IsDataset %v IsGroup %v IsDatatype %v", h.IsDataset(), h.IsGroup(), h.IsDatatype())
	}
}

func TestReadV1SharedDatatype(t *testing.T) {
	// version 2 shared message pointing at the header at 64
	shared := append([]byte{2, 0}, u64(64)...)
	img := v1header(1, v1msg(0x0003, message.FlagShared, shared))
	for len(img) < 64 {
		img = append(img, 0)
	}
	img = append(img, v1header(1, v1msg(0x0003, 0, int32Type))...)

	h, err := Read(reader(img), 0)
	if err != nil {
		t.Fatal(err)
	}
	dt, err := h.Datatype()
	if err != nil {
		t.Fatalf("Datatype() failed: %v", err)
	}
	if dt.Class != message.ClassFixedPoint || dt.Size != 4 {
		t.Errorf("resolved datatype %+v", dt)
	}
}

func TestReadSharedMessageHeap(t *testing.T) {
	shared := append([]byte{3, 1}, make([]byte, 8)...)
	img := v1header(1, v1msg(0x0003, message.FlagShared, shared))

	h, err := Read(reader(img), 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Datatype(); !errors.Is(err, ErrSharedMessage) {
		t.Errorf("expected ErrSharedMessage, got %v", err)
	}
}

func TestReadInvalidHeader(t *testing.T) {
	if _, err := Read(reader([]byte{9, 9, 9, 9, 9, 9, 9, 9}), 0); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("expected ErrInvalidHeader, got %v", err)
	}
	if _, err := Read(reader([]byte{1, 0}), 0); err == nil {
		t.Error("expected error for truncated header")
	}
}

// builtDataset returns a file holding one dataset and the dataset's
// object header address.
func builtDataset(t *testing.T) ([]byte, uint64) {
	t.Helper()
	b := h5test.New()
	b.Dataset("x", []float64{1, 2, 3, 4}, 2, 2).Attr("units", "m")
	img, err := b.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	sb, err := superblock.Read(bytes.NewReader(img))
	if err != nil {
		t.Fatal(err)
	}
	root, err := Read(reader(img), sb.RootAddress)
	if err != nil {
		t.Fatal(err)
	}
	if !root.IsGroup() || root.IsDataset() {
		t.Errorf("root IsGroup %v IsDataset %v", root.IsGroup(), root.IsDataset())
	}
	links, err := root.Links()
	if err != nil || len(links) != 1 {
		t.Fatalf("Links() = %v, %v", links, err)
	}
	return img, links[0].ObjectAddress
}

func TestReadV2(t *testing.T) {
	img, addr := builtDataset(t)

	h, err := Read(reader(img), addr)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if h.Version != 2 || !h.IsDataset() {
		t.Errorf("version %d IsDataset %v", h.Version, h.IsDataset())
	}
	ds, err := h.Dataspace()
	if err != nil || !reflect.DeepEqual(ds.Dimensions, []uint64{2, 2}) {
		t.Errorf("Dataspace() = %+v, %v", ds, err)
	}
	l, err := h.DataLayout()
	if err != nil || !l.IsContiguous() || l.Size != 32 {
		t.Errorf("DataLayout() = %+v, %v", l, err)
	}
	attrs, err := h.Attributes()
	if err != nil || len(attrs) != 1 || attrs[0].Name != "units" {
		t.Errorf("Attributes() = %+v, %v", attrs, err)
	}
	msgs, err := h.Messages(message.TypeAttribute)
	if err != nil || len(msgs) != 1 {
		t.Errorf("Messages(attribute) = %d, %v", len(msgs), err)
	}
}

func TestReadV2ChecksumMismatch(t *testing.T) {
	img, addr := builtDataset(t)
	img[addr+12] ^= 0xFF

	if _, err := Read(reader(img), addr); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestReadV2UnsupportedVersion(t *testing.T) {
	img := []byte("OHDR\x03\x00\x00\x00")
	if _, err := Read(reader(img), 0); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}
