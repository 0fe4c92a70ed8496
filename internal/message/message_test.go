package message

import (
	"encoding/binary"
	"errors"
	"testing"

	binpkg "github.com/robert-malhotra/h5shard/internal/binary"
)

func mockReader() *binpkg.Reader {
	return binpkg.NewReader(nil, binpkg.DefaultConfig())
}

var le = binary.LittleEndian

func u16(v uint16) []byte { return le.AppendUint16(nil, v) }
func u32(v uint32) []byte { return le.AppendUint32(nil, v) }
func u64(v uint64) []byte { return le.AppendUint64(nil, v) }

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

var (
	float64Type = []byte{0x11, 0x20, 0x3f, 0x00, 8, 0, 0, 0, 0, 0, 64, 0, 52, 11, 0, 52, 0xff, 0x03, 0, 0}
	int32Type   = []byte{0x10, 0x08, 0x00, 0x00, 4, 0, 0, 0, 0, 0, 32, 0}
)

func parse(t *testing.T, typ Type, data []byte) Message {
	t.Helper()
	msg, err := Parse(typ, data, mockReader())
	if err != nil {
		t.Fatalf("Parse(0x%04x) failed: %v", uint16(typ), err)
	}
	return msg
}

func TestParseDataspaceV1(t *testing.T) {
	data := cat([]byte{1, 2, 0, 0, 0, 0, 0, 0}, u64(3), u64(4))
	ds := parse(t, TypeDataspace, data).(*Dataspace)

	if ds.SpaceType != DataspaceSimple {
		t.Errorf("SpaceType = %d, want simple", ds.SpaceType)
	}
	if ds.Rank() != 2 || ds.Dimensions[0] != 3 || ds.Dimensions[1] != 4 {
		t.Errorf("Dimensions = %v, want [3 4]", ds.Dimensions)
	}
	if n, err := ds.NumElements(); err != nil || n != 12 {
		t.Errorf("NumElements = %d, %v; want 12", n, err)
	}
	if ds.MaxDims != nil {
		t.Errorf("MaxDims = %v, want nil", ds.MaxDims)
	}
}

func TestParseDataspaceV2(t *testing.T) {
	scalar := parse(t, TypeDataspace, []byte{2, 0, 0, 0}).(*Dataspace)
	if n, _ := scalar.NumElements(); !scalar.IsScalar() || n != 1 {
		t.Errorf("scalar: type %d, elements %d", scalar.SpaceType, n)
	}

	null := parse(t, TypeDataspace, []byte{2, 0, 0, 2}).(*Dataspace)
	if n, _ := null.NumElements(); !null.IsNull() || n != 0 {
		t.Errorf("null: type %d, elements %d", null.SpaceType, n)
	}

	data := cat([]byte{2, 1, 1, 1}, u64(10), u64(^uint64(0)))
	ds := parse(t, TypeDataspace, data).(*Dataspace)
	if len(ds.MaxDims) != 1 || ds.MaxDims[0] != ^uint64(0) {
		t.Errorf("MaxDims = %v, want [unlimited]", ds.MaxDims)
	}
}

func TestParseDataspaceTruncated(t *testing.T) {
	data := cat([]byte{2, 2, 0, 1}, u64(3))
	if _, err := Parse(TypeDataspace, data, mockReader()); !errors.Is(err, binpkg.ErrShortBuffer) {
		t.Errorf("error = %v, want ErrShortBuffer", err)
	}
}

func TestParseDatatypeNumeric(t *testing.T) {
	f := parse(t, TypeDatatype, float64Type).(*Datatype)
	if f.Class != ClassFloatPoint || f.Size != 8 || f.ByteOrder != binary.LittleEndian {
		t.Errorf("float64: class %v size %d order %v", f.Class, f.Size, f.ByteOrder)
	}
	if f.String() != "float64" {
		t.Errorf("String() = %q, want float64", f.String())
	}

	i := parse(t, TypeDatatype, int32Type).(*Datatype)
	if i.Class != ClassFixedPoint || !i.Signed || i.BitPrecision != 32 {
		t.Errorf("int32: class %v signed %v precision %d", i.Class, i.Signed, i.BitPrecision)
	}

	be := []byte{0x10, 0x01, 0, 0, 2, 0, 0, 0, 0, 0, 16, 0}
	u := parse(t, TypeDatatype, be).(*Datatype)
	if u.Signed || u.ByteOrder != binary.BigEndian || u.String() != "uint16" {
		t.Errorf("uint16 BE: signed %v order %v name %q", u.Signed, u.ByteOrder, u.String())
	}
}

func TestParseDatatypeStrings(t *testing.T) {
	fixed := parse(t, TypeDatatype, []byte{0x13, 0x11, 0, 0, 16, 0, 0, 0}).(*Datatype)
	if fixed.Class != ClassString || fixed.Padding != PadNullPad || fixed.Charset != CharsetUTF8 {
		t.Errorf("fixed string: class %v padding %d charset %d", fixed.Class, fixed.Padding, fixed.Charset)
	}

	vlen := cat([]byte{0x19, 0x01, 0x10, 0x00}, u32(16), []byte{0x13, 0x00, 0x00, 0x00}, u32(1))
	v := parse(t, TypeDatatype, vlen).(*Datatype)
	if !v.IsVarLenString() {
		t.Fatal("IsVarLenString() = false, want true")
	}
	if v.Charset != CharsetUTF8 {
		t.Errorf("charset = %d, want UTF-8", v.Charset)
	}
	if v.Base == nil || v.Base.Class != ClassString {
		t.Errorf("base = %+v, want string", v.Base)
	}
}

func TestParseDatatypeEnum(t *testing.T) {
	// v3 enum over int32 with members A=0, B=1
	data := cat([]byte{0x38, 0x02, 0x00, 0x00}, u32(4), int32Type,
		[]byte("A\x00"), []byte("B\x00"), u32(0), u32(1))
	e := parse(t, TypeDatatype, data).(*Datatype)
	if e.Class != ClassEnum || e.Base == nil || e.Base.Class != ClassFixedPoint {
		t.Fatalf("enum: %+v", e)
	}
	if len(e.EnumNames) != 2 || e.EnumNames[0] != "A" || e.EnumNames[1] != "B" {
		t.Errorf("EnumNames = %v", e.EnumNames)
	}
	if le.Uint32(e.EnumValues[1]) != 1 {
		t.Errorf("EnumValues[1] = %v", e.EnumValues[1])
	}
}

func TestParseDatatypeBadVersion(t *testing.T) {
	if _, err := Parse(TypeDatatype, []byte{0x01, 0, 0, 0, 4, 0, 0, 0}, mockReader()); err == nil {
		t.Error("expected error for datatype version 0")
	}
}

func TestDataspaceOverflow(t *testing.T) {
	data := cat([]byte{2, 2, 0, 1}, u64(1<<33), u64(1<<33))
	if _, err := Parse(TypeDataspace, data, mockReader()); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Parse error = %v, want ErrTooLarge", err)
	}

	ds := &Dataspace{SpaceType: DataspaceSimple, Dimensions: []uint64{1 << 33, 1 << 33}}
	if _, err := ds.NumElements(); !errors.Is(err, ErrTooLarge) {
		t.Errorf("NumElements error = %v, want ErrTooLarge", err)
	}

	// a zero extent makes the product zero however large the others are
	ds.Dimensions = append(ds.Dimensions, 0)
	if n, err := ds.NumElements(); err != nil || n != 0 {
		t.Errorf("NumElements = %d, %v; want 0", n, err)
	}
}

func TestParseLayoutContiguous(t *testing.T) {
	data := cat([]byte{3, 1}, u64(0x800), u64(96))
	l := parse(t, TypeDataLayout, data).(*DataLayout)
	if !l.IsContiguous() || l.Address != 0x800 || l.Size != 96 {
		t.Errorf("layout = %+v", l)
	}
}

func TestParseLayoutCompact(t *testing.T) {
	data := cat([]byte{3, 0}, u16(4), []byte{1, 2, 3, 4})
	l := parse(t, TypeDataLayout, data).(*DataLayout)
	if !l.IsCompact() || len(l.CompactData) != 4 || l.CompactData[3] != 4 {
		t.Errorf("layout = %+v", l)
	}
}

func TestParseLayoutChunkedV3(t *testing.T) {
	data := cat([]byte{3, 2, 3}, u64(0x1000), u32(10), u32(5), u32(8))
	l := parse(t, TypeDataLayout, data).(*DataLayout)
	if !l.IsChunked() || l.ChunkIndexType != ChunkIndexBTreeV1 {
		t.Fatalf("layout = %+v", l)
	}
	if len(l.ChunkDims) != 2 || l.ChunkDims[0] != 10 || l.ChunkDims[1] != 5 {
		t.Errorf("ChunkDims = %v, want [10 5]", l.ChunkDims)
	}
	if l.ElementSize != 8 || l.ChunkIndexAddr != 0x1000 {
		t.Errorf("ElementSize = %d, ChunkIndexAddr = 0x%x", l.ElementSize, l.ChunkIndexAddr)
	}
}

func TestParseLayoutChunkedV1(t *testing.T) {
	data := cat([]byte{1, 2, 2, 0, 0, 0, 0, 0}, u64(0x2000), u32(16), u32(4))
	l := parse(t, TypeDataLayout, data).(*DataLayout)
	if !l.IsChunked() || l.ChunkIndexAddr != 0x2000 || l.ElementSize != 4 {
		t.Errorf("layout = %+v", l)
	}
	if len(l.ChunkDims) != 1 || l.ChunkDims[0] != 16 {
		t.Errorf("ChunkDims = %v, want [16]", l.ChunkDims)
	}
}

func TestParseLayoutChunkedV4Single(t *testing.T) {
	data := cat([]byte{4, 2, 0x02, 2, 2}, u16(100), u16(8),
		[]byte{byte(ChunkIndexSingleChunk)}, u64(333), u32(0), u64(0x3000))
	l := parse(t, TypeDataLayout, data).(*DataLayout)
	if l.ChunkIndexType != ChunkIndexSingleChunk {
		t.Fatalf("ChunkIndexType = %d", l.ChunkIndexType)
	}
	if l.FilteredChunkSize != 333 || l.ChunkIndexAddr != 0x3000 {
		t.Errorf("FilteredChunkSize = %d, ChunkIndexAddr = 0x%x", l.FilteredChunkSize, l.ChunkIndexAddr)
	}
	if l.ChunkDims[0] != 100 || l.ElementSize != 8 {
		t.Errorf("ChunkDims = %v, ElementSize = %d", l.ChunkDims, l.ElementSize)
	}
}

func TestParseLayoutZeroChunkDim(t *testing.T) {
	for name, data := range map[string][]byte{
		"v1": cat([]byte{1, 2, 2, 0, 0, 0, 0, 0}, u64(0x2000), u32(0), u32(4)),
		"v3": cat([]byte{3, 2, 3}, u64(0x1000), u32(10), u32(0), u32(8)),
		"v4": cat([]byte{4, 2, 0x00, 2, 2}, u16(0), u16(8),
			[]byte{byte(ChunkIndexImplicit)}, u64(0x3000)),
	} {
		if _, err := Parse(TypeDataLayout, data, mockReader()); err == nil {
			t.Errorf("%s: expected error for zero chunk dimension", name)
		}
	}
}

func TestParseLayoutVirtual(t *testing.T) {
	_, err := Parse(TypeDataLayout, []byte{4, 3}, mockReader())
	if !errors.Is(err, ErrUnsupportedLayout) {
		t.Errorf("error = %v, want ErrUnsupportedLayout", err)
	}
}

func TestParseFilterPipelineV1(t *testing.T) {
	data := cat([]byte{1, 2, 0, 0, 0, 0, 0, 0},
		// deflate, named, one client value (padded)
		u16(FilterDeflate), u16(8), u16(0), u16(1), []byte("deflate\x00"), u32(6), u32(0),
		// shuffle, unnamed, one value
		u16(FilterShuffle), u16(0), u16(1), u16(1), u32(8), u32(0))
	p := parse(t, TypeFilterPipeline, data).(*FilterPipeline)
	if len(p.Filters) != 2 {
		t.Fatalf("len(Filters) = %d, want 2", len(p.Filters))
	}
	if p.Filters[0].Name != "deflate" || p.Filters[0].ClientData[0] != 6 {
		t.Errorf("filter 0 = %+v", p.Filters[0])
	}
	if !p.Filters[1].IsOptional() || p.Filters[1].ClientData[0] != 8 {
		t.Errorf("filter 1 = %+v", p.Filters[1])
	}
	if !p.HasFilter(FilterShuffle) || p.HasFilter(FilterFletcher32) {
		t.Error("HasFilter mismatch")
	}
}

func TestParseFilterPipelineV2(t *testing.T) {
	data := cat([]byte{2, 2},
		u16(FilterFletcher32), u16(0), u16(0),
		u16(32000), u16(4), u16(0), u16(0), []byte("lzf\x00"))
	p := parse(t, TypeFilterPipeline, data).(*FilterPipeline)
	if len(p.Filters) != 2 || p.Filters[0].ID != FilterFletcher32 {
		t.Fatalf("filters = %+v", p.Filters)
	}
	if p.Filters[1].Name != "lzf" {
		t.Errorf("Name = %q, want lzf", p.Filters[1].Name)
	}
}

func TestParseLink(t *testing.T) {
	hard := cat([]byte{1, 0, 4}, []byte("data"), u64(0x400))
	l := parse(t, TypeLink, hard).(*Link)
	if !l.IsHard() || l.Name != "data" || l.ObjectAddress != 0x400 {
		t.Errorf("hard link = %+v", l)
	}

	soft := cat([]byte{1, 0x08, byte(LinkTypeSoft), 5}, []byte("alias"), u16(5), []byte("/data"))
	s := parse(t, TypeLink, soft).(*Link)
	if !s.IsSoft() || s.SoftTarget != "/data" {
		t.Errorf("soft link = %+v", s)
	}

	ordered := cat([]byte{1, 0x05}, u64(7), u16(1), []byte("x"), u64(0x10))
	o := parse(t, TypeLink, ordered).(*Link)
	if o.CreationOrder != 7 || o.Name != "x" {
		t.Errorf("ordered link = %+v", o)
	}
}

func TestParseLinkInfo(t *testing.T) {
	compact := cat([]byte{0, 0}, u64(^uint64(0)), u64(^uint64(0)))
	if parse(t, TypeLinkInfo, compact).(*LinkInfo).IsDense() {
		t.Error("compact link info reported dense")
	}
	dense := cat([]byte{0, 0}, u64(0x900), u64(0xa00))
	if !parse(t, TypeLinkInfo, dense).(*LinkInfo).IsDense() {
		t.Error("dense link info reported compact")
	}
}

func TestParseAttributeV3(t *testing.T) {
	space := []byte{2, 0, 0, 0}
	data := cat([]byte{3, 0}, u16(6), u16(uint16(len(float64Type))), u16(uint16(len(space))), []byte{0},
		[]byte("scale\x00"), float64Type, space, u64(0x3ff0000000000000))
	a := parse(t, TypeAttribute, data).(*Attribute)
	if a.Name != "scale" {
		t.Errorf("Name = %q, want scale", a.Name)
	}
	if a.Datatype.Class != ClassFloatPoint || !a.Dataspace.IsScalar() {
		t.Errorf("datatype %v, dataspace %+v", a.Datatype.Class, a.Dataspace)
	}
	if len(a.Data) != 8 || le.Uint64(a.Data) != 0x3ff0000000000000 {
		t.Errorf("Data = %v", a.Data)
	}
}

func TestParseAttributeV1Padding(t *testing.T) {
	space := []byte{1, 0, 0, 0, 0, 0, 0, 0}
	data := cat([]byte{1, 0}, u16(2), u16(uint16(len(int32Type))), u16(uint16(len(space))),
		[]byte("n\x00"), make([]byte, 6),
		int32Type, make([]byte, 4),
		space,
		u32(42))
	a := parse(t, TypeAttribute, data).(*Attribute)
	if a.Name != "n" || a.Datatype.Class != ClassFixedPoint {
		t.Errorf("attribute = %+v", a)
	}
	if len(a.Data) != 4 || le.Uint32(a.Data) != 42 {
		t.Errorf("Data = %v", a.Data)
	}
}

func TestParseAttributeShared(t *testing.T) {
	data := cat([]byte{3, 0x01}, u16(2), u16(8), u16(4), []byte{0}, []byte("a\x00"))
	if _, err := Parse(TypeAttribute, data, mockReader()); !errors.Is(err, ErrSharedDatatype) {
		t.Errorf("error = %v, want ErrSharedDatatype", err)
	}
}

func TestParseContinuation(t *testing.T) {
	data := cat(u64(0x5000), u64(0x120))
	c := parse(t, TypeObjectHeaderContinuation, data).(*Continuation)
	if c.Offset != 0x5000 || c.Length != 0x120 {
		t.Errorf("continuation = %+v", c)
	}
}

func TestParseSymbolTable(t *testing.T) {
	st := parse(t, TypeSymbolTable, cat(u64(0x88), u64(0x2a8))).(*SymbolTable)
	if st.BTreeAddress != 0x88 || st.LocalHeapAddress != 0x2a8 {
		t.Errorf("symbol table = %+v", st)
	}
}

func TestParseUnknown(t *testing.T) {
	msg := parse(t, TypeObjectModTime, []byte{1, 0, 0, 0, 9, 9, 9, 9})
	u, ok := msg.(*Unknown)
	if !ok {
		t.Fatalf("got %T, want *Unknown", msg)
	}
	if u.Type() != TypeObjectModTime || len(u.Data()) != 8 {
		t.Errorf("unknown = %v %v", u.Type(), u.Data())
	}
}
