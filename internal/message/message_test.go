package message

import (
	"reflect"
	"testing"

	"github.com/robert-malhotra/phicore/internal/binary"
)

var cfg = binary.DefaultConfig()

func reparse(t *testing.T, m Writable) Message {
	t.Helper()
	out, err := Parse(m.Type(), Encode(m, cfg), cfg)
	if err != nil {
		t.Fatalf("Parse(%s) failed: %v", m.Type(), err)
	}
	return out
}

func TestDatatypeEncodeDecode(t *testing.T) {
	tests := []struct {
		name string
		dt   *Datatype
		str  string
	}{
		{"int16", NewInteger(2, true), "int16"},
		{"uint64", NewInteger(8, false), "uint64"},
		{"float32", NewFloat(4), "float32"},
		{"float64", NewFloat(8), "float64"},
		{"string", NewString(12, CharsetUTF8), "string[12]"},
		{"vlen string", NewVarLenString(CharsetUTF8), "vlen string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reparse(t, tt.dt).(*Datatype)
			if got.String() != tt.str {
				t.Errorf("String() = %q, want %q", got.String(), tt.str)
			}
			if got.Size != tt.dt.Size || got.Signed != tt.dt.Signed || got.Class != tt.dt.Class {
				t.Errorf("decoded %+v, want %+v", got, tt.dt)
			}
			if got.Class == ClassFloatPoint && !got.IsIEEE() {
				t.Error("float type lost its IEEE layout")
			}
			if got.IsString() && got.Charset != CharsetUTF8 {
				t.Errorf("charset = %d, want UTF-8", got.Charset)
			}
		})
	}
}

func TestFloatClassBitsMatchReferenceLibrary(t *testing.T) {
	data := Encode(NewFloat(8), cfg)
	// class 1, version 1; bits 0x20 0x3f 0x00; size 8
	want := []byte{0x11, 0x20, 0x3f, 0x00, 8, 0, 0, 0}
	if !reflect.DeepEqual(data[:8], want) {
		t.Errorf("header = % x, want % x", data[:8], want)
	}
}

func TestDataspaceEncodeDecode(t *testing.T) {
	got := reparse(t, NewSimpleDataspace(3, 2, 4)).(*Dataspace)
	if !reflect.DeepEqual(got.Dims, []uint64{3, 2, 4}) {
		t.Errorf("dims = %v", got.Dims)
	}
	if got.NumElements() != 24 {
		t.Errorf("NumElements = %d, want 24", got.NumElements())
	}

	scalar := reparse(t, NewScalarDataspace()).(*Dataspace)
	if scalar.Kind != SpaceScalar || scalar.Rank() != 0 || scalar.NumElements() != 1 {
		t.Errorf("scalar decoded as %+v", scalar)
	}
}

func TestDataspaceVersion1(t *testing.T) {
	// version 1, rank 2, flags 1 (max dims), reserved x5, dims, maxdims
	e := binary.NewEncoder(cfg)
	e.Bytes([]byte{1, 2, 1, 0, 0, 0, 0, 0})
	e.Length(5)
	e.Length(7)
	e.Length(binary.Undefined(8))
	e.Length(7)
	m, err := Parse(TypeDataspace, e.Data(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	ds := m.(*Dataspace)
	if !reflect.DeepEqual(ds.Dims, []uint64{5, 7}) || len(ds.MaxDims) != 2 {
		t.Errorf("decoded %+v", ds)
	}
}

func TestLayoutContiguous(t *testing.T) {
	got := reparse(t, NewContiguousLayout(4096, 96)).(*DataLayout)
	if got.Class != LayoutContiguous || got.Address != 4096 || got.Size != 96 {
		t.Errorf("decoded %+v", got)
	}
}

func TestLayoutCompact(t *testing.T) {
	got := reparse(t, NewCompactLayout([]byte{1, 2, 3})).(*DataLayout)
	if got.Class != LayoutCompact || !reflect.DeepEqual(got.CompactData, []byte{1, 2, 3}) {
		t.Errorf("decoded %+v", got)
	}
}

func TestLayoutSingleChunkWithFilters(t *testing.T) {
	l := NewChunkedLayout([]uint64{3, 2, 4}, 8, ChunkIndexSingle)
	l.FilteredSize = 77
	l.FilterMask = 0
	l.IndexAddr = 1234
	got := reparse(t, l).(*DataLayout)
	if got.Index != ChunkIndexSingle || got.FilteredSize != 77 || got.IndexAddr != 1234 {
		t.Errorf("decoded %+v", got)
	}
	if got.Flags&ChunkSingleIndexFilters == 0 {
		t.Error("filtered single chunk flag not set")
	}
	if !reflect.DeepEqual(got.ChunkDims, []uint64{3, 2, 4}) || got.ElementSize != 8 {
		t.Errorf("chunk dims %v elem %d", got.ChunkDims, got.ElementSize)
	}
	if got.ChunkBytes() != 192 {
		t.Errorf("ChunkBytes = %d, want 192", got.ChunkBytes())
	}
}

func TestLayoutFixedArray(t *testing.T) {
	l := NewChunkedLayout([]uint64{300, 2}, 4, ChunkIndexFixedArray)
	l.PageBits = 10
	l.IndexAddr = 999
	got := reparse(t, l).(*DataLayout)
	if got.Index != ChunkIndexFixedArray || got.PageBits != 10 || got.IndexAddr != 999 {
		t.Errorf("decoded %+v", got)
	}
	if !reflect.DeepEqual(got.ChunkDims, []uint64{300, 2}) {
		t.Errorf("chunk dims %v", got.ChunkDims)
	}
}

func TestLayoutVersion3Chunked(t *testing.T) {
	// version 3 chunked layouts carry a v1 B-tree address and 4-byte dims,
	// the last of which is the element size.
	e := binary.NewEncoder(cfg)
	e.Uint8(3)
	e.Uint8(uint8(LayoutChunked))
	e.Uint8(3)
	e.Addr(0x800)
	e.Uint32(10)
	e.Uint32(20)
	e.Uint32(8)
	m, err := Parse(TypeDataLayout, e.Data(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	l := m.(*DataLayout)
	if l.Index != ChunkIndexBTreeV1 || l.IndexAddr != 0x800 || l.ElementSize != 8 {
		t.Errorf("decoded %+v", l)
	}
	if !reflect.DeepEqual(l.ChunkDims, []uint64{10, 20}) {
		t.Errorf("chunk dims %v", l.ChunkDims)
	}
}

func TestFilterPipeline(t *testing.T) {
	p := &FilterPipeline{Filters: []FilterInfo{
		{ID: FilterShuffle, ClientData: []uint32{8}},
		{ID: FilterLZ4, Name: "lz4", Flags: FilterOptional, ClientData: []uint32{0}},
		{ID: FilterFletcher32},
	}}
	got := reparse(t, p).(*FilterPipeline)
	if len(got.Filters) != 3 {
		t.Fatalf("got %d filters", len(got.Filters))
	}
	if got.Filters[1].Name != "lz4" || !got.Filters[1].Optional() {
		t.Errorf("lz4 filter decoded as %+v", got.Filters[1])
	}
	if !reflect.DeepEqual(got.Filters[0].ClientData, []uint32{8}) {
		t.Errorf("shuffle client data %v", got.Filters[0].ClientData)
	}
	if !got.Has(FilterFletcher32) || got.Has(FilterDeflate) {
		t.Error("Has reports wrong membership")
	}
}

func TestFilterPipelineVersion1(t *testing.T) {
	e := binary.NewEncoder(cfg)
	e.Bytes([]byte{1, 1, 0, 0, 0, 0, 0, 0})
	e.Uint16(FilterDeflate)
	e.Uint16(8) // "deflate\0"
	e.Uint16(0)
	e.Uint16(1)
	e.Bytes([]byte("deflate\x00"))
	e.Uint32(6)
	e.Uint32(0) // padding for odd client data count
	m, err := Parse(TypeFilterPipeline, e.Data(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	f := m.(*FilterPipeline).Filters[0]
	if f.ID != FilterDeflate || f.Name != "deflate" || f.ClientData[0] != 6 {
		t.Errorf("decoded %+v", f)
	}
}

func TestAttributeEncodeDecode(t *testing.T) {
	a := &Attribute{
		Name:      "unit",
		Datatype:  NewString(3, CharsetUTF8),
		Dataspace: NewScalarDataspace(),
		Data:      []byte("mm\x00"),
	}
	got := reparse(t, a).(*Attribute)
	if got.Name != "unit" || string(got.Data) != "mm\x00" {
		t.Errorf("decoded %+v", got)
	}
	if got.Datatype.Class != ClassString || got.Dataspace.Kind != SpaceScalar {
		t.Errorf("type %v space %+v", got.Datatype, got.Dataspace)
	}
}

func TestAttributeTruncatedValue(t *testing.T) {
	a := &Attribute{
		Name:      "n",
		Datatype:  NewInteger(8, true),
		Dataspace: NewSimpleDataspace(2),
		Data:      make([]byte, 16),
	}
	data := Encode(a, cfg)
	if _, err := Parse(TypeAttribute, data[:len(data)-1], cfg); err == nil {
		t.Error("expected error for truncated attribute value")
	}
}

func TestLinkEncodeDecode(t *testing.T) {
	for _, name := range []string{"data", "Sxyw_λ", string(make([]byte, 300))} {
		got := reparse(t, NewHardLink(name, 0x1000)).(*Link)
		if got.Name != name || got.Address != 0x1000 || got.Kind != LinkHard {
			t.Errorf("decoded %q as %+v", name, got)
		}
	}
	soft := reparse(t, &Link{Name: "alias", Kind: LinkSoft, Target: "/data/X"}).(*Link)
	if soft.Kind != LinkSoft || soft.Target != "/data/X" {
		t.Errorf("soft link decoded as %+v", soft)
	}
}

func TestLinkInfoCompact(t *testing.T) {
	got := reparse(t, &LinkInfo{}).(*LinkInfo)
	if got.Dense(cfg) {
		t.Error("written link info must describe compact storage")
	}
}

func TestUnknownMessagePreserved(t *testing.T) {
	m, err := Parse(TypeModTime, []byte{1, 0, 0, 0, 9, 9, 9, 9}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	raw, ok := m.(*Raw)
	if !ok {
		t.Fatalf("got %T, want *Raw", m)
	}
	if !reflect.DeepEqual(Encode(raw, cfg), raw.Data) {
		t.Error("raw message not re-encoded verbatim")
	}
}
