package message

import (
	"fmt"

	"github.com/robert-malhotra/phicore/internal/binary"
)

// LayoutClass is the storage layout of a dataset.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

func (c LayoutClass) String() string {
	switch c {
	case LayoutCompact:
		return "compact"
	case LayoutContiguous:
		return "contiguous"
	case LayoutChunked:
		return "chunked"
	case LayoutVirtual:
		return "virtual"
	}
	return fmt.Sprintf("layout %d", uint8(c))
}

// ChunkIndex is the chunk indexing scheme of a version 4 chunked layout.
// Version 1 to 3 layouts always use a version 1 B-tree.
type ChunkIndex uint8

const (
	ChunkIndexBTreeV1         ChunkIndex = 0
	ChunkIndexSingle          ChunkIndex = 1
	ChunkIndexImplicit        ChunkIndex = 2
	ChunkIndexFixedArray      ChunkIndex = 3
	ChunkIndexExtensibleArray ChunkIndex = 4
	ChunkIndexBTreeV2         ChunkIndex = 5
)

// Chunk layout flags (version 4).
const (
	ChunkDontFilterPartial  uint8 = 0x01
	ChunkSingleIndexFilters uint8 = 0x02
)

// DataLayout is the data layout message.
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	// Compact
	CompactData []byte

	// Contiguous
	Address uint64
	Size    uint64

	// Chunked. ChunkDims holds one entry per dataset dimension; the trailing
	// element-size dimension of the encoding is stored in ElementSize.
	ChunkDims   []uint64
	ElementSize uint32
	Index       ChunkIndex
	IndexAddr   uint64
	Flags       uint8

	// Single-chunk index with filters.
	FilteredSize uint64
	FilterMask   uint32

	// Fixed array index.
	PageBits uint8
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

// NewContiguousLayout describes size bytes stored at addr.
func NewContiguousLayout(addr, size uint64) *DataLayout {
	return &DataLayout{Version: 3, Class: LayoutContiguous, Address: addr, Size: size}
}

// NewCompactLayout stores data directly in the object header.
func NewCompactLayout(data []byte) *DataLayout {
	return &DataLayout{Version: 3, Class: LayoutCompact, CompactData: data}
}

// NewChunkedLayout describes a version 4 chunked layout. The index address
// and index-specific fields are filled in by the chunk writer.
func NewChunkedLayout(chunkDims []uint64, elemSize uint32, index ChunkIndex) *DataLayout {
	return &DataLayout{
		Version:     4,
		Class:       LayoutChunked,
		ChunkDims:   append([]uint64(nil), chunkDims...),
		ElementSize: elemSize,
		Index:       index,
	}
}

// ChunkBytes returns the unfiltered size of one chunk.
func (m *DataLayout) ChunkBytes() uint64 {
	n := uint64(m.ElementSize)
	for _, d := range m.ChunkDims {
		n *= d
	}
	return n
}

func decodeDataLayout(d *binary.Decoder) (*DataLayout, error) {
	l := &DataLayout{Version: d.Uint8()}
	switch l.Version {
	case 1, 2:
		return decodeLayoutV1(d, l)
	case 3, 4:
		return decodeLayoutV3(d, l)
	}
	return nil, fmt.Errorf("unsupported layout version %d", l.Version)
}

func decodeLayoutV1(d *binary.Decoder, l *DataLayout) (*DataLayout, error) {
	ndims := int(d.Uint8())
	l.Class = LayoutClass(d.Uint8())
	d.Skip(5)
	if l.Class != LayoutCompact {
		l.Address = d.Addr()
	}
	dims := make([]uint64, ndims)
	for i := range dims {
		dims[i] = uint64(d.Uint32())
	}
	switch l.Class {
	case LayoutCompact:
		l.CompactData = d.Bytes(int(d.Uint32()))
	case LayoutContiguous:
		l.Size = 1
		for _, n := range dims {
			l.Size *= n
		}
	case LayoutChunked:
		l.IndexAddr = l.Address
		l.Address = 0
		if ndims > 0 {
			l.ChunkDims = dims[:ndims-1]
			l.ElementSize = uint32(dims[ndims-1])
		}
	}
	return l, nil
}

func decodeLayoutV3(d *binary.Decoder, l *DataLayout) (*DataLayout, error) {
	l.Class = LayoutClass(d.Uint8())
	switch l.Class {
	case LayoutCompact:
		l.CompactData = d.Bytes(int(d.Uint16()))
	case LayoutContiguous:
		l.Address = d.Addr()
		l.Size = d.Length()
	case LayoutChunked:
		if l.Version == 3 {
			ndims := int(d.Uint8())
			l.IndexAddr = d.Addr()
			dims := make([]uint64, ndims)
			for i := range dims {
				dims[i] = uint64(d.Uint32())
			}
			if ndims > 0 {
				l.ChunkDims = dims[:ndims-1]
				l.ElementSize = uint32(dims[ndims-1])
			}
			return l, nil
		}
		return decodeChunkedV4(d, l)
	case LayoutVirtual:
		return nil, fmt.Errorf("virtual datasets are not supported")
	default:
		return nil, fmt.Errorf("unknown layout class %d", l.Class)
	}
	return l, nil
}

func decodeChunkedV4(d *binary.Decoder, l *DataLayout) (*DataLayout, error) {
	l.Flags = d.Uint8()
	ndims := int(d.Uint8())
	width := int(d.Uint8())
	dims := make([]uint64, ndims)
	for i := range dims {
		dims[i] = d.UintN(width)
	}
	if ndims > 0 {
		l.ChunkDims = dims[:ndims-1]
		l.ElementSize = uint32(dims[ndims-1])
	}
	l.Index = ChunkIndex(d.Uint8())
	switch l.Index {
	case ChunkIndexSingle:
		if l.Flags&ChunkSingleIndexFilters != 0 {
			l.FilteredSize = d.Length()
			l.FilterMask = d.Uint32()
		}
	case ChunkIndexImplicit:
	case ChunkIndexFixedArray:
		l.PageBits = d.Uint8()
	case ChunkIndexExtensibleArray:
		d.Skip(5)
	case ChunkIndexBTreeV2:
		d.Skip(6)
	default:
		return nil, fmt.Errorf("unknown chunk index type %d", l.Index)
	}
	l.IndexAddr = d.Addr()
	return l, nil
}

// Encode writes a version 3 compact or contiguous layout, or a version 4
// chunked layout with a single-chunk, implicit or fixed array index.
func (m *DataLayout) Encode(e *binary.Encoder) {
	switch m.Class {
	case LayoutCompact:
		e.Uint8(3)
		e.Uint8(uint8(LayoutCompact))
		e.Uint16(uint16(len(m.CompactData)))
		e.Bytes(m.CompactData)
	case LayoutContiguous:
		e.Uint8(3)
		e.Uint8(uint8(LayoutContiguous))
		e.Addr(m.Address)
		e.Length(m.Size)
	case LayoutChunked:
		m.encodeChunked(e)
	}
}

func (m *DataLayout) encodeChunked(e *binary.Encoder) {
	width := binary.SizeOfUint(uint64(m.ElementSize))
	for _, d := range m.ChunkDims {
		width = max(width, binary.SizeOfUint(d))
	}
	flags := m.Flags
	if m.Index == ChunkIndexSingle && m.FilteredSize > 0 {
		flags |= ChunkSingleIndexFilters
	}

	e.Uint8(4)
	e.Uint8(uint8(LayoutChunked))
	e.Uint8(flags)
	e.Uint8(uint8(len(m.ChunkDims) + 1))
	e.Uint8(uint8(width))
	for _, d := range m.ChunkDims {
		e.UintN(d, width)
	}
	e.UintN(uint64(m.ElementSize), width)
	e.Uint8(uint8(m.Index))
	switch m.Index {
	case ChunkIndexSingle:
		if flags&ChunkSingleIndexFilters != 0 {
			e.Length(m.FilteredSize)
			e.Uint32(m.FilterMask)
		}
	case ChunkIndexFixedArray:
		e.Uint8(m.PageBits)
	}
	e.Addr(m.IndexAddr)
}
