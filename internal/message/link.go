package message

import (
	"fmt"

	"github.com/robert-malhotra/phicore/internal/binary"
)

// LinkKind is the kind of a link message.
type LinkKind uint8

const (
	LinkHard     LinkKind = 0
	LinkSoft     LinkKind = 1
	LinkExternal LinkKind = 64
)

// Link is a named link stored in a new-style group.
type Link struct {
	Name    string
	Kind    LinkKind
	Charset Charset

	Address uint64 // hard links
	Target  string // soft links
}

func (m *Link) Type() Type { return TypeLink }

// NewHardLink returns a link to the object header at addr.
func NewHardLink(name string, addr uint64) *Link {
	return &Link{Name: name, Kind: LinkHard, Charset: charsetOf(name), Address: addr}
}

func decodeLink(d *binary.Decoder) (*Link, error) {
	if v := d.Uint8(); v != 1 {
		return nil, fmt.Errorf("unsupported link version %d", v)
	}
	flags := d.Uint8()
	l := &Link{}
	if flags&0x08 != 0 {
		l.Kind = LinkKind(d.Uint8())
	}
	if flags&0x04 != 0 {
		d.Skip(8) // creation order
	}
	if flags&0x10 != 0 {
		l.Charset = Charset(d.Uint8())
	}
	nameLen := d.UintN(1 << (flags & 0x03))
	l.Name = string(d.Bytes(int(nameLen)))

	switch l.Kind {
	case LinkHard:
		l.Address = d.Addr()
	case LinkSoft:
		l.Target = string(d.Bytes(int(d.Uint16())))
	case LinkExternal:
		// file name and object path; kept only as a description
		body := d.Bytes(int(d.Uint16()))
		if len(body) > 1 {
			l.Target = cstring(body[1:])
		}
	default:
		return nil, fmt.Errorf("unknown link type %d", l.Kind)
	}
	return l, nil
}

// Encode writes a version 1 link message.
func (m *Link) Encode(e *binary.Encoder) {
	width := binary.SizeOfUint(uint64(len(m.Name)))
	var sizeBits uint8
	switch {
	case width <= 1:
		width, sizeBits = 1, 0
	case width <= 2:
		width, sizeBits = 2, 1
	case width <= 4:
		width, sizeBits = 4, 2
	default:
		width, sizeBits = 8, 3
	}
	flags := sizeBits
	if m.Kind != LinkHard {
		flags |= 0x08
	}
	if m.Charset != CharsetASCII {
		flags |= 0x10
	}

	e.Uint8(1)
	e.Uint8(flags)
	if flags&0x08 != 0 {
		e.Uint8(uint8(m.Kind))
	}
	if flags&0x10 != 0 {
		e.Uint8(uint8(m.Charset))
	}
	e.UintN(uint64(len(m.Name)), width)
	e.Bytes([]byte(m.Name))
	switch m.Kind {
	case LinkHard:
		e.Addr(m.Address)
	case LinkSoft:
		e.Uint16(uint16(len(m.Target)))
		e.Bytes([]byte(m.Target))
	}
}

func charsetOf(s string) Charset {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return CharsetUTF8
		}
	}
	return CharsetASCII
}

// LinkInfo marks a group that stores its links as link messages. Only
// compact storage is written: the fractal heap and name index addresses are
// undefined.
type LinkInfo struct {
	HeapAddr uint64
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

// Dense reports whether the links live in a fractal heap instead of the
// object header.
func (m *LinkInfo) Dense(cfg binary.Config) bool {
	return m.HeapAddr != binary.Undefined(cfg.OffsetSize)
}

func decodeLinkInfo(d *binary.Decoder) (*LinkInfo, error) {
	if v := d.Uint8(); v != 0 {
		return nil, fmt.Errorf("unsupported link info version %d", v)
	}
	flags := d.Uint8()
	if flags&0x01 != 0 {
		d.Skip(8)
	}
	li := &LinkInfo{HeapAddr: d.Addr()}
	d.Addr() // name index
	if flags&0x02 != 0 {
		d.Addr() // creation order index
	}
	return li, nil
}

func (m *LinkInfo) Encode(e *binary.Encoder) {
	e.Uint8(0)
	e.Uint8(0)
	e.UndefinedOffset()
	e.UndefinedOffset()
}

// GroupInfo carries the group's link storage thresholds; the defaults are
// always written.
type GroupInfo struct{}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

func (m *GroupInfo) Encode(e *binary.Encoder) {
	e.Uint8(0)
	e.Uint8(0)
}

// SymbolTable points at an old-style group's B-tree and local heap.
type SymbolTable struct {
	BTreeAddr uint64
	HeapAddr  uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func decodeSymbolTable(d *binary.Decoder) (*SymbolTable, error) {
	return &SymbolTable{BTreeAddr: d.Addr(), HeapAddr: d.Addr()}, nil
}

// Continuation points at another block of header messages.
type Continuation struct {
	Address uint64
	Length  uint64
}

func (m *Continuation) Type() Type { return TypeContinuation }

func decodeContinuation(d *binary.Decoder) (*Continuation, error) {
	return &Continuation{Address: d.Addr(), Length: d.Length()}, nil
}

// FillValue is written for every dataset: no fill value defined, space
// allocated late (contiguous) or incrementally (chunked), and the fill
// written only if set.
type FillValue struct {
	Chunked bool
}

func (m *FillValue) Type() Type { return TypeFillValue }

func (m *FillValue) Encode(e *binary.Encoder) {
	alloc := uint8(2)
	if m.Chunked {
		alloc = 3
	}
	e.Uint8(3)
	e.Uint8(alloc | 2<<2)
}
