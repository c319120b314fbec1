package object

import (
	"fmt"

	"github.com/robert-malhotra/phicore/internal/binary"
	"github.com/robert-malhotra/phicore/internal/message"
)

// Flags of a version 2 header with no optional fields.
const (
	width1 = 0x00
	width2 = 0x01
	width4 = 0x02
)

// New returns an empty version 2 header.
func New() *Header { return &Header{Version: 2} }

// NewGroup returns the header of an empty compact-storage group.
func NewGroup(cfg binary.Config) *Header {
	h := New()
	h.Add(&message.LinkInfo{HeapAddr: binary.Undefined(cfg.OffsetSize)}, cfg)
	h.Add(&message.GroupInfo{}, cfg)
	return h
}

func entry(m message.Writable, cfg binary.Config) Entry {
	return Entry{Type: m.Type(), Raw: message.Encode(m, cfg), Msg: m}
}

// Add appends a message.
func (h *Header) Add(m message.Writable, cfg binary.Config) {
	h.Entries = append(h.Entries, entry(m, cfg))
}

// Set replaces the first message of the same type, or appends m.
func (h *Header) Set(m message.Writable, cfg binary.Config) {
	for i, e := range h.Entries {
		if e.Type == m.Type() {
			h.Entries[i] = entry(m, cfg)
			return
		}
	}
	h.Add(m, cfg)
}

// SetAttribute stores a, replacing any attribute with the same name.
func (h *Header) SetAttribute(a *message.Attribute, cfg binary.Config) {
	for i, e := range h.Entries {
		if old, ok := e.Msg.(*message.Attribute); ok && old.Name == a.Name {
			h.Entries[i] = entry(a, cfg)
			return
		}
	}
	h.Add(a, cfg)
}

// PutLink stores l, replacing any link with the same name.
func (h *Header) PutLink(l *message.Link, cfg binary.Config) {
	for i, e := range h.Entries {
		if old, ok := e.Msg.(*message.Link); ok && old.Name == l.Name {
			h.Entries[i] = entry(l, cfg)
			return
		}
	}
	h.Add(l, cfg)
}

// RemoveLink deletes the named link and reports whether it existed.
func (h *Header) RemoveLink(name string) bool {
	for i, e := range h.Entries {
		if l, ok := e.Msg.(*message.Link); ok && l.Name == name {
			h.Entries = append(h.Entries[:i], h.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// Size returns the number of bytes the messages occupy in a version 2 header.
func (h *Header) Size() int {
	n := 0
	for _, e := range h.Entries {
		n += 4 + len(e.Raw)
	}
	return n
}

// Fits reports whether the messages can be rewritten at the current address.
func (h *Header) Fits() bool {
	return h.Version == 2 && h.Capacity > 0 && h.Size() <= h.Capacity
}

// Reserve returns the message area to allocate for a header whose messages
// need size bytes, leaving room for later links and attributes.
func Reserve(size int) int {
	return size + size/2 + 256
}

// EncodedLen returns the total length of a header with the given capacity.
func EncodedLen(capacity int) int {
	return 6 + widthFor(capacity) + capacity + 4
}

func widthFor(capacity int) int {
	switch {
	case capacity <= 0xff:
		return 1
	case capacity <= 0xffff:
		return 2
	}
	return 4
}

// Encode serializes the header as a single version 2 chunk whose message
// area is exactly capacity bytes. Unused space is filled with a NIL message,
// or left as a gap when it is too small to hold one.
func (h *Header) Encode(cfg binary.Config, capacity int) ([]byte, error) {
	size := h.Size()
	if capacity == 0 {
		capacity = size
	}
	if size > capacity {
		return nil, fmt.Errorf("%w: messages need %d bytes, capacity is %d", ErrNotEditable, size, capacity)
	}
	for _, e := range h.Entries {
		if len(e.Raw) > 0xffff {
			return nil, fmt.Errorf("%w: %s message of %d bytes", ErrNotEditable, e.Type, len(e.Raw))
		}
	}

	e := binary.NewEncoder(cfg)
	e.Bytes(signatureV2)
	e.Uint8(2)
	w := widthFor(capacity)
	switch w {
	case 1:
		e.Uint8(width1)
	case 2:
		e.Uint8(width2)
	default:
		e.Uint8(width4)
	}
	e.UintN(uint64(capacity), w)

	for _, ent := range h.Entries {
		e.Uint8(uint8(ent.Type))
		e.Uint16(uint16(len(ent.Raw)))
		e.Uint8(ent.Flags)
		e.Bytes(ent.Raw)
	}
	gap := capacity - size
	if gap >= 4 {
		// NIL bodies are also bounded by the 16-bit size field.
		for gap > 0 {
			n := gap - 4
			if n > 0xffff {
				n = 0xffff
			}
			if rem := gap - 4 - n; rem > 0 && rem < 4 {
				n -= 4
			}
			e.Uint8(uint8(message.TypeNIL))
			e.Uint16(uint16(n))
			e.Uint8(0)
			e.Zeros(n)
			gap -= 4 + n
		}
	} else {
		e.Zeros(gap)
	}
	e.Checksum()
	h.Version = 2
	h.Capacity = capacity
	return e.Data(), nil
}
