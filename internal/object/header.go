package object

import (
	"errors"

	"github.com/robert-malhotra/phicore/internal/message"
)

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
	ErrNotEditable        = errors.New("object header cannot be rewritten")
)

// Entry is one message of a header along with its encoded body.
type Entry struct {
	Type  message.Type
	Flags uint8
	Raw   []byte
	Msg   message.Message
}

// Header is a decoded object header.
type Header struct {
	Version uint8
	Address uint64
	Entries []Entry

	// Capacity is the size of the message area of a single-chunk version 2
	// header. Zero means the header cannot be rewritten in place.
	Capacity int
}

// Message returns the first message of the given type, or nil.
func (h *Header) Message(typ message.Type) message.Message {
	for _, e := range h.Entries {
		if e.Type == typ {
			return e.Msg
		}
	}
	return nil
}

// Messages returns every message of the given type in header order.
func (h *Header) Messages(typ message.Type) []message.Message {
	var out []message.Message
	for _, e := range h.Entries {
		if e.Type == typ {
			out = append(out, e.Msg)
		}
	}
	return out
}

func (h *Header) Dataspace() *message.Dataspace {
	m, _ := h.Message(message.TypeDataspace).(*message.Dataspace)
	return m
}

func (h *Header) Datatype() *message.Datatype {
	m, _ := h.Message(message.TypeDatatype).(*message.Datatype)
	return m
}

func (h *Header) Layout() *message.DataLayout {
	m, _ := h.Message(message.TypeDataLayout).(*message.DataLayout)
	return m
}

func (h *Header) Pipeline() *message.FilterPipeline {
	m, _ := h.Message(message.TypeFilterPipeline).(*message.FilterPipeline)
	return m
}

func (h *Header) SymbolTable() *message.SymbolTable {
	m, _ := h.Message(message.TypeSymbolTable).(*message.SymbolTable)
	return m
}

func (h *Header) LinkInfo() *message.LinkInfo {
	m, _ := h.Message(message.TypeLinkInfo).(*message.LinkInfo)
	return m
}

// IsDataset reports whether the header describes a dataset.
func (h *Header) IsDataset() bool {
	return h.Message(message.TypeDataspace) != nil && h.Message(message.TypeDataLayout) != nil
}

// IsGroup reports whether the header describes a group of either style.
func (h *Header) IsGroup() bool {
	return h.Message(message.TypeSymbolTable) != nil ||
		h.Message(message.TypeLinkInfo) != nil ||
		(h.Message(message.TypeLink) != nil && !h.IsDataset())
}

// Attributes returns the attribute messages.
func (h *Header) Attributes() []*message.Attribute {
	var out []*message.Attribute
	for _, e := range h.Entries {
		if a, ok := e.Msg.(*message.Attribute); ok {
			out = append(out, a)
		}
	}
	return out
}

// Links returns the link messages.
func (h *Header) Links() []*message.Link {
	var out []*message.Link
	for _, e := range h.Entries {
		if l, ok := e.Msg.(*message.Link); ok {
			out = append(out, l)
		}
	}
	return out
}
