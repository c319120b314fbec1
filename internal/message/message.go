package message

import (
	"fmt"

	"github.com/robert-malhotra/phicore/internal/binary"
)

// Type identifies a header message.
type Type uint16

const (
	TypeNIL            Type = 0x0000
	TypeDataspace      Type = 0x0001
	TypeLinkInfo       Type = 0x0002
	TypeDatatype       Type = 0x0003
	TypeFillValueOld   Type = 0x0004
	TypeFillValue      Type = 0x0005
	TypeLink           Type = 0x0006
	TypeExternalFiles  Type = 0x0007
	TypeDataLayout     Type = 0x0008
	TypeGroupInfo      Type = 0x000A
	TypeFilterPipeline Type = 0x000B
	TypeAttribute      Type = 0x000C
	TypeComment        Type = 0x000D
	TypeModTime        Type = 0x0012
	TypeContinuation   Type = 0x0010
	TypeSymbolTable    Type = 0x0011
	TypeAttributeInfo  Type = 0x0015
	TypeRefCount       Type = 0x0016
)

var typeNames = map[Type]string{
	TypeNIL:            "nil",
	TypeDataspace:      "dataspace",
	TypeLinkInfo:       "link info",
	TypeDatatype:       "datatype",
	TypeFillValueOld:   "fill value (old)",
	TypeFillValue:      "fill value",
	TypeLink:           "link",
	TypeExternalFiles:  "external files",
	TypeDataLayout:     "data layout",
	TypeGroupInfo:      "group info",
	TypeFilterPipeline: "filter pipeline",
	TypeAttribute:      "attribute",
	TypeComment:        "comment",
	TypeModTime:        "modification time",
	TypeContinuation:   "continuation",
	TypeSymbolTable:    "symbol table",
	TypeAttributeInfo:  "attribute info",
	TypeRefCount:       "reference count",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("type 0x%04x", uint16(t))
}

// Message is implemented by every decoded header message.
type Message interface {
	Type() Type
}

// Writable is a message that can be encoded into an object header.
type Writable interface {
	Message
	Encode(e *binary.Encoder)
}

// Encode returns the encoded body of m.
func Encode(m Writable, cfg binary.Config) []byte {
	e := binary.NewEncoder(cfg)
	m.Encode(e)
	return e.Data()
}

// Parse decodes the body of a header message.
func Parse(typ Type, data []byte, cfg binary.Config) (Message, error) {
	d := binary.NewDecoder(data, cfg)
	var (
		m   Message
		err error
	)
	switch typ {
	case TypeDataspace:
		m, err = decodeDataspace(d)
	case TypeDatatype:
		m, err = decodeDatatype(d)
	case TypeDataLayout:
		m, err = decodeDataLayout(d)
	case TypeFilterPipeline:
		m, err = decodeFilterPipeline(d)
	case TypeAttribute:
		m, err = decodeAttribute(d)
	case TypeLink:
		m, err = decodeLink(d)
	case TypeLinkInfo:
		m, err = decodeLinkInfo(d)
	case TypeSymbolTable:
		m, err = decodeSymbolTable(d)
	case TypeContinuation:
		m, err = decodeContinuation(d)
	default:
		return &Raw{typ: typ, Data: data}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s message: %w", typ, err)
	}
	if d.Err() != nil {
		return nil, fmt.Errorf("%s message: %w", typ, d.Err())
	}
	return m, nil
}

// Raw is a message kept as undecoded bytes.
type Raw struct {
	typ  Type
	Data []byte
}

// NewRaw wraps already-encoded message bytes.
func NewRaw(typ Type, data []byte) *Raw { return &Raw{typ: typ, Data: data} }

func (m *Raw) Type() Type { return m.typ }
func (m *Raw) Encode(e *binary.Encoder) { e.Bytes(m.Data) }
