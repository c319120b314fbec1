package message

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/phicore/internal/binary"
)

// Class is a datatype class.
type Class uint8

const (
	ClassFixedPoint Class = 0
	ClassFloatPoint Class = 1
	ClassTime       Class = 2
	ClassString     Class = 3
	ClassBitfield   Class = 4
	ClassOpaque     Class = 5
	ClassCompound   Class = 6
	ClassReference  Class = 7
	ClassEnum       Class = 8
	ClassVarLen     Class = 9
	ClassArray      Class = 10
)

var classNames = [...]string{"integer", "float", "time", "string", "bitfield",
	"opaque", "compound", "reference", "enum", "vlen", "array"}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class %d", uint8(c))
}

// StringPadding describes how a fixed-length string fills its slot.
type StringPadding uint8

const (
	PadNullTerm StringPadding = 0
	PadNullPad  StringPadding = 1
	PadSpacePad StringPadding = 2
)

// Charset is the character encoding of a string type.
type Charset uint8

const (
	CharsetASCII Charset = 0
	CharsetUTF8  Charset = 1
)

// Datatype describes the element type of a dataset or attribute.
//
// Only the numeric and string classes are modelled field by field; other
// classes keep their raw properties so they can still be reported.
type Datatype struct {
	Class Class
	Size  uint32

	// Fixed and floating point.
	BigEndian bool
	Signed    bool
	Precision uint16

	// Strings, including the base of a variable-length string.
	Padding StringPadding
	Charset Charset

	// Variable-length types.
	VarLenString bool
	Base         *Datatype

	bits  uint32
	props []byte
}

func (m *Datatype) Type() Type { return TypeDatatype }

// IsNumeric reports whether the type is an integer or a float.
func (m *Datatype) IsNumeric() bool {
	return m.Class == ClassFixedPoint || m.Class == ClassFloatPoint
}

// IsString reports whether the type is a fixed or variable-length string.
func (m *Datatype) IsString() bool {
	return m.Class == ClassString || (m.Class == ClassVarLen && m.VarLenString)
}

// ByteOrder returns the byte order of a numeric type.
func (m *Datatype) ByteOrder() binary.ByteOrder {
	if m.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (m *Datatype) String() string {
	switch m.Class {
	case ClassFixedPoint:
		if m.Signed {
			return fmt.Sprintf("int%d", m.Size*8)
		}
		return fmt.Sprintf("uint%d", m.Size*8)
	case ClassFloatPoint:
		return fmt.Sprintf("float%d", m.Size*8)
	case ClassString:
		return fmt.Sprintf("string[%d]", m.Size)
	case ClassVarLen:
		if m.VarLenString {
			return "vlen string"
		}
	}
	return m.Class.String()
}

func decodeDatatype(d *binpkg.Decoder) (*Datatype, error) {
	head := d.Uint8()
	bits := d.UintN(3)
	dt := &Datatype{
		Class: Class(head & 0x0f),
		Size:  d.Uint32(),
		bits:  uint32(bits),
	}
	version := head >> 4
	if d.Err() != nil {
		return nil, d.Err()
	}

	switch dt.Class {
	case ClassFixedPoint, ClassBitfield:
		dt.BigEndian = bits&0x01 != 0
		dt.Signed = bits&0x08 != 0
		d.Skip(2)
		dt.Precision = d.Uint16()
	case ClassFloatPoint:
		dt.BigEndian = bits&0x01 != 0
		dt.Signed = true
		dt.props = d.Bytes(12)
		if dt.props != nil {
			dt.Precision = binary.LittleEndian.Uint16(dt.props[2:])
		}
	case ClassString:
		dt.Padding = StringPadding(bits & 0x0f)
		dt.Charset = Charset((bits >> 4) & 0x0f)
	case ClassVarLen:
		dt.VarLenString = bits&0x0f == 1
		dt.Padding = StringPadding((bits >> 4) & 0x0f)
		dt.Charset = Charset((bits >> 8) & 0x0f)
		base, err := decodeDatatype(d)
		if err != nil {
			return nil, fmt.Errorf("vlen base type: %w", err)
		}
		dt.Base = base
	case ClassTime, ClassReference:
		// no properties worth modelling
	default:
		// Compound, enum, array and opaque properties run to the end of the
		// message body; they are only carried along.
		if version == 0 {
			return nil, fmt.Errorf("invalid datatype version 0")
		}
		dt.props = d.Rest()
	}
	return dt, nil
}

// Encode writes the datatype using version 1 encoding.
func (m *Datatype) Encode(e *binpkg.Encoder) {
	bits := m.bits
	switch m.Class {
	case ClassFixedPoint:
		bits = 0
		if m.BigEndian {
			bits |= 0x01
		}
		if m.Signed {
			bits |= 0x08
		}
	case ClassString:
		bits = uint32(m.Padding) | uint32(m.Charset)<<4
	case ClassVarLen:
		bits = uint32(m.Padding)<<4 | uint32(m.Charset)<<8
		if m.VarLenString {
			bits |= 1
		}
	}
	e.Uint8(1<<4 | uint8(m.Class))
	e.UintN(uint64(bits), 3)
	e.Uint32(m.Size)

	switch m.Class {
	case ClassFixedPoint:
		e.Uint16(0)
		e.Uint16(m.Precision)
	case ClassVarLen:
		m.Base.Encode(e)
	default:
		e.Bytes(m.props)
	}
}

// NewInteger returns a little-endian integer type of size bytes.
func NewInteger(size uint32, signed bool) *Datatype {
	return &Datatype{
		Class:     ClassFixedPoint,
		Size:      size,
		Signed:    signed,
		Precision: uint16(size * 8),
	}
}

// NewFloat returns a little-endian IEEE 754 type of 4 or 8 bytes.
//
// The class bits and properties match what the reference library writes
// for H5T_IEEE_F32LE and H5T_IEEE_F64LE.
func NewFloat(size uint32) *Datatype {
	var (
		sign     uint32
		expLoc   uint8
		expSize  uint8
		mantSize uint8
		bias     uint32
	)
	switch size {
	case 4:
		sign, expLoc, expSize, mantSize, bias = 31, 23, 8, 23, 127
	case 8:
		sign, expLoc, expSize, mantSize, bias = 63, 52, 11, 52, 1023
	default:
		panic(fmt.Sprintf("message: unsupported float size %d", size))
	}
	props := make([]byte, 12)
	binary.LittleEndian.PutUint16(props[2:], uint16(size*8))
	props[4] = expLoc
	props[5] = expSize
	props[7] = mantSize
	binary.LittleEndian.PutUint32(props[8:], bias)
	return &Datatype{
		Class:     ClassFloatPoint,
		Size:      size,
		Signed:    true,
		Precision: uint16(size * 8),
		bits:      0x20 | sign<<8, // implied mantissa MSB, sign bit position
		props:     props,
	}
}

// NewString returns a fixed-length, null-terminated string type.
func NewString(size uint32, charset Charset) *Datatype {
	if size == 0 {
		size = 1
	}
	return &Datatype{
		Class:   ClassString,
		Size:    size,
		Padding: PadNullTerm,
		Charset: charset,
	}
}

// NewVarLenString returns a variable-length string type.
func NewVarLenString(charset Charset) *Datatype {
	return &Datatype{
		Class:        ClassVarLen,
		Size:         16,
		VarLenString: true,
		Charset:      charset,
		Base:         &Datatype{Class: ClassString, Size: 1, Charset: charset},
	}
}

// IsIEEE reports whether a float type uses the standard IEEE 754 layout.
func (m *Datatype) IsIEEE() bool {
	if m.Class != ClassFloatPoint || len(m.props) < 12 {
		return false
	}
	expSize, mantSize := m.props[5], m.props[7]
	switch m.Size {
	case 4:
		return expSize == 8 && mantSize == 23
	case 8:
		return expSize == 11 && mantSize == 52
	case 2:
		return expSize == 5 && mantSize == 10
	}
	return false
}
