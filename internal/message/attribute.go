package message

import (
	"fmt"

	"github.com/robert-malhotra/phicore/internal/binary"
)

// Attribute is an attribute message: a name, a type, a shape and the raw value.
type Attribute struct {
	Name      string
	Charset   Charset
	Datatype  *Datatype
	Dataspace *Dataspace
	Data      []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

func decodeAttribute(d *binary.Decoder) (*Attribute, error) {
	version := d.Uint8()
	if version < 1 || version > 3 {
		return nil, fmt.Errorf("unsupported attribute version %d", version)
	}
	flags := d.Uint8() // reserved in version 1
	if version > 1 && flags&0x03 != 0 {
		return nil, fmt.Errorf("shared attribute datatypes are not supported")
	}
	nameSize := int(d.Uint16())
	typeSize := int(d.Uint16())
	spaceSize := int(d.Uint16())
	a := &Attribute{}
	if version == 3 {
		a.Charset = Charset(d.Uint8())
	}

	// Version 1 pads each of the three variable fields to eight bytes.
	pad := func(n int) int {
		if version == 1 {
			return (n + 7) &^ 7
		}
		return n
	}

	a.Name = cstring(d.Bytes(pad(nameSize)))

	typeBody := d.Bytes(pad(typeSize))
	spaceBody := d.Bytes(pad(spaceSize))
	if err := d.Err(); err != nil {
		return nil, err
	}

	td := binary.NewDecoder(typeBody[:typeSize], d.Config())
	dt, err := decodeDatatype(td)
	if err == nil {
		err = td.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("attribute %q datatype: %w", a.Name, err)
	}
	sd := binary.NewDecoder(spaceBody[:spaceSize], d.Config())
	ds, err := decodeDataspace(sd)
	if err == nil {
		err = sd.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("attribute %q dataspace: %w", a.Name, err)
	}
	a.Datatype, a.Dataspace = dt, ds

	size := int(ds.NumElements()) * int(dt.Size)
	if size > d.Remaining() {
		return nil, fmt.Errorf("attribute %q: value needs %d bytes, have %d", a.Name, size, d.Remaining())
	}
	a.Data = append([]byte(nil), d.Bytes(size)...)
	return a, nil
}

// Encode writes a version 3 attribute message.
func (m *Attribute) Encode(e *binary.Encoder) {
	typeBody := Encode(m.Datatype, e.Config())
	spaceBody := Encode(m.Dataspace, e.Config())
	e.Uint8(3)
	e.Uint8(0)
	e.Uint16(uint16(len(m.Name) + 1))
	e.Uint16(uint16(len(typeBody)))
	e.Uint16(uint16(len(spaceBody)))
	e.Uint8(uint8(m.Charset))
	e.CString(m.Name)
	e.Bytes(typeBody)
	e.Bytes(spaceBody)
	e.Bytes(m.Data)
}
