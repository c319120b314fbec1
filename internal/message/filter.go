package message

import (
	"fmt"

	"github.com/robert-malhotra/phicore/internal/binary"
)

// Registered filter identifiers.
const (
	FilterDeflate    uint16 = 1
	FilterShuffle    uint16 = 2
	FilterFletcher32 uint16 = 3
	FilterSZIP       uint16 = 4
	FilterNBit       uint16 = 5
	FilterScaleOff   uint16 = 6
	FilterBlosc      uint16 = 32001
	FilterLZ4        uint16 = 32004
)

// FilterOptional marks a filter whose failure leaves a chunk unfiltered.
const FilterOptional uint16 = 0x0001

// FilterInfo describes one stage of a filter pipeline.
type FilterInfo struct {
	ID         uint16
	Name       string
	Flags      uint16
	ClientData []uint32
}

// Optional reports whether the filter may be skipped.
func (f FilterInfo) Optional() bool { return f.Flags&FilterOptional != 0 }

// FilterPipeline lists the filters applied, in order, when chunks are written.
type FilterPipeline struct {
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

func decodeFilterPipeline(d *binary.Decoder) (*FilterPipeline, error) {
	version := d.Uint8()
	n := int(d.Uint8())
	if version != 1 && version != 2 {
		return nil, fmt.Errorf("unsupported filter pipeline version %d", version)
	}
	if version == 1 {
		d.Skip(6)
	}

	p := &FilterPipeline{Filters: make([]FilterInfo, 0, n)}
	for i := 0; i < n && d.Err() == nil; i++ {
		var f FilterInfo
		f.ID = d.Uint16()
		nameLen := 0
		if version == 1 || f.ID >= 256 {
			nameLen = int(d.Uint16())
		}
		f.Flags = d.Uint16()
		nvals := int(d.Uint16())
		if nameLen > 0 {
			name := d.Bytes(nameLen)
			f.Name = cstring(name)
		}
		f.ClientData = make([]uint32, nvals)
		for j := range f.ClientData {
			f.ClientData[j] = d.Uint32()
		}
		if version == 1 && nvals%2 == 1 {
			d.Skip(4)
		}
		p.Filters = append(p.Filters, f)
	}
	return p, nil
}

// Encode writes a version 2 pipeline.
func (m *FilterPipeline) Encode(e *binary.Encoder) {
	e.Uint8(2)
	e.Uint8(uint8(len(m.Filters)))
	for _, f := range m.Filters {
		e.Uint16(f.ID)
		if f.ID >= 256 {
			e.Uint16(uint16(len(f.Name) + 1))
		}
		e.Uint16(f.Flags)
		e.Uint16(uint16(len(f.ClientData)))
		if f.ID >= 256 {
			e.CString(f.Name)
		}
		for _, v := range f.ClientData {
			e.Uint32(v)
		}
	}
}

// Has reports whether the pipeline contains the filter id.
func (m *FilterPipeline) Has(id uint16) bool {
	for _, f := range m.Filters {
		if f.ID == id {
			return true
		}
	}
	return false
}

// cstring trims b at its first null byte.
func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
