package message

import (
	"fmt"

	"github.com/robert-malhotra/phicore/internal/binary"
)

// SpaceKind distinguishes scalar, simple and null dataspaces.
type SpaceKind uint8

const (
	SpaceScalar SpaceKind = 0
	SpaceSimple SpaceKind = 1
	SpaceNull   SpaceKind = 2
)

// Dataspace describes the shape of a dataset or attribute.
type Dataspace struct {
	Kind    SpaceKind
	Dims    []uint64
	MaxDims []uint64 // nil when equal to Dims
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// Rank returns the number of dimensions; scalars have rank 0.
func (m *Dataspace) Rank() int { return len(m.Dims) }

// NumElements returns the total element count. A scalar holds one element
// and a null dataspace none.
func (m *Dataspace) NumElements() uint64 {
	switch m.Kind {
	case SpaceNull:
		return 0
	case SpaceScalar:
		return 1
	}
	n := uint64(1)
	for _, d := range m.Dims {
		n *= d
	}
	return n
}

// NewSimpleDataspace returns a fixed-size dataspace with the given dims.
func NewSimpleDataspace(dims ...uint64) *Dataspace {
	return &Dataspace{Kind: SpaceSimple, Dims: append([]uint64(nil), dims...)}
}

// NewScalarDataspace returns a rank-0 dataspace holding one element.
func NewScalarDataspace() *Dataspace {
	return &Dataspace{Kind: SpaceScalar}
}

func decodeDataspace(d *binary.Decoder) (*Dataspace, error) {
	version := d.Uint8()
	rank := int(d.Uint8())
	flags := d.Uint8()
	ds := &Dataspace{Kind: SpaceSimple}

	switch version {
	case 1:
		d.Skip(5)
		if rank == 0 {
			ds.Kind = SpaceScalar
		}
	case 2:
		ds.Kind = SpaceKind(d.Uint8())
	default:
		return nil, fmt.Errorf("unsupported dataspace version %d", version)
	}

	if rank > 0 {
		ds.Dims = make([]uint64, rank)
		for i := range ds.Dims {
			ds.Dims[i] = d.Length()
		}
	}
	if flags&0x01 != 0 {
		ds.MaxDims = make([]uint64, rank)
		for i := range ds.MaxDims {
			ds.MaxDims[i] = d.Length()
		}
	}
	return ds, nil
}

// Encode writes a version 2 dataspace.
func (m *Dataspace) Encode(e *binary.Encoder) {
	var flags uint8
	if m.MaxDims != nil {
		flags |= 0x01
	}
	e.Uint8(2)
	e.Uint8(uint8(len(m.Dims)))
	e.Uint8(flags)
	e.Uint8(uint8(m.Kind))
	for _, d := range m.Dims {
		e.Length(d)
	}
	for _, d := range m.MaxDims {
		e.Length(d)
	}
}
