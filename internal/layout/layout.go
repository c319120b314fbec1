package layout

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/phicore/internal/binary"
	"github.com/robert-malhotra/phicore/internal/filter"
	"github.com/robert-malhotra/phicore/internal/message"
)

// ErrUnsupported is returned for storage this package cannot read.
var ErrUnsupported = errors.New("unsupported storage layout")

// Layout reads the elements of one dataset.
type Layout interface {
	// Read returns every element in row-major order.
	Read() ([]byte, error)

	// ReadSlice returns the hyperslab of extent count starting at start.
	ReadSlice(start, count []uint64) ([]byte, error)

	Class() message.LayoutClass
}

// Shape describes the elements a layout holds.
type Shape struct {
	Dims     []uint64
	ElemSize uint64
}

func (s Shape) bytes() uint64 { return product(s.Dims) * s.ElemSize }

// New returns a reader for the storage described by lm.
func New(r *binary.Reader, lm *message.DataLayout, shape Shape, fp *message.FilterPipeline) (Layout, error) {
	if lm == nil {
		return nil, fmt.Errorf("%w: missing layout message", ErrUnsupported)
	}
	switch lm.Class {
	case message.LayoutCompact:
		return &Compact{data: lm.CompactData, shape: shape}, nil
	case message.LayoutContiguous:
		return &Contiguous{r: r, addr: lm.Address, shape: shape}, nil
	case message.LayoutChunked:
		p, err := filter.NewPipeline(fp, int(shape.ElemSize))
		if err != nil {
			return nil, err
		}
		if len(lm.ChunkDims) != len(shape.Dims) {
			return nil, fmt.Errorf("%w: chunk rank %d for dataset rank %d", ErrUnsupported, len(lm.ChunkDims), len(shape.Dims))
		}
		for _, d := range lm.ChunkDims {
			if d == 0 {
				return nil, fmt.Errorf("%w: zero chunk dimension", ErrUnsupported)
			}
		}
		return &Chunked{r: r, lm: lm, shape: shape, pipeline: p}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, lm.Class)
}

// Compact storage lives inside the object header.
type Compact struct {
	data  []byte
	shape Shape
}

func (c *Compact) Class() message.LayoutClass { return message.LayoutCompact }

func (c *Compact) Read() ([]byte, error) {
	return c.ReadSlice(make([]uint64, len(c.shape.Dims)), c.shape.Dims)
}

func (c *Compact) ReadSlice(start, count []uint64) ([]byte, error) {
	if err := checkSelection(c.shape.Dims, start, count); err != nil {
		return nil, err
	}
	if uint64(len(c.data)) < c.shape.bytes() {
		return nil, fmt.Errorf("compact data holds %d bytes, need %d", len(c.data), c.shape.bytes())
	}
	out := make([]byte, product(count)*c.shape.ElemSize)
	copyBox(out, count, make([]uint64, len(count)), c.data, c.shape.Dims, start, count, c.shape.ElemSize)
	return out, nil
}

// Contiguous storage is one block of the file in row-major order.
type Contiguous struct {
	r     *binary.Reader
	addr  uint64
	shape Shape
}

func (c *Contiguous) Class() message.LayoutClass { return message.LayoutContiguous }

func (c *Contiguous) Read() ([]byte, error) {
	return c.ReadSlice(make([]uint64, len(c.shape.Dims)), c.shape.Dims)
}

// ReadSlice reads the rows spanned by the selection along the first
// dimension and extracts the selection from them.
func (c *Contiguous) ReadSlice(start, count []uint64) ([]byte, error) {
	dims := c.shape.Dims
	if err := checkSelection(dims, start, count); err != nil {
		return nil, err
	}
	elem := c.shape.ElemSize
	out := make([]byte, product(count)*elem)
	if len(out) == 0 || c.r.IsUndefinedOffset(c.addr) {
		return out, nil
	}
	if len(dims) == 0 {
		b, err := c.r.At(int64(c.addr)).ReadBytes(int(elem))
		if err != nil {
			return nil, fmt.Errorf("reading contiguous data: %w", err)
		}
		return b, nil
	}

	row := product(dims[1:]) * elem
	buf, err := c.r.At(int64(c.addr + start[0]*row)).ReadBytes(int(count[0] * row))
	if err != nil {
		return nil, fmt.Errorf("reading contiguous data: %w", err)
	}
	srcDims := append([]uint64{count[0]}, dims[1:]...)
	srcAt := append([]uint64{0}, start[1:]...)
	copyBox(out, count, make([]uint64, len(count)), buf, srcDims, srcAt, count, elem)
	return out, nil
}
