package layout

import (
	"fmt"

	"github.com/robert-malhotra/phicore/internal/binary"
	"github.com/robert-malhotra/phicore/internal/btree"
	"github.com/robert-malhotra/phicore/internal/filter"
	"github.com/robert-malhotra/phicore/internal/message"
)

// Chunked storage splits the dataset into equally shaped chunks, each
// filtered independently.
type Chunked struct {
	r        *binary.Reader
	lm       *message.DataLayout
	shape    Shape
	pipeline *filter.Pipeline
}

func (c *Chunked) Class() message.LayoutClass { return message.LayoutChunked }

func (c *Chunked) Read() ([]byte, error) {
	return c.ReadSlice(make([]uint64, len(c.shape.Dims)), c.shape.Dims)
}

func (c *Chunked) ReadSlice(start, count []uint64) ([]byte, error) {
	dims := c.shape.Dims
	if err := checkSelection(dims, start, count); err != nil {
		return nil, err
	}
	elem := c.shape.ElemSize
	out := make([]byte, product(count)*elem)
	if len(out) == 0 {
		return out, nil
	}
	chunks, err := c.chunks()
	if err != nil {
		return nil, err
	}

	cd := c.lm.ChunkDims
	lo := make([]uint64, len(dims))
	hi := make([]uint64, len(dims))
	for _, ch := range chunks {
		if len(ch.Offset) != len(dims) {
			return nil, fmt.Errorf("chunk at %d has rank %d", ch.Address, len(ch.Offset))
		}
		empty := false
		for d := range dims {
			lo[d] = max(ch.Offset[d], start[d])
			hi[d] = min(ch.Offset[d]+cd[d], start[d]+count[d], dims[d])
			if lo[d] >= hi[d] {
				empty = true
				break
			}
		}
		if empty {
			continue
		}
		buf, err := c.load(ch)
		if err != nil {
			return nil, fmt.Errorf("chunk at offset %v: %w", ch.Offset, err)
		}
		dstAt := make([]uint64, len(dims))
		srcAt := make([]uint64, len(dims))
		ext := make([]uint64, len(dims))
		for d := range dims {
			dstAt[d] = lo[d] - start[d]
			srcAt[d] = lo[d] - ch.Offset[d]
			ext[d] = hi[d] - lo[d]
		}
		copyBox(out, count, dstAt, buf, cd, srcAt, ext, elem)
	}
	return out, nil
}

// load reads and unfilters one chunk.
func (c *Chunked) load(ch btree.Chunk) ([]byte, error) {
	raw, err := c.r.At(int64(ch.Address)).ReadBytes(int(ch.Size))
	if err != nil {
		return nil, err
	}
	buf, err := c.pipeline.Decode(raw, ch.FilterMask)
	if err != nil {
		return nil, err
	}
	if want := c.lm.ChunkBytes(); uint64(len(buf)) < want {
		return nil, fmt.Errorf("decoded %d bytes, want %d", len(buf), want)
	}
	return buf, nil
}

// chunks lists the stored chunks. Chunks that were never written are
// absent and read as zeros.
func (c *Chunked) chunks() ([]btree.Chunk, error) {
	lm := c.lm
	if c.r.IsUndefinedOffset(lm.IndexAddr) {
		return nil, nil
	}
	rank := len(c.shape.Dims)
	switch lm.Index {
	case message.ChunkIndexBTreeV1:
		return btree.ReadChunks(c.r, lm.IndexAddr, rank)
	case message.ChunkIndexSingle:
		size := lm.FilteredSize
		if lm.Flags&message.ChunkSingleIndexFilters == 0 {
			size = lm.ChunkBytes()
		}
		return []btree.Chunk{{
			Offset:     make([]uint64, rank),
			Size:       size,
			FilterMask: lm.FilterMask,
			Address:    lm.IndexAddr,
		}}, nil
	case message.ChunkIndexImplicit:
		g := grid(c.shape.Dims, lm.ChunkDims)
		n := product(g)
		size := lm.ChunkBytes()
		out := make([]btree.Chunk, n)
		for i := uint64(0); i < n; i++ {
			out[i] = btree.Chunk{
				Offset:  chunkOrigin(i, g, lm.ChunkDims),
				Size:    size,
				Address: lm.IndexAddr + i*size,
			}
		}
		return out, nil
	case message.ChunkIndexFixedArray:
		return readFixedArray(c.r, lm.IndexAddr, c.shape.Dims, lm)
	}
	return nil, fmt.Errorf("%w: chunk index %d", ErrUnsupported, lm.Index)
}
