package layout

import (
	"fmt"
	"io"
	"math/bits"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/phicore/internal/alloc"
	"github.com/robert-malhotra/phicore/internal/binary"
	"github.com/robert-malhotra/phicore/internal/btree"
	"github.com/robert-malhotra/phicore/internal/filter"
	"github.com/robert-malhotra/phicore/internal/message"
)

// Chunk size bounds used when no chunk shape is given.
const (
	wholeChunkLimit = 4 << 20
	chunkTarget     = 1 << 20
	maxChunkBytes   = 1<<32 - 1
)

// Options selects the storage of a new dataset.
type Options struct {
	// Chunks is the chunk shape. Nil picks one automatically when filters
	// are enabled.
	Chunks  []uint64
	Filters filter.Options
}

// Stored describes a dataset's storage after Write.
type Stored struct {
	Layout   *message.DataLayout
	Pipeline *message.FilterPipeline
}

// DefaultChunks returns the chunk shape used when none is given: the whole
// dataset when it is small, otherwise the dataset with its largest
// dimension repeatedly halved until a chunk is near one mebibyte.
func DefaultChunks(dims []uint64, elem uint64) []uint64 {
	c := append([]uint64(nil), dims...)
	if product(c)*elem <= wholeChunkLimit {
		return c
	}
	for product(c)*elem > chunkTarget {
		big := 0
		for d := range c {
			if c[d] > c[big] {
				big = d
			}
		}
		if c[big] == 1 {
			break
		}
		c[big] = (c[big] + 1) / 2
	}
	return c
}

// Write stores data, the row-major elements of shape, and returns the
// layout and pipeline messages describing it.
func Write(w io.WriterAt, a *alloc.Allocator, cfg binary.Config, data []byte, shape Shape, opts Options) (*Stored, error) {
	if uint64(len(data)) != shape.bytes() {
		return nil, fmt.Errorf("have %d bytes for %d elements of %d bytes", len(data), product(shape.Dims), shape.ElemSize)
	}
	chunked := opts.Chunks != nil || opts.Filters.Enabled()
	if len(shape.Dims) == 0 || len(data) == 0 || !chunked {
		return writeContiguous(w, a, cfg, data)
	}

	chunks := opts.Chunks
	if chunks == nil {
		chunks = DefaultChunks(shape.Dims, shape.ElemSize)
	}
	if len(chunks) != len(shape.Dims) {
		return nil, fmt.Errorf("chunk shape %v does not match rank %d", chunks, len(shape.Dims))
	}
	cd := make([]uint64, len(chunks))
	for d, n := range chunks {
		if n == 0 {
			return nil, fmt.Errorf("chunk shape %v has a zero dimension", chunks)
		}
		cd[d] = min(n, shape.Dims[d])
	}
	if product(cd)*shape.ElemSize > maxChunkBytes {
		return nil, fmt.Errorf("chunk shape %v exceeds 4 GiB", cd)
	}
	return writeChunked(w, a, cfg, data, shape, cd, opts.Filters)
}

func writeContiguous(w io.WriterAt, a *alloc.Allocator, cfg binary.Config, data []byte) (*Stored, error) {
	if len(data) == 0 {
		return &Stored{Layout: message.NewContiguousLayout(binary.Undefined(cfg.OffsetSize), 0)}, nil
	}
	addr := a.Alloc(uint64(len(data)))
	if _, err := w.WriteAt(data, int64(addr)); err != nil {
		return nil, fmt.Errorf("writing contiguous data: %w", err)
	}
	return &Stored{Layout: message.NewContiguousLayout(addr, uint64(len(data)))}, nil
}

func writeChunked(w io.WriterAt, a *alloc.Allocator, cfg binary.Config, data []byte, shape Shape, cd []uint64, fo filter.Options) (*Stored, error) {
	elem := shape.ElemSize
	fp, err := fo.Message(int(elem))
	if err != nil {
		return nil, err
	}
	p, err := filter.NewPipeline(fp, int(elem))
	if err != nil {
		return nil, err
	}
	filtered := fp != nil

	g := grid(shape.Dims, cd)
	n := product(g)
	chunkBytes := product(cd) * elem
	encoded := make([][]byte, n)
	masks := make([]uint32, n)

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := uint64(0); i < n; i++ {
		eg.Go(func() error {
			origin := chunkOrigin(i, g, cd)
			ext := make([]uint64, len(cd))
			for d := range cd {
				ext[d] = min(cd[d], shape.Dims[d]-origin[d])
			}
			buf := make([]byte, chunkBytes)
			copyBox(buf, cd, make([]uint64, len(cd)), data, shape.Dims, origin, ext, elem)
			out, mask, err := p.Encode(buf)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			encoded[i], masks[i] = out, mask
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	stored := make([]btree.Chunk, n)
	for i, b := range encoded {
		addr := a.Alloc(uint64(len(b)))
		if _, err := w.WriteAt(b, int64(addr)); err != nil {
			return nil, fmt.Errorf("writing chunk %d: %w", i, err)
		}
		stored[i] = btree.Chunk{Address: addr, Size: uint64(len(b)), FilterMask: masks[i]}
	}

	if n == 1 {
		lm := message.NewChunkedLayout(cd, uint32(elem), message.ChunkIndexSingle)
		lm.IndexAddr = stored[0].Address
		if filtered {
			lm.Flags |= message.ChunkSingleIndexFilters
			lm.FilteredSize = stored[0].Size
			lm.FilterMask = stored[0].FilterMask
		}
		return &Stored{Layout: lm, Pipeline: fp}, nil
	}

	// Enough page bits that the array is never split into pages.
	pageBits := uint8(max(10, bits.Len64(n)))
	hdrAddr := a.Alloc(uint64(faHeaderLen(cfg)))
	blockAddr := a.Alloc(uint64(faBlockLen(cfg, int(n), filtered, chunkBytes)))
	hdr, block := encodeFixedArray(cfg, hdrAddr, blockAddr, pageBits, stored, filtered, chunkBytes)
	if _, err := w.WriteAt(hdr, int64(hdrAddr)); err != nil {
		return nil, fmt.Errorf("writing chunk index: %w", err)
	}
	if _, err := w.WriteAt(block, int64(blockAddr)); err != nil {
		return nil, fmt.Errorf("writing chunk index: %w", err)
	}
	lm := message.NewChunkedLayout(cd, uint32(elem), message.ChunkIndexFixedArray)
	lm.IndexAddr = hdrAddr
	lm.PageBits = pageBits
	return &Stored{Layout: lm, Pipeline: fp}, nil
}

// Blocks returns the file space occupied by storage this package writes,
// so it can be released when a dataset is replaced. Storage in other
// formats is reported as nothing.
func Blocks(r *binary.Reader, lm *message.DataLayout, shape Shape) ([]alloc.Block, error) {
	switch lm.Class {
	case message.LayoutContiguous:
		if r.IsUndefinedOffset(lm.Address) || lm.Size == 0 {
			return nil, nil
		}
		return []alloc.Block{{Addr: lm.Address, Size: lm.Size}}, nil
	case message.LayoutChunked:
		if lm.Version < 4 || r.IsUndefinedOffset(lm.IndexAddr) {
			return nil, nil
		}
		switch lm.Index {
		case message.ChunkIndexSingle:
			size := lm.ChunkBytes()
			if lm.Flags&message.ChunkSingleIndexFilters != 0 {
				size = lm.FilteredSize
			}
			return []alloc.Block{{Addr: lm.IndexAddr, Size: size}}, nil
		case message.ChunkIndexFixedArray:
			h, err := readFAHeader(r, lm.IndexAddr)
			if err != nil {
				return nil, err
			}
			if h.count > uint64(1)<<h.pageBits {
				return nil, nil
			}
			chunks, err := readFixedArray(r, lm.IndexAddr, shape.Dims, lm)
			if err != nil {
				return nil, err
			}
			cfg := r.Config()
			out := []alloc.Block{
				{Addr: lm.IndexAddr, Size: uint64(faHeaderLen(cfg))},
				{Addr: h.block, Size: uint64(6 + cfg.OffsetSize + int(h.count)*h.entrySize + 4)},
			}
			for _, c := range chunks {
				out = append(out, alloc.Block{Addr: c.Address, Size: c.Size})
			}
			return out, nil
		}
	}
	return nil, nil
}
