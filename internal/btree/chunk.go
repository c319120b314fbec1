package btree

import (
	"fmt"

	"github.com/robert-malhotra/phicore/internal/binary"
)

// Chunk locates one stored chunk of a dataset.
type Chunk struct {
	// Offset holds the element coordinates of the chunk's first element.
	Offset     []uint64
	Size       uint64
	FilterMask uint32
	Address    uint64
}

// ReadChunks returns every chunk indexed by the tree at addr for a dataset
// of the given rank.
func ReadChunks(r *binary.Reader, addr uint64, rank int) ([]Chunk, error) {
	var out []Chunk
	err := walkChunks(r, addr, rank, 0, &out)
	return out, err
}

func walkChunks(r *binary.Reader, addr uint64, rank, depth int, out *[]Chunk) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: chunk tree too deep", ErrInvalidNode)
	}
	// Keys carry one extra coordinate for the element byte offset.
	keySize := 8 + 8*(rank+1)
	n, err := readNode(r, addr, nodeChunk, keySize)
	if err != nil {
		return err
	}
	undef := binary.Undefined(r.OffsetSize())
	for i := 0; i < n.entries; i++ {
		c := Chunk{Size: uint64(n.d.Uint32()), FilterMask: n.d.Uint32()}
		c.Offset = make([]uint64, rank)
		for j := range c.Offset {
			c.Offset[j] = n.d.Uint64()
		}
		n.d.Skip(8)
		c.Address = n.d.Addr()
		if n.d.Err() != nil {
			return n.d.Err()
		}
		switch {
		case n.level > 0:
			if err := walkChunks(r, c.Address, rank, depth+1, out); err != nil {
				return err
			}
		case c.Address != undef:
			*out = append(*out, c)
		}
	}
	return nil
}
