package btree

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/phicore/internal/binary"
)

var ErrInvalidNode = errors.New("invalid B-tree node")

const (
	nodeGroup = 0
	nodeChunk = 1
)

// maxDepth bounds recursion through corrupt trees.
const maxDepth = 64

type node struct {
	level   uint8
	entries int
	d       *binary.Decoder
}

// readNode loads the node at addr. keySize is the encoded size of one key.
func readNode(r *binary.Reader, addr uint64, kind uint8, keySize int) (*node, error) {
	cfg := r.Config()
	nr := r.At(int64(addr))
	hdr, err := nr.ReadBytes(8 + 2*cfg.OffsetSize)
	if err != nil {
		return nil, fmt.Errorf("reading B-tree node at %d: %w", addr, err)
	}
	if string(hdr[:4]) != "TREE" {
		return nil, fmt.Errorf("%w: bad signature at %d", ErrInvalidNode, addr)
	}
	if hdr[4] != kind {
		return nil, fmt.Errorf("%w: node type %d, want %d", ErrInvalidNode, hdr[4], kind)
	}
	n := &node{level: hdr[5], entries: int(binary.DecodeUint(hdr[6:8], 2))}
	body, err := nr.ReadBytes(n.entries*(keySize+cfg.OffsetSize) + keySize)
	if err != nil {
		return nil, fmt.Errorf("reading B-tree node entries: %w", err)
	}
	n.d = binary.NewDecoder(body, cfg)
	return n, nil
}
