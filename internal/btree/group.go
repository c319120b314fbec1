package btree

import (
	"fmt"

	"github.com/robert-malhotra/phicore/internal/binary"
	"github.com/robert-malhotra/phicore/internal/heap"
)

// GroupEntry is one member of a symbol-table group.
type GroupEntry struct {
	Name    string
	Address uint64

	// SoftTarget is set for soft links, which carry no address.
	SoftTarget string
}

// ReadGroup returns the members of the group indexed by the tree at addr,
// resolving names through the group's local heap.
func ReadGroup(r *binary.Reader, addr uint64, names *heap.Local) ([]GroupEntry, error) {
	var out []GroupEntry
	err := walkGroup(r, addr, names, 0, &out)
	return out, err
}

func walkGroup(r *binary.Reader, addr uint64, names *heap.Local, depth int, out *[]GroupEntry) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: group tree too deep", ErrInvalidNode)
	}
	keySize := r.LengthSize()
	n, err := readNode(r, addr, nodeGroup, keySize)
	if err != nil {
		return err
	}
	for i := 0; i < n.entries; i++ {
		n.d.Skip(keySize)
		child := n.d.Addr()
		if n.level > 0 {
			err = walkGroup(r, child, names, depth+1, out)
		} else {
			err = readSymbolNode(r, child, names, out)
		}
		if err != nil {
			return err
		}
	}
	return n.d.Err()
}

func readSymbolNode(r *binary.Reader, addr uint64, names *heap.Local, out *[]GroupEntry) error {
	cfg := r.Config()
	nr := r.At(int64(addr))
	hdr, err := nr.ReadBytes(8)
	if err != nil {
		return fmt.Errorf("reading symbol node at %d: %w", addr, err)
	}
	if string(hdr[:4]) != "SNOD" || hdr[4] != 1 {
		return fmt.Errorf("%w: bad symbol node at %d", ErrInvalidNode, addr)
	}
	count := int(binary.DecodeUint(hdr[6:8], 2))
	body, err := nr.ReadBytes(count * (2*cfg.OffsetSize + 24))
	if err != nil {
		return fmt.Errorf("reading symbol node entries: %w", err)
	}
	d := binary.NewDecoder(body, cfg)
	for i := 0; i < count; i++ {
		nameOff := d.Addr()
		e := GroupEntry{Address: d.Addr()}
		cache := d.Uint32()
		d.Skip(4)
		scratch := d.Bytes(16)
		if d.Err() != nil {
			return d.Err()
		}
		if e.Name, err = names.String(nameOff); err != nil {
			return err
		}
		if cache == 2 {
			target, err := names.String(binary.DecodeUint(scratch[:4], 4))
			if err != nil {
				return err
			}
			e.SoftTarget = target
			e.Address = binary.Undefined(cfg.OffsetSize)
		}
		*out = append(*out, e)
	}
	return nil
}
