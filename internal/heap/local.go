package heap

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/phicore/internal/binary"
)

var ErrInvalidHeap = errors.New("invalid heap")

// Local is a local heap with its data segment loaded.
type Local struct {
	Address     uint64
	DataAddress uint64
	data        []byte
}

// ReadLocal loads the local heap at addr.
func ReadLocal(r *binary.Reader, addr uint64) (*Local, error) {
	cfg := r.Config()
	hdr, err := r.At(int64(addr)).ReadBytes(8 + 2*cfg.LengthSize + cfg.OffsetSize)
	if err != nil {
		return nil, fmt.Errorf("reading local heap at %d: %w", addr, err)
	}
	d := binary.NewDecoder(hdr, cfg)
	if string(d.Bytes(4)) != "HEAP" {
		return nil, fmt.Errorf("%w: bad local heap signature at %d", ErrInvalidHeap, addr)
	}
	if v := d.Uint8(); v != 0 {
		return nil, fmt.Errorf("%w: local heap version %d", ErrInvalidHeap, v)
	}
	d.Skip(3)
	size := d.Length()
	d.Length() // free list head
	h := &Local{Address: addr, DataAddress: d.Addr()}
	if h.data, err = r.At(int64(h.DataAddress)).ReadBytes(int(size)); err != nil {
		return nil, fmt.Errorf("reading local heap data: %w", err)
	}
	return h, nil
}

// String returns the null-terminated string at off.
func (h *Local) String(off uint64) (string, error) {
	if off >= uint64(len(h.data)) {
		return "", fmt.Errorf("%w: offset %d beyond data segment of %d bytes", ErrInvalidHeap, off, len(h.data))
	}
	b := h.data[off:]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}
