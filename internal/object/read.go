package object

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/phicore/internal/binary"
	"github.com/robert-malhotra/phicore/internal/message"
)

var (
	signatureV2    = []byte("OHDR")
	signatureChunk = []byte("OCHK")
)

// Shared messages point to a message stored elsewhere; they are kept raw.
const flagShared = 0x02

// maxContinuations bounds continuation chains in corrupt files.
const maxContinuations = 1024

// Read decodes the object header at addr.
func Read(r *binary.Reader, addr uint64) (*Header, error) {
	hr := r.At(int64(addr))
	peek, err := hr.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", addr, err)
	}
	switch {
	case bytes.Equal(peek, signatureV2):
		return readV2(hr, addr)
	case peek[0] == 1:
		return readV1(hr, addr)
	}
	return nil, fmt.Errorf("%w: unknown format at address %d", ErrInvalidHeader, addr)
}

type chunk struct {
	addr uint64
	size uint64
}

func readV1(r *binary.Reader, addr uint64) (*Header, error) {
	prefix, err := r.ReadBytes(16)
	if err != nil {
		return nil, err
	}
	d := binary.NewDecoder(prefix, r.Config())
	d.Uint8() // version
	d.Skip(1)
	d.Uint16() // message count, including continuations
	d.Uint32() // reference count
	size := d.Uint32()

	h := &Header{Version: 1, Address: addr}
	queue := []chunk{{addr: addr + 16, size: uint64(size)}}
	for i := 0; i < len(queue); i++ {
		if i > maxContinuations {
			return nil, fmt.Errorf("%w: too many continuation blocks", ErrInvalidHeader)
		}
		body, err := r.At(int64(queue[i].addr)).ReadBytes(int(queue[i].size))
		if err != nil {
			return nil, fmt.Errorf("reading header chunk: %w", err)
		}
		cd := binary.NewDecoder(body, r.Config())
		for cd.Remaining() >= 8 {
			typ := message.Type(cd.Uint16())
			n := int(cd.Uint16())
			flags := cd.Uint8()
			cd.Skip(3)
			data := cd.Bytes(n)
			if cd.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, cd.Err())
			}
			queue = h.add(queue, typ, flags, data, r.Config())
		}
	}
	return h, nil
}

func readV2(r *binary.Reader, addr uint64) (*Header, error) {
	fixed, err := r.ReadBytes(6)
	if err != nil {
		return nil, err
	}
	if fixed[4] != 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, fixed[4])
	}
	flags := fixed[5]
	var opt int64
	if flags&0x20 != 0 {
		opt += 16 // access, modification, change and birth times
	}
	if flags&0x10 != 0 {
		opt += 4 // attribute storage phase change values
	}
	r.Skip(opt)
	width := 1 << (flags & 0x03)
	size, err := r.ReadUintN(width)
	if err != nil {
		return nil, err
	}
	order := flags&0x04 != 0

	prefixLen := 6 + int(opt) + width
	h := &Header{Version: 2, Address: addr, Capacity: int(size)}

	first, err := r.At(int64(addr)).ReadBytes(prefixLen + int(size) + 4)
	if err != nil {
		return nil, fmt.Errorf("reading header chunk: %w", err)
	}
	if err := verify(first); err != nil {
		return nil, err
	}

	queue := h.parseV2(nil, first[prefixLen:len(first)-4], order, r.Config())
	for i := 0; i < len(queue); i++ {
		if i > maxContinuations {
			return nil, fmt.Errorf("%w: too many continuation blocks", ErrInvalidHeader)
		}
		h.Capacity = 0
		body, err := r.At(int64(queue[i].addr)).ReadBytes(int(queue[i].size))
		if err != nil {
			return nil, fmt.Errorf("reading continuation chunk: %w", err)
		}
		if len(body) < 8 || !bytes.Equal(body[:4], signatureChunk) {
			return nil, fmt.Errorf("%w: bad continuation signature", ErrInvalidHeader)
		}
		if err := verify(body); err != nil {
			return nil, err
		}
		queue = h.parseV2(queue, body[4:len(body)-4], order, r.Config())
	}
	if flags&^0x03 != 0 || width != widthFor(int(size)) {
		// Optional prefix fields are not reproduced by Encode.
		h.Capacity = 0
	}
	return h, nil
}

func (h *Header) parseV2(queue []chunk, body []byte, order bool, cfg binary.Config) []chunk {
	prefix := 4
	if order {
		prefix = 6
	}
	d := binary.NewDecoder(body, cfg)
	for d.Remaining() >= prefix {
		typ := message.Type(d.Uint8())
		n := int(d.Uint16())
		flags := d.Uint8()
		if order {
			d.Skip(2)
		}
		data := d.Bytes(n)
		if d.Err() != nil {
			break
		}
		queue = h.add(queue, typ, flags, data, cfg)
	}
	return queue
}

// add records one message, returning the queue extended by any continuation.
func (h *Header) add(queue []chunk, typ message.Type, flags uint8, data []byte, cfg binary.Config) []chunk {
	if typ == message.TypeNIL {
		return queue
	}
	raw := append([]byte(nil), data...)
	var msg message.Message
	if flags&flagShared != 0 {
		msg = message.NewRaw(typ, raw)
	} else if m, err := message.Parse(typ, raw, cfg); err == nil {
		msg = m
	} else {
		msg = message.NewRaw(typ, raw)
	}
	if c, ok := msg.(*message.Continuation); ok {
		return append(queue, chunk{addr: c.Address, size: c.Length})
	}
	h.Entries = append(h.Entries, Entry{Type: typ, Flags: flags, Raw: raw, Msg: msg})
	return queue
}

func verify(chunk []byte) error {
	n := len(chunk) - 4
	want := binary.DecodeUint(chunk[n:], 4)
	if got := binary.Lookup3(chunk[:n]); uint64(got) != want {
		return fmt.Errorf("%w: stored 0x%08x, computed 0x%08x", ErrChecksumMismatch, want, got)
	}
	return nil
}
