package binary

import "encoding/binary"

// Encoder appends little-endian fields to an in-memory buffer.
//
// HDF5 structures are assembled with an Encoder and then written to their
// allocated file address in a single call.
type Encoder struct {
	buf []byte
	cfg Config
}

// NewEncoder returns an empty encoder.
func NewEncoder(cfg Config) *Encoder {
	return &Encoder{cfg: cfg}
}

func (e *Encoder) Config() Config { return e.cfg }
func (e *Encoder) OffsetSize() int { return e.cfg.OffsetSize }
func (e *Encoder) LengthSize() int { return e.cfg.LengthSize }
func (e *Encoder) Len() int { return len(e.buf) }

// Data returns the encoded bytes.
func (e *Encoder) Data() []byte { return e.buf }

// Reset discards the encoded bytes but keeps the configuration.
func (e *Encoder) Reset() { e.buf = e.buf[:0] }

func (e *Encoder) Bytes(p []byte) { e.buf = append(e.buf, p...) }
func (e *Encoder) Zeros(n int) { e.buf = append(e.buf, make([]byte, n)...) }
func (e *Encoder) Uint8(v uint8) { e.buf = append(e.buf, v) }
func (e *Encoder) Uint16(v uint16) { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }
func (e *Encoder) Uint32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *Encoder) Uint64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }
func (e *Encoder) Addr(v uint64) { e.UintN(v, e.cfg.OffsetSize) }
func (e *Encoder) Length(v uint64) { e.UintN(v, e.cfg.LengthSize) }
func (e *Encoder) UndefinedOffset() { e.Addr(Undefined(e.cfg.OffsetSize)) }

// UintN appends the low n bytes of v.
func (e *Encoder) UintN(v uint64, n int) {
	for i := 0; i < n; i++ {
		e.buf = append(e.buf, byte(v>>(8*i)))
	}
}

// CString appends s followed by a null terminator.
func (e *Encoder) CString(s string) {
	e.buf = append(e.buf, s...)
	e.buf = append(e.buf, 0)
}

// PutUint32At overwrites four bytes at off. Used to patch sizes and checksums.
func (e *Encoder) PutUint32At(off int, v uint32) {
	binary.LittleEndian.PutUint32(e.buf[off:], v)
}

// Checksum appends the lookup3 checksum of everything encoded so far.
func (e *Encoder) Checksum() {
	e.Uint32(Lookup3(e.buf))
}

// SizeOfUint returns the number of bytes needed to hold v, at least one.
func SizeOfUint(v uint64) int {
	n := 1
	for v >>= 8; v != 0; v >>= 8 {
		n++
	}
	return n
}
