package binary

import (
	"errors"
	"fmt"
)

// ErrShortBuffer is recorded by a Decoder that runs past the end of its data.
var ErrShortBuffer = errors.New("short buffer")

// Decoder reads fields out of an in-memory message body.
//
// The first out-of-range read sets a sticky error; later reads return zero
// values. Callers check Err once after decoding a structure.
type Decoder struct {
	buf []byte
	off int
	cfg Config
	err error
}

// NewDecoder returns a decoder over buf.
func NewDecoder(buf []byte, cfg Config) *Decoder {
	return &Decoder{buf: buf, cfg: cfg}
}

func (d *Decoder) Err() error { return d.err }
func (d *Decoder) Pos() int { return d.off }
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }
func (d *Decoder) Config() Config { return d.cfg }
func (d *Decoder) OffsetSize() int { return d.cfg.OffsetSize }
func (d *Decoder) LengthSize() int { return d.cfg.LengthSize }

// Bytes returns the next n bytes. The slice aliases the decoder's buffer.
func (d *Decoder) Bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.buf) {
		d.err = fmt.Errorf("%w: need %d bytes at %d, have %d", ErrShortBuffer, n, d.off, len(d.buf)-d.off)
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

// Skip discards n bytes.
func (d *Decoder) Skip(n int) { d.Bytes(n) }

// Align skips forward to the next multiple of n, relative to the buffer start.
func (d *Decoder) Align(n int) {
	if rem := d.off % n; rem != 0 {
		d.Skip(n - rem)
	}
}

// Rest returns all remaining bytes.
func (d *Decoder) Rest() []byte { return d.Bytes(d.Remaining()) }

func (d *Decoder) Uint8() uint8 { return uint8(d.UintN(1)) }
func (d *Decoder) Uint16() uint16 { return uint16(d.UintN(2)) }
func (d *Decoder) Uint32() uint32 { return uint32(d.UintN(4)) }
func (d *Decoder) Uint64() uint64 { return d.UintN(8) }

// UintN decodes an n-byte little-endian unsigned integer.
func (d *Decoder) UintN(n int) uint64 {
	b := d.Bytes(n)
	if b == nil {
		return 0
	}
	return DecodeUint(b, n)
}

func (d *Decoder) Addr() uint64 { return d.UintN(d.cfg.OffsetSize) }
func (d *Decoder) Length() uint64 { return d.UintN(d.cfg.LengthSize) }

// CString reads a null-terminated string and consumes the terminator.
func (d *Decoder) CString() string {
	if d.err != nil {
		return ""
	}
	for i := d.off; i < len(d.buf); i++ {
		if d.buf[i] == 0 {
			s := string(d.buf[d.off:i])
			d.off = i + 1
			return s
		}
	}
	d.err = fmt.Errorf("%w: unterminated string at %d", ErrShortBuffer, d.off)
	return ""
}
