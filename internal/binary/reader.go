// Package binary provides low-level encoding and decoding of HDF5 structures.
//
// All HDF5 metadata is little-endian. Addresses ("offsets") and lengths use
// a per-file width taken from the superblock.
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidSize is returned when an offset or length width is not 2, 4 or 8.
var ErrInvalidSize = errors.New("invalid offset/length size: must be 2, 4, or 8")

// Config describes the variable-width fields of a file.
type Config struct {
	OffsetSize int
	LengthSize int
}

// DefaultConfig is used to read a superblock and to create new files.
func DefaultConfig() Config {
	return Config{OffsetSize: 8, LengthSize: 8}
}

// Validate checks that both widths are supported.
func (c Config) Validate() error {
	for _, n := range []int{c.OffsetSize, c.LengthSize} {
		if n != 2 && n != 4 && n != 8 {
			return fmt.Errorf("%w: got %d", ErrInvalidSize, n)
		}
	}
	return nil
}

// Undefined returns the all-ones sentinel for an n-byte field.
func Undefined(n int) uint64 {
	if n >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(8*uint(n)) - 1
}

// Reader is a positioned cursor over an io.ReaderAt.
type Reader struct {
	r   io.ReaderAt
	cfg Config
	pos int64
}

// NewReader creates a reader positioned at offset 0.
func NewReader(r io.ReaderAt, cfg Config) *Reader {
	return &Reader{r: r, cfg: cfg}
}

// At returns a copy of the reader positioned at offset.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{r: r.r, cfg: r.cfg, pos: offset}
}

// WithConfig returns a copy of the reader using different field widths.
func (r *Reader) WithConfig(cfg Config) *Reader {
	return &Reader{r: r.r, cfg: cfg, pos: r.pos}
}

func (r *Reader) Pos() int64 { return r.pos }
func (r *Reader) Config() Config { return r.cfg }
func (r *Reader) OffsetSize() int { return r.cfg.OffsetSize }
func (r *Reader) LengthSize() int { return r.cfg.LengthSize }

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int64) { r.pos += n }

// ReadBytes reads exactly n bytes and advances the position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := r.r.ReadAt(buf, r.pos); err != nil {
		return nil, fmt.Errorf("reading %d bytes at %d: %w", n, r.pos, err)
	}
	r.pos += int64(n)
	return buf, nil
}

// Peek reads n bytes without advancing.
func (r *Reader) Peek(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := r.r.ReadAt(buf, r.pos); err != nil {
		return nil, err
	}
	return buf, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.ReadUintN(1)
	return uint8(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadUintN(2)
	return uint16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.ReadUintN(4)
	return uint32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	return r.ReadUintN(8)
}

// ReadUintN reads an n-byte little-endian unsigned integer.
func (r *Reader) ReadUintN(n int) (uint64, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	return DecodeUint(buf, n), nil
}

// ReadOffset reads an address using the configured width.
func (r *Reader) ReadOffset() (uint64, error) { return r.ReadUintN(r.cfg.OffsetSize) }

// ReadLength reads a length using the configured width.
func (r *Reader) ReadLength() (uint64, error) { return r.ReadUintN(r.cfg.LengthSize) }

// IsUndefinedOffset reports whether addr is the undefined address.
func (r *Reader) IsUndefinedOffset(addr uint64) bool {
	return addr == Undefined(r.cfg.OffsetSize)
}

// DecodeUint decodes an n-byte little-endian unsigned integer from buf.
func DecodeUint(buf []byte, n int) uint64 {
	switch n {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf))
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf))
	case 8:
		return binary.LittleEndian.Uint64(buf)
	}
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v
}
