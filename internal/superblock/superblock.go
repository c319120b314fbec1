package superblock

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/robert-malhotra/phicore/internal/binary"
)

// Signature begins every superblock.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock")
)

// maxSearch bounds the signature search through user blocks.
const maxSearch = 1 << 20

// Superblock holds the file-level metadata needed to navigate a file.
type Superblock struct {
	Version    uint8
	OffsetSize uint8
	LengthSize uint8
	Flags      uint8

	// BaseAddress is the absolute position that file addresses are
	// relative to. It equals the superblock position in files with a user
	// block.
	BaseAddress      uint64
	ExtensionAddress uint64
	EOFAddress       uint64
	RootAddress      uint64

	// Cached root group storage from the version 0 and 1 symbol table
	// entry. Undefined when the cache is absent.
	RootBTreeAddress uint64
	RootHeapAddress  uint64

	GroupLeafK      uint16
	GroupInternalK  uint16
	IndexedStorageK uint16

	// Offset is where the signature was found.
	Offset int64
}

// Config returns the address and length widths used by the file.
func (sb *Superblock) Config() binary.Config {
	return binary.Config{OffsetSize: int(sb.OffsetSize), LengthSize: int(sb.LengthSize)}
}

// Read locates and decodes the superblock of r.
func Read(r io.ReaderAt) (*Superblock, error) {
	sig := make([]byte, 9)
	for off := int64(0); off <= maxSearch; {
		n, err := r.ReadAt(sig, off)
		if n < len(sig) {
			if err == nil || err == io.EOF {
				break
			}
			return nil, err
		}
		if bytes.Equal(sig[:8], Signature) {
			sb, err := decode(r, off, sig[8])
			if err != nil {
				return nil, err
			}
			sb.Offset = off
			return sb, nil
		}
		if off == 0 {
			off = 512
		} else {
			off *= 2
		}
	}
	return nil, ErrNotHDF5
}

// Largest fixed part of any superblock version with 8-byte fields.
const maxLen = 8 + 20 + 4*8 + 2*8 + 8 + 16 + 4

func decode(r io.ReaderAt, off int64, version uint8) (*Superblock, error) {
	buf := make([]byte, maxLen+64)
	n, err := r.ReadAt(buf, off)
	if n == 0 && err != nil {
		return nil, err
	}
	buf = buf[:n]

	switch version {
	case 0, 1:
		return decodeV0(buf, version)
	case 2, 3:
		return decodeV2(buf)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
}

func checkSizes(sb *Superblock) error {
	cfg := sb.Config()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}
	return nil
}

func decodeV0(buf []byte, version uint8) (*Superblock, error) {
	d := binary.NewDecoder(buf, binary.DefaultConfig())
	d.Skip(8)
	sb := &Superblock{Version: d.Uint8()}
	d.Skip(4) // free-space, root entry and shared header versions, reserved
	sb.OffsetSize = d.Uint8()
	sb.LengthSize = d.Uint8()
	d.Skip(1)
	sb.GroupLeafK = d.Uint16()
	sb.GroupInternalK = d.Uint16()
	d.Skip(4) // consistency flags
	if version == 1 {
		sb.IndexedStorageK = d.Uint16()
		d.Skip(2)
	}
	if err := checkSizes(sb); err != nil {
		return nil, err
	}

	d = binary.NewDecoder(buf[d.Pos():], sb.Config())
	sb.BaseAddress = d.Addr()
	d.Addr() // free-space info
	sb.EOFAddress = d.Addr()
	d.Addr() // driver info

	// Root group symbol table entry.
	d.Addr() // link name offset
	sb.RootAddress = d.Addr()
	cache := d.Uint32()
	d.Skip(4)
	undef := binary.Undefined(int(sb.OffsetSize))
	sb.RootBTreeAddress, sb.RootHeapAddress = undef, undef
	if cache == 1 {
		sb.RootBTreeAddress = d.Addr()
		sb.RootHeapAddress = d.Addr()
	}
	sb.ExtensionAddress = undef
	if d.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, d.Err())
	}
	return sb, nil
}

func decodeV2(buf []byte) (*Superblock, error) {
	if len(buf) < 12 {
		return nil, ErrInvalidSuperblock
	}
	sb := &Superblock{Version: buf[8], OffsetSize: buf[9], LengthSize: buf[10], Flags: buf[11]}
	if err := checkSizes(sb); err != nil {
		return nil, err
	}
	end := 12 + 4*int(sb.OffsetSize)
	if len(buf) < end+4 {
		return nil, fmt.Errorf("%w: truncated", ErrInvalidSuperblock)
	}
	stored := binary.DecodeUint(buf[end:end+4], 4)
	if got := binary.Lookup3(buf[:end]); uint64(got) != stored {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidSuperblock)
	}

	d := binary.NewDecoder(buf[12:end], sb.Config())
	sb.BaseAddress = d.Addr()
	sb.ExtensionAddress = d.Addr()
	sb.EOFAddress = d.Addr()
	sb.RootAddress = d.Addr()
	undef := binary.Undefined(int(sb.OffsetSize))
	sb.RootBTreeAddress, sb.RootHeapAddress = undef, undef
	return sb, nil
}
