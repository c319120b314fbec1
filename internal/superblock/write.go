package superblock

import "github.com/robert-malhotra/phicore/internal/binary"

// New returns a version 2 superblock with 8-byte addresses and lengths.
func New() *Superblock {
	return &Superblock{
		Version:          2,
		OffsetSize:       8,
		LengthSize:       8,
		ExtensionAddress: binary.Undefined(8),
		RootBTreeAddress: binary.Undefined(8),
		RootHeapAddress:  binary.Undefined(8),
	}
}

// Size returns the encoded length of a version 2 superblock.
func (sb *Superblock) Size() int {
	return 12 + 4*int(sb.OffsetSize) + 4
}

// Encode serializes sb as a version 2 superblock.
func (sb *Superblock) Encode() []byte {
	e := binary.NewEncoder(sb.Config())
	e.Bytes(Signature)
	e.Uint8(2)
	e.Uint8(sb.OffsetSize)
	e.Uint8(sb.LengthSize)
	e.Uint8(sb.Flags)
	e.Addr(sb.BaseAddress)
	e.Addr(sb.ExtensionAddress)
	e.Addr(sb.EOFAddress)
	e.Addr(sb.RootAddress)
	e.Checksum()
	return e.Data()
}
