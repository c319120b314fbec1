package superblock

import (
	"bytes"
	"errors"
	"testing"

	"github.com/robert-malhotra/phicore/internal/binary"
)

func TestReadNotHDF5(t *testing.T) {
	_, err := Read(bytes.NewReader(make([]byte, 4096)))
	if !errors.Is(err, ErrNotHDF5) {
		t.Errorf("expected ErrNotHDF5, got %v", err)
	}
}

func TestReadUnsupportedVersion(t *testing.T) {
	data := make([]byte, 256)
	copy(data, Signature)
	data[8] = 99
	_, err := Read(bytes.NewReader(data))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestEncodeReadV2(t *testing.T) {
	sb := New()
	sb.EOFAddress = 4096
	sb.RootAddress = 48
	buf := sb.Encode()
	if len(buf) != sb.Size() {
		t.Fatalf("encoded %d bytes, Size reports %d", len(buf), sb.Size())
	}

	got, err := Read(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Version != 2 || got.EOFAddress != 4096 || got.RootAddress != 48 {
		t.Errorf("decoded %+v", got)
	}
	if got.ExtensionAddress != binary.Undefined(8) {
		t.Errorf("extension address = %#x", got.ExtensionAddress)
	}
}

func TestReadV2ChecksumMismatch(t *testing.T) {
	buf := New().Encode()
	buf[20] ^= 1
	if _, err := Read(bytes.NewReader(buf)); !errors.Is(err, ErrInvalidSuperblock) {
		t.Fatalf("expected ErrInvalidSuperblock, got %v", err)
	}
}

func TestReadAfterUserBlock(t *testing.T) {
	sb := New()
	sb.BaseAddress = 512
	data := append(make([]byte, 512), sb.Encode()...)
	got, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Offset != 512 || got.BaseAddress != 512 {
		t.Errorf("offset %d base %d", got.Offset, got.BaseAddress)
	}
}

func v0Superblock(version uint8, cache uint32) []byte {
	e := binary.NewEncoder(binary.DefaultConfig())
	e.Bytes(Signature)
	e.Uint8(version)
	e.Zeros(4)
	e.Uint8(8)
	e.Uint8(8)
	e.Uint8(0)
	e.Uint16(4)
	e.Uint16(16)
	e.Zeros(4)
	if version == 1 {
		e.Uint16(32)
		e.Zeros(2)
	}
	e.Addr(0)
	e.UndefinedOffset()
	e.Addr(800)
	e.UndefinedOffset()
	e.Addr(0)
	e.Addr(96)
	e.Uint32(cache)
	e.Zeros(4)
	e.Addr(136)
	e.Addr(680)
	return e.Data()
}

func TestReadV0(t *testing.T) {
	sb, err := Read(bytes.NewReader(v0Superblock(0, 1)))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if sb.RootAddress != 96 || sb.EOFAddress != 800 {
		t.Errorf("root %d eof %d", sb.RootAddress, sb.EOFAddress)
	}
	if sb.RootBTreeAddress != 136 || sb.RootHeapAddress != 680 {
		t.Errorf("cached btree %d heap %d", sb.RootBTreeAddress, sb.RootHeapAddress)
	}
	if sb.GroupLeafK != 4 || sb.GroupInternalK != 16 {
		t.Errorf("K values %d %d", sb.GroupLeafK, sb.GroupInternalK)
	}
}

func TestReadV1NoCache(t *testing.T) {
	sb, err := Read(bytes.NewReader(v0Superblock(1, 0)))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if sb.IndexedStorageK != 32 || sb.RootAddress != 96 {
		t.Errorf("decoded %+v", sb)
	}
	if sb.RootBTreeAddress != binary.Undefined(8) {
		t.Errorf("expected no cached btree address")
	}
}
