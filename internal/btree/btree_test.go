package btree

import (
	"bytes"
	"errors"
	"testing"

	"github.com/robert-malhotra/phicore/internal/binary"
	"github.com/robert-malhotra/phicore/internal/heap"
)

var cfg = binary.DefaultConfig()

// file is an in-memory image assembled at fixed addresses.
type file []byte

func (f *file) put(addr int, b []byte) {
	if need := addr + len(b); need > len(*f) {
		*f = append(*f, make([]byte, need-len(*f))...)
	}
	copy((*f)[addr:], b)
}

func (f file) reader() *binary.Reader { return binary.NewReader(bytes.NewReader(f), cfg) }

func nodeHeader(kind, level uint8, entries int) *binary.Encoder {
	e := binary.NewEncoder(cfg)
	e.Bytes([]byte("TREE"))
	e.Uint8(kind)
	e.Uint8(level)
	e.Uint16(uint16(entries))
	e.UndefinedOffset()
	e.UndefinedOffset()
	return e
}

func chunkKey(e *binary.Encoder, size uint32, offs ...uint64) {
	e.Uint32(size)
	e.Uint32(0)
	for _, o := range offs {
		e.Uint64(o)
	}
	e.Uint64(0)
}

func TestReadChunksTwoLevels(t *testing.T) {
	var f file

	leaf := func(addr int, first uint64) {
		e := nodeHeader(nodeChunk, 0, 2)
		chunkKey(e, 80, first, 0)
		e.Addr(5000 + first)
		chunkKey(e, 80, first+10, 0)
		e.Addr(5000 + first + 10)
		chunkKey(e, 0, first+20, 0)
		f.put(addr, e.Data())
	}
	leaf(1000, 0)
	leaf(2000, 20)

	root := nodeHeader(nodeChunk, 1, 2)
	chunkKey(root, 0, 0, 0)
	root.Addr(1000)
	chunkKey(root, 0, 20, 0)
	root.Addr(2000)
	chunkKey(root, 0, 40, 0)
	f.put(100, root.Data())

	chunks, err := ReadChunks(f.reader(), 100, 2)
	if err != nil {
		t.Fatalf("ReadChunks: %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	for i, c := range chunks {
		want := uint64(i * 10)
		if c.Offset[0] != want || c.Address != 5000+want || c.Size != 80 {
			t.Errorf("chunk %d = %+v", i, c)
		}
	}
}

func TestReadChunksRejectsBadNodes(t *testing.T) {
	tests := []struct {
		name  string
		build func() []byte
	}{
		{"signature", func() []byte {
			b := nodeHeader(nodeChunk, 0, 0).Data()
			copy(b, "XXXX")
			return append(b, make([]byte, 64)...)
		}},
		{"node type", func() []byte {
			return append(nodeHeader(nodeGroup, 0, 0).Data(), make([]byte, 64)...)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := file(tt.build())
			if _, err := ReadChunks(f.reader(), 0, 2); !errors.Is(err, ErrInvalidNode) {
				t.Errorf("expected ErrInvalidNode, got %v", err)
			}
		})
	}
}

func TestReadGroup(t *testing.T) {
	var f file

	names := []byte("\x00\x00\x00\x00\x00\x00\x00\x00data\x00\x00\x00\x00link\x00\x00\x00\x00/data\x00\x00\x00")
	h := binary.NewEncoder(cfg)
	h.Bytes([]byte("HEAP"))
	h.Uint8(0)
	h.Zeros(3)
	h.Length(uint64(len(names)))
	h.Length(binary.Undefined(8))
	h.Addr(3100)
	f.put(3000, h.Data())
	f.put(3100, names)

	snod := binary.NewEncoder(cfg)
	snod.Bytes([]byte("SNOD"))
	snod.Uint8(1)
	snod.Uint8(0)
	snod.Uint16(2)
	snod.Addr(8)
	snod.Addr(800)
	snod.Uint32(0)
	snod.Zeros(4 + 16)
	snod.Addr(16)
	snod.UndefinedOffset()
	snod.Uint32(2)
	snod.Zeros(4)
	snod.Uint32(24)
	snod.Zeros(12)
	f.put(2000, snod.Data())

	tree := nodeHeader(nodeGroup, 0, 1)
	tree.Length(0)
	tree.Addr(2000)
	tree.Length(16)
	f.put(1000, tree.Data())

	r := f.reader()
	local, err := heap.ReadLocal(r, 3000)
	if err != nil {
		t.Fatalf("ReadLocal: %v", err)
	}
	entries, err := ReadGroup(r, 1000, local)
	if err != nil {
		t.Fatalf("ReadGroup: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name != "data" || entries[0].Address != 800 {
		t.Errorf("hard link = %+v", entries[0])
	}
	if entries[1].Name != "link" || entries[1].SoftTarget != "/data" {
		t.Errorf("soft link = %+v", entries[1])
	}
}
