package alloc

import (
	"sync"
	"testing"
)

func TestAllocatorAppends(t *testing.T) {
	a := New(1024)
	if addr := a.Alloc(100); addr != 1024 {
		t.Errorf("first allocation at 0x%x, want 0x400", addr)
	}
	if addr := a.Alloc(200); addr != 1124 {
		t.Errorf("second allocation at 0x%x, want 0x464", addr)
	}
	if a.EOF() != 1324 {
		t.Errorf("EOF = %d, want 1324", a.EOF())
	}
}

func TestAllocatorZeroSize(t *testing.T) {
	a := New(100)
	if addr := a.Alloc(0); addr != 100 || a.EOF() != 100 {
		t.Errorf("zero allocation moved EOF: addr %d eof %d", addr, a.EOF())
	}
}

func TestAllocatorAligned(t *testing.T) {
	a := New(100)
	a.Alloc(13)
	if addr := a.AllocAligned(50, 8); addr != 120 {
		t.Errorf("aligned allocation at %d, want 120", addr)
	}
}

func TestFreeAtEOFShrinks(t *testing.T) {
	a := New(0)
	a.Alloc(10)
	addr := a.Alloc(20)
	a.Free(addr, 20)
	if a.EOF() != 10 {
		t.Errorf("EOF = %d, want 10", a.EOF())
	}
	if len(a.FreeBlocks()) != 0 {
		t.Errorf("unexpected free blocks %v", a.FreeBlocks())
	}
}

func TestFreeReuseAndMerge(t *testing.T) {
	a := New(0)
	x := a.Alloc(16)
	y := a.Alloc(16)
	a.Alloc(16)
	a.Free(x, 16)
	a.Free(y, 16)

	blocks := a.FreeBlocks()
	if len(blocks) != 1 || blocks[0] != (Block{0, 32}) {
		t.Fatalf("free list = %v, want one merged block", blocks)
	}
	if addr := a.Alloc(24); addr != 0 {
		t.Errorf("reused allocation at %d, want 0", addr)
	}
	if blocks := a.FreeBlocks(); len(blocks) != 1 || blocks[0] != (Block{24, 8}) {
		t.Errorf("remaining free list = %v", blocks)
	}
	if a.EOF() != 48 {
		t.Errorf("EOF = %d, want 48", a.EOF())
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if s := a.Stats(); s.Reused != 24 || s.Freed != 32 {
		t.Errorf("stats = %+v", s)
	}
}

func TestAllocatorConcurrent(t *testing.T) {
	a := New(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				a.Alloc(8)
			}
		}()
	}
	wg.Wait()
	if a.EOF() != 8*100*8 {
		t.Errorf("EOF = %d, want %d", a.EOF(), 8*100*8)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
