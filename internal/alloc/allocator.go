package alloc

import (
	"fmt"
	"sort"
	"sync"
)

// Allocator tracks the end of file and the free blocks behind it.
// It is safe for concurrent use.
type Allocator struct {
	mu   sync.Mutex
	eof  uint64
	base uint64
	free []Block
	live map[uint64]uint64
	st   Stats
}

// Block is a span of file space.
type Block struct {
	Addr uint64
	Size uint64
}

// Stats summarizes allocator activity.
type Stats struct {
	Allocations uint64
	Bytes       uint64
	Reused      uint64
	Freed       uint64
}

// New returns an allocator whose first allocation is at base.
func New(base uint64) *Allocator {
	return &Allocator{eof: base, base: base, live: make(map[uint64]uint64)}
}

// Alloc reserves size bytes and returns their address.
func (a *Allocator) Alloc(size uint64) uint64 {
	return a.AllocAligned(size, 1)
}

// AllocAligned reserves size bytes at a multiple of align.
func (a *Allocator) AllocAligned(size, align uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if size == 0 {
		return a.eof
	}
	if align == 0 {
		align = 1
	}
	if addr, ok := a.reuse(size, align); ok {
		return addr
	}
	if r := a.eof % align; r != 0 {
		a.eof += align - r
	}
	addr := a.eof
	a.eof += size
	a.record(addr, size)
	return addr
}

func (a *Allocator) reuse(size, align uint64) (uint64, bool) {
	for i, b := range a.free {
		addr := b.Addr
		if r := addr % align; r != 0 {
			addr += align - r
		}
		if addr+size > b.Addr+b.Size {
			continue
		}
		var rest []Block
		if addr > b.Addr {
			rest = append(rest, Block{b.Addr, addr - b.Addr})
		}
		if end := b.Addr + b.Size; addr+size < end {
			rest = append(rest, Block{addr + size, end - addr - size})
		}
		a.free = append(a.free[:i], append(rest, a.free[i+1:]...)...)
		a.record(addr, size)
		a.st.Reused += size
		return addr, true
	}
	return 0, false
}

func (a *Allocator) record(addr, size uint64) {
	a.live[addr] = size
	a.st.Allocations++
	a.st.Bytes += size
}

// Free releases a block returned by Alloc. Free space that reaches the end
// of file moves the end back instead of staying on the free list.
func (a *Allocator) Free(addr, size uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if size == 0 {
		return
	}
	delete(a.live, addr)
	a.st.Freed += size
	a.free = append(a.free, Block{addr, size})
	sort.Slice(a.free, func(i, j int) bool { return a.free[i].Addr < a.free[j].Addr })

	merged := a.free[:1]
	for _, b := range a.free[1:] {
		last := &merged[len(merged)-1]
		if last.Addr+last.Size == b.Addr {
			last.Size += b.Size
			continue
		}
		merged = append(merged, b)
	}
	if last := merged[len(merged)-1]; last.Addr+last.Size == a.eof {
		a.eof = last.Addr
		merged = merged[:len(merged)-1]
	}
	a.free = merged
}

// EOF returns the address one past the last allocated byte.
func (a *Allocator) EOF() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eof
}

// SetEOF moves the end of file, used when reopening an existing file.
func (a *Allocator) SetEOF(addr uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.eof = addr
}

func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.st
}

// FreeBlocks returns a copy of the free list in address order.
func (a *Allocator) FreeBlocks() []Block {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Block(nil), a.free...)
}

// Validate checks that live allocations lie within bounds and do not
// overlap each other or the free list.
func (a *Allocator) Validate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	spans := make([]Block, 0, len(a.live)+len(a.free))
	for addr, size := range a.live {
		spans = append(spans, Block{addr, size})
	}
	spans = append(spans, a.free...)
	sort.Slice(spans, func(i, j int) bool { return spans[i].Addr < spans[j].Addr })
	for i, s := range spans {
		if s.Addr < a.base || s.Addr+s.Size > a.eof {
			return fmt.Errorf("block [0x%x, +%d) outside [0x%x, 0x%x)", s.Addr, s.Size, a.base, a.eof)
		}
		if i > 0 && spans[i-1].Addr+spans[i-1].Size > s.Addr {
			return fmt.Errorf("overlapping blocks at 0x%x and 0x%x", spans[i-1].Addr, s.Addr)
		}
	}
	return nil
}
