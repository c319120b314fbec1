package layout

import (
	"fmt"

	"github.com/robert-malhotra/phicore/internal/binary"
	"github.com/robert-malhotra/phicore/internal/btree"
	"github.com/robert-malhotra/phicore/internal/message"
)

// Fixed array client ids.
const (
	faChunks         = 0
	faFilteredChunks = 1
)

type faHeader struct {
	client    uint8
	entrySize int
	pageBits  uint8
	count     uint64
	block     uint64
}

func readFAHeader(r *binary.Reader, addr uint64) (*faHeader, error) {
	cfg := r.Config()
	buf, err := r.At(int64(addr)).ReadBytes(8 + cfg.LengthSize + cfg.OffsetSize + 4)
	if err != nil {
		return nil, fmt.Errorf("reading fixed array header: %w", err)
	}
	if string(buf[:4]) != "FAHD" || buf[4] != 0 {
		return nil, fmt.Errorf("%w: bad fixed array header at %d", ErrUnsupported, addr)
	}
	if err := verify(buf); err != nil {
		return nil, fmt.Errorf("fixed array header: %w", err)
	}
	d := binary.NewDecoder(buf[5:], cfg)
	h := &faHeader{client: d.Uint8(), entrySize: int(d.Uint8()), pageBits: d.Uint8()}
	h.count = d.Length()
	h.block = d.Addr()
	return h, nil
}

func verify(b []byte) error {
	n := len(b) - 4
	if uint64(binary.Lookup3(b[:n])) != binary.DecodeUint(b[n:], 4) {
		return fmt.Errorf("checksum mismatch")
	}
	return nil
}

// readFixedArray lists the chunks recorded in the fixed array at addr.
func readFixedArray(r *binary.Reader, addr uint64, dims []uint64, lm *message.DataLayout) ([]btree.Chunk, error) {
	cfg := r.Config()
	h, err := readFAHeader(r, addr)
	if err != nil {
		return nil, err
	}
	filtered := h.client == faFilteredChunks
	if filtered && h.entrySize < cfg.OffsetSize+5 {
		return nil, fmt.Errorf("%w: fixed array entry size %d", ErrUnsupported, h.entrySize)
	}

	prefix := 6 + cfg.OffsetSize
	perPage := uint64(1) << h.pageBits
	paged := h.count > perPage
	var npages uint64
	if paged {
		npages = (h.count + perPage - 1) / perPage
		prefix += int((npages + 7) / 8)
	}

	br := r.At(int64(h.block))
	head, err := br.ReadBytes(prefix)
	if err != nil {
		return nil, fmt.Errorf("reading fixed array data block: %w", err)
	}
	if string(head[:4]) != "FADB" {
		return nil, fmt.Errorf("%w: bad fixed array data block at %d", ErrUnsupported, h.block)
	}
	bitmap := head[6+cfg.OffsetSize:]

	// Unpaged blocks carry their entries before a single checksum; paged
	// blocks checksum the prefix and then each page separately.
	var entries []byte
	if !paged {
		body, err := br.ReadBytes(int(h.count)*h.entrySize + 4)
		if err != nil {
			return nil, err
		}
		if err := verify(append(append([]byte(nil), head...), body...)); err != nil {
			return nil, fmt.Errorf("fixed array data block: %w", err)
		}
		entries = body[:len(body)-4]
	} else {
		sum, err := br.ReadBytes(4)
		if err != nil {
			return nil, err
		}
		if err := verify(append(append([]byte(nil), head...), sum...)); err != nil {
			return nil, fmt.Errorf("fixed array data block: %w", err)
		}
		undef := make([]byte, h.entrySize)
		for i := range undef[:cfg.OffsetSize] {
			undef[i] = 0xff
		}
		for p := uint64(0); p < npages; p++ {
			n := min(perPage, h.count-p*perPage)
			if bitmap[p/8]&(0x80>>(p%8)) == 0 {
				for i := uint64(0); i < n; i++ {
					entries = append(entries, undef...)
				}
				br.Skip(int64(n)*int64(h.entrySize) + 4)
				continue
			}
			page, err := br.ReadBytes(int(n)*h.entrySize + 4)
			if err != nil {
				return nil, err
			}
			if err := verify(page); err != nil {
				return nil, fmt.Errorf("fixed array page %d: %w", p, err)
			}
			entries = append(entries, page[:len(page)-4]...)
		}
	}

	g := grid(dims, lm.ChunkDims)
	full := lm.ChunkBytes()
	d := binary.NewDecoder(entries, cfg)
	var out []btree.Chunk
	for i := uint64(0); i < h.count; i++ {
		ch := btree.Chunk{Address: d.Addr(), Size: full}
		if filtered {
			ch.Size = d.UintN(h.entrySize - cfg.OffsetSize - 4)
			ch.FilterMask = d.Uint32()
		} else {
			d.Skip(h.entrySize - cfg.OffsetSize)
		}
		if d.Err() != nil {
			return nil, d.Err()
		}
		if r.IsUndefinedOffset(ch.Address) {
			continue
		}
		ch.Offset = chunkOrigin(i, g, lm.ChunkDims)
		out = append(out, ch)
	}
	return out, nil
}

// encodeFixedArray returns the header and data block of a fixed array
// holding chunks, which must be in row-major chunk order.
func encodeFixedArray(cfg binary.Config, headerAddr, blockAddr uint64, pageBits uint8, chunks []btree.Chunk, filtered bool, chunkBytes uint64) (hdr, block []byte) {
	client := uint8(faChunks)
	entrySize := cfg.OffsetSize
	sizeLen := chunkSizeLen(chunkBytes)
	if filtered {
		client = faFilteredChunks
		entrySize += sizeLen + 4
	}

	e := binary.NewEncoder(cfg)
	e.Bytes([]byte("FADB"))
	e.Uint8(0)
	e.Uint8(client)
	e.Addr(headerAddr)
	for _, ch := range chunks {
		e.Addr(ch.Address)
		if filtered {
			e.UintN(ch.Size, sizeLen)
			e.Uint32(ch.FilterMask)
		}
	}
	e.Checksum()
	block = e.Data()

	e = binary.NewEncoder(cfg)
	e.Bytes([]byte("FAHD"))
	e.Uint8(0)
	e.Uint8(client)
	e.Uint8(uint8(entrySize))
	e.Uint8(pageBits)
	e.Length(uint64(len(chunks)))
	e.Addr(blockAddr)
	e.Checksum()
	return e.Data(), block
}

func faHeaderLen(cfg binary.Config) int { return 8 + cfg.LengthSize + cfg.OffsetSize + 4 }

func faBlockLen(cfg binary.Config, n int, filtered bool, chunkBytes uint64) int {
	entry := cfg.OffsetSize
	if filtered {
		entry += chunkSizeLen(chunkBytes) + 4
	}
	return 6 + cfg.OffsetSize + n*entry + 4
}
