package filter

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/robert-malhotra/phicore/internal/message"
)

// DefaultLZ4BlockSize is used when the pipeline does not set a block size.
const DefaultLZ4BlockSize = 1 << 30

var errLZ4Frame = errors.New("lz4: malformed frame")

// LZ4 implements the HDF5 LZ4 plugin format: an 8-byte big-endian
// uncompressed size, a 4-byte big-endian block size, then each block as a
// 4-byte big-endian compressed length and its bytes. A block whose
// compressed length equals its uncompressed length is stored raw.
type LZ4 struct {
	BlockSize int
}

func (f *LZ4) ID() uint16 { return message.FilterLZ4 }

func (f *LZ4) block(total int) int {
	b := f.BlockSize
	if b <= 0 {
		b = DefaultLZ4BlockSize
	}
	return max(1, min(b, total))
}

func (f *LZ4) Encode(in []byte) ([]byte, error) {
	bs := f.block(len(in))
	out := binary.BigEndian.AppendUint64(nil, uint64(len(in)))
	out = binary.BigEndian.AppendUint32(out, uint32(bs))

	var c lz4.Compressor
	buf := make([]byte, lz4.CompressBlockBound(bs))
	for off := 0; off < len(in); off += bs {
		src := in[off:min(off+bs, len(in))]
		n, err := c.CompressBlock(src, buf)
		if err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		if n == 0 || n >= len(src) {
			out = binary.BigEndian.AppendUint32(out, uint32(len(src)))
			out = append(out, src...)
			continue
		}
		out = binary.BigEndian.AppendUint32(out, uint32(n))
		out = append(out, buf[:n]...)
	}
	return out, nil
}

func (f *LZ4) Decode(in []byte) ([]byte, error) {
	if len(in) < 12 {
		return nil, errLZ4Frame
	}
	total := binary.BigEndian.Uint64(in)
	bs := uint64(binary.BigEndian.Uint32(in[8:]))
	if bs == 0 && total > 0 {
		return nil, errLZ4Frame
	}
	out := make([]byte, total)
	p := in[12:]
	for off := uint64(0); off < total; off += bs {
		want := min(bs, total-off)
		if len(p) < 4 {
			return nil, errLZ4Frame
		}
		n := uint64(binary.BigEndian.Uint32(p))
		p = p[4:]
		if uint64(len(p)) < n {
			return nil, errLZ4Frame
		}
		dst := out[off : off+want]
		if n == want {
			copy(dst, p[:n])
		} else if got, err := lz4.UncompressBlock(p[:n], dst); err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		} else if uint64(got) != want {
			return nil, fmt.Errorf("lz4: block decoded to %d bytes, want %d", got, want)
		}
		p = p[n:]
	}
	return out, nil
}
