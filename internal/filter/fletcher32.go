package filter

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	binpkg "github.com/robert-malhotra/phicore/internal/binary"
	"github.com/robert-malhotra/phicore/internal/message"
)

// Fletcher32 appends a checksum on write and verifies and strips it on read.
type Fletcher32 struct{}

func (Fletcher32) ID() uint16 { return message.FilterFletcher32 }

func (Fletcher32) Encode(in []byte) ([]byte, error) {
	out := make([]byte, len(in), len(in)+4)
	copy(out, in)
	return binary.LittleEndian.AppendUint32(out, binpkg.Fletcher32(in)), nil
}

func (Fletcher32) Decode(in []byte) ([]byte, error) {
	if len(in) < 4 {
		return nil, fmt.Errorf("fletcher32: %d bytes is too short for a checksum", len(in))
	}
	data := in[:len(in)-4]
	stored := binary.LittleEndian.Uint32(in[len(in)-4:])
	sum := binpkg.Fletcher32(data)
	// Files from library versions before 1.6.3 store the sum byte-swapped.
	if stored != sum && stored != bits.ReverseBytes32(sum) {
		return nil, fmt.Errorf("fletcher32: checksum mismatch (stored 0x%08x, computed 0x%08x)", stored, sum)
	}
	return data, nil
}
