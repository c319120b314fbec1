package filter

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/phicore/internal/message"
)

// ErrUnsupported is returned for a required filter this package cannot run.
var ErrUnsupported = errors.New("unsupported filter")

// Filter transforms chunk bytes.
type Filter interface {
	ID() uint16
	Encode(in []byte) ([]byte, error)
	Decode(in []byte) ([]byte, error)
}

type constructor func(cd []uint32, elemSize int) Filter

var registry = map[uint16]constructor{
	message.FilterDeflate: func(cd []uint32, _ int) Filter {
		level := DefaultDeflateLevel
		if len(cd) > 0 {
			level = int(cd[0])
		}
		return &Deflate{Level: level}
	},
	message.FilterShuffle: func(cd []uint32, elemSize int) Filter {
		if len(cd) > 0 && cd[0] > 0 {
			elemSize = int(cd[0])
		}
		return &Shuffle{ElemSize: elemSize}
	},
	message.FilterFletcher32: func([]uint32, int) Filter { return Fletcher32{} },
	message.FilterLZ4: func(cd []uint32, _ int) Filter {
		var block int
		if len(cd) > 0 {
			block = int(cd[0])
		}
		return &LZ4{BlockSize: block}
	},
}

var names = map[uint16]string{
	message.FilterDeflate:    "deflate",
	message.FilterShuffle:    "shuffle",
	message.FilterFletcher32: "fletcher32",
	message.FilterSZIP:       "szip",
	message.FilterNBit:       "nbit",
	message.FilterScaleOff:   "scaleoffset",
	message.FilterBlosc:      "blosc",
	message.FilterLZ4:        "lz4",
}

// Name returns the conventional name of a filter id.
func Name(id uint16) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("filter %d", id)
}

// New returns the filter described by info. A nil filter with a nil error
// means an optional filter that can be skipped.
func New(info message.FilterInfo, elemSize int) (Filter, error) {
	c, ok := registry[info.ID]
	if !ok {
		if info.Optional() {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s (id %d)", ErrUnsupported, Name(info.ID), info.ID)
	}
	return c(info.ClientData, elemSize), nil
}
