package filter

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/phicore/internal/message"
)

// Pipeline applies a dataset's filters to chunk bytes.
type Pipeline struct {
	filters  []Filter
	optional []bool
}

// NewPipeline builds the pipeline described by fp. A nil message yields an
// empty pipeline.
func NewPipeline(fp *message.FilterPipeline, elemSize int) (*Pipeline, error) {
	p := &Pipeline{}
	if fp == nil {
		return p, nil
	}
	for _, info := range fp.Filters {
		f, err := New(info, elemSize)
		if err != nil {
			return nil, err
		}
		p.filters = append(p.filters, f)
		p.optional = append(p.optional, info.Optional())
	}
	return p, nil
}

func (p *Pipeline) Empty() bool { return len(p.filters) == 0 }

// Encode runs the filters in order and returns the filter mask of the
// result. An optional filter that fails is skipped and recorded in the mask.
func (p *Pipeline) Encode(in []byte) ([]byte, uint32, error) {
	var mask uint32
	data := in
	for i, f := range p.filters {
		if f == nil {
			mask |= 1 << i
			continue
		}
		out, err := f.Encode(data)
		if err != nil {
			if p.optional[i] {
				mask |= 1 << i
				continue
			}
			return nil, 0, fmt.Errorf("%s: %w", Name(f.ID()), err)
		}
		data = out
	}
	return data, mask, nil
}

// Decode reverses the filters not excluded by mask.
func (p *Pipeline) Decode(in []byte, mask uint32) ([]byte, error) {
	data := in
	for i := len(p.filters) - 1; i >= 0; i-- {
		if mask&(1<<i) != 0 {
			continue
		}
		f := p.filters[i]
		if f == nil {
			return nil, fmt.Errorf("%w: chunk requires a skipped optional filter", ErrUnsupported)
		}
		out, err := f.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", Name(f.ID()), err)
		}
		data = out
	}
	return data, nil
}

// Options selects the filters applied to a new dataset.
type Options struct {
	// Codec is "", "deflate" (or "gzip") or "lz4".
	Codec      string
	Level      int
	Shuffle    bool
	Fletcher32 bool
}

// Enabled reports whether any filter is selected.
func (o Options) Enabled() bool {
	return o.Codec != "" || o.Shuffle || o.Fletcher32
}

// Message returns the pipeline message for o, in the order shuffle,
// compression, checksum. It returns nil when no filter is selected.
func (o Options) Message(elemSize int) (*message.FilterPipeline, error) {
	if !o.Enabled() {
		return nil, nil
	}
	fp := &message.FilterPipeline{}
	if o.Shuffle {
		fp.Filters = append(fp.Filters, message.FilterInfo{
			ID:         message.FilterShuffle,
			Flags:      message.FilterOptional,
			ClientData: []uint32{uint32(elemSize)},
		})
	}
	switch strings.ToLower(o.Codec) {
	case "":
	case "deflate", "gzip", "zlib":
		level := o.Level
		if level == 0 {
			level = DefaultDeflateLevel
		}
		if level < 1 || level > 9 {
			return nil, fmt.Errorf("deflate level %d out of range 1-9", level)
		}
		fp.Filters = append(fp.Filters, message.FilterInfo{
			ID:         message.FilterDeflate,
			Flags:      message.FilterOptional,
			ClientData: []uint32{uint32(level)},
		})
	case "lz4":
		fp.Filters = append(fp.Filters, message.FilterInfo{
			ID:         message.FilterLZ4,
			Name:       "HDF5 lz4 filter; see http://www.hdfgroup.org/services/contributions.html",
			Flags:      message.FilterOptional,
			ClientData: []uint32{0},
		})
	case "blosc":
		return nil, fmt.Errorf("%w: blosc", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: unknown codec %q", ErrUnsupported, o.Codec)
	}
	if o.Fletcher32 {
		fp.Filters = append(fp.Filters, message.FilterInfo{ID: message.FilterFletcher32})
	}
	return fp, nil
}
