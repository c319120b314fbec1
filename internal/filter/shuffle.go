package filter

import "github.com/robert-malhotra/phicore/internal/message"

// Shuffle groups byte i of every element together, which makes slowly
// varying numeric data far more compressible.
type Shuffle struct {
	ElemSize int
}

func (f *Shuffle) ID() uint16 { return message.FilterShuffle }

func (f *Shuffle) Encode(in []byte) ([]byte, error) {
	n := f.count(in)
	if n == 0 {
		return in, nil
	}
	out := make([]byte, len(in))
	for i := 0; i < n; i++ {
		for j := 0; j < f.ElemSize; j++ {
			out[j*n+i] = in[i*f.ElemSize+j]
		}
	}
	copy(out[n*f.ElemSize:], in[n*f.ElemSize:])
	return out, nil
}

func (f *Shuffle) Decode(in []byte) ([]byte, error) {
	n := f.count(in)
	if n == 0 {
		return in, nil
	}
	out := make([]byte, len(in))
	for i := 0; i < n; i++ {
		for j := 0; j < f.ElemSize; j++ {
			out[i*f.ElemSize+j] = in[j*n+i]
		}
	}
	copy(out[n*f.ElemSize:], in[n*f.ElemSize:])
	return out, nil
}

// count returns the number of whole elements, or 0 when there is nothing
// to transpose. Trailing partial elements are left in place.
func (f *Shuffle) count(in []byte) int {
	if f.ElemSize <= 1 {
		return 0
	}
	n := len(in) / f.ElemSize
	if n <= 1 {
		return 0
	}
	return n
}
