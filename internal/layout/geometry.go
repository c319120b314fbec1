package layout

import (
	"fmt"
	"math/bits"
)

func product(dims []uint64) uint64 {
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}

// grid returns the number of chunks along each dimension.
func grid(dims, chunk []uint64) []uint64 {
	g := make([]uint64, len(dims))
	for i := range dims {
		g[i] = (dims[i] + chunk[i] - 1) / chunk[i]
	}
	return g
}

// chunkOrigin returns the element coordinates of the chunk with linear
// index idx in row-major chunk order.
func chunkOrigin(idx uint64, g, chunk []uint64) []uint64 {
	o := make([]uint64, len(g))
	for d := len(g) - 1; d >= 0; d-- {
		o[d] = (idx % g[d]) * chunk[d]
		idx /= g[d]
	}
	return o
}

// copyBox copies a box of extent count from src, whose shape is srcDims,
// starting at srcAt, into dst, whose shape is dstDims, starting at dstAt.
func copyBox(dst []byte, dstDims, dstAt []uint64, src []byte, srcDims, srcAt []uint64, count []uint64, elem uint64) {
	rank := len(count)
	if rank == 0 {
		copy(dst[:elem], src[:elem])
		return
	}
	if product(count) == 0 {
		return
	}
	dstStride := strides(dstDims, elem)
	srcStride := strides(srcDims, elem)
	row := count[rank-1] * elem

	var walk func(d int, do, so uint64)
	walk = func(d int, do, so uint64) {
		if d == rank-1 {
			do += dstAt[d] * elem
			so += srcAt[d] * elem
			copy(dst[do:do+row], src[so:so+row])
			return
		}
		for i := uint64(0); i < count[d]; i++ {
			walk(d+1, do+(dstAt[d]+i)*dstStride[d], so+(srcAt[d]+i)*srcStride[d])
		}
	}
	walk(0, 0, 0)
}

func strides(dims []uint64, elem uint64) []uint64 {
	s := make([]uint64, len(dims))
	acc := elem
	for d := len(dims) - 1; d >= 0; d-- {
		s[d] = acc
		acc *= dims[d]
	}
	return s
}

// checkSelection validates a hyperslab against the dataset shape.
func checkSelection(dims, start, count []uint64) error {
	if len(start) != len(dims) || len(count) != len(dims) {
		return fmt.Errorf("selection has rank %d/%d, dataset has rank %d", len(start), len(count), len(dims))
	}
	for d := range dims {
		if start[d] > dims[d] || count[d] > dims[d]-start[d] {
			return fmt.Errorf("selection [%d, %d) out of bounds for dimension %d of size %d",
				start[d], start[d]+count[d], d, dims[d])
		}
	}
	return nil
}

// chunkSizeLen is the width of the filtered chunk size field of fixed
// array entries, derived from the unfiltered chunk size.
func chunkSizeLen(chunkBytes uint64) int {
	log2 := 0
	if chunkBytes > 0 {
		log2 = bits.Len64(chunkBytes) - 1
	}
	return min(8, 1+(log2+8)/8)
}
