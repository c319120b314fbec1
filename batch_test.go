package phicore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robert-malhotra/phicore"
)

func TestBatches(t *testing.T) {
	tests := []struct {
		n, size, min int
		want         []phicore.Range
	}{
		{7, 3, 0, []phicore.Range{{0, 3}, {3, 6}, {6, 7}}},
		{7, 3, 2, []phicore.Range{{0, 3}, {3, 7}}},
		{6, 3, 0, []phicore.Range{{0, 3}, {3, 6}}},
		{6, 3, 1, []phicore.Range{{0, 3}, {3, 6}}},
		{2, 5, 0, []phicore.Range{{0, 2}}},
		{10, 1, 8, []phicore.Range{{0, 1}, {1, 2}, {2, 10}}},
		{5, 0, 0, []phicore.Range{{0, 5}}},
		{0, 3, 0, nil},
	}
	for _, tt := range tests {
		got := phicore.Batches(tt.n, tt.size, tt.min)
		assert.Equal(t, tt.want, got, "Batches(%d, %d, %d)", tt.n, tt.size, tt.min)
	}
}

func TestChunkRows(t *testing.T) {
	tests := []struct {
		rowBytes int
		mib      float64
		max      int
		want     int
	}{
		{1 << 10, 1, 0, 1024},
		{1 << 10, 1, 100, 100},
		{3 << 20, 1, 0, 1},
		{1000, 0.5, 0, 524},
		{0, 1, 10, 10},
	}
	for _, tt := range tests {
		got := phicore.ChunkRows(tt.rowBytes, tt.mib, tt.max)
		assert.Equal(t, tt.want, got, "ChunkRows(%d, %g, %d)", tt.rowBytes, tt.mib, tt.max)
	}
}
