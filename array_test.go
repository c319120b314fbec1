package phicore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/phicore"
)

func TestNewArray(t *testing.T) {
	a := phicore.NewArray([]int16{1, 2, 3, 4, 5, 6}, 2, 3)
	assert.Equal(t, phicore.Int16, a.DType())
	assert.Equal(t, []int{2, 3}, a.Shape())
	assert.Equal(t, 6, a.Len())
	assert.Equal(t, 2, a.Rank())
	assert.Equal(t, []int16{1, 2, 3, 4, 5, 6}, phicore.Values[int16](a))
	assert.Nil(t, phicore.Values[float64](a))
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, a.Float64s())
	assert.Equal(t, 2, a.DType().Size())

	assert.Equal(t, []int{3}, phicore.NewArray([]float32{1, 2, 3}).Shape())
	assert.Panics(t, func() { phicore.NewArray([]float64{1, 2, 3}, 2, 2) })
}

func TestArrayOf(t *testing.T) {
	a, err := phicore.ArrayOf([]uint32{7, 8}, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, phicore.Uint32, a.DType())

	for _, data := range []any{[]string{"a"}, []complex128{1}, []int{1}, 3.0} {
		_, err := phicore.ArrayOf(data)
		assert.ErrorIs(t, err, phicore.ErrUnsupportedDType, "%T", data)
	}
	_, err = phicore.ArrayOf([]float64{1, 2, 3}, 2)
	assert.ErrorIs(t, err, phicore.ErrSchemaViolation)
}
