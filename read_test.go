package phicore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/phicore"
	"github.com/robert-malhotra/phicore/hdf5"
)

func TestReadIndex(t *testing.T) {
	f, path := create(t)
	v := sxyw()
	require.NoError(t, f.Write(v, phicore.WithCompression("deflate", 4), phicore.WithChunks(2, 2, 2)))
	f = reopen(t, f, path, phicore.ModeRead)

	got, err := f.Read("Sxyw", phicore.WithIndex(phicore.Range{Start: 1, Stop: 3}, phicore.Range{Start: 2, Stop: 3}))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 5}, got.Data.Shape())

	full := phicore.Values[float64](v.Data)
	var want []float64
	for x := 1; x < 3; x++ {
		for w := 0; w < 5; w++ {
			want = append(want, full[(x*3+2)*5+w])
		}
	}
	assert.Equal(t, want, phicore.Values[float64](got.Data))
	assert.Equal(t, []float64{-0.5, 0.5}, got.Coord(phicore.AxisX))
	assert.Equal(t, []float64{1}, got.Coord(phicore.AxisY))
	assert.Equal(t, v.Coord(phicore.AxisW), got.Coord(phicore.AxisW))
}

func TestReadIndexOutOfRange(t *testing.T) {
	f, _ := create(t)
	require.NoError(t, f.Write(sxyw()))
	for _, idx := range [][]phicore.Range{
		{{Start: 0, Stop: 5}},
		{{Start: 3, Stop: 2}},
		{{Start: -1, Stop: 2}},
		{{0, 1}, {0, 1}, {0, 1}, {0, 1}},
	} {
		_, err := f.Read("Sxyw", phicore.WithIndex(idx...))
		assert.ErrorIs(t, err, phicore.ErrSchemaViolation, "%v", idx)
	}
}

func TestReadMissing(t *testing.T) {
	f, _ := create(t)
	_, err := f.Read("nothing")
	require.ErrorIs(t, err, phicore.ErrMissingNode)
	assert.ErrorIs(t, err, hdf5.ErrNotFound)

	var perr *phicore.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "/data/nothing", perr.Path)
}

func TestReadMalformed(t *testing.T) {
	f, _ := create(t)
	require.NoError(t, f.Write(sxyw()))
	data, err := f.HDF5().OpenGroup("/data")
	require.NoError(t, err)
	scales, err := f.HDF5().OpenGroup("/scales")
	require.NoError(t, err)

	plain := []float64{1, 2, 3, 4}
	_, err = data.CreateDataset("noscales", plain, hdf5.WithShape(2, 2))
	require.NoError(t, err)
	_, err = data.CreateDataset("short", plain, hdf5.WithShape(2, 2), hdf5.WithAttribute("scales", []string{"x"}))
	require.NoError(t, err)
	_, err = data.CreateDataset("unknown", plain, hdf5.WithShape(2, 2), hdf5.WithAttribute("scales", []string{"x", "z"}))
	require.NoError(t, err)
	_, err = data.CreateDataset("orphan", plain, hdf5.WithShape(2, 2), hdf5.WithAttribute("scales", []string{"x", "w"}))
	require.NoError(t, err)
	_, err = data.CreateDataset("unitless", plain, hdf5.WithShape(2, 2), hdf5.WithAttribute("scales", []string{"y", "t"}))
	require.NoError(t, err)
	_, err = scales.CreateDataset("unitless_y", []float64{0, 1})
	require.NoError(t, err)
	_, err = scales.CreateDataset("unitless_t", []float64{0, 1}, hdf5.WithAttribute("unit", "fs"))
	require.NoError(t, err)

	for _, name := range []string{"noscales", "short", "unknown", "orphan", "unitless"} {
		_, err := f.Read(name)
		assert.ErrorIs(t, err, phicore.ErrSchemaViolation, name)
	}

	_, err = f.Read("/scales")
	assert.ErrorIs(t, err, phicore.ErrSchemaViolation)
}

func TestReadPyTablesAttrs(t *testing.T) {
	f, _ := create(t)
	v := sxyw()
	v.Attrs = map[string]string{"TITLE": "", "VERSION": "2.4", "FILTERS": "1", "source_2D": "camera"}
	require.NoError(t, f.Write(v))

	got, err := f.Read("Sxyw")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"source_2D": "camera"}, got.Attrs)
}

func TestReadBatches(t *testing.T) {
	f, _ := create(t)
	v := sxyw()
	require.NoError(t, f.Write(v))

	// 3*5 float64 per row: 120 bytes, so 150 bytes of memory hold one row.
	const mib = 150.0 / (1 << 20)
	var ranges []phicore.Range
	var values []float64
	err := f.ReadBatches("Sxyw", mib, func(r phicore.Range, b *phicore.View) error {
		ranges = append(ranges, r)
		assert.Equal(t, []int{r.Len(), 3, 5}, b.Data.Shape())
		assert.Len(t, b.Coord(phicore.AxisX), r.Len())
		values = append(values, phicore.Values[float64](b.Data)...)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []phicore.Range{{0, 1}, {1, 2}, {2, 3}, {3, 4}}, ranges)
	assert.Equal(t, phicore.Values[float64](v.Data), values)

	ranges = nil
	require.NoError(t, f.ReadBatches("Sxyw", 1, func(r phicore.Range, _ *phicore.View) error {
		ranges = append(ranges, r)
		return nil
	}))
	assert.Equal(t, []phicore.Range{{0, 4}}, ranges)
}
