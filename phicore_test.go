package phicore_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/robert-malhotra/phicore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	created  = time.Date(2024, 3, 5, 14, 30, 15, 0, time.UTC)
	reopened = time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
)

func clock(t time.Time) phicore.Option {
	return phicore.WithClock(func() time.Time { return t })
}

// create opens a new container in a temporary directory.
func create(t *testing.T, opts ...phicore.Option) (*phicore.File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "beam.h5")
	f, err := phicore.Open(path, phicore.ModeCreate, append([]phicore.Option{clock(created)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f, path
}

// reopen closes f and opens path again in mode.
func reopen(t *testing.T, f *phicore.File, path string, mode phicore.Mode, opts ...phicore.Option) *phicore.File {
	t.Helper()
	require.NoError(t, f.Close())
	g, err := phicore.Open(path, mode, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func linspace(start, step float64, n int) *phicore.Array {
	v := make([]float64, n)
	for i := range v {
		v[i] = start + step*float64(i)
	}
	return phicore.NewArray(v)
}

// sxyw is a small beam with two spatial axes and an angular frequency axis.
func sxyw() *phicore.View {
	const nx, ny, nw = 4, 3, 5
	data := make([]float64, nx*ny*nw)
	for i := range data {
		data[i] = float64(i) * 0.25
	}
	return &phicore.View{
		Name: "Sxyw",
		Dims: []phicore.Axis{phicore.AxisX, phicore.AxisY, phicore.AxisW},
		Data: phicore.NewArray(data, nx, ny, nw),
		Coords: map[phicore.Axis]*phicore.Array{
			phicore.AxisX: linspace(-1.5, 1, nx),
			phicore.AxisY: linspace(-1, 1, ny),
			phicore.AxisW: linspace(2.2, 0.05, nw),
		},
	}
}

// withDefaults fills the units and attrs Read reports for a view written
// without overrides.
func withDefaults(v *phicore.View) *phicore.View {
	out := *v
	out.ScaleUnits = make(map[phicore.Axis]string)
	for _, a := range v.Dims {
		out.ScaleUnits[a] = v.Unit(a)
	}
	if out.Attrs == nil {
		out.Attrs = map[string]string{}
	}
	return &out
}

var arrayCmp = cmp.AllowUnexported(phicore.Array{})
