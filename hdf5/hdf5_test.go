package hdf5

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func newFile(t *testing.T) (*File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.h5")
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f, path
}

func reopen(t *testing.T, f *File, path string) *File {
	t.Helper()
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	f2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { f2.Close() })
	return f2
}

func TestCreateOpen(t *testing.T) {
	f, path := newFile(t)
	if !f.IsWritable() {
		t.Error("created file should be writable")
	}
	f2 := reopen(t, f, path)
	if f2.Version() != 2 {
		t.Errorf("superblock version %d, want 2", f2.Version())
	}
	if f2.IsWritable() {
		t.Error("file opened with Open should be read-only")
	}
	members, err := f2.Root().Members()
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 0 {
		t.Errorf("new file has members %v", members)
	}
}

func TestOpenNotHDF5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, ErrNotHDF5) {
		t.Errorf("Open error = %v, want ErrNotHDF5", err)
	}
}

func TestGroups(t *testing.T) {
	f, path := newFile(t)
	data, err := f.Root().CreateGroup("data")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if data.Name() != "data" || data.Path() != "/data" {
		t.Errorf("got name %q path %q", data.Name(), data.Path())
	}
	if _, err := data.CreateGroup("nested"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Root().CreateGroup("scales"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Root().CreateGroup("data"); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate group error = %v, want ErrExists", err)
	}
	if _, err := f.Root().CreateGroup("a/b"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("bad name error = %v, want ErrInvalidPath", err)
	}

	f2 := reopen(t, f, path)
	members, err := f2.Root().Members()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(members, []string{"data", "scales"}) {
		t.Errorf("members = %v", members)
	}
	g, err := f2.OpenGroup("/data/nested")
	if err != nil {
		t.Fatalf("OpenGroup failed: %v", err)
	}
	if g.Path() != "/data/nested" {
		t.Errorf("path = %q", g.Path())
	}
	if !f2.Root().Has("scales") || f2.Root().Has("diag") {
		t.Error("Has reports wrong membership")
	}
	if _, err := f2.OpenGroup("/diag"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing group error = %v, want ErrNotFound", err)
	}
	if _, err := f2.OpenDataset("/data"); !errors.Is(err, ErrNotDataset) {
		t.Errorf("group as dataset error = %v, want ErrNotDataset", err)
	}
}

func TestDatasetRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		opts []DatasetOption
	}{
		{"contiguous", nil},
		{"chunked", []DatasetOption{WithChunks(2, 2)}},
		{"deflate", []DatasetOption{WithCompression("deflate", 6)}},
		{"deflate shuffle fletcher32", []DatasetOption{WithCompression("gzip", 0), WithShuffle(), WithFletcher32(), WithChunks(1, 3)}},
		{"lz4", []DatasetOption{WithCompression("lz4", 0), WithChunks(3, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, path := newFile(t)
			values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
			opts := append([]DatasetOption{WithShape(3, 4)}, tt.opts...)
			if _, err := f.Root().CreateDataset("x", values, opts...); err != nil {
				t.Fatalf("CreateDataset failed: %v", err)
			}

			f2 := reopen(t, f, path)
			ds, err := f2.OpenDataset("x")
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(ds.Shape(), []uint64{3, 4}) {
				t.Errorf("shape = %v", ds.Shape())
			}
			if ds.Dtype() != "float64" || !ds.IsNumeric() {
				t.Errorf("dtype = %s", ds.Dtype())
			}
			var got []float64
			if err := ds.Read(&got); err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if !reflect.DeepEqual(got, values) {
				t.Errorf("got %v", got)
			}

			var sub []float32
			if err := ds.ReadSlice([]uint64{1, 1}, []uint64{2, 2}, &sub); err != nil {
				t.Fatalf("ReadSlice failed: %v", err)
			}
			if !reflect.DeepEqual(sub, []float32{6, 7, 10, 11}) {
				t.Errorf("slice = %v", sub)
			}
		})
	}
}

func TestDatasetStorageInfo(t *testing.T) {
	f, _ := newFile(t)
	ds, err := f.Root().CreateDataset("y", make([]int16, 100),
		WithShape(10, 10), WithCompression("deflate", 0), WithShuffle())
	if err != nil {
		t.Fatal(err)
	}
	if ds.Layout() != "chunked" {
		t.Errorf("layout = %s", ds.Layout())
	}
	if !reflect.DeepEqual(ds.Chunks(), []uint64{10, 10}) {
		t.Errorf("chunks = %v", ds.Chunks())
	}
	if !reflect.DeepEqual(ds.Filters(), []string{"shuffle", "deflate"}) {
		t.Errorf("filters = %v", ds.Filters())
	}
	typ, err := ds.GoType()
	if err != nil || typ.Kind() != reflect.Int16 {
		t.Errorf("GoType = %v, %v", typ, err)
	}
}

func TestDatasetShapeMismatch(t *testing.T) {
	f, _ := newFile(t)
	if _, err := f.Root().CreateDataset("z", []int32{1, 2, 3}, WithShape(2, 2)); err == nil {
		t.Error("expected shape mismatch error")
	}
	if _, err := f.Root().CreateDataset("z", map[string]int{}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("map data error = %v, want ErrUnsupported", err)
	}
}

func TestAttributes(t *testing.T) {
	f, path := newFile(t)
	ds, err := f.Root().CreateDataset("v", []uint8{1, 2}, WithAttribute("name", "v"))
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.SetAttr("scales", []string{"x", "lamb"}); err != nil {
		t.Fatal(err)
	}
	if err := f.Root().SetAttr("rev_fileformat", int64(3)); err != nil {
		t.Fatal(err)
	}
	if err := f.Root().SetAttr("gain", 1.5); err != nil {
		t.Fatal(err)
	}
	if err := f.Root().SetAttr("gain", 2.5); err != nil {
		t.Fatal(err)
	}

	f2 := reopen(t, f, path)
	root := f2.Root()
	if !reflect.DeepEqual(root.Attrs(), []string{"rev_fileformat", "gain"}) {
		t.Errorf("root attrs = %v", root.Attrs())
	}
	rev, err := root.Attr("rev_fileformat").Int64()
	if err != nil || rev != 3 {
		t.Errorf("rev_fileformat = %d, %v", rev, err)
	}
	gain, err := root.Attr("gain").Float64()
	if err != nil || gain != 2.5 {
		t.Errorf("gain = %v, %v", gain, err)
	}
	if _, err := root.Attr("gain").String(); err == nil {
		t.Error("float read as string")
	}

	a, err := f2.Attr("/v@scales")
	if err != nil {
		t.Fatal(err)
	}
	scales, err := a.Strings()
	if err != nil || !reflect.DeepEqual(scales, []string{"x", "lamb"}) {
		t.Errorf("scales = %v, %v", scales, err)
	}
	if _, err := a.String(); err == nil {
		t.Error("two strings read as one")
	}
	name, err := f2.Attr("/v@name")
	if err != nil {
		t.Fatal(err)
	}
	if v, err := name.Value(); err != nil || v != "v" {
		t.Errorf("Value = %#v, %v", v, err)
	}
	if _, err := f2.Attr("/v@missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing attribute error = %v", err)
	}
}

func TestHeaderRelocation(t *testing.T) {
	f, path := newFile(t)
	data, err := f.Root().CreateGroup("data")
	if err != nil {
		t.Fatal(err)
	}
	long := strings.Repeat("comment ", 40)
	for i := 0; i < 30; i++ {
		if err := data.SetAttr(fmt.Sprintf("a%02d", i), long); err != nil {
			t.Fatalf("SetAttr %d: %v", i, err)
		}
		if err := f.Root().SetAttr(fmt.Sprintf("r%02d", i), long); err != nil {
			t.Fatalf("root SetAttr %d: %v", i, err)
		}
	}
	if _, err := data.CreateDataset("x", []int32{7}); err != nil {
		t.Fatal(err)
	}

	f2 := reopen(t, f, path)
	if n := len(f2.Root().Attrs()); n != 30 {
		t.Errorf("root has %d attributes", n)
	}
	g, err := f2.OpenGroup("data")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(g.Attrs()); n != 30 {
		t.Errorf("data has %d attributes", n)
	}
	var x []int32
	ds, err := g.OpenDataset("x")
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.Read(&x); err != nil || !reflect.DeepEqual(x, []int32{7}) {
		t.Errorf("x = %v, %v", x, err)
	}
	if f.AllocStats().Freed == 0 {
		t.Error("relocated headers were not freed")
	}
}

func TestReadOnlyAndClosed(t *testing.T) {
	f, path := newFile(t)
	f2 := reopen(t, f, path)
	if err := f2.Root().SetAttr("x", 1); !errors.Is(err, ErrReadOnly) {
		t.Errorf("SetAttr error = %v, want ErrReadOnly", err)
	}
	if _, err := f2.Root().CreateGroup("g"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("CreateGroup error = %v, want ErrReadOnly", err)
	}
	if err := f2.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f2.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if _, err := f2.Root().Members(); !errors.Is(err, ErrClosed) {
		t.Errorf("Members after Close = %v, want ErrClosed", err)
	}
}

func TestOpenReadWrite(t *testing.T) {
	f, path := newFile(t)
	if _, err := f.Root().CreateDataset("first", []int64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	rw, err := OpenReadWrite(path)
	if err != nil {
		t.Fatalf("OpenReadWrite failed: %v", err)
	}
	if _, err := rw.Root().CreateDataset("second", []string{"a", "bc"}); err != nil {
		t.Fatal(err)
	}
	if err := rw.Close(); err != nil {
		t.Fatal(err)
	}

	f2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f2.Close()
	var first []int64
	ds, err := f2.OpenDataset("/first")
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.Read(&first); err != nil || !reflect.DeepEqual(first, []int64{1, 2, 3}) {
		t.Errorf("first = %v, %v", first, err)
	}
	var second []string
	ds, err = f2.OpenDataset("/second")
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.Read(&second); err != nil || !reflect.DeepEqual(second, []string{"a", "bc"}) {
		t.Errorf("second = %v, %v", second, err)
	}
}

func TestUnlink(t *testing.T) {
	f, path := newFile(t)
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	before, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	rw, err := OpenReadWrite(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rw.Root().CreateDataset("big", make([]float64, 1<<16)); err != nil {
		t.Fatal(err)
	}
	if err := rw.Root().Unlink("big"); err != nil {
		t.Fatalf("Unlink failed: %v", err)
	}
	if rw.Root().Has("big") {
		t.Error("unlinked member still present")
	}
	if err := rw.Root().Unlink("big"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Unlink = %v, want ErrNotFound", err)
	}
	if _, err := rw.Root().CreateDataset("big", []float64{1}); err != nil {
		t.Errorf("recreate after Unlink: %v", err)
	}
	if err := rw.Root().Unlink("big"); err != nil {
		t.Fatal(err)
	}
	if err := rw.Close(); err != nil {
		t.Fatal(err)
	}

	after, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if after.Size() > before.Size() {
		t.Errorf("file grew from %d to %d bytes", before.Size(), after.Size())
	}
	f2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f2.Close()
	if n, _ := f2.Root().NumObjects(); n != 0 {
		t.Errorf("root has %d members", n)
	}
}

func TestWalk(t *testing.T) {
	f, _ := newFile(t)
	for _, p := range []string{"scales", "data", "diag"} {
		if _, err := f.Root().CreateGroup(p); err != nil {
			t.Fatal(err)
		}
	}
	data, _ := f.OpenGroup("/data")
	if _, err := data.CreateDataset("S", []float32{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := data.SetAttr("name", "S"); err != nil {
		t.Fatal(err)
	}

	var visited []string
	err := Walk(f.Root(), func(path string, obj any, err error) error {
		if err != nil {
			return err
		}
		if _, ok := obj.(*Dataset); ok {
			path += " (dataset)"
		}
		visited = append(visited, path)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/", "/data", "/data/S (dataset)", "/diag", "/scales"}
	if !reflect.DeepEqual(visited, want) {
		t.Errorf("visited %v, want %v", visited, want)
	}

	var attrs []string
	err = f.WalkAttrs(func(info AttrInfo) error {
		attrs = append(attrs, fmt.Sprintf("%s=%v", info.Path, info.Value))
		return ErrStopWalk
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(attrs, []string{"/data@name=S"}) {
		t.Errorf("attrs = %v", attrs)
	}
}

func TestScalarAndEmpty(t *testing.T) {
	f, path := newFile(t)
	if _, err := f.Root().CreateDataset("scalar", 2.5); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Root().CreateDataset("empty", []int32{}, WithCompression("deflate", 1)); err != nil {
		t.Fatal(err)
	}
	f2 := reopen(t, f, path)

	ds, err := f2.OpenDataset("scalar")
	if err != nil {
		t.Fatal(err)
	}
	var v float64
	if err := ds.Read(&v); err != nil || v != 2.5 || !ds.IsScalar() {
		t.Errorf("scalar = %v, %v", v, err)
	}

	ds, err = f2.OpenDataset("empty")
	if err != nil {
		t.Fatal(err)
	}
	var e []int32
	if err := ds.Read(&e); err != nil || len(e) != 0 {
		t.Errorf("empty = %v, %v", e, err)
	}
}
