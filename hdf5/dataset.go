package hdf5

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/phicore/internal/dtype"
	"github.com/robert-malhotra/phicore/internal/filter"
	"github.com/robert-malhotra/phicore/internal/layout"
	"github.com/robert-malhotra/phicore/internal/message"
)

// Dataset represents an HDF5 dataset.
type Dataset struct {
	node
	storage layout.Layout // opened on first read
}

func (d *Dataset) dataspace() *message.Dataspace {
	if s := d.header.Dataspace(); s != nil {
		return s
	}
	return message.NewScalarDataspace()
}

// Shape returns the dimensions of the dataset, nil for a scalar.
func (d *Dataset) Shape() []uint64 {
	s := d.dataspace()
	if s.Kind != message.SpaceSimple {
		return nil
	}
	return append([]uint64(nil), s.Dims...)
}

// Rank returns the number of dimensions.
func (d *Dataset) Rank() int {
	return d.dataspace().Rank()
}

// NumElements returns the total number of elements.
func (d *Dataset) NumElements() uint64 {
	return d.dataspace().NumElements()
}

// IsScalar returns true if the dataset is a scalar (single value).
func (d *Dataset) IsScalar() bool {
	return d.dataspace().Kind == message.SpaceScalar
}

// Dtype describes the element type, for example "float64" or "string[8]".
func (d *Dataset) Dtype() string {
	if dt := d.header.Datatype(); dt != nil {
		return dt.String()
	}
	return "unknown"
}

// DtypeSize returns the size of each element in bytes.
func (d *Dataset) DtypeSize() int {
	if dt := d.header.Datatype(); dt != nil {
		return int(dt.Size)
	}
	return 0
}

// GoType returns the Go type that corresponds to this dataset's datatype.
func (d *Dataset) GoType() (reflect.Type, error) {
	t, err := dtype.GoType(d.header.Datatype())
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", d.path, ErrUnsupported, err)
	}
	return t, nil
}

// IsNumeric reports whether the elements are integers or floats.
func (d *Dataset) IsNumeric() bool {
	return dtype.IsNumeric(d.header.Datatype())
}

// Layout returns the storage class: "compact", "contiguous" or "chunked".
func (d *Dataset) Layout() string {
	if lm := d.header.Layout(); lm != nil {
		return lm.Class.String()
	}
	return "unknown"
}

// Chunks returns the chunk dimensions of a chunked dataset, nil otherwise.
func (d *Dataset) Chunks() []uint64 {
	lm := d.header.Layout()
	if lm == nil || lm.Class != message.LayoutChunked {
		return nil
	}
	return append([]uint64(nil), lm.ChunkDims...)
}

// Filters returns the names of the filters applied to each chunk, in
// pipeline order.
func (d *Dataset) Filters() []string {
	fp := d.header.Pipeline()
	if fp == nil {
		return nil
	}
	names := make([]string, len(fp.Filters))
	for i, fi := range fp.Filters {
		names[i] = filter.Name(fi.ID)
	}
	return names
}

func (d *Dataset) layout() (layout.Layout, error) {
	if err := d.file.check(); err != nil {
		return nil, err
	}
	if d.storage != nil {
		return d.storage, nil
	}
	dt := d.header.Datatype()
	if dt == nil {
		return nil, fmt.Errorf("%s: dataset has no datatype", d.path)
	}
	shape := layout.Shape{Dims: d.dataspace().Dims, ElemSize: uint64(dt.Size)}
	l, err := layout.New(d.file.reader, d.header.Layout(), shape, d.header.Pipeline())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.path, err)
	}
	d.storage = l
	return l, nil
}

// ReadRaw reads all data from the dataset as raw bytes.
func (d *Dataset) ReadRaw() ([]byte, error) {
	l, err := d.layout()
	if err != nil {
		return nil, err
	}
	if d.dataspace().Kind == message.SpaceNull {
		return nil, nil
	}
	return l.Read()
}

// Read reads all data into dest, a pointer to a slice, a scalar or an
// interface. A pointer to an interface receives a slice of the dataset's
// own element type.
func (d *Dataset) Read(dest any) error {
	raw, err := d.ReadRaw()
	if err != nil {
		return fmt.Errorf("reading %s: %w", d.path, err)
	}
	return d.convert(raw, int(d.NumElements()), dest)
}

// ReadSlice reads the hyperslab of extent count starting at start into
// dest.
func (d *Dataset) ReadSlice(start, count []uint64, dest any) error {
	l, err := d.layout()
	if err != nil {
		return err
	}
	raw, err := l.ReadSlice(start, count)
	if err != nil {
		return fmt.Errorf("reading %s: %w", d.path, err)
	}
	n := 1
	for _, c := range count {
		n *= int(c)
	}
	return d.convert(raw, n, dest)
}

func (d *Dataset) convert(raw []byte, n int, dest any) error {
	if err := dtype.Convert(d.header.Datatype(), raw, n, dest, d.file.reader.Config(), d.file.heaps); err != nil {
		return fmt.Errorf("%s: %w", d.path, err)
	}
	return nil
}
